package exporter

import "codeberg.org/mutker/hwscore/internal/errors"

const (
	ErrInvalidListen  = errors.ErrorCode("exporter_invalid_listen")
	ErrRegisterFailed = errors.ErrorCode("exporter_register_failed")
	ErrServeFailed    = errors.ErrorCode("exporter_serve_failed")
	ErrShutdownFailed = errors.ErrShutdownFailed
)
