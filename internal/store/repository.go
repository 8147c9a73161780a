package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Debug().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Store initialized")

	return &sqliteRepository{
		db:     db,
		logger: log,
	}, nil
}

func (r *sqliteRepository) SaveReference(ctx context.Context, name string, p profile.Profile) error {
	errFactory := errors.New()

	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, upsertReferenceSQL,
		name,
		p.DeviceClass.String(),
		string(p.GraphicsBackend),
		nullable(p.GPUMemoryMB),
		boolToInt(p.GPUMultithreaded),
		nullable(p.GPUShaderLevel),
		nullable(p.MaxTextureSize),
		nullable(p.SystemMemoryMB),
		nullable(p.ProcessorCount),
		nullable(p.ProcessorFrequencyMHz),
		boolToInt(p.SupportsComputeShaders),
		boolToInt(p.SupportsImageEffects),
		boolToInt(p.SupportsShadows),
		p.SLIScalar,
		time.Now().Unix(),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	r.logger.Debug().Str("name", name).Msg("Reference profile saved")

	return nil
}

func (r *sqliteRepository) LoadReference(ctx context.Context, name string) (profile.Profile, error) {
	errFactory := errors.New()

	name, err := normalizeName(name)
	if err != nil {
		return profile.Profile{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		deviceClass, backend                    string
		gpuMemory, shaderLevel, textureSize     sql.NullInt64
		systemMemory, processorCount, frequency sql.NullInt64
		multithreaded, compute, effects, shadow bool
		sli                                     float64
	)

	err = r.db.QueryRowContext(ctx, selectReferenceSQL, name).Scan(
		&deviceClass, &backend,
		&gpuMemory, &multithreaded, &shaderLevel, &textureSize,
		&systemMemory, &processorCount, &frequency,
		&compute, &effects, &shadow,
		&sli,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, errFactory.WithData(ErrReferenceNotFound, name)
	}
	if err != nil {
		return profile.Profile{}, errFactory.Wrap(ErrStorageAccess, err)
	}

	class, err := profile.ParseDeviceClass(deviceClass)
	if err != nil {
		return profile.Profile{}, errFactory.Wrap(ErrCorruptReference, err)
	}

	return profile.FromSnapshot(profile.Snapshot{
		DeviceClass:            class,
		GraphicsBackend:        profile.GraphicsBackend(backend),
		GPUMemoryMB:            measure(gpuMemory),
		GPUMultithreaded:       multithreaded,
		GPUShaderLevel:         measure(shaderLevel),
		MaxTextureSize:         measure(textureSize),
		SystemMemoryMB:         measure(systemMemory),
		ProcessorCount:         measure(processorCount),
		ProcessorFrequencyMHz:  measure(frequency),
		SupportsComputeShaders: compute,
		SupportsImageEffects:   effects,
		SupportsShadows:        shadow,
		SLIScalar:              sli,
	}), nil
}

// DeleteReference removes a stored reference; deleting a missing name is not an error
func (r *sqliteRepository) DeleteReference(ctx context.Context, name string) error {
	errFactory := errors.New()

	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, deleteReferenceSQL, name)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	if n, err := res.RowsAffected(); err == nil {
		r.logger.Debug().Str("name", name).Int64("rows", n).Msg("Reference profile deleted")
	}

	return nil
}

func (r *sqliteRepository) RecordScore(ctx context.Context, snapshot *ScoreSnapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSnapshot)
	}

	warnings := snapshot.Report.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return errFactory.Wrap(ErrInvalidSnapshot, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, insertScoreSQL,
		snapshot.RecordedAt.UnixNano(),
		snapshot.Reference,
		snapshot.Report.OverallScore,
		snapshot.Report.GPUScore,
		snapshot.Report.CPUScore,
		string(encoded),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

// RecentScores returns up to limit snapshots, newest first
func (r *sqliteRepository) RecentScores(ctx context.Context, limit int) ([]ScoreSnapshot, error) {
	errFactory := errors.New()

	if limit <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, limit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, selectRecentScoresSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var snapshots []ScoreSnapshot
	for rows.Next() {
		var (
			recordedAt int64
			s          ScoreSnapshot
			warnings   string
		)
		if err := rows.Scan(&recordedAt, &s.Reference,
			&s.Report.OverallScore, &s.Report.GPUScore, &s.Report.CPUScore, &warnings); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		if err := json.Unmarshal([]byte(warnings), &s.Report.Warnings); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		s.RecordedAt = time.Unix(0, recordedAt)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return snapshots, nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New().New(ErrInvalidName)
	}
	return name, nil
}

func nullable(m profile.Measure) sql.NullInt64 {
	v, ok := m.Value()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func measure(n sql.NullInt64) profile.Measure {
	if !n.Valid {
		return profile.Unknown()
	}
	return profile.Known(int(n.Int64))
}
