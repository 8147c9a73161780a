package errors

// ErrorCode identifies a class of failure; codes are stable and safe to log
type ErrorCode string

// Error is a coded error carrying optional message, cause, and context data.
// Context data is usually a small struct such as struct{Phase, Error string};
// Error() renders it as key=value pairs and Details() flattens it for logs.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	Details() map[string]any
	Unwrap() error
}

// Factory builds coded errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
