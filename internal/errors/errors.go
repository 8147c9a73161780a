package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// appError is immutable once built; the With* methods return copies
type appError struct {
	code    ErrorCode
	message string
	err     error
	data    any
}

// field is one rendered key of a context payload
type field struct {
	key   string
	value any
}

// Error renders "message: key=value ...: cause", omitting empty parts
func (e *appError) Error() string {
	parts := []string{e.text()}

	if detail := e.detail(); detail != "" {
		parts = append(parts, detail)
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *appError) text() string {
	if e.message != "" {
		return e.message
	}

	return GetErrorMessage(e.code)
}

func (e *appError) detail() string {
	if e.data == nil {
		return ""
	}

	fields, ok := payloadFields(e.data)
	if !ok {
		return fmt.Sprint(e.data)
	}

	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, f.key+"="+renderValue(f.value))
	}

	return strings.Join(pairs, " ")
}

func (e *appError) Code() ErrorCode {
	return e.code
}

func (e *appError) WithMessage(msg string) Error {
	c := *e
	c.message = msg

	return &c
}

func (e *appError) WithData(data any) Error {
	c := *e
	c.data = data

	return &c
}

// Details flattens the payload for structured logging. Struct payloads
// yield one key per non-empty field; anything else is keyed "value".
func (e *appError) Details() map[string]any {
	if e.data == nil {
		return nil
	}

	fields, ok := payloadFields(e.data)
	if !ok {
		return map[string]any{"value": e.data}
	}

	details := make(map[string]any, len(fields))
	for _, f := range fields {
		details[f.key] = f.value
	}

	return details
}

func (e *appError) Unwrap() error {
	return e.err
}

// payloadFields lists the exported, non-empty fields of a struct payload in
// declaration order. ok is false for non-struct payloads.
func payloadFields(data any) ([]field, bool) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	t := v.Type()
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), v.Field(i)
		if !sf.IsExported() || (fv.Kind() == reflect.String && fv.Len() == 0) {
			continue
		}
		fields = append(fields, field{key: snakeCase(sf.Name), value: fv.Interface()})
	}

	return fields, true
}

func renderValue(v any) string {
	s := fmt.Sprint(v)
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}

	return s
}

// snakeCase turns DBPath into db_path and Error into error
func snakeCase(name string) string {
	runes := []rune(name)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

type defaultFactory struct{}

func (*defaultFactory) New(code ErrorCode) Error {
	return &appError{code: code}
}

func (*defaultFactory) Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, err: err}
}

func (*defaultFactory) WithMessage(code ErrorCode, msg string) Error {
	return &appError{code: code, message: msg}
}

func (*defaultFactory) WithData(code ErrorCode, data any) Error {
	return &appError{code: code, data: data}
}

// New creates a Factory instance for error creation
func New() Factory {
	return &defaultFactory{}
}

// HasCode reports whether any error in err's chain carries code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var coded Error
		if !As(err, &coded) {
			return false
		}
		if coded.Code() == code {
			return true
		}
		err = coded.Unwrap()
	}

	return false
}
