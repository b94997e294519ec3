package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit statuses reported by the funnel CLI.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitConfig   = 2
	ExitSource   = 3
	ExitData     = 4
	ExitEmpty    = 5
	ExitRender   = 6
)

// Error represents a typed pipeline error carrying the context needed to locate bad input.
type Error struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ExitCode int    `json:"-"`
	Dataset  string `json:"dataset,omitempty"`
	Column   string `json:"column,omitempty"`
	Value    string `json:"value,omitempty"`
	Row      int    `json:"row,omitempty"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if ctx := e.context(); ctx != "" {
		msg = fmt.Sprintf("%s (%s)", msg, ctx)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so errors.Is works against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) context() string {
	parts := make([]string, 0, 4)
	if e.Dataset != "" {
		parts = append(parts, "dataset="+e.Dataset)
	}
	if e.Column != "" {
		parts = append(parts, "column="+e.Column)
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row=%d", e.Row))
	}
	if e.Code == ErrParse.Code {
		parts = append(parts, fmt.Sprintf("value=%q", e.Value))
	}
	return strings.Join(parts, " ")
}

// New creates a new Error instance.
func New(code string, exitCode int, message string) *Error {
	return &Error{Code: code, ExitCode: exitCode, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, exitCode int, message string) *Error {
	return &Error{Code: code, ExitCode: exitCode, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrParse      = New("PARSE_ERROR", ExitData, "malformed field")
	ErrSchema     = New("SCHEMA_ERROR", ExitData, "missing column")
	ErrEmptyGroup = New("EMPTY_GROUP", ExitEmpty, "statistics requested over zero accounts")
	ErrSource     = New("SOURCE_ERROR", ExitSource, "row source failed")
	ErrRender     = New("RENDER_ERROR", ExitRender, "report rendering failed")
	ErrConfig     = New("CONFIG_ERROR", ExitConfig, "invalid configuration")
	ErrInternal   = New("INTERNAL_ERROR", ExitInternal, "internal error")
	ErrCacheMiss  = New("CACHE_MISS", ExitInternal, "cache miss")
)

// NewParseError reports a raw value that could not be coerced into its column type.
// Row is 1-based; zero omits it.
func NewParseError(dataset, column, value string, row int, err error) *Error {
	e := Clone(ErrParse, "")
	e.Dataset, e.Column, e.Value, e.Row, e.Err = dataset, column, value, row, err
	return e
}

// NewSchemaError reports a raw record without an expected column.
func NewSchemaError(dataset, column string, row int) *Error {
	e := Clone(ErrSchema, "")
	e.Dataset, e.Column, e.Row = dataset, column, row
	return e
}

// NewEmptyGroupError reports statistics requested for a group with no accounts.
func NewEmptyGroupError(group string) *Error {
	return Clone(ErrEmptyGroup, fmt.Sprintf("statistics requested over zero accounts in group %q", group))
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.ExitCode, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
