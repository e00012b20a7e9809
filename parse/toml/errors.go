package toml

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure produced by this package wraps exactly one
// of these, so callers can classify with errors.Is.
var (
	ErrSyntax               = errors.New("invalid syntax")
	ErrUnterminatedBracket  = errors.New("unterminated bracket")
	ErrUnterminatedString   = errors.New("unterminated string")
	ErrMultilineHeader      = errors.New("table header cannot span multiple lines")
	ErrInvalidEscape        = errors.New("invalid escape")
	ErrInvalidTableName     = errors.New("invalid table name")
	ErrEmptyTableKey        = errors.New("empty table key")
	ErrKeyRedefinition      = errors.New("key overwrite")
	ErrEmptyValue           = errors.New("empty value")
	ErrUnknownValueType     = errors.New("unknown value type")
	ErrMixedArrayTypes      = errors.New("mixed types in array")
	ErrMalformedArray       = errors.New("malformed array")
	ErrMalformedInlineTable = errors.New("malformed inline table")
	ErrFileAccess           = errors.New("file access")
)

// ParseError tags a failure with the line it was detected on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml:%d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func errAt(line int, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Line: line, Err: err}
}
