package ingest

import (
	"errors"
	"fmt"

	"rq-formatter/models"
)

var (
	// ErrFieldCount means a recognised line has the wrong number of fields.
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrNonFinite means a field parsed to NaN or an infinity.
	ErrNonFinite = errors.New("non-finite value")
	// ErrNotDecimal means a field is a hexadecimal float literal.
	ErrNotDecimal = errors.New("not a decimal number")
	// ErrForeignProtocol means the line belongs to a different log protocol
	// than the one selected.
	ErrForeignProtocol = errors.New("line uses a different log protocol")
)

// ParseError reports a malformed line together with its position and raw
// content so that the log file can be inspected.
type ParseError struct {
	Line int
	Raw  string
	Kind models.LineKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Kind == models.KindUnrecognized {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Raw, e.Err)
	}
	return fmt.Sprintf("line %d: malformed %s line %q: %v", e.Line, e.Kind, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
