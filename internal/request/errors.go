// internal/request/errors.go
//
// Error values surfaced by the request package.
//
// Context
// -------
// Construction can fail in exactly one way: the raw input cannot be read at
// all.  That condition is reported as ErrInputRead, wrapped with the
// underlying cause so callers may use errors.Is.  Structured body decoding
// failures are NOT fatal.  They are recorded on the Context as a
// *DecodeError and exposed through Context.BodyError().
//
// Notes
// -----
//   - An empty body is readable and therefore never an ErrInputRead.
//   - Oxford commas, two spaces after periods.
package request

import (
	"errors"
	"fmt"
)

// ErrInputRead reports that the raw request body could not be read.
var ErrInputRead = errors.New("request: cannot read input")

// Body kinds reported by DecodeError.Kind and the decode-error metric.
const (
	KindJSON  = "json"
	KindXML   = "xml"
	KindMedia = "media"
)

// DecodeError records a failed structured decode of the request body.
type DecodeError struct {
	Kind string // KindJSON, KindXML, or KindMedia
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("request: decode %s body: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
