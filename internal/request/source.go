// internal/request/source.go
//
// Ambient request state, made explicit.
//
// Context
// -------
// A Context never reaches for process-wide globals.  Everything it needs
// (server variables, the raw body, combined request parameters, cookies,
// uploaded files, and the active session) comes from a Source handed to
// New.  Three implementations ship with the package:
//
//   - StaticSource, a plain struct for tests and embedding.
//   - FromHTTP, which derives CGI-style variables from an *http.Request.
//   - FromEnviron, which reads a CGI process environment and stdin.
//
// Notes
// -----
//   - Input is called exactly once per Context.  Implementations that wrap a
//     stream must buffer it if their other methods need the body too.
//   - Oxford commas, two spaces after periods.
package request

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Files maps a form field name to its uploaded file headers.  The request
// package treats the metadata as opaque.
type Files map[string][]*multipart.FileHeader

// Source is the ambient collaborator a Context is populated from.
type Source interface {
	// ServerParams returns CGI-style server variables such as
	// REQUEST_METHOD, QUERY_STRING, REQUEST_URI, and HTTP_USER_AGENT.
	ServerParams() map[string]string

	// Input returns the raw request body.  A nil slice with a nil error is
	// an empty body.
	Input() ([]byte, error)

	// RequestParams returns query and body parameters combined.
	RequestParams() url.Values

	// Cookies returns the request cookies by name.
	Cookies() map[string]string

	// UploadedFiles returns multipart file metadata, if any.
	UploadedFiles() Files

	// Session returns the active session data.  ok is false when no
	// session mechanism is active for this request.
	Session() (data map[string]any, ok bool)
}

// Release removes temporary files src created while parsing a multipart
// body.  Call it once the request and every Context built from it are done;
// uploaded file headers cannot be opened afterwards.  Sources that hold no
// such state are ignored.
func Release(src Source) {
	t, ok := src.(interface{ removeTemp() error })
	if !ok {
		return
	}
	if err := t.removeTemp(); err != nil {
		zap.S().Warnw("request temp files not removed", "err", err)
	}
}

// SessionLoader resolves the active session for an HTTP request.  It is
// consulted by FromHTTP and FromEnviron.  A loader that finds no session
// returns ok == false.
type SessionLoader interface {
	LoadSession(ctx context.Context, r *http.Request) (data map[string]any, ok bool)
}

/*──────────────────────────── static source ───────────────────────────────*/

// StaticSource is a Source backed by plain values.
type StaticSource struct {
	Server        map[string]string
	Body          []byte
	BodyErr       error // returned by Input when non-nil
	Params        url.Values
	CookieValues  map[string]string
	Files         Files
	SessionData   map[string]any
	SessionActive bool
}

func (s *StaticSource) ServerParams() map[string]string { return s.Server }

func (s *StaticSource) Input() ([]byte, error) {
	if s.BodyErr != nil {
		return nil, s.BodyErr
	}
	return s.Body, nil
}

func (s *StaticSource) RequestParams() url.Values { return s.Params }

func (s *StaticSource) Cookies() map[string]string { return s.CookieValues }

func (s *StaticSource) UploadedFiles() Files { return s.Files }

func (s *StaticSource) Session() (map[string]any, bool) {
	return s.SessionData, s.SessionActive
}
