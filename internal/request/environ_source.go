// internal/request/environ_source.go
//
// Source adapter for a CGI process.
//
// Context
// -------
// A CGI program receives the request as environment variables plus the body
// on stdin.  FromEnviron wraps exactly that: environ is typically
// os.Environ() and stdin os.Stdin.  CONTENT_LENGTH bytes are read when the
// variable is set, and stdin is drained otherwise.  A short read is an input
// failure, not an empty body.
package request

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cgi"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type environSource struct {
	*buffered
	server map[string]string
	stdin  io.Reader
	opts   HTTPOptions
}

// FromEnviron returns a Source over a CGI environment ("KEY=value" pairs)
// and the request body stream.
func FromEnviron(environ []string, stdin io.Reader, opts HTTPOptions) Source {
	server := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			server[k] = v
		}
	}

	s := &environSource{server: server, stdin: stdin, opts: opts}
	s.buffered = &buffered{
		read:        s.readBody,
		contentType: server["CONTENT_TYPE"],
		maxMemory:   opts.MaxMemory,
	}
	return s
}

func (s *environSource) readBody() ([]byte, error) {
	if s.stdin == nil {
		return nil, nil
	}

	limit := s.opts.MaxBodyBytes
	if cl, ok := s.server["CONTENT_LENGTH"]; ok && cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid CONTENT_LENGTH %q", cl)
		}
		if limit > 0 && n > limit {
			return nil, limitErr(limit)
		}
		// CONTENT_LENGTH is untrusted; grow with the data actually read.
		raw, err := io.ReadAll(io.LimitReader(s.stdin, n))
		if err != nil {
			return nil, err
		}
		if int64(len(raw)) < n {
			return nil, fmt.Errorf("short body: got %d of %d bytes: %w", len(raw), n, io.ErrUnexpectedEOF)
		}
		return raw, nil
	}

	r := s.stdin
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(raw)) > limit {
		return nil, limitErr(limit)
	}
	return raw, nil
}

func (s *environSource) ServerParams() map[string]string { return s.server }

func (s *environSource) RequestParams() url.Values {
	query, _ := url.ParseQuery(s.server["QUERY_STRING"])
	post, _ := s.form()
	return combineParams(query, post)
}

// Cookies parses HTTP_COOKIE leniently: malformed pairs are skipped.
func (s *environSource) Cookies() map[string]string {
	m := make(map[string]string)
	line := s.server["HTTP_COOKIE"]
	if line == "" {
		return m
	}
	r := &http.Request{Header: http.Header{"Cookie": {line}}}
	for _, ck := range r.Cookies() {
		if _, seen := m[ck.Name]; !seen {
			m[ck.Name] = ck.Value
		}
	}
	return m
}

func (s *environSource) UploadedFiles() Files {
	_, files := s.form()
	return files
}

// Session rebuilds an *http.Request from the environment so the same
// SessionLoader serves both sources.
func (s *environSource) Session() (map[string]any, bool) {
	if s.opts.Sessions == nil {
		return nil, false
	}
	r, err := cgi.RequestFromMap(s.server)
	if err != nil {
		zap.S().Debugw("request cgi environment incomplete", "err", err)
		return nil, false
	}
	return s.opts.Sessions.LoadSession(r.Context(), r)
}
