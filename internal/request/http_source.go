// internal/request/http_source.go
//
// Source adapter for *http.Request.
//
// Context
// -------
// FromHTTP maps a Go request onto the CGI-style variables a Context
// expects (the inverse of what net/http/cgi does).  Every header becomes an
// HTTP_* variable, the remote and host addresses are split into address and
// port, and the body is buffered once.  After buffering, r.Body is replaced
// with a reader over the same bytes so downstream handlers can still read
// it.
//
// Notes
// -----
//   - MaxBodyBytes == 0 means unlimited.
//   - Duplicate cookie names keep the first occurrence.
//   - Oxford commas, two spaces after periods.
package request

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPOptions tunes FromHTTP and FromEnviron.
type HTTPOptions struct {
	MaxBodyBytes int64         // 0 = unlimited
	MaxMemory    int64         // multipart in-memory bound; 0 = DefaultMaxMemory
	Sessions     SessionLoader // nil = no session mechanism
}

type httpSource struct {
	*buffered
	r    *http.Request
	opts HTTPOptions
}

// FromHTTP returns a Source reading from r.
func FromHTTP(r *http.Request, opts HTTPOptions) Source {
	s := &httpSource{r: r, opts: opts}
	s.buffered = &buffered{
		read:        s.readBody,
		contentType: r.Header.Get("Content-Type"),
		maxMemory:   opts.MaxMemory,
	}
	return s
}

func (s *httpSource) readBody() ([]byte, error) {
	if s.r.Body == nil || s.r.Body == http.NoBody {
		return nil, nil
	}
	body := s.r.Body
	if s.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(nil, body, s.opts.MaxBodyBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, limitErr(mbe.Limit)
		}
		return nil, err
	}
	s.r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

// ServerParams derives CGI variables from the request line, headers, and
// connection addresses.
func (s *httpSource) ServerParams() map[string]string {
	r := s.r
	m := map[string]string{
		"REQUEST_METHOD":  r.Method,
		"QUERY_STRING":    r.URL.RawQuery,
		"REQUEST_URI":     requestURI(r),
		"SERVER_PROTOCOL": r.Proto,
		"SCRIPT_NAME":     "",
		"PATH_INFO":       r.URL.Path,
	}

	host, port := splitHostPort(r.Host)
	if host != "" {
		m["SERVER_NAME"] = host
	}
	switch {
	case port != "":
		m["SERVER_PORT"] = port
	case r.TLS != nil:
		m["SERVER_PORT"] = "443"
	}
	if r.TLS != nil {
		m["HTTPS"] = "on"
	}

	if ra, rp := splitHostPort(r.RemoteAddr); ra != "" {
		m["REMOTE_ADDR"] = ra
		if rp != "" {
			m["REMOTE_PORT"] = rp
		}
	}

	if r.ContentLength > 0 {
		m["CONTENT_LENGTH"] = strconv.FormatInt(r.ContentLength, 10)
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		m["CONTENT_TYPE"] = ct
	}

	for k, vs := range r.Header {
		switch k {
		case "Content-Type", "Content-Length":
			continue
		}
		m["HTTP_"+cgiName(k)] = strings.Join(vs, ", ")
	}
	return m
}

func (s *httpSource) RequestParams() url.Values {
	post, _ := s.form()
	return combineParams(s.r.URL.Query(), post)
}

func (s *httpSource) Cookies() map[string]string {
	m := make(map[string]string)
	for _, ck := range s.r.Cookies() {
		if _, seen := m[ck.Name]; !seen {
			m[ck.Name] = ck.Value
		}
	}
	return m
}

func (s *httpSource) UploadedFiles() Files {
	_, files := s.form()
	return files
}

func (s *httpSource) Session() (map[string]any, bool) {
	if s.opts.Sessions == nil {
		return nil, false
	}
	return s.opts.Sessions.LoadSession(s.r.Context(), s.r)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func requestURI(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

// splitHostPort tolerates addresses without a port.
func splitHostPort(hp string) (host, port string) {
	if hp == "" {
		return "", ""
	}
	h, p, err := net.SplitHostPort(hp)
	if err != nil {
		return hp, ""
	}
	return h, p
}

// cgiName turns "X-Requested-With" into "X_REQUESTED_WITH".
func cgiName(header string) string {
	return strings.ToUpper(strings.ReplaceAll(header, "-", "_"))
}
