// internal/request/context.go
//
// Per-request value object.
//
/*
Context
--------
A *Context is built once per inbound request from a Source and never
changes afterwards.  It carries:

  - headers: CGI-style server variables (method, URIs, content type, …).
  - fields: request parameters minus any name that is also a cookie.
  - cookies, query string, uploaded files, and the optional session.
  - body: the decoded payload (see body.go).

Derivations (WithCookieParams, WithAttribute, …) live in mutate.go.  Each
returns a new *Context with one container replaced and copied, so holders
of the receiver never observe a change and no locking is needed.

Construction order
------------------
  1. defaults  →  2. server variables  →  3. input, body, params, cookies,
     files, session  →  4. caller overrides (last write wins).

Instrumentation
---------------
  • DEBUG span “request context built” with method, URI, content type.
  • ERROR span when the input cannot be read.
  • contexts_built_total{method} (unknown methods as "other") and
    input_read_errors_total counters.

Notes
-----
  • Every map returned by a getter is a copy.
  • Oxford commas, two spaces after periods.
*/
package request

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"

	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/metrics"
)

// Context is the immutable view of one inbound request.
type Context struct {
	headers map[string]string
	fields  map[string]any
	cookies map[string]string
	query   string // decoded, as QueryParams reports it
	rawQ    string // encoded, parsed by Query
	files   Files
	session map[string]any
	hasSess bool
	body    any
	bodyErr *DecodeError
}

// Options tunes Build.  The zero value matches New with no overrides.
type Options struct {
	// Overrides are merged into the headers last, so they win over both
	// the defaults and the ambient server variables.
	Overrides map[string]string

	// Defaults overlay the built-in default headers before the server
	// variables are applied.
	Defaults map[string]string

	// RawBody keeps the raw input string as the parsed body regardless of
	// content type.
	RawBody bool
}

// validMethods are the request methods HasValidMethod accepts.
var validMethods = []string{
	http.MethodHead,
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

/*──────────────────────────── construction ────────────────────────────────*/

// New builds a Context from src and applies overrides when non-empty.
func New(src Source, overrides map[string]string) (*Context, error) {
	return Build(src, Options{Overrides: overrides})
}

// Build is New with the full option set.
func Build(src Source, opts Options) (*Context, error) {
	server := src.ServerParams()
	h := DefaultHeaders()
	maps.Copy(h, opts.Defaults)
	populateHeaders(h, server)

	raw, err := src.Input()
	if err != nil {
		metrics.InputReadErrorsTotal.Inc()
		zap.S().Errorw("request input read failed", "method", h[KeyMethod], "err", err)
		return nil, fmt.Errorf("%w: %v", ErrInputRead, err)
	}

	c := &Context{
		headers: h,
		query:   h[KeyQueryString],
		rawQ:    server["QUERY_STRING"],
		cookies: cloneStrings(src.Cookies()),
		files:   cloneFiles(src.UploadedFiles()),
	}
	c.body, c.bodyErr = decodeBody(h[KeyContentType], raw, opts.RawBody)
	c.fields = diffFields(src.RequestParams(), c.cookies)

	if data, ok := src.Session(); ok {
		c.session = maps.Clone(data)
		if c.session == nil {
			c.session = map[string]any{}
		}
		c.hasSess = true
	}

	if len(opts.Overrides) > 0 {
		maps.Copy(c.headers, opts.Overrides)
	}

	metrics.ContextsBuiltTotal.WithLabelValues(methodLabel(c.Method())).Inc()
	zap.S().Debugw("request context built",
		"method", c.Method(),
		"uri", c.URI(),
		"content_type", h[KeyContentType],
		"session", c.hasSess,
	)
	return c, nil
}

// methodLabel keeps the metric label set bounded: methods outside
// validMethods count as "other".
func methodLabel(m string) string {
	if slices.Contains(validMethods, m) {
		return m
	}
	return "other"
}

// diffFields flattens params and drops every name present in cookies.
func diffFields(params url.Values, cookies map[string]string) map[string]any {
	out := make(map[string]any, len(params))
	for k, vs := range params {
		if _, isCookie := cookies[k]; isCookie || len(vs) == 0 {
			continue
		}
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = slices.Clone(vs)
	}
	return out
}

/*──────────────────────────── accessors ───────────────────────────────────*/

// URI returns the request path with the query string and "?" removed.
func (c *Context) URI() string { return c.headers[KeyRequestURI] }

// URIFull returns the URL-decoded request URI including the query string.
func (c *Context) URIFull() string { return c.headers[KeyRequestURIFull] }

// Method returns the request method.
func (c *Context) Method() string { return c.headers[KeyMethod] }

// HasValidMethod reports whether Method is HEAD, GET, POST, PUT, PATCH, or
// DELETE.
func (c *Context) HasValidMethod() bool {
	return slices.Contains(validMethods, c.Method())
}

// IsJSON is true iff CONTENT_TYPE equals "application/json".
func (c *Context) IsJSON() bool { return isJSONType(c.headers[KeyContentType]) }

// IsXML is true iff CONTENT_TYPE is "application/xml" or "text/xml".
func (c *Context) IsXML() bool { return isXMLType(c.headers[KeyContentType]) }

// IsXHR reports an X-Requested-With header of "XMLHttpRequest".
func (c *Context) IsXHR() bool {
	v, ok := c.headers[KeyRequestedWith]
	return ok && v == "XMLHttpRequest"
}

// IsMedia reports a multipart/form-data content type (case-insensitive).
func (c *Context) IsMedia() bool { return isMediaType(c.headers[KeyContentType]) }

// ServerParams returns a copy of the full headers mapping.
func (c *Context) ServerParams() map[string]string { return maps.Clone(c.headers) }

// Header returns one server variable.  ok is false for an absent (null)
// value.
func (c *Context) Header(name string) (string, bool) {
	v, ok := c.headers[name]
	return v, ok
}

// CookieParams returns a copy of the cookies.
func (c *Context) CookieParams() map[string]string { return cloneStrings(c.cookies) }

// QueryParams returns the URL-decoded query string as received.
func (c *Context) QueryParams() string { return c.query }

// Query parses the query string as received, before decoding, so escaped
// delimiters such as %26 stay inside their value.  Malformed pairs are
// skipped.
func (c *Context) Query() url.Values {
	v, _ := url.ParseQuery(c.rawQ)
	return v
}

// UploadedFiles returns a copy of the uploaded file map.
func (c *Context) UploadedFiles() Files { return cloneFiles(c.files) }

// ParsedBody returns the decoded body: any (JSON), *XMLNode, url.Values,
// string, or nil after a decode failure.
func (c *Context) ParsedBody() any { return c.body }

// BodyError returns the decode failure recorded at construction, if any.
func (c *Context) BodyError() error {
	if c.bodyErr == nil {
		return nil
	}
	return c.bodyErr
}

// Attributes returns a copy of the request fields.
func (c *Context) Attributes() map[string]any { return maps.Clone(c.fields) }

// Attribute returns the named field or def when absent.
func (c *Context) Attribute(name string, def any) any {
	if v, ok := c.fields[name]; ok {
		return v
	}
	return def
}

// Field looks up a request parameter.  It never fails; ok is false when
// the name is unknown.
func (c *Context) Field(name string) (any, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// Session returns a copy of the session data captured at construction.  ok
// is false when no session was active.
func (c *Context) Session() (map[string]any, bool) {
	if !c.hasSess {
		return nil, false
	}
	return maps.Clone(c.session), true
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}

func cloneFiles(f Files) Files {
	out := make(Files, len(f))
	for k, hs := range f {
		out[k] = slices.Clone(hs)
	}
	return out
}
