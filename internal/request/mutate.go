// internal/request/mutate.go
//
// Copy-on-write derivations.
//
// Each With* method returns a new *Context that differs from the receiver
// in exactly one container.  The replaced container is copied from the
// argument, and the untouched ones are shared read-only, which is safe
// because nothing in the package writes to a Context after Build returns.
package request

import (
	"maps"
	"net/url"
)

// clone returns a shallow copy of c.  Callers replace one container.
func (c *Context) clone() *Context {
	cp := *c
	return &cp
}

// WithCookieParams returns a copy with cookies replaced.  Fields named like
// one of the new cookies are dropped, so fields and cookies stay disjoint.
func (c *Context) WithCookieParams(cookies map[string]string) *Context {
	cp := c.clone()
	cp.cookies = cloneStrings(cookies)
	for name := range cp.cookies {
		if _, ok := c.fields[name]; ok {
			cp.fields = diffFieldMap(c.fields, cp.cookies)
			break
		}
	}
	return cp
}

// WithQueryParams returns a copy whose query string is the encoded form of
// query.  QueryParams reports it decoded, the same as after Build.
func (c *Context) WithQueryParams(query url.Values) *Context {
	cp := c.clone()
	cp.rawQ = query.Encode()
	cp.query = urlDecode(cp.rawQ)
	return cp
}

// WithUploadedFiles returns a copy with the uploaded file map replaced.
func (c *Context) WithUploadedFiles(files Files) *Context {
	cp := c.clone()
	cp.files = cloneFiles(files)
	return cp
}

// WithParsedBody returns a copy with body replaced.  The recorded decode
// error is cleared since it described the previous body.
func (c *Context) WithParsedBody(body any) *Context {
	cp := c.clone()
	cp.body = body
	cp.bodyErr = nil
	return cp
}

// WithAttribute returns a copy with fields[name] set to value.  A name
// that is also a cookie is left out of fields; the copy is returned
// unchanged.
func (c *Context) WithAttribute(name string, value any) *Context {
	cp := c.clone()
	if _, isCookie := c.cookies[name]; isCookie {
		return cp
	}
	cp.fields = maps.Clone(c.fields)
	if cp.fields == nil {
		cp.fields = map[string]any{}
	}
	cp.fields[name] = value
	return cp
}

// WithoutAttribute returns a copy without fields[name].  Removing an absent
// name is not an error.
func (c *Context) WithoutAttribute(name string) *Context {
	cp := c.clone()
	cp.fields = maps.Clone(c.fields)
	delete(cp.fields, name)
	return cp
}

// diffFieldMap copies fields without the names present in cookies.
func diffFieldMap(fields map[string]any, cookies map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, isCookie := cookies[k]; !isCookie {
			out[k] = v
		}
	}
	return out
}
