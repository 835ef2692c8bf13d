// internal/request/negotiate.go
//
// Media-type helpers backed by github.com/elnormous/contenttype.
//
// The library works on *http.Request, so both helpers hand it a throwaway
// request carrying only the relevant header.
package request

import (
	"net/http"

	"github.com/elnormous/contenttype"
)

// ContentMediaType parses CONTENT_TYPE into a MediaType with parameters.
func (c *Context) ContentMediaType() (contenttype.MediaType, error) {
	r := &http.Request{Header: http.Header{}}
	if ct := c.headers[KeyContentType]; ct != "" {
		r.Header.Set("Content-Type", ct)
	}
	return contenttype.GetMediaType(r)
}

// NegotiateMediaType picks the entry of available that best matches the
// ACCEPT header.
func (c *Context) NegotiateMediaType(available []contenttype.MediaType) (contenttype.MediaType, error) {
	r := &http.Request{Header: http.Header{}}
	if a := c.headers[KeyAccept]; a != "" {
		r.Header.Set("Accept", a)
	}
	mt, _, err := contenttype.GetAcceptableMediaType(r, available)
	return mt, err
}
