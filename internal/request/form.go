// internal/request/form.go
//
// Form parsing shared by the sources and the body decoder.
//
// Context
// -------
// Sources buffer the body once, so every parser here works on a byte slice
// instead of a stream.  Multipart boundaries are validated against RFC 2046
// before a reader is built, which keeps malformed Content-Type values from
// producing confusing parse errors deeper down.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

// DefaultMaxMemory bounds the in-memory part of a multipart form (10 MB).
// Larger file parts spill to temporary files, which Release removes.
const DefaultMaxMemory = 10 << 20

var errBoundary = errors.New("multipart: missing or invalid boundary")

const (
	mediaForm      = "application/x-www-form-urlencoded"
	mediaMultipart = "multipart/form-data"
)

// multipartBoundary returns the validated boundary parameter of ct.
func multipartBoundary(ct string) (string, error) {
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBoundary, err)
	}
	b := params["boundary"]
	if !validBoundary(b) {
		return "", errBoundary
	}
	return b, nil
}

// validBoundary applies the RFC 2046 bchars rule: 1 to 70 characters, no
// trailing space.
func validBoundary(b string) bool {
	if len(b) == 0 || len(b) > 70 || strings.HasSuffix(b, " ") {
		return false
	}
	for _, r := range b {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("'()+_,-./:=? ", r):
		default:
			return false
		}
	}
	return true
}

// parseBodyForm decodes url-encoded or multipart bodies into values and
// files.  Other media types yield empty results.  A non-nil form owns any
// spilled temporary files; the caller must RemoveAll it.
func parseBodyForm(raw []byte, ct string, maxMemory int64) (url.Values, *multipart.Form, error) {
	media, _, _ := mime.ParseMediaType(ct)
	switch strings.ToLower(media) {
	case mediaForm:
		v, err := url.ParseQuery(string(raw))
		return v, nil, err

	case mediaMultipart:
		b, err := multipartBoundary(ct)
		if err != nil {
			return nil, nil, err
		}
		if maxMemory <= 0 {
			maxMemory = DefaultMaxMemory
		}
		form, err := multipart.NewReader(bytes.NewReader(raw), b).ReadForm(maxMemory)
		if err != nil {
			return nil, nil, err
		}
		return url.Values(form.Value), form, nil
	}
	return nil, nil, nil
}

// multipartValues collects the non-file parts of a multipart body.  File
// parts are skipped so the body decoder never touches the disk.
func multipartValues(raw []byte, boundary string) (url.Values, error) {
	mr := multipart.NewReader(bytes.NewReader(raw), boundary)
	out := url.Values{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		name := p.FormName()
		if name == "" || p.FileName() != "" {
			p.Close()
			continue
		}
		val, err := io.ReadAll(p)
		p.Close()
		if err != nil {
			return nil, err
		}
		out.Add(name, string(val))
	}
}

// combineParams copies query and lays body on top.  A body parameter
// replaces a query parameter of the same name.
func combineParams(query, body url.Values) url.Values {
	out := make(url.Values, len(query)+len(body))
	for k, vs := range query {
		out[k] = append([]string(nil), vs...)
	}
	for k, vs := range body {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
