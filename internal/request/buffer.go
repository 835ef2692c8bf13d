// internal/request/buffer.go
//
// Read-once body buffer shared by FromHTTP and FromEnviron.
//
// The underlying stream is consumed on the first Input call.  The parsed
// form (url-encoded or multipart) is derived lazily from the same bytes, so
// RequestParams and UploadedFiles work whether or not Input ran first.
// Multipart file parts above maxMemory live in temporary files until
// removeTemp runs.
package request

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

type buffered struct {
	read        func() ([]byte, error)
	contentType string
	maxMemory   int64

	inOnce sync.Once
	raw    []byte
	err    error

	formOnce sync.Once
	post     url.Values
	files    Files
	mform    *multipart.Form
}

// Input reads the stream once and replays the result afterwards.
func (b *buffered) Input() ([]byte, error) {
	b.inOnce.Do(func() {
		b.raw, b.err = b.read()
	})
	return b.raw, b.err
}

// form parses the buffered body.  Parse failures leave both results empty.
func (b *buffered) form() (url.Values, Files) {
	b.formOnce.Do(func() {
		raw, err := b.Input()
		if err != nil {
			return
		}
		post, mform, err := parseBodyForm(raw, b.contentType, b.maxMemory)
		if err != nil {
			zap.S().Debugw("request form parse failed",
				"content_type", b.contentType, "err", err)
			return
		}
		b.post, b.mform = post, mform
		if mform != nil {
			b.files = Files(mform.File)
		}
	})
	return b.post, b.files
}

// removeTemp deletes the temporary files of a parsed multipart form.
func (b *buffered) removeTemp() error {
	if b.mform == nil {
		return nil
	}
	return b.mform.RemoveAll()
}

// limitErr is returned when the body exceeds HTTPOptions.MaxBodyBytes.
func limitErr(limit int64) error {
	return fmt.Errorf("request body exceeds %d bytes", limit)
}
