// internal/request/body.go
//
// Body classification and decoding.
//
// Context
// -------
// The CONTENT_TYPE header picks one decoder:
//
//   - "application/json"                 → any (goccy/go-json)
//   - "application/xml" or "text/xml"     → *XMLNode
//   - contains "multipart/form-data"      → url.Values
//   - anything else                       → raw string
//
// Each branch keeps its decoded value.  Options.RawBody switches to the
// legacy behavior where the raw input string always wins.
//
// A failed decode never aborts construction.  The body becomes nil, the
// error is kept as a *DecodeError, a warning is logged, and the
// body_decode_errors_total counter is incremented.
package request

import (
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/metrics"
)

// decodeBody returns the parsed body for contentType and any decode error.
func decodeBody(contentType string, raw []byte, rawOnly bool) (any, *DecodeError) {
	if rawOnly {
		return string(raw), nil
	}

	switch {
	case isJSONType(contentType):
		if len(raw) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, decodeFailed(KindJSON, err)
		}
		return v, nil

	case isXMLType(contentType):
		if len(raw) == 0 {
			return nil, nil
		}
		n, err := decodeXML(raw)
		if err != nil {
			return nil, decodeFailed(KindXML, err)
		}
		return n, nil

	case isMediaType(contentType):
		v, err := decodeMedia(contentType, raw)
		if err != nil {
			return nil, decodeFailed(KindMedia, err)
		}
		return v, nil
	}

	return string(raw), nil
}

// decodeMedia reads multipart fields when a boundary is declared and falls
// back to url-encoded parsing otherwise.
func decodeMedia(contentType string, raw []byte) (url.Values, error) {
	if strings.Contains(strings.ToLower(contentType), "boundary=") {
		b, err := multipartBoundary(contentType)
		if err != nil {
			return nil, err
		}
		return multipartValues(raw, b)
	}
	return url.ParseQuery(string(raw))
}

func decodeFailed(kind string, err error) *DecodeError {
	metrics.BodyDecodeErrorsTotal.WithLabelValues(kind).Inc()
	zap.S().Warnw("request body decode failed", "kind", kind, "err", err)
	return &DecodeError{Kind: kind, Err: err}
}

/*──────────────────────────── classification ──────────────────────────────*/

func isJSONType(ct string) bool { return ct == "application/json" }

func isXMLType(ct string) bool { return ct == "application/xml" || ct == "text/xml" }

func isMediaType(ct string) bool {
	return strings.Contains(strings.ToLower(ct), mediaMultipart)
}
