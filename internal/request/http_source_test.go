package request

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	cookie string
	data   map[string]any
}

func (s stubSessions) LoadSession(_ context.Context, r *http.Request) (map[string]any, bool) {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return nil, false
	}
	if c.Value != "abc" {
		return nil, false
	}
	return s.data, true
}

func TestFromHTTP_FormPost(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/page/?a=1&b=2", strings.NewReader("b=3&c=4"))
	r.Host = "example.com:8080"
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
	r.Header.Set("User-Agent", "unit-test")
	r.AddCookie(&http.Cookie{Name: "sid", Value: "zzz"})

	rc, err := New(FromHTTP(r, HTTPOptions{}), nil)
	require.NoError(t, err)

	assert.Equal(t, "POST", rc.Method())
	assert.Equal(t, "/page/", rc.URI())
	assert.Equal(t, "a=1&b=2", rc.QueryParams())
	assert.True(t, rc.IsXHR())

	h := rc.ServerParams()
	assert.Equal(t, "example.com", h[KeyServerName])
	assert.Equal(t, "8080", h[KeyServerPort])
	assert.Equal(t, "192.0.2.1", h[KeyRemoteAddr])
	assert.Equal(t, "unit-test", h[KeyUserAgent])

	assert.Equal(t, map[string]any{"a": "1", "b": "3", "c": "4"}, rc.Attributes())
	assert.Equal(t, map[string]string{"sid": "zzz"}, rc.CookieParams())
	assert.Equal(t, "b=3&c=4", rc.ParsedBody())

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, "b=3&c=4", string(rest), "body is replayable downstream")
}

func TestFromHTTP_MultipartUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "hello"))
	fw, err := mw.CreateFormFile("doc", "a.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("abc"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	rc, err := New(FromHTTP(r, HTTPOptions{}), nil)
	require.NoError(t, err)

	assert.True(t, rc.IsMedia())
	assert.Equal(t, url.Values{"title": {"hello"}}, rc.ParsedBody())
	assert.Equal(t, "hello", rc.Attribute("title", nil))

	files := rc.UploadedFiles()
	require.Len(t, files["doc"], 1)
	assert.Equal(t, "a.txt", files["doc"][0].Filename)
	assert.Equal(t, int64(3), files["doc"][0].Size)
}

func TestFromHTTP_BodyLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))

	_, err := New(FromHTTP(r, HTTPOptions{MaxBodyBytes: 16}), nil)
	assert.ErrorIs(t, err, ErrInputRead)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestFromHTTP_TLSDefaultsPort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "https://secure.example/", nil)

	params := FromHTTP(r, HTTPOptions{}).ServerParams()
	assert.Equal(t, "secure.example", params["SERVER_NAME"])
	assert.Equal(t, "443", params["SERVER_PORT"])
	assert.Equal(t, "on", params["HTTPS"])
}

func TestFromHTTP_Session(t *testing.T) {
	loader := stubSessions{cookie: "sid", data: map[string]any{"user": "ann"}}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rc, err := New(FromHTTP(r, HTTPOptions{Sessions: loader}), nil)
	require.NoError(t, err)
	data, ok := rc.Session()
	assert.True(t, ok)
	assert.Equal(t, "ann", data["user"])

	rc, err = New(FromHTTP(httptest.NewRequest(http.MethodGet, "/", nil), HTTPOptions{}), nil)
	require.NoError(t, err)
	_, ok = rc.Session()
	assert.False(t, ok)
}

func TestCgiName(t *testing.T) {
	assert.Equal(t, "X_REQUESTED_WITH", cgiName("X-Requested-With"))
	assert.Equal(t, "ACCEPT", cgiName("Accept"))
}
