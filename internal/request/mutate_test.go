package request

import (
	"mime/multipart"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseContext(t *testing.T) *Context {
	t.Helper()
	rc, err := New(&StaticSource{
		Server: map[string]string{
			"QUERY_STRING":   "a=1",
			"CONTENT_TYPE":   "application/json",
			"REQUEST_METHOD": "POST",
		},
		Body:         []byte(`{"broken":`),
		Params:       url.Values{"a": {"1"}},
		CookieValues: map[string]string{"sid": "abc"},
	}, nil)
	require.NoError(t, err)
	return rc
}

func TestWithAttribute_LeavesOriginalUntouched(t *testing.T) {
	rc := baseContext(t)

	next := rc.WithAttribute("user", 42)
	assert.NotSame(t, rc, next)
	assert.Equal(t, 42, next.Attribute("user", nil))
	assert.Nil(t, rc.Attribute("user", nil))
	assert.Equal(t, "1", next.Attribute("a", nil))

	again := next.WithAttribute("user", 43)
	assert.Equal(t, 42, next.Attribute("user", nil))
	assert.Equal(t, 43, again.Attribute("user", nil))
}

func TestWithoutAttribute(t *testing.T) {
	rc := baseContext(t)

	next := rc.WithoutAttribute("a")
	_, ok := next.Field("a")
	assert.False(t, ok)
	_, ok = rc.Field("a")
	assert.True(t, ok)

	same := rc.WithoutAttribute("never-set")
	assert.NotSame(t, rc, same)
	assert.Equal(t, rc.Attributes(), same.Attributes())
}

func TestWithCookieParams(t *testing.T) {
	rc := baseContext(t)
	in := map[string]string{"theme": "dark"}

	next := rc.WithCookieParams(in)
	in["theme"] = "light"

	assert.Equal(t, map[string]string{"theme": "dark"}, next.CookieParams())
	assert.Equal(t, map[string]string{"sid": "abc"}, rc.CookieParams())
}

func TestWithCookieParams_DropsShadowedFields(t *testing.T) {
	rc := baseContext(t)

	next := rc.WithCookieParams(map[string]string{"a": "cookie"})
	_, ok := next.Field("a")
	assert.False(t, ok)
	_, ok = rc.Field("a")
	assert.True(t, ok)

	same := next.WithAttribute("a", "again")
	_, ok = same.Field("a")
	assert.False(t, ok)

	_, ok = rc.WithAttribute("sid", "x").Field("sid")
	assert.False(t, ok)
}

func TestWithQueryParams(t *testing.T) {
	rc := baseContext(t)

	next := rc.WithQueryParams(url.Values{"b": {"2"}, "a": {"x y"}})
	assert.Equal(t, "a=x y&b=2", next.QueryParams())
	assert.Equal(t, "x y", next.Query().Get("a"))
	assert.Equal(t, "a=1", rc.QueryParams())
}

func TestWithQueryParams_KeepsEscapedDelimiters(t *testing.T) {
	rc := baseContext(t)

	next := rc.WithQueryParams(url.Values{"q": {"b&c"}})
	assert.Equal(t, "q=b&c", next.QueryParams())
	assert.Equal(t, url.Values{"q": {"b&c"}}, next.Query())
}

func TestWithUploadedFiles(t *testing.T) {
	rc := baseContext(t)
	files := Files{"doc": {{Filename: "a.txt", Size: 3}}}

	next := rc.WithUploadedFiles(files)
	files["doc"] = append(files["doc"], &multipart.FileHeader{Filename: "b.txt"})

	require.Len(t, next.UploadedFiles()["doc"], 1)
	assert.Equal(t, "a.txt", next.UploadedFiles()["doc"][0].Filename)
	assert.Empty(t, rc.UploadedFiles())
}

func TestWithParsedBody_ClearsDecodeError(t *testing.T) {
	rc := baseContext(t)
	require.Error(t, rc.BodyError())

	next := rc.WithParsedBody(map[string]any{"fixed": true})
	assert.NoError(t, next.BodyError())
	assert.Equal(t, map[string]any{"fixed": true}, next.ParsedBody())

	assert.Error(t, rc.BodyError())
	assert.Nil(t, rc.ParsedBody())
}

func TestDerivations_PreserveOtherState(t *testing.T) {
	rc := baseContext(t)
	next := rc.WithAttribute("k", "v").WithCookieParams(nil)

	assert.Equal(t, rc.ServerParams(), next.ServerParams())
	assert.Equal(t, "POST", next.Method())
	assert.Equal(t, rc.QueryParams(), next.QueryParams())
	assert.Empty(t, next.CookieParams())
}
