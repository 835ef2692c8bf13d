package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cgiEnv(extra ...string) []string {
	return append([]string{
		"REQUEST_METHOD=POST",
		"SERVER_PROTOCOL=HTTP/1.1",
		"SERVER_SOFTWARE=Apache/2.4",
		"SERVER_NAME=cgi.example",
		"REQUEST_URI=/cgi/run?x=1",
		"QUERY_STRING=x=1",
		"HTTP_COOKIE=sid=abc; theme=dark",
		"HTTP_ACCEPT_LANGUAGE=fr-CA,fr;q=0.9",
		"MALFORMED",
	}, extra...)
}

func TestFromEnviron_JSONBody(t *testing.T) {
	body := `{"k":1}`
	env := cgiEnv("CONTENT_TYPE=application/json", "CONTENT_LENGTH=7")

	rc, err := New(FromEnviron(env, strings.NewReader(body+"trailing"), HTTPOptions{}), nil)
	require.NoError(t, err)

	assert.Equal(t, "POST", rc.Method())
	assert.Equal(t, "/cgi/run", rc.URI())
	assert.Equal(t, map[string]any{"k": float64(1)}, rc.ParsedBody())
	assert.Equal(t, map[string]string{"sid": "abc", "theme": "dark"}, rc.CookieParams())
	assert.Equal(t, "1", rc.Attribute("x", nil))

	h := rc.ServerParams()
	assert.Equal(t, "Apache/2.4", h[KeyServerSoftware])
	assert.Equal(t, "cgi.example", h[KeyServerName])
	assert.Equal(t, "fr-CA,fr;q=0.9", h[KeyAcceptLanguage])
}

func TestFromEnviron_FormBodyOverridesQuery(t *testing.T) {
	body := "x=2&y=3"
	env := cgiEnv("CONTENT_TYPE=application/x-www-form-urlencoded")

	rc, err := New(FromEnviron(env, strings.NewReader(body), HTTPOptions{}), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "2", "y": "3"}, rc.Attributes())
}

func TestFromEnviron_ShortBodyIsInputFailure(t *testing.T) {
	env := cgiEnv("CONTENT_LENGTH=10")
	_, err := New(FromEnviron(env, strings.NewReader("abc"), HTTPOptions{}), nil)
	assert.ErrorIs(t, err, ErrInputRead)
}

func TestFromEnviron_HugeContentLength(t *testing.T) {
	for _, cl := range []string{"9223372036854775807", "1000000000000"} {
		env := cgiEnv("CONTENT_LENGTH=" + cl)
		_, err := New(FromEnviron(env, strings.NewReader("abc"), HTTPOptions{}), nil)
		assert.ErrorIs(t, err, ErrInputRead, cl)
	}
}

func TestFromEnviron_InvalidContentLength(t *testing.T) {
	env := cgiEnv("CONTENT_LENGTH=ten")
	_, err := New(FromEnviron(env, strings.NewReader("abc"), HTTPOptions{}), nil)
	assert.ErrorIs(t, err, ErrInputRead)
}

func TestFromEnviron_BodyLimit(t *testing.T) {
	opts := HTTPOptions{MaxBodyBytes: 4}

	_, err := New(FromEnviron(cgiEnv(), strings.NewReader("abcdef"), opts), nil)
	assert.ErrorIs(t, err, ErrInputRead)

	_, err = New(FromEnviron(cgiEnv("CONTENT_LENGTH=6"), strings.NewReader("abcdef"), opts), nil)
	assert.ErrorIs(t, err, ErrInputRead)

	rc, err := New(FromEnviron(cgiEnv(), strings.NewReader("abcd"), opts), nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", rc.ParsedBody())
}

func TestFromEnviron_NilStdinIsEmptyBody(t *testing.T) {
	rc, err := New(FromEnviron(cgiEnv(), nil, HTTPOptions{}), nil)
	require.NoError(t, err)
	assert.Equal(t, "", rc.ParsedBody())
}

func TestFromEnviron_Session(t *testing.T) {
	loader := stubSessions{cookie: "sid", data: map[string]any{"user": "ann"}}

	rc, err := New(FromEnviron(cgiEnv(), strings.NewReader(""), HTTPOptions{Sessions: loader}), nil)
	require.NoError(t, err)
	data, ok := rc.Session()
	assert.True(t, ok)
	assert.Equal(t, "ann", data["user"])

	// Without SERVER_PROTOCOL the environment is not a usable request.
	env := []string{"REQUEST_METHOD=GET", "HTTP_COOKIE=sid=abc"}
	rc, err = New(FromEnviron(env, nil, HTTPOptions{Sessions: loader}), nil)
	require.NoError(t, err)
	_, ok = rc.Session()
	assert.False(t, ok)
}
