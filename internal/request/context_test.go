package request

import (
	"errors"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/routing/internal/metrics"
)

func build(t *testing.T, src *StaticSource, opts Options) *Context {
	t.Helper()
	rc, err := Build(src, opts)
	require.NoError(t, err)
	return rc
}

func TestNew_DefaultsWithEmptySource(t *testing.T) {
	rc, err := New(&StaticSource{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "GET", rc.Method())
	assert.True(t, rc.HasValidMethod())
	assert.Equal(t, "", rc.URI())
	assert.Equal(t, "", rc.URIFull())
	assert.Equal(t, "", rc.QueryParams())

	h := rc.ServerParams()
	assert.Equal(t, "localhost", h[KeyServerName])
	assert.Equal(t, "80", h[KeyServerPort])
	assert.Equal(t, "127.0.0.1", h[KeyRemoteAddr])
	assert.Equal(t, "en-US,en;q=0.8", h[KeyAcceptLanguage])
	_, ok := rc.Header(KeyServerSoftware)
	assert.False(t, ok, "absent server software stays absent")

	_, ok = rc.Session()
	assert.False(t, ok)
	assert.Empty(t, rc.Attributes())
	assert.Empty(t, rc.CookieParams())
	assert.Empty(t, rc.UploadedFiles())
	assert.Equal(t, "", rc.ParsedBody())
	assert.NoError(t, rc.BodyError())
}

func TestNew_URIDerivation(t *testing.T) {
	rc := build(t, &StaticSource{Server: map[string]string{
		"REQUEST_URI":  "/page/?a=b&c=d",
		"QUERY_STRING": "a=b&c=d",
	}}, Options{})

	assert.Equal(t, "/page/", rc.URI())
	assert.Equal(t, "/page/?a=b&c=d", rc.URIFull())
	assert.Equal(t, "a=b&c=d", rc.QueryParams())
	assert.Equal(t, "b", rc.Query().Get("a"))
}

func TestNew_URIDecoding(t *testing.T) {
	rc := build(t, &StaticSource{Server: map[string]string{
		"REQUEST_URI":  "/caf%C3%A9/?q=a+b",
		"QUERY_STRING": "q=a+b",
	}}, Options{})

	assert.Equal(t, "/café/?q=a b", rc.URIFull())
	assert.Equal(t, "q=a b", rc.QueryParams())
	assert.Equal(t, "/café/", rc.URI())
}

func TestQuery_EscapedDelimiter(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"QUERY_STRING": "a=b%26c"},
		Params: url.Values{"a": {"b&c"}},
	}, Options{})

	assert.Equal(t, "a=b&c", rc.QueryParams())
	assert.Equal(t, url.Values{"a": {"b&c"}}, rc.Query())
	v, _ := rc.Field("a")
	assert.Equal(t, "b&c", v)
}

func TestNew_ServerVariablesAndPort(t *testing.T) {
	rc := build(t, &StaticSource{Server: map[string]string{
		"REQUEST_METHOD":  "POST",
		"SERVER_NAME":     "example.org",
		"SERVER_PORT":     "",
		"SERVER_SOFTWARE": "Apache/2.4",
		"HTTP_USER_AGENT": "curl/8.0",
		"REMOTE_ADDR":     "198.51.100.7",
		"CONTENT_LENGTH":  "0",
	}}, Options{})

	assert.Equal(t, "POST", rc.Method())
	h := rc.ServerParams()
	assert.Equal(t, "example.org", h[KeyServerName])
	assert.Equal(t, "80", h[KeyServerPort])
	assert.Equal(t, "Apache/2.4", h[KeyServerSoftware])
	assert.Equal(t, "curl/8.0", h[KeyUserAgent])
	assert.Equal(t, "198.51.100.7", h[KeyRemoteAddr])
	assert.Equal(t, "0", h[KeyContentLength])
}

func TestBuild_OverridesWinLast(t *testing.T) {
	src := &StaticSource{Server: map[string]string{"REQUEST_METHOD": "POST"}}

	rc, err := New(src, map[string]string{KeyMethod: "PUT", "X-Custom": "1"})
	require.NoError(t, err)
	assert.Equal(t, "PUT", rc.Method())
	v, ok := rc.Header("X-Custom")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	rc, err = New(src, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "POST", rc.Method())
}

func TestBuild_DefaultsOverlay(t *testing.T) {
	rc := build(t, &StaticSource{}, Options{Defaults: map[string]string{KeyServerName: "cfg.example"}})
	v, _ := rc.Header(KeyServerName)
	assert.Equal(t, "cfg.example", v)
}

func TestHasValidMethod(t *testing.T) {
	for method, want := range map[string]bool{
		"HEAD": true, "GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
		"OPTIONS": false, "TRACE": false, "get": false,
	} {
		rc := build(t, &StaticSource{Server: map[string]string{"REQUEST_METHOD": method}}, Options{})
		assert.Equal(t, want, rc.HasValidMethod(), method)
	}
}

func TestFields_ExcludeCookieNames(t *testing.T) {
	rc := build(t, &StaticSource{
		Params: url.Values{
			"a":     {"1"},
			"multi": {"x", "y"},
			"sid":   {"abc"},
		},
		CookieValues: map[string]string{"sid": "abc"},
	}, Options{})

	assert.Equal(t, map[string]any{"a": "1", "multi": []string{"x", "y"}}, rc.Attributes())
	v, ok := rc.Field("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = rc.Field("sid")
	assert.False(t, ok)
	assert.Equal(t, "fallback", rc.Attribute("missing", "fallback"))
	assert.Equal(t, map[string]string{"sid": "abc"}, rc.CookieParams())
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		ct               string
		json, xml, media bool
	}{
		{"application/json", true, false, false},
		{"application/json; charset=utf-8", false, false, false},
		{"application/xml", false, true, false},
		{"text/xml", false, true, false},
		{"multipart/form-data; boundary=x", false, false, true},
		{"Multipart/Form-Data", false, false, true},
		{"text/plain", false, false, false},
	}
	for _, tc := range cases {
		rc := build(t, &StaticSource{Server: map[string]string{"CONTENT_TYPE": tc.ct}}, Options{})
		assert.Equal(t, tc.json, rc.IsJSON(), tc.ct)
		assert.Equal(t, tc.xml, rc.IsXML(), tc.ct)
		assert.Equal(t, tc.media, rc.IsMedia(), tc.ct)
	}

	rc := build(t, &StaticSource{Server: map[string]string{"HTTP_X_REQUESTED_WITH": "XMLHttpRequest"}}, Options{})
	assert.True(t, rc.IsXHR())
	rc = build(t, &StaticSource{Server: map[string]string{"HTTP_X_REQUESTED_WITH": "fetch"}}, Options{})
	assert.False(t, rc.IsXHR())
	rc = build(t, &StaticSource{}, Options{})
	assert.False(t, rc.IsXHR())
}

func TestBody_JSONDecoded(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"REQUEST_METHOD": "POST", "CONTENT_TYPE": "application/json"},
		Body:   []byte(`{"x":1,"tags":["a","b"]}`),
	}, Options{})

	assert.True(t, rc.IsJSON())
	assert.Equal(t, map[string]any{"x": float64(1), "tags": []any{"a", "b"}}, rc.ParsedBody())
	assert.NoError(t, rc.BodyError())
}

func TestBody_RawBodyCompatibility(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "application/json"},
		Body:   []byte(`{"x":1}`),
	}, Options{RawBody: true})

	assert.Equal(t, `{"x":1}`, rc.ParsedBody())
}

func TestBody_MalformedJSONIsRecorded(t *testing.T) {
	counter := metrics.BodyDecodeErrorsTotal.WithLabelValues(KindJSON)
	before := testutil.ToFloat64(counter)

	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "application/json"},
		Body:   []byte(`{"x":`),
	}, Options{})

	assert.Nil(t, rc.ParsedBody())
	var de *DecodeError
	require.ErrorAs(t, rc.BodyError(), &de)
	assert.Equal(t, KindJSON, de.Kind)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestBody_EmptyJSONIsNil(t *testing.T) {
	rc := build(t, &StaticSource{Server: map[string]string{"CONTENT_TYPE": "application/json"}}, Options{})
	assert.Nil(t, rc.ParsedBody())
	assert.NoError(t, rc.BodyError())
}

func TestBody_XMLTree(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "text/xml"},
		Body:   []byte(`<?xml version="1.0"?><order id="7"><item>tea</item><item>milk</item></order>`),
	}, Options{})

	root, ok := rc.ParsedBody().(*XMLNode)
	require.True(t, ok)
	assert.Equal(t, "order", root.Name.Local)
	id, _ := root.Attr("id")
	assert.Equal(t, "7", id)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "tea", root.Child("item").Text)
	assert.Nil(t, root.Child("missing"))
}

func TestBody_XMLRejectsDTD(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "application/xml"},
		Body: []byte(`<?xml version="1.0"?>
<!DOCTYPE x [<!ENTITY e SYSTEM "file:///etc/passwd">]>
<x>&e;</x>`),
	}, Options{})

	assert.Nil(t, rc.ParsedBody())
	assert.ErrorIs(t, rc.BodyError(), errXMLDirective)
}

func TestBody_XMLMalformed(t *testing.T) {
	for _, raw := range []string{`<a><b></a>`, `<a/><b/>`, `text<a/>`, `<a>`} {
		rc := build(t, &StaticSource{
			Server: map[string]string{"CONTENT_TYPE": "application/xml"},
			Body:   []byte(raw),
		}, Options{})
		assert.Nil(t, rc.ParsedBody(), raw)
		var de *DecodeError
		assert.ErrorAs(t, rc.BodyError(), &de, raw)
	}
}

func TestBody_MediaWithoutBoundaryIsURLEncoded(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "multipart/form-data"},
		Body:   []byte("a=1&b=2&b=3"),
	}, Options{})

	assert.Equal(t, url.Values{"a": {"1"}, "b": {"2", "3"}}, rc.ParsedBody())
}

func TestBody_OtherTypesKeepRawString(t *testing.T) {
	rc := build(t, &StaticSource{
		Server: map[string]string{"CONTENT_TYPE": "text/plain"},
		Body:   []byte("hello"),
	}, Options{})
	assert.Equal(t, "hello", rc.ParsedBody())
}

func TestBuild_InputReadFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.InputReadErrorsTotal)

	rc, err := New(&StaticSource{BodyErr: errors.New("stream reset")}, nil)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, ErrInputRead)
	assert.Contains(t, err.Error(), "stream reset")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.InputReadErrorsTotal))
}

func TestBuild_CountsContextsByMethod(t *testing.T) {
	counter := metrics.ContextsBuiltTotal.WithLabelValues("DELETE")
	before := testutil.ToFloat64(counter)
	build(t, &StaticSource{Server: map[string]string{"REQUEST_METHOD": "DELETE"}}, Options{})
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestBuild_BucketsUnknownMethods(t *testing.T) {
	other := metrics.ContextsBuiltTotal.WithLabelValues("other")
	before := testutil.ToFloat64(other)
	for _, m := range []string{"BREW", "OPTIONS", "get"} {
		build(t, &StaticSource{Server: map[string]string{"REQUEST_METHOD": m}}, Options{})
	}
	assert.Equal(t, before+3, testutil.ToFloat64(other))
	assert.Equal(t, "BREW", build(t, &StaticSource{Server: map[string]string{"REQUEST_METHOD": "BREW"}}, Options{}).Method())
}

func TestSession_CopiedAtConstruction(t *testing.T) {
	data := map[string]any{"user": "ann"}
	rc := build(t, &StaticSource{SessionData: data, SessionActive: true}, Options{})
	data["user"] = "bob"

	got, ok := rc.Session()
	require.True(t, ok)
	assert.Equal(t, "ann", got["user"])

	got["user"] = "eve"
	again, _ := rc.Session()
	assert.Equal(t, "ann", again["user"])

	rc = build(t, &StaticSource{SessionActive: true}, Options{})
	got, ok = rc.Session()
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestGetters_ReturnCopies(t *testing.T) {
	rc := build(t, &StaticSource{
		Params:       url.Values{"a": {"1"}},
		CookieValues: map[string]string{"c": "1"},
	}, Options{})

	rc.ServerParams()[KeyMethod] = "DELETE"
	rc.Attributes()["a"] = "changed"
	rc.CookieParams()["c"] = "changed"

	assert.Equal(t, "GET", rc.Method())
	assert.Equal(t, "1", rc.Attribute("a", nil))
	assert.Equal(t, "1", rc.CookieParams()["c"])
}
