// internal/request/headers.go
//
// Server-variable defaults and population.
//
// Context
// -------
// The headers map is built in three layers, highest precedence last:
//
//  1. Built-in defaults (plus any Options.Defaults overlay).
//  2. Values copied from the Source's server variables.
//  3. Caller overrides passed to New.
//
// A key that carries a default keeps it when the source lacks the variable,
// so the full default set is always present.  Keys without a default
// (SERVER_SOFTWARE, CONTENT_LENGTH) are simply absent when unknown; absence
// is how a null value is represented.
package request

import (
	"net/url"
	"strings"
)

// Header keys with special meaning inside the package.
const (
	KeyMethod         = "REQUEST_METHOD"
	KeyScriptName     = "SCRIPT_NAME"
	KeyPathInfo       = "PATH_INFO"
	KeyQueryString    = "QUERY_STRING"
	KeyServerName     = "SERVER_NAME"
	KeyServerPort     = "SERVER_PORT"
	KeyServerSoftware = "SERVER_SOFTWARE"
	KeyAccept         = "ACCEPT"
	KeyAcceptLanguage = "ACCEPT_LANGUAGE"
	KeyAcceptCharset  = "ACCEPT_CHARSET"
	KeyUserAgent      = "USER_AGENT"
	KeyRemoteAddr     = "REMOTE_ADDR"
	KeyContentType    = "CONTENT_TYPE"
	KeyContentLength  = "CONTENT_LENGTH"
	KeyRequestURI     = "REQUEST_URI"
	KeyRequestURIFull = "REQUEST_URI_FULL"
	KeyRequestedWith  = "X-Requested-With"
	KeyForwardedFor   = "X-Forwarded-For"
	KeyRealIP         = "X-Real-Ip"
)

const defaultPort = "80"

// DefaultHeaders returns a fresh copy of the built-in defaults.
func DefaultHeaders() map[string]string {
	return map[string]string{
		KeyMethod:         "GET",
		KeyScriptName:     "",
		KeyPathInfo:       "",
		KeyQueryString:    "",
		KeyServerName:     "localhost",
		KeyServerPort:     defaultPort,
		KeyAccept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		KeyAcceptLanguage: "en-US,en;q=0.8",
		KeyAcceptCharset:  "ISO-8859-1,utf-8;q=0.7,*;q=0.3",
		KeyUserAgent:      "localhost",
		KeyRemoteAddr:     "127.0.0.1",
		KeyContentType:    "",
	}
}

// copied lists server variables copied verbatim (or renamed) into headers.
// QUERY_STRING, REQUEST_URI, SERVER_PORT, and SERVER_SOFTWARE need special
// handling and live in populateHeaders.
var copied = []struct{ from, to string }{
	{"REQUEST_METHOD", KeyMethod},
	{"SCRIPT_NAME", KeyScriptName},
	{"SERVER_NAME", KeyServerName},
	{"CONTENT_LENGTH", KeyContentLength},
	{"CONTENT_TYPE", KeyContentType},
	{"HTTP_USER_AGENT", KeyUserAgent},
	{"HTTP_ACCEPT", KeyAccept},
	{"HTTP_ACCEPT_LANGUAGE", KeyAcceptLanguage},
	{"HTTP_ACCEPT_CHARSET", KeyAcceptCharset},
	{"PATH_INFO", KeyPathInfo},
	{"REMOTE_ADDR", KeyRemoteAddr},
	{"HTTP_X_REQUESTED_WITH", KeyRequestedWith},
	{"HTTP_X_FORWARDED_FOR", KeyForwardedFor},
	{"HTTP_X_REAL_IP", KeyRealIP},
}

// populateHeaders overwrites h with the ambient server variables.
func populateHeaders(h map[string]string, server map[string]string) {
	for _, c := range copied {
		if v, ok := server[c.from]; ok {
			h[c.to] = v
		}
	}

	// example.com/page/?a=b&c=d → QUERY_STRING "a=b&c=d", REQUEST_URI "/page/"
	if qs, ok := server["QUERY_STRING"]; ok {
		h[KeyQueryString] = urlDecode(qs)
	}
	full := urlDecode(server["REQUEST_URI"])
	h[KeyRequestURIFull] = full
	h[KeyRequestURI] = stripQuery(full, h[KeyQueryString])

	if p, ok := server["SERVER_PORT"]; ok && p != "" {
		h[KeyServerPort] = p
	} else {
		h[KeyServerPort] = defaultPort
	}

	if sw, ok := server["SERVER_SOFTWARE"]; ok {
		h[KeyServerSoftware] = sw
	} else {
		delete(h, KeyServerSoftware)
	}
}

// stripQuery removes every occurrence of the decoded query string and every
// "?" from the full URI.
func stripQuery(full, query string) string {
	if query != "" {
		full = strings.ReplaceAll(full, query, "")
	}
	return strings.ReplaceAll(full, "?", "")
}

// urlDecode mirrors form-style decoding ("+" is a space).  Malformed escapes
// leave the input untouched.
func urlDecode(s string) string {
	if s == "" {
		return s
	}
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}
