// cmd/reqdump/dump.go
//
// Snapshot of a request context and its renderers.
//
// One snapshot feeds every output format.  JSON and YAML carry the decoded
// body and session as-is.  XML cannot encode arbitrary maps, so the XML
// view flattens headers, cookies, and fields into name/value entries and
// prints the body as text.
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/routing/internal/request"
	"github.com/yanizio/routing/internal/requestinfo"
)

// Output formats accepted by --output and produced by negotiation.
const (
	formatJSON = "json"
	formatXML  = "xml"
	formatYAML = "yaml"
	formatText = "text"
)

// offered is the negotiation list for HTTP modes, in server preference
// order.
var offered = []contenttype.MediaType{
	contenttype.NewMediaType("application/json"),
	contenttype.NewMediaType("application/xml"),
	contenttype.NewMediaType("text/plain"),
}

var contentTypes = map[string]string{
	formatJSON: "application/json; charset=utf-8",
	formatXML:  "application/xml; charset=utf-8",
	formatYAML: "application/yaml; charset=utf-8",
	formatText: "text/plain; charset=utf-8",
}

type entry struct {
	Name  string `json:"name"  yaml:"name"  xml:"name,attr"`
	Value string `json:"value" yaml:"value" xml:",chardata"`
}

type client struct {
	IP      string `json:"ip,omitempty"      yaml:"ip,omitempty"      xml:"ip,omitempty"`
	Browser string `json:"browser,omitempty" yaml:"browser,omitempty" xml:"browser,omitempty"`
	OS      string `json:"os,omitempty"      yaml:"os,omitempty"      xml:"os,omitempty"`
	Device  string `json:"device,omitempty"  yaml:"device,omitempty"  xml:"device,omitempty"`
	Bot     bool   `json:"bot"               yaml:"bot"               xml:"bot"`
	Lang    string `json:"lang,omitempty"    yaml:"lang,omitempty"    xml:"lang,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty" xml:"country,omitempty"`
	City    string `json:"city,omitempty"    yaml:"city,omitempty"    xml:"city,omitempty"`
}

type snapshot struct {
	XMLName     xml.Name `json:"-" yaml:"-" xml:"request"`
	Method      string   `json:"method"       yaml:"method"       xml:"method"`
	ValidMethod bool     `json:"valid_method" yaml:"valid_method" xml:"valid_method"`
	URI         string   `json:"uri"          yaml:"uri"          xml:"uri"`
	URIFull     string   `json:"uri_full"     yaml:"uri_full"     xml:"uri_full"`
	Query       string   `json:"query"        yaml:"query"        xml:"query"`
	JSON        bool     `json:"is_json"      yaml:"is_json"      xml:"is_json"`
	XML         bool     `json:"is_xml"       yaml:"is_xml"       xml:"is_xml"`
	XHR         bool     `json:"is_xhr"       yaml:"is_xhr"       xml:"is_xhr"`
	Media       bool     `json:"is_media"     yaml:"is_media"     xml:"is_media"`

	Headers []entry `json:"headers" yaml:"headers" xml:"headers>header"`
	Cookies []entry `json:"cookies" yaml:"cookies" xml:"cookies>cookie"`
	Fields  []entry `json:"fields"  yaml:"fields"  xml:"fields>field"`
	Files   []entry `json:"files"   yaml:"files"   xml:"files>file"`

	Body      any    `json:"body"                 yaml:"body"                 xml:"-"`
	BodyText  string `json:"-"                    yaml:"-"                    xml:"body,omitempty"`
	BodyError string `json:"body_error,omitempty" yaml:"body_error,omitempty" xml:"body_error,omitempty"`

	Session       map[string]any `json:"session,omitempty" yaml:"session,omitempty" xml:"-"`
	SessionActive bool           `json:"session_active"    yaml:"session_active"    xml:"session_active"`

	Client *client `json:"client,omitempty" yaml:"client,omitempty" xml:"client,omitempty"`
}

func newSnapshot(rc *request.Context, info *requestinfo.Info) snapshot {
	s := snapshot{
		Method:      rc.Method(),
		ValidMethod: rc.HasValidMethod(),
		URI:         rc.URI(),
		URIFull:     rc.URIFull(),
		Query:       rc.QueryParams(),
		JSON:        rc.IsJSON(),
		XML:         rc.IsXML(),
		XHR:         rc.IsXHR(),
		Media:       rc.IsMedia(),
		Headers:     entries(rc.ServerParams()),
		Cookies:     entries(rc.CookieParams()),
		Body:        rc.ParsedBody(),
		BodyText:    bodyText(rc.ParsedBody()),
	}

	fields := make(map[string]string)
	for k, v := range rc.Attributes() {
		fields[k] = fmt.Sprint(v)
	}
	s.Fields = entries(fields)

	files := make(map[string]string)
	for name, hs := range rc.UploadedFiles() {
		names := make([]string, 0, len(hs))
		for _, h := range hs {
			names = append(names, fmt.Sprintf("%s (%d bytes)", h.Filename, h.Size))
		}
		files[name] = strings.Join(names, ", ")
	}
	s.Files = entries(files)

	if err := rc.BodyError(); err != nil {
		s.BodyError = err.Error()
	}
	s.Session, s.SessionActive = rc.Session()

	if info != nil {
		s.Client = &client{
			Browser: info.UA.Browser,
			OS:      info.UA.OS,
			Device:  info.UA.Device,
			Bot:     info.UA.IsBot,
			Lang:    info.UA.Lang,
			Country: info.Geo.CountryISO,
			City:    info.Geo.City,
		}
		if info.IP != nil {
			s.Client.IP = info.IP.String()
		}
	}
	return s
}

func entries(m map[string]string) []entry {
	out := make([]entry, 0, len(m))
	for k, v := range m {
		out = append(out, entry{Name: k, Value: v})
	}
	slices.SortFunc(out, func(a, b entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// bodyText is the XML and plain-text view of a decoded body.
func bodyText(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return b
	case *request.XMLNode:
		return "<" + b.Name.Local + "> element with " + fmt.Sprint(len(b.Children)) + " children"
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(raw)
	}
}

/*──────────────────────────── rendering ───────────────────────────────────*/

func render(w io.Writer, format string, s snapshot) error {
	switch format {
	case formatJSON:
		raw, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err

	case formatXML:
		raw, err := xml.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s%s\n", xml.Header, raw)
		return err

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	return renderText(w, s)
}

func renderText(w io.Writer, s snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.Method, s.URIFull)
	section := func(title string, es []entry) {
		if len(es) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n[%s]\n", title)
		for _, e := range es {
			fmt.Fprintf(&b, "%s: %s\n", e.Name, e.Value)
		}
	}
	section("headers", s.Headers)
	section("cookies", s.Cookies)
	section("fields", s.Fields)
	section("files", s.Files)
	if s.BodyText != "" {
		fmt.Fprintf(&b, "\n[body]\n%s\n", s.BodyText)
	}
	if s.BodyError != "" {
		fmt.Fprintf(&b, "\n[body error]\n%s\n", s.BodyError)
	}
	if s.Client != nil {
		fmt.Fprintf(&b, "\n[client]\nip: %s\nbrowser: %s\ndevice: %s\nbot: %t\n",
			s.Client.IP, s.Client.Browser, s.Client.Device, s.Client.Bot)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

/*──────────────────────────── HTTP handler ────────────────────────────────*/

// dumpHandler writes the snapshot in the format negotiated from ACCEPT.
func dumpHandler(w http.ResponseWriter, r *http.Request) {
	rc := request.FromContext(r.Context())
	if rc == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	mt, err := rc.NegotiateMediaType(offered)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return
	}
	format := formatText
	switch mt.Subtype {
	case "json":
		format = formatJSON
	case "xml":
		format = formatXML
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if err := render(w, format, newSnapshot(rc, requestinfo.FromContext(r.Context()))); err != nil {
		zap.S().Errorw("dump render failed", "format", format, "err", err)
	}
}
