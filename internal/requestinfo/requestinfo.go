//
//  internal/requestinfo/requestinfo.go
//
//  Client metadata derived from a request context: user-agent fingerprint,
//  client IP, best-effort geolocation, and a timestamp.  These structs are
//  inert.  They hold no database handles or large buffers, so they are safe
//  to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing, via internal/ua)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/routing/internal/request"
	"github.com/yanizio/routing/internal/ua"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Geo holds IP-based geolocation hints.
// These are best-effort and may be empty if the DB has no match.
type Geo struct {
	CountryISO string // "US", "CA", "FR", ...
	City       string // "Chicago", "Paris", ...
}

// Info is everything Build derives about the client.
type Info struct {
	IP        net.IP  // Left-most valid forwarded address, else REMOTE_ADDR
	UA        ua.Info // Parsed USER_AGENT and ACCEPT_LANGUAGE
	Geo       Geo
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a process-wide MaxMind handle, nil until OpenGeo succeeds.
// The reader is safe for concurrent lookups.
var geoReader atomic.Pointer[geoip2.Reader]

// OpenGeo opens the GeoLite2-City database.  Without it Build leaves Geo
// empty.
func OpenGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	if old := geoReader.Swap(r); old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the database opened by OpenGeo.
func CloseGeo() {
	if r := geoReader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

//
//  -----------------------------
//  Builder
//  -----------------------------
//

// Build derives Info from rc.  now is injected so callers and tests agree
// on the timestamp.
func Build(rc *request.Context, now time.Time) *Info {
	userAgent, _ := rc.Header(request.KeyUserAgent)
	lang, _ := rc.Header(request.KeyAcceptLanguage)

	ip := ClientIP(rc)
	return &Info{
		IP:        ip,
		UA:        ua.Parse(userAgent, lang),
		Geo:       lookupGeo(ip),
		Timestamp: now.UTC(),
	}
}

// ClientIP returns the left-most parseable address from X-Forwarded-For,
// then X-Real-Ip, then REMOTE_ADDR.  It returns nil when none parse.
func ClientIP(rc *request.Context) net.IP {
	if xff, ok := rc.Header(request.KeyForwardedFor); ok && xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip, ok := rc.Header(request.KeyRealIP); ok && xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	addr, _ := rc.Header(request.KeyRemoteAddr)
	return net.ParseIP(strings.TrimSpace(addr))
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return Geo{}
	}
	rec, err := r.City(ip)
	if err != nil {
		return Geo{}
	}
	return Geo{
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// NewContext returns ctx carrying info.
func NewContext(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the *Info stored by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}
