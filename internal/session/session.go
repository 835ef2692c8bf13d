// internal/session/session.go
//
// Session cookie handling and the request.SessionLoader adapter.
//
// Context
//   A request context exposes the active session as a plain map.  Loader
//   connects the two halves: it reads the session cookie from the incoming
//   request, fetches the row through a Store, and reports whether a session
//   is active.  Start and Destroy issue and clear the cookie.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/metrics"
)

// DefaultCookieName is used when Loader.CookieName is empty.
const DefaultCookieName = "routing_session"

// Store is the read side Loader needs.  *SQLStore satisfies it.
type Store interface {
	Load(ctx context.Context, id string) (map[string]any, error)
}

// Loader implements request.SessionLoader.
type Loader struct {
	Store      Store
	CookieName string
}

// LoadSession returns the session named by the request cookie.  A missing
// cookie, an unknown id, and a store failure all report ok == false; only
// the last is logged.
func (l *Loader) LoadSession(ctx context.Context, r *http.Request) (map[string]any, bool) {
	c, err := r.Cookie(l.cookieName())
	if err != nil || c.Value == "" {
		metrics.SessionLoadsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	data, err := l.Store.Load(ctx, c.Value)
	switch {
	case err == nil:
		metrics.SessionLoadsTotal.WithLabelValues("hit").Inc()
		return data, true
	case errors.Is(err, ErrNotFound):
		metrics.SessionLoadsTotal.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.SessionLoadsTotal.WithLabelValues("error").Inc()
		zap.S().Warnw("session load failed", "cookie", l.cookieName(), "err", err)
		return nil, false
	}
}

func (l *Loader) cookieName() string {
	if l.CookieName == "" {
		return DefaultCookieName
	}
	return l.CookieName
}

// NewID returns a random 128-bit hex session id.
func NewID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Start sets the session cookie for id.
func Start(w http.ResponseWriter, r *http.Request, name, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// Destroy clears the session cookie.
func Destroy(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
