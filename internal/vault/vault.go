// internal/vault/vault.go
//
// Vault client wrapper for configuration secrets.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK behind a concurrency-safe Client.
//   - Resolves `vault:<mount>/<path>#<key>` references found in the config
//     tree (for example the session DSN), with per-key caching.
//   - Keeps the token alive with a background renewal loop.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S().Infof)                // during boot.
//  2. dsn, err := cli.Resolve(ctx, "vault:secret/routing#dsn") // from config.
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// Scheme prefixes every secret reference.
const Scheme = "vault:"

// DefaultTTL caches resolved references for the life of a short process.
const DefaultTTL = 5 * time.Minute

var errBadRef = errors.New("vault: reference must look like vault:<mount>/<path>#<key>")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// bound to ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		logFn: logFn,
		cache: make(map[string]cached),
	}
	go c.renewLoop(ctx)
	return c, nil
}

// Resolve returns the plain value behind a `vault:` reference, cached for
// DefaultTTL.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key, DefaultTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key
	if ttl > 0 {
		if v, ok := c.cached(canonical); ok {
			return v, nil
		}
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

func (c *Client) cached(canonical string) (string, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	cv, ok := c.cache[canonical]
	if !ok || !time.Now().Before(cv.exp) {
		return "", false
	}
	return cv.val, true
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			c.logFn("vault: token renew self failed: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.logFn("vault: token is not renewable, sleeping 1h")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			c.logFn("vault: watcher init error: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		c.watch(ctx, watcher)
	}
}

// watch blocks until the watcher finishes or ctx ends.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			backoff(ctx, 15*time.Second)
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

// ParseRef splits "vault:secret/routing#dsn" into ("secret/routing", "dsn").
func ParseRef(ref string) (path, key string, err error) {
	rest, ok := strings.CutPrefix(ref, Scheme)
	if !ok {
		return "", "", errBadRef
	}
	path, key, ok = strings.Cut(rest, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", errBadRef
	}
	return path, key, nil
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
