// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults (`defaults` below, via the confmap provider).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. Optional `conf/global.yaml`.
  4. Environment variables prefixed `ROUTING_`, where `__` maps to “.”
     (e.g., `ROUTING_REQUEST__RAW_BODY → request.raw_body`).

String values starting with `vault:` are then resolved through a
SecretResolver and laid over the tree.  The result is unmarshalled into
strongly-typed structs, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, secret resolution.
  • ERROR spans: YAML parse, env overlay, secret, unmarshal, and
    validation failures.
  • INFO span: final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/vault"
)

const (
	envPrefix    = "ROUTING_"
	secretScheme = "vault:"
)

var current atomic.Pointer[Config]

// defaults seed the tree before any file or env layer.
var defaults = map[string]any{
	"request.server_name":    "localhost",
	"request.server_port":    "80",
	"request.max_body_bytes": int64(10 << 20),
	"request.max_memory":     int64(10 << 20),
	"session.enabled":        false,
	"session.cookie_name":    "routing_session",
	"session.table":          "session",
	"session.cache_ttl":      "0s",
	"log.dir":                "logs",
	"log.level":              "info",
}

// SecretResolver turns a `vault:` reference into its plain value.
// *vault.Client satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ROUTING_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv("ROUTING_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root, connects to Vault when VAULT_ADDR is set, and
// delegates to LoadFrom.
func Load(ctx context.Context) (*Config, error) {
	var res SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			zap.S().Errorw("config vault client failed", "err", err)
			return nil, err
		}
		res = cli
	}
	return LoadFrom(ctx, rootDir(), res)
}

// LoadFrom reads defaults, .env, YAML, env overrides, and secrets under
// root, validates, and caches the Config.  res may be nil when no value
// uses the `vault:` scheme.
func LoadFrom(ctx context.Context, root string, res SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	switch err := k.Load(file.Provider(yamlPath), yaml.Parser()); {
	case err == nil:
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	default:
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	// Env overrides: ROUTING_REQUEST__RAW_BODY → request.raw_body
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, res); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"server_name", cfg.Request.ServerName,
		"raw_body", cfg.Request.RawBody,
		"session", cfg.Session.Enabled,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every `vault:` string in k with its value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	resolved := map[string]any{}
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, secretScheme) {
			continue
		}
		if res == nil {
			return fmt.Errorf("config %s: %s reference but no vault client (VAULT_ADDR unset)", key, secretScheme)
		}
		plain, err := res.Resolve(ctx, s)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
		resolved[key] = plain
	}
	if len(resolved) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(resolved, "."), nil)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }
