// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • built-in defaults                       – see defaults in loader.go,
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `ROUTING_`-prefixed environment overrides – highest precedence.
//
// Any string value that begins with `vault:` is resolved through the Vault
// client *before* unmarshalling, so the model never stores Vault URIs, only
// plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// Request section
//

// Request holds the defaults and limits applied when building a request
// context.  Empty strings leave the built-in header default in place.
type Request struct {
	ServerName     string            `koanf:"server_name"     validate:"required,hostname_rfc1123"`
	ServerPort     string            `koanf:"server_port"     validate:"required,numeric"`
	Accept         string            `koanf:"accept"`
	AcceptLanguage string            `koanf:"accept_language"`
	AcceptCharset  string            `koanf:"accept_charset"`
	UserAgent      string            `koanf:"user_agent"`
	RemoteAddr     string            `koanf:"remote_addr"     validate:"omitempty,ip"`
	RawBody        bool              `koanf:"raw_body"` // keep the raw input as parsed body
	MaxBodyBytes   int64             `koanf:"max_body_bytes"  validate:"gte=0"`
	MaxMemory      int64             `koanf:"max_memory"      validate:"gte=0"`
	Overrides      map[string]string `koanf:"overrides"`
}

//
// Session section
//

// Session configures the SQL-backed session loader.  The DSN usually
// carries a `vault:` reference so the password never lands in YAML.
type Session struct {
	Enabled    bool          `koanf:"enabled"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	DSN        string        `koanf:"dsn"         validate:"required_if=Enabled true"`
	Table      string        `koanf:"table"       validate:"required,sqlident"`
	CacheTTL   time.Duration `koanf:"cache_ttl"   validate:"gte=0"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Log section
//

// Log controls the file logger.  Dir is relative to Paths.Root unless
// absolute.
type Log struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // ROUTING_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	Request Request `koanf:"request"`
	Session Session `koanf:"session"`
	GeoIP   GeoIP   `koanf:"geoip"`
	Log     Log     `koanf:"log"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}
