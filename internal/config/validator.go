// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `LoadFrom` calls `validateStruct` immediately after it unmarshals the
// merged Koanf tree into a `Config` instance.  Any validation error aborts
// startup, so the binary never runs with malformed configuration.
//
// One custom rule is registered here:
//
//   • `sqlident` – a bare SQL identifier (letters, digits, underscore, not
//     starting with a digit).  The session table name is spliced into SQL
//     text, so it must never carry anything else.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var (
	v       = validator.New()
	identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)
)

func init() {
	if err := v.RegisterValidation("sqlident", validIdent); err != nil {
		panic("config: register sqlident: " + err.Error())
	}
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

func validIdent(fl validator.FieldLevel) bool {
	return identRE.MatchString(fl.Field().String())
}
