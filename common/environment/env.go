// Package environment overlays environment variables onto configuration
// structs that were first populated from a YAML file.
//
// Fields opt in with `env:"NAME"` struct tags. A field is only overwritten
// when its variable is set, so file values survive when the environment is
// silent.
package environment

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Overlay applies environment variables to target, a pointer to a struct.
// prefix is prepended to every tag name (e.g. "GRACE_").
func Overlay(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// StringOr returns the value of the named environment variable, or
// defaultValue if the variable is unset or blank.
func StringOr(name, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return defaultValue
}
