package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Valid enum values for configuration fields.
var (
	ValidCacheBackends = []string{"file", "sqlite"}
	ValidThemeNames    = []string{"none", "default", "dracula", "nord", "gruvbox", "catppuccin"}
	ValidThemeModes    = []string{"auto", "light", "dark"}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags and returns the first problem
// as a readable error.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return describe(verrs[0])
}

// describe turns a validator error into a message naming the TOML key.
func describe(fe validator.FieldError) error {
	// Namespace is "Config.section.key"; drop the struct name.
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return validateEnum(fmt.Sprint(fe.Value()), field, strings.Fields(fe.Param()))
	case "url":
		return fmt.Errorf("invalid %s %q: must be a URL", field, fe.Value())
	case "hostname_port":
		return fmt.Errorf("invalid %s %q: must be host:port", field, fe.Value())
	case "gte":
		return fmt.Errorf("invalid %s %v: must be at least %s", field, fe.Value(), fe.Param())
	case "lte":
		return fmt.Errorf("invalid %s %v: must be at most %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Errorf("invalid %s %v (%s)", field, fe.Value(), fe.Tag())
	}
}

// ValidateCacheBackend validates a cache backend name against ValidCacheBackends.
// Exported for use in CLI flag validation.
func ValidateCacheBackend(name string) error {
	return validateEnum(name, "cache.backend", ValidCacheBackends)
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
