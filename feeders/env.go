// Package feeders provides configuration feeders that populate config
// structures from environment variables, YAML files and TOML files.
package feeders

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// ErrInvalidStructure indicates the target is not a pointer to a struct.
var ErrInvalidStructure = errors.New("feeders: target must be a pointer to a struct")

// EnvFeeder reads environment variables into struct fields tagged with
// `env`, optionally applying an upper-cased prefix joined with an
// underscore.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates a feeder reading unprefixed environment variables.
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}

// NewPrefixedEnvFeeder creates a feeder reading variables named
// PREFIX_FIELDTAG.
func NewPrefixedEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed populates structure from environment variables.
func (f EnvFeeder) Feed(structure any) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidStructure
	}
	return f.feedStruct(rv.Elem())
}

func (f EnvFeeder) feedStruct(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if field.Kind() == reflect.Struct && field.CanSet() {
			if err := f.feedStruct(field); err != nil {
				return fmt.Errorf("error in field %q: %w", fieldType.Name, err)
			}
			continue
		}

		tag, exists := fieldType.Tag.Lookup("env")
		if !exists || !field.CanSet() {
			continue
		}

		name := strings.ToUpper(tag)
		if f.Prefix != "" {
			name = strings.ToUpper(f.Prefix) + "_" + name
		}
		value := os.Getenv(name)
		if value == "" {
			continue
		}

		converted, err := cast.FromType(value, field.Type())
		if err != nil {
			return fmt.Errorf("cannot convert %s for field %q: %w", name, fieldType.Name, err)
		}
		field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	}
	return nil
}
