package feeders

import (
	"fmt"
	"reflect"

	"github.com/golobby/cast"
)

// DefaultFeeder fills struct fields tagged with `default` when they still
// hold their zero value. Run it after file and environment feeders so
// explicit values always win.
type DefaultFeeder struct{}

// NewDefaultFeeder creates a feeder applying `default` struct tags.
func NewDefaultFeeder() DefaultFeeder {
	return DefaultFeeder{}
}

// Feed populates zero-valued tagged fields of structure.
func (f DefaultFeeder) Feed(structure any) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidStructure
	}
	return f.feedStruct(rv.Elem())
}

func (f DefaultFeeder) feedStruct(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if field.Kind() == reflect.Struct && field.CanSet() {
			if err := f.feedStruct(field); err != nil {
				return fmt.Errorf("error in field %q: %w", fieldType.Name, err)
			}
			continue
		}

		tag, exists := fieldType.Tag.Lookup("default")
		if !exists || !field.CanSet() || !field.IsZero() {
			continue
		}

		converted, err := cast.FromType(tag, field.Type())
		if err != nil {
			return fmt.Errorf("cannot convert default for field %q: %w", fieldType.Name, err)
		}
		field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	}
	return nil
}
