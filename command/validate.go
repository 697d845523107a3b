package command

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dcmtkgo/dcmtkgo/result"
)

// aeTitleAlphabet matches the restricted alphabet for an AE title: 1-16
// chars, letters/digits/underscore/hyphen/dot (spec.md §3).
const aeTitleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-."

func isValidAETitle(s string) bool {
	if len(s) < 1 || len(s) > 16 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(aeTitleAlphabet, r) {
			return false
		}
	}
	return true
}

// validateValue checks one field's value against its spec, returning a
// validation error describing the field by flag name (or struct field name
// if it has no flag, e.g. a positional).
func validateValue(name string, spec fieldSpec, v reflect.Value) error {
	if spec.required && v.IsZero() {
		return fmt.Errorf("%s: required field is empty", name)
	}
	if v.IsZero() {
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		if spec.isPath && hasTraversal(s) {
			return fmt.Errorf("%s: path %q contains a traversal segment", name, s)
		}
		if spec.isAETitle && !isValidAETitle(s) {
			return fmt.Errorf("%s: %q is not a valid AE title (1-16 chars, restricted alphabet)", name, s)
		}
		if len(spec.enum) > 0 && !slices.Contains(spec.enum, s) {
			return fmt.Errorf("%s: %q is not one of %v", name, s, spec.enum)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if spec.isPort && (n < 1 || n > 65535) {
			return fmt.Errorf("%s: port %d out of range [1,65535]", name, n)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && spec.isPath && hasTraversal(k.String()) {
				return fmt.Errorf("%s: map key %q contains a traversal segment", name, k.String())
			}
			val := iter.Value()
			if val.Kind() == reflect.String && spec.isPath && hasTraversal(val.String()) {
				return fmt.Errorf("%s: map value %q contains a traversal segment", name, val.String())
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			el := v.Index(i)
			if el.Kind() == reflect.String && spec.isPath && hasTraversal(el.String()) {
				return fmt.Errorf("%s: %q contains a traversal segment", name, el.String())
			}
		}
	}
	return nil
}

// Validate walks an option struct (strict schema) and rejects anything out
// of range, missing required fields, or any string/path field containing a
// traversal segment. It does not reject "unknown" struct fields — a Go
// struct has no unknown fields by construction; DecodeStrict (used when an
// option record is loaded from an external representation such as YAML)
// is what enforces "no unknown keys" against the source data before it
// ever reaches a struct.
func Validate(opts any) result.Result[struct{}] {
	if err := validateStruct("", reflect.ValueOf(opts)); err != nil {
		return result.Err[struct{}](result.Wrap(result.KindValidation, "option validation failed", err))
	}
	return result.Ok(struct{}{})
}

func validateStruct(prefix string, v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	t := v.Type()
	for _, spec := range walkFields(t) {
		field := t.Field(spec.index)
		fv := v.Field(spec.index)
		if spec.anonStruct {
			if err := validateStruct(prefix, fv); err != nil {
				return err
			}
			continue
		}
		name := field.Name
		if spec.flag != "" {
			name = spec.flag
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if err := validateValue(name, spec, fv); err != nil {
			return err
		}
	}
	return nil
}
