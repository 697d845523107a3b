package command

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/dcmtkgo/dcmtkgo/result"
)

// Build validates opts against its schema (strict: required fields present,
// values in range, no path-traversal segments) and, if valid, renders argv.
// baseFlags are rendered first (flags that always appear, e.g. "--verbose"),
// then the schema's own flags in declared field order, then positional.
// binPath must already be a resolved absolute path (see resolver.BinaryRoot).
func Build(binPath string, baseFlags []string, opts any, positional ...string) result.Result[Argv] {
	if v := Validate(opts); v.IsErr() {
		return result.Err[Argv](v.Error())
	}

	args := make([]string, 0, len(baseFlags)+8)
	args = append(args, baseFlags...)
	args = append(args, renderFields(reflect.ValueOf(opts))...)
	args = append(args, positional...)

	for _, a := range args {
		if hasTraversal(a) {
			return result.Err[Argv](result.New(result.KindValidation,
				fmt.Sprintf("rendered argument %q contains a traversal segment", a)))
		}
	}

	return result.Ok(Argv{Bin: binPath, Args: args})
}

// renderFields is the teacher's ToArgs reflection, generalized: it renders
// in declared field order (anonymous/embedded structs recurse in place),
// booleans become bare flags, slices repeat the flag once per element, and
// maps render as "k=v,k=v" sorted by key for determinism.
func renderFields(v reflect.Value) []string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	t := v.Type()
	var out []string
	for _, spec := range walkFields(t) {
		fv := v.Field(spec.index)
		if spec.anonStruct {
			out = append(out, renderFields(fv)...)
			continue
		}
		if spec.flag == "" {
			continue
		}
		if !spec.keepZero && fv.IsZero() {
			continue
		}
		out = append(out, renderOne(spec.flag, fv)...)
	}
	return out
}

func renderOne(flag string, fv reflect.Value) []string {
	switch fv.Kind() {
	case reflect.Bool:
		if fv.Bool() {
			return []string{flag}
		}
		return nil
	case reflect.Slice, reflect.Array:
		var out []string
		for i := 0; i < fv.Len(); i++ {
			out = append(out, flag, fmt.Sprintf("%v", fv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		m, ok := fv.Interface().(map[string]string)
		if !ok {
			return []string{flag, fmt.Sprintf("%v", fv.Interface())}
		}
		keys := slices.Sorted(maps.Keys(m))
		var pairs []string
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, m[k]))
		}
		if len(pairs) == 0 {
			return nil
		}
		return []string{flag, strings.Join(pairs, ",")}
	default:
		return []string{flag, fmt.Sprintf("%v", fv.Interface())}
	}
}
