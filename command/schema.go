// Package command implements CommandBuilder: validating an option record
// against a declared schema and rendering it into a safe argv.
//
// Schemas are plain Go structs with `flag:"..."` tags, generalizing the
// teacher's options.ToArgs reflection helper; `validate:"..."` tags add the
// strict range/required/path-traversal checks spec.md §4.2 requires before
// any argv is produced.
package command

import "reflect"

// Argv is an ordered, already-validated argument vector. Bin is the
// resolved absolute binary path; Args follow it. Argv is never collapsed
// into a shell string.
type Argv struct {
	Bin  string
	Args []string
}

// Strings returns the full argv, binary path first, suitable for
// exec.Command(argv[0], argv[1:]...).
func (a Argv) Strings() []string {
	out := make([]string, 0, len(a.Args)+1)
	out = append(out, a.Bin)
	out = append(out, a.Args...)
	return out
}

// fieldSpec is the parsed form of one struct field's tags.
type fieldSpec struct {
	flag       string
	keepZero   bool
	required   bool
	isPath     bool
	isPort     bool
	isAETitle  bool
	enum       []string
	index      int
	anonStruct bool
}

// walkFields returns the fieldSpecs for a struct type, recursing into
// anonymous (embedded) struct fields the same way options.ToArgs does, so
// a schema can be composed from shared option blocks (server.CommonOptions,
// toolwrap.PeerOptions, ...).
func walkFields(t reflect.Type) []fieldSpec {
	var out []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, fieldSpec{index: i, anonStruct: true})
			continue
		}
		spec := fieldSpec{index: i}
		if flagTag, ok := f.Tag.Lookup("flag"); ok {
			spec.flag = flagTag
		}
		for _, part := range splitTag(f.Tag.Get("validate")) {
			switch {
			case part == "required":
				spec.required = true
			case part == "path":
				spec.isPath = true
			case part == "port":
				spec.isPort = true
			case part == "aetitle":
				spec.isAETitle = true
			case part == "keepzero":
				spec.keepZero = true
			case len(part) > 5 && part[:5] == "enum=":
				spec.enum = splitCSV(part[5:])
			}
		}
		out = append(out, spec)
	}
	return out
}

func splitTag(tag string) []string {
	return splitCSV(tag)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
