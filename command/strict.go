package command

import (
	"bytes"

	"github.com/dcmtkgo/dcmtkgo/result"
	"gopkg.in/yaml.v3"
)

// DecodeStrict decodes YAML option data into dst, rejecting any key in the
// source that does not correspond to a field in dst's schema. This is the
// "no unknown keys" half of spec.md §4.2's strict schema requirement: a Go
// struct already can't acquire an unknown field by construction, so the
// check only matters at the boundary where an option record is built from
// an external representation such as a YAML document. cmd/dcmtkctl does not
// call it.
func DecodeStrict(data []byte, dst any) result.Result[struct{}] {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return result.Err[struct{}](result.Wrap(result.KindValidation, "strict option decode failed", err))
	}
	return result.Ok(struct{}{})
}
