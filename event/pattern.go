// Package event implements EventParser: matching lines against a
// registered pattern set, assembling header/footer multi-line blocks, and
// emitting typed MatchRecords.
package event

import (
	"regexp"
	"time"
)

// MatchRecord is {event, data}; Data is whatever the pattern's processor
// returned.
type MatchRecord struct {
	Event string
	Data  any
}

// SingleLineProcessor derives event data from a single-line regex match. It
// must be pure: no blocking, no I/O.
type SingleLineProcessor func(match []string) any

// BlockProcessor derives event data from the assembled body of a
// multi-line block (the accumulated lines, joined with "\n", matched
// against the block's body regex). It must be pure.
type BlockProcessor func(bodyMatch []string) any

// Pattern is either a single-line pattern (Header == nil) or a multi-line
// block pattern (Header != nil): a header regex, a footer regex, a body
// regex spanning both, a maxLines bound, and an optional per-block timeout.
type Pattern struct {
	Event string

	// Single-line form.
	Regex   *regexp.Regexp
	Process SingleLineProcessor

	// Multi-line block form.
	Header       *regexp.Regexp
	Footer       *regexp.Regexp
	Body         *regexp.Regexp
	MaxLines     int
	BlockTimeout time.Duration
	BlockProcess BlockProcessor
}

func (p Pattern) isBlock() bool { return p.Header != nil }
