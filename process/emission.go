package process

import (
	"github.com/dcmtkgo/dcmtkgo/ioline"
	"github.com/dcmtkgo/dcmtkgo/result"
)

// EmissionKind names the single-sink channel an Emission travels on, per
// spec.md §4.5: line, match, blockTimeout, exit, error, state.
type EmissionKind string

const (
	EmissionLine         EmissionKind = "line"
	EmissionMatch        EmissionKind = "match"
	EmissionBlockTimeout EmissionKind = "blockTimeout"
	EmissionExit         EmissionKind = "exit"
	EmissionError        EmissionKind = "error"
	EmissionState        EmissionKind = "state"
)

// Emission is the one shape flowing through a supervisor's emission sink.
// Only the fields relevant to Kind are populated; the rest are zero.
type Emission struct {
	Kind EmissionKind

	// EmissionLine
	Source    ioline.Source
	Text      string
	Truncated bool

	// EmissionMatch / EmissionBlockTimeout: Event names the matched pattern;
	// Data is the match's processor output; Lines is the block's
	// accumulator when reported via a blockTimeout.
	Event string
	Data  any
	Lines []string

	// EmissionExit
	ExitCode int
	Signal   string
	Reason   string

	// EmissionError
	Err   *result.Error
	Fatal bool

	// EmissionState
	State State
}

func newLineEmission(src ioline.Source, text string, truncated bool) Emission {
	return Emission{Kind: EmissionLine, Source: src, Text: text, Truncated: truncated}
}

func newMatchEmission(event string, data any) Emission {
	return Emission{Kind: EmissionMatch, Event: event, Data: data}
}

func newBlockTimeoutEmission(event string, lines []string) Emission {
	return Emission{Kind: EmissionBlockTimeout, Event: event, Lines: lines}
}

func newExitEmission(code int, signal, reason string) Emission {
	return Emission{Kind: EmissionExit, ExitCode: code, Signal: signal, Reason: reason}
}

func newErrorEmission(err *result.Error, fatal bool) Emission {
	return Emission{Kind: EmissionError, Err: err, Fatal: fatal}
}

func newStateEmission(s State) Emission {
	return Emission{Kind: EmissionState, State: s}
}

// Listener receives every Emission from a supervisor, in registration
// order. ServerShell's per-event convenience registrations (onStoredFile,
// …) are built by filtering EmissionMatch by Event.
type Listener func(Emission)
