package event

import (
	"regexp"
	"testing"
	"time"
)

// TestFeedSingleLineFirstMatchWins is V5: at most one match per line, and
// the first registered pattern that matches wins over a later one that
// would also match.
func TestFeedSingleLineFirstMatchWins(t *testing.T) {
	p := New()
	var got []MatchRecord
	p.OnMatch = func(m MatchRecord) { got = append(got, m) }

	p.AddPattern(Pattern{
		Event: "specific",
		Regex: regexp.MustCompile(`^Association Received`),
	})
	p.AddPattern(Pattern{
		Event: "generic",
		Regex: regexp.MustCompile(`Received`),
	})

	p.Feed("Association Received from AE1")

	if len(got) != 1 {
		t.Fatalf("expected exactly one match, got %d: %+v", len(got), got)
	}
	if got[0].Event != "specific" {
		t.Errorf("event = %q, want %q (first-match-wins)", got[0].Event, "specific")
	}
}

func TestFeedNoMatchDropsLine(t *testing.T) {
	p := New()
	calls := 0
	p.OnMatch = func(MatchRecord) { calls++ }
	p.AddPattern(Pattern{Event: "x", Regex: regexp.MustCompile(`^never$`)})
	p.Feed("unrelated line")
	if calls != 0 {
		t.Fatalf("expected no matches, got %d", calls)
	}
}

// TestBlockCompletesOnFooter models spec.md scenario 4's counterpart: a
// block whose footer arrives within maxLines completes with exactly one
// match and no blockTimeout.
func TestBlockCompletesOnFooter(t *testing.T) {
	p := New()
	var matches []MatchRecord
	var timeouts int
	p.OnMatch = func(m MatchRecord) { matches = append(matches, m) }
	p.OnBlockTimeout = func(string, []string) { timeouts++ }

	p.AddPattern(Pattern{
		Event:    "assoc_rejected",
		Header:   regexp.MustCompile(`^===BEGIN===$`),
		Footer:   regexp.MustCompile(`^===END===$`),
		Body:     regexp.MustCompile(`(?s)^===BEGIN===\n(.*)\n===END===$`),
		MaxLines: 5,
		BlockProcess: func(m []string) any {
			return m[1]
		},
	})

	for _, line := range []string{"===BEGIN===", "reason: no presentation context", "===END==="} {
		p.Feed(line)
	}

	if timeouts != 0 {
		t.Fatalf("expected no block timeout, got %d", timeouts)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Data != "reason: no presentation context" {
		t.Errorf("data = %v", matches[0].Data)
	}
	if p.HasActiveBlock() {
		t.Errorf("expected block to be cleared after footer match")
	}
}

// TestBlockTimeoutOnMaxLines is spec.md scenario 4: header, then maxLines-1
// more lines with no footer, expects exactly one blockTimeout with all
// accumulated lines and no match.
func TestBlockTimeoutOnMaxLines(t *testing.T) {
	p := New()
	var matches []MatchRecord
	var timeoutLines []string
	var timeouts int
	p.OnMatch = func(m MatchRecord) { matches = append(matches, m) }
	p.OnBlockTimeout = func(event string, lines []string) {
		timeouts++
		timeoutLines = lines
	}

	p.AddPattern(Pattern{
		Event:    "stuck_block",
		Header:   regexp.MustCompile(`^===BEGIN===$`),
		Footer:   regexp.MustCompile(`^===END===$`),
		Body:     regexp.MustCompile(`(?s)^===BEGIN===\n(.*)\n===END===$`),
		MaxLines: 5,
	})

	for _, line := range []string{"===BEGIN===", "a", "b", "c", "e"} {
		p.Feed(line)
	}

	if len(matches) != 0 {
		t.Fatalf("expected no match, got %+v", matches)
	}
	if timeouts != 1 {
		t.Fatalf("expected exactly one blockTimeout, got %d", timeouts)
	}
	if len(timeoutLines) != 5 {
		t.Fatalf("expected 5 accumulated lines, got %d: %v", len(timeoutLines), timeoutLines)
	}
	if p.HasActiveBlock() {
		t.Errorf("expected block to be cleared after maxLines timeout")
	}
}

func TestActiveBlockSuppressesOtherPatterns(t *testing.T) {
	p := New()
	var matches []MatchRecord
	p.OnMatch = func(m MatchRecord) { matches = append(matches, m) }

	p.AddPattern(Pattern{
		Event:    "block",
		Header:   regexp.MustCompile(`^===BEGIN===$`),
		Footer:   regexp.MustCompile(`^===END===$`),
		Body:     regexp.MustCompile(`(?s).*`),
		MaxLines: 10,
	})
	p.AddPattern(Pattern{
		Event: "new_header_lookalike",
		Regex: regexp.MustCompile(`^===BEGIN===$`),
	})

	p.Feed("===BEGIN===")
	p.Feed("===BEGIN===") // encountered while block active: ordinary content, not a nested block
	p.Feed("===END===")

	if len(matches) != 1 || matches[0].Event != "block" {
		t.Fatalf("expected single block match, got %+v", matches)
	}
}

func TestAddPatternEnforcesLimit(t *testing.T) {
	p := New()
	for i := 0; i < MaxPatterns; i++ {
		if res := p.AddPattern(Pattern{Event: "x", Regex: regexp.MustCompile(`.`)}); res.IsErr() {
			t.Fatalf("unexpected rejection at pattern %d: %v", i, res.Error())
		}
	}
	if p.AddPattern(Pattern{Event: "overflow", Regex: regexp.MustCompile(`.`)}).IsOk() {
		t.Fatalf("expected rejection past the registration cap")
	}
}

func TestResetClearsActiveBlockWithoutTimeout(t *testing.T) {
	p := New()
	timeouts := 0
	p.OnBlockTimeout = func(string, []string) { timeouts++ }
	p.AddPattern(Pattern{
		Event:    "block",
		Header:   regexp.MustCompile(`^BEGIN$`),
		Footer:   regexp.MustCompile(`^END$`),
		Body:     regexp.MustCompile(`(?s).*`),
		MaxLines: 10,
	})
	p.Feed("BEGIN")
	p.Reset()
	if p.HasActiveBlock() {
		t.Fatalf("expected Reset to clear the active block")
	}
	if timeouts != 0 {
		t.Fatalf("Reset must not emit a blockTimeout, got %d", timeouts)
	}
}

func TestActiveDeadlineReflectsBlockTimeout(t *testing.T) {
	p := New()
	p.AddPattern(Pattern{
		Event:        "timed",
		Header:       regexp.MustCompile(`^BEGIN$`),
		Footer:       regexp.MustCompile(`^END$`),
		Body:         regexp.MustCompile(`(?s).*`),
		MaxLines:     10,
		BlockTimeout: time.Minute,
	})
	p.AddPattern(Pattern{
		Event:    "untimed",
		Header:   regexp.MustCompile(`^START$`),
		Footer:   regexp.MustCompile(`^STOP$`),
		Body:     regexp.MustCompile(`(?s).*`),
		MaxLines: 10,
	})

	p.Feed("START")
	if _, ok := p.ActiveDeadline(); ok {
		t.Fatalf("expected no deadline for a block with BlockTimeout == 0")
	}

	p.Reset()
	p.Feed("BEGIN")
	if dl, ok := p.ActiveDeadline(); !ok || dl.IsZero() {
		t.Fatalf("expected a deadline for a block with BlockTimeout > 0, got %v, %v", dl, ok)
	}
}
