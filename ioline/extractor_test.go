package ioline

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunPreservesOrder(t *testing.T) {
	r := strings.NewReader("first\nsecond\nthird\n")
	var got []string
	e := New(Stdout, 0)
	if err := e.Run(r, func(l LineRecord) { got = append(got, l.Text) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("line %d = %q, want %q", i, got[i], w)
		}
	}
}

func TestRunFlushesResidualPartialLine(t *testing.T) {
	r := strings.NewReader("complete\nno trailing newline")
	var got []string
	e := New(Stdout, 0)
	if err := e.Run(r, func(l LineRecord) { got = append(got, l.Text) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 || got[1] != "no trailing newline" {
		t.Fatalf("got %v", got)
	}
}

func TestRunHandlesCRLF(t *testing.T) {
	r := strings.NewReader("a\r\nb\r\n")
	var got []string
	e := New(Stdout, 0)
	e.Run(r, func(l LineRecord) { got = append(got, l.Text) })
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}

// TestRunOverflowRecovers exercises spec.md scenario 6: a single run of
// 2*MaxLineBytes non-newline bytes followed by \n, then more normal lines.
func TestRunOverflowRecovers(t *testing.T) {
	const maxLine = 64
	overflow := bytes.Repeat([]byte("x"), maxLine*2)
	var input bytes.Buffer
	input.Write(overflow)
	input.WriteByte('\n')
	input.WriteString("after\n")

	var got []LineRecord
	e := New(Stdout, maxLine)
	if err := e.Run(&input, func(l LineRecord) { got = append(got, l) }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	truncatedCount := 0
	for _, l := range got {
		if l.Truncated {
			truncatedCount++
		}
	}
	if truncatedCount != 1 {
		t.Fatalf("expected exactly one truncation record, got %d (all: %+v)", truncatedCount, got)
	}
	if got[len(got)-1].Text != "after" {
		t.Fatalf("expected extractor to resume after overflow, got %+v", got)
	}
}

// TestRunRoundTrip is V7: re-joining emitted texts with \n reproduces the
// input minus its trailing newline, for input that never overflows.
func TestRunRoundTrip(t *testing.T) {
	input := "alpha\nbeta\ngamma\n"
	var lines []string
	e := New(Stdout, 0)
	e.Run(strings.NewReader(input), func(l LineRecord) { lines = append(lines, l.Text) })
	if got := strings.Join(lines, "\n"); got != strings.TrimSuffix(input, "\n") {
		t.Errorf("round trip = %q, want %q", got, strings.TrimSuffix(input, "\n"))
	}
}
