package event

import (
	"strings"
	"sync"
	"time"

	"github.com/dcmtkgo/dcmtkgo/result"
)

// MaxPatterns caps how many patterns a single Parser may register, per
// spec.md §4.4.
const MaxPatterns = 256

type blockState struct {
	pattern  Pattern
	lines    []string
	deadline time.Time
	hasDL    bool
}

// Parser matches fed lines against a registration-ordered pattern set and
// reports matches and abandoned blocks through callbacks. Parser itself
// never starts goroutines or timers: it is a synchronous state machine, as
// spec.md §4.4/§5 require of the event layer. A per-block timeout is
// enforced by the caller (the ProcessSupervisor) arming a timer against the
// deadline returned by ActiveDeadline and calling AbandonActiveBlock when it
// fires.
//
// Feed may be called concurrently from more than one goroutine (a
// supervisor instance feeds lines from both its stdout and stderr
// extractors into one shared Parser); Parser serializes all state
// mutations with an internal mutex.
type Parser struct {
	mu       sync.Mutex
	patterns []Pattern
	active   *blockState

	OnMatch        func(MatchRecord)
	OnBlockTimeout func(event string, lines []string)
}

// New returns an empty Parser. Set OnMatch/OnBlockTimeout before feeding.
func New() *Parser {
	return &Parser{}
}

// AddPattern registers p in order. Patterns are tried in registration
// order and the first match wins, so more specific patterns should be
// registered before more general ones.
func (p *Parser) AddPattern(pat Pattern) result.Result[struct{}] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.patterns) >= MaxPatterns {
		return result.Err[struct{}](result.New(result.KindValidation, "pattern registration limit reached"))
	}
	p.patterns = append(p.patterns, pat)
	return result.Ok(struct{}{})
}

// Reset clears any in-progress block, discarding its accumulated lines
// without emitting a blockTimeout. Used when a supervisor instance is
// disposed and its EventParser is about to be garbage collected, or
// between independent runs of a reused Parser.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = nil
}

// HasActiveBlock reports whether a multi-line block is currently being
// accumulated.
func (p *Parser) HasActiveBlock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// ActiveDeadline returns the wall-clock deadline for the in-progress
// block's timeout, if one was configured and a block is active.
func (p *Parser) ActiveDeadline() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil || !p.active.hasDL {
		return time.Time{}, false
	}
	return p.active.deadline, true
}

// AbandonActiveBlock is called by the owning supervisor when its timer for
// ActiveDeadline fires. It is a no-op if the block already completed (via
// its footer) or was reset in the meantime. On a genuine timeout it reports
// exactly one blockTimeout with the lines accumulated so far, per spec.md
// §4.4's "never both match and blockTimeout for the same block" invariant.
func (p *Parser) AbandonActiveBlock() {
	p.mu.Lock()
	b := p.active
	if b == nil {
		p.mu.Unlock()
		return
	}
	p.active = nil
	p.mu.Unlock()

	if p.OnBlockTimeout != nil {
		p.OnBlockTimeout(b.pattern.Event, append([]string(nil), b.lines...))
	}
}

// Feed processes one line of input. It matches against the active block's
// footer, or against registered patterns in order, and emits at most one
// match or blockTimeout as a direct consequence of this call.
func (p *Parser) Feed(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		p.feedActiveBlockLocked(line)
		return
	}

	for _, pat := range p.patterns {
		if pat.isBlock() {
			if pat.Header.MatchString(line) {
				p.startBlockLocked(pat, line)
				return
			}
			continue
		}
		if m := pat.Regex.FindStringSubmatch(line); m != nil {
			p.emitSingleLineLocked(pat, m)
			return
		}
	}
	// No pattern matched: the line is dropped, per spec.md §4.4.
}

func (p *Parser) emitSingleLineLocked(pat Pattern, m []string) {
	var data any
	if pat.Process != nil {
		data = pat.Process(m)
	}
	if p.OnMatch != nil {
		p.OnMatch(MatchRecord{Event: pat.Event, Data: data})
	}
}

func (p *Parser) startBlockLocked(pat Pattern, headerLine string) {
	b := &blockState{pattern: pat, lines: []string{headerLine}}
	if pat.BlockTimeout > 0 {
		b.deadline = time.Now().Add(pat.BlockTimeout)
		b.hasDL = true
	}
	p.active = b
	// A degenerate block whose header and footer match the same line
	// completes immediately.
	if pat.Footer.MatchString(headerLine) {
		p.completeActiveBlockLocked()
	} else if pat.MaxLines > 0 && len(b.lines) >= pat.MaxLines {
		p.timeoutActiveBlockLocked()
	}
}

func (p *Parser) feedActiveBlockLocked(line string) {
	b := p.active
	b.lines = append(b.lines, line)

	if b.pattern.Footer.MatchString(line) {
		p.completeActiveBlockLocked()
		return
	}
	if b.pattern.MaxLines > 0 && len(b.lines) >= b.pattern.MaxLines {
		p.timeoutActiveBlockLocked()
	}
}

// completeActiveBlockLocked runs the footer-matched path: the accumulated
// lines are joined and matched against the block's body regex. A body
// match emits exactly one match; a non-match silently discards the block
// (spec.md is silent on this edge, so no event is emitted rather than
// guessing at one).
func (p *Parser) completeActiveBlockLocked() {
	b := p.active
	p.active = nil

	body := strings.Join(b.lines, "\n")
	m := b.pattern.Body.FindStringSubmatch(body)
	if m == nil {
		return
	}
	var data any
	if b.pattern.BlockProcess != nil {
		data = b.pattern.BlockProcess(m)
	}
	if p.OnMatch != nil {
		p.OnMatch(MatchRecord{Event: b.pattern.Event, Data: data})
	}
}

func (p *Parser) timeoutActiveBlockLocked() {
	b := p.active
	p.active = nil
	if p.OnBlockTimeout != nil {
		p.OnBlockTimeout(b.pattern.Event, append([]string(nil), b.lines...))
	}
}
