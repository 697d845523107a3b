// Package ids generates the two identifier shapes dcmtkctl attaches to a
// run: a UUID correlation ID (threaded through internal/telemetry spans and
// internal/history records) and a friendly, human-rememberable run name for
// referring to it at the terminal.
//
// Grounded on cmd/sand/new_cmd.go's sandbox ID generation
// (namegenerator.NewNameGenerator(seed).Generate(), seeded off
// time.Now().UTC().UnixNano()), generalized from "sandbox ID" to "run ID"
// and supplemented with google/uuid for the machine-facing correlation ID
// the teacher itself doesn't need (a sandbox only ever has the one friendly
// name; a dcmtkctl run also needs a collision-free key for history rows and
// trace correlation).
package ids

import (
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/google/uuid"
)

// NewCorrelationID returns a fresh UUIDv4 suitable for internal/history's
// primary key and internal/telemetry's span/trace correlation.
func NewCorrelationID() string {
	return uuid.NewString()
}

// NewRunName returns a friendly, human-rememberable name for a run (e.g.
// "blissful-tesla"), the same generator and seeding strategy new_cmd.go
// uses for sandbox IDs.
func NewRunName() string {
	seed := time.Now().UTC().UnixNano()
	return namegenerator.NewNameGenerator(seed).Generate()
}
