package domain

import "time"

// Outcome represents the final state of one migrated item.
// Values are OutcomeSuccess and OutcomeFailure; entries are only written on
// completion, so there is no persisted pending state.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ConflictPolicy names the rule applied when two entries share a key.
type ConflictPolicy string

const (
	// LastWriteWins overwrites the existing entry in place. The ledger uses
	// this so a retried failure never accumulates duplicate rows.
	LastWriteWins ConflictPolicy = "last_write_wins"

	// FirstSeenWins keeps the entry first encountered and silently shadows
	// later duplicates. The caption matcher uses this for name collisions.
	FirstSeenWins ConflictPolicy = "first_seen_wins"
)

// LedgerEntry is one persisted row of migration state, keyed by ExternalID.
type LedgerEntry struct {
	ExternalID   string    `json:"external_id"`
	Name         string    `json:"name"`
	GroupID      string    `json:"group_id,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`
	RemoteID     string    `json:"remote_id,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Succeeded reports whether the entry records a completed migration.
func (e LedgerEntry) Succeeded() bool {
	return e.Outcome == OutcomeSuccess
}

// CaptionMatch pairs a local caption file with the ledger entry of the video
// it belongs to. Matches are produced fresh each run and never persisted;
// Entry points into the ledger's loaded state and must not be mutated.
type CaptionMatch struct {
	LocalFile string
	Entry     *LedgerEntry
}
