package reconcile

import "time"

// Record is one staged item as loaded by an adapter.
// Adapters define the concrete type and know how to read it back.
type Record any

// PostType records whether the remote write was a create or an update.
type PostType string

const (
	// PostNone means no remote write was attempted.
	PostNone PostType = ""
	// PostInsert means a new remote object was created.
	PostInsert PostType = "I"
	// PostUpdate means an existing remote object was updated in place.
	PostUpdate PostType = "U"
)

// Outcome is the result of processing one record. It is persisted as a single
// row update together with the raw remote response or error text.
type Outcome struct {
	// Key identifies the record (the transaction id for staged orders).
	Key string `json:"key"`

	// Status is the terminal status the record moves to.
	Status Status `json:"status"`

	// PostType is I or U when a remote write was attempted.
	PostType PostType `json:"post_type,omitempty"`

	// RemoteID is the remote identifier confirmed by the response, if any.
	RemoteID string `json:"remote_id,omitempty"`

	// Response is the raw remote payload or the error text, stored verbatim.
	Response string `json:"-"`
}

// RecordResult is the per-record line of a pass summary.
type RecordResult struct {
	Key       string   `json:"key"`
	Status    Status   `json:"status"`
	PostType  PostType `json:"post_type,omitempty"`
	RemoteID  string   `json:"remote_id,omitempty"`
	Committed bool     `json:"committed"`
	Error     string   `json:"error,omitempty"`
}

// PassSummary provides aggregate counts for one reconciliation pass.
// There is no overall success flag: inspect the per-record status instead.
type PassSummary struct {
	// Adapter is the name of the adapter that ran the pass.
	Adapter string `json:"adapter"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`

	// Total is the number of pending records picked up.
	Total int `json:"total"`

	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Ambiguous int `json:"ambiguous"`

	// CommitFailures counts records whose outcome could not be persisted.
	// Those records stay pending and are picked up by the next pass.
	CommitFailures int `json:"commit_failures"`

	// Deferred counts records the adapter could not start on. They are not
	// committed and stay pending for the next pass.
	Deferred int `json:"deferred"`

	Results []RecordResult `json:"results"`
}

func (s *PassSummary) count(status Status) {
	switch status {
	case StatusUpdated:
		s.Updated++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Errors++
	case StatusAmbiguous:
		s.Ambiguous++
	}
}
