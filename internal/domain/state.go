package domain

// Phase describes where a search session is in its fetch lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseLoading    Phase = "loading"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// SearchState is the full state of one search session at a point in time.
// Snapshots are immutable; every mutation inside the session loop produces
// a new value with a higher Seq.
type SearchState struct {
	Seq      uint64         `json:"seq"`
	Input    string         `json:"input"`
	Term     string         `json:"term"`
	Phase    Phase          `json:"phase"`
	Movies   []Movie        `json:"movies"`
	Trending []SearchRecord `json:"trending"`
	Err      string         `json:"error,omitempty"`
}
