package domain

// ProbeStatus classifies one verification request.
type ProbeStatus string

const (
	// ProbeHit confirms the candidate resolves to real content.
	ProbeHit ProbeStatus = "hit"
	// ProbeMiss confirms the host does not have this candidate.
	ProbeMiss ProbeStatus = "miss"
	// ProbeTransient is a network error, timeout or 5xx; retryable.
	ProbeTransient ProbeStatus = "transient"
)

// ProbeOutcome is the result of verifying a single candidate URL.
type ProbeOutcome struct {
	Status ProbeStatus
	// URL is the resolved media URL on a hit.
	URL string
	// Muted is set on playlist hits whose segments are muted-only.
	Muted bool
	// Demoted marks a miss that was produced by exhausting the transient
	// retry budget rather than by a definitive 403/404.
	Demoted bool
	// Err carries the last transient failure reason.
	Err error
}

// SearchState is the terminal state of a search.
type SearchState string

const (
	// StateFound means a candidate was confirmed.
	StateFound SearchState = "found"
	// StateExhausted means every candidate in range was confirmed absent.
	StateExhausted SearchState = "exhausted"
	// StateAborted means the search was cancelled before completion, so
	// absence was not confirmed.
	StateAborted SearchState = "aborted"
)

// ReturnURL is a confirmed playable URL.
type ReturnURL struct {
	URL   string
	Muted bool
}

// ClipHit is one confirmed clip inside a scanned offset window.
type ClipHit struct {
	URL    string
	Offset int64
}
