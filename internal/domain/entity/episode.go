package entity

type TerminationReason string

const (
	TerminationStop                TerminationReason = "stop_action"
	TerminationMaxTurns            TerminationReason = "max_turns"
	TerminationParseExhausted      TerminationReason = "parse_failure_exhausted"
	TerminationValidationExhausted TerminationReason = "validation_failure_exhausted"
	TerminationModelUnavailable    TerminationReason = "model_unavailable"
	TerminationEnvironmentFatal    TerminationReason = "environment_fatal"
)

// TurnRecord is everything the transcript keeps about one completed
// loop iteration. Header is the prompt context rendered when the
// observation arrived (current URL, error message). RawObservation is
// released once the turn goes stale and its Summary is cached;
// SummaryBudget remembers the budget the summary was produced under
// so a shrunk budget forces regeneration.
type TurnRecord struct {
	Turn           int
	Thought        string
	ModelSummary   string // the model's own "Observation Summary:" note, if any
	Action         Action
	Header         string
	RawObservation string
	Summary        string
	SummaryBudget  int
	Truncated      bool
	summarized     bool
}

// HasAction distinguishes real loop turns from the initial
// observation record, which has no thought/action half.
func (r *TurnRecord) HasAction() bool {
	return r.Action.Kind != ""
}

// ReleaseRaw drops the raw observation once a summary is cached.
func (r *TurnRecord) ReleaseRaw() {
	if r.summarized {
		r.RawObservation = ""
	}
}

// HasSummary reports whether a cached summary is available.
func (r *TurnRecord) HasSummary() bool {
	return r.summarized
}

// SetSummary caches the summarized observation produced under budget.
func (r *TurnRecord) SetSummary(s Summary, budget int) {
	r.Summary = s.Text
	r.Truncated = s.Truncated
	r.SummaryBudget = budget
	r.summarized = true
}

// Summary is the budget-bounded compression of a raw observation.
type Summary struct {
	Text      string
	Truncated bool
}

// EpisodeState tracks the loop position of a single run. It is owned
// and mutated by the loop controller only.
type EpisodeState struct {
	Turn       int
	Terminated bool
	Reason     TerminationReason
}

// Terminate marks the episode finished; the first recorded reason wins.
func (s *EpisodeState) Terminate(reason TerminationReason) {
	if s.Terminated {
		return
	}
	s.Terminated = true
	s.Reason = reason
}

// EpisodeResult is the externally observable outcome of one run.
// FinalAnswer is the payload of the stop action, empty otherwise.
type EpisodeResult struct {
	TurnCount       int
	Reason          TerminationReason
	FinalAnswer     string
	FinalTranscript []Message
}
