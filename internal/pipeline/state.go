package pipeline

// State identifies where a run is in the two-phase analysis state machine.
// Transitions are strictly ordered; a run never revisits an earlier state.
type State string

// Run states, in transition order.
const (
	StateStarted        State = "STARTED"
	StateFetching       State = "FETCHING"
	StateFirstSynthesis State = "FIRST_SYNTHESIS"
	StateNameExtraction State = "NAME_EXTRACTION"
	StateTargetedLookup State = "TARGETED_LOOKUP"
	StateFinalSynthesis State = "FINAL_SYNTHESIS"
	StateComplete       State = "COMPLETE"
	StateFailed         State = "FAILED"
)

// Outcome tags a finished run's result variant.
type Outcome string

// Result outcomes. NoData is a defined empty result, not a failure.
const (
	OutcomeNoData  Outcome = "no_data"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)
