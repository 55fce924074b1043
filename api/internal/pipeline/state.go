package pipeline

import "fmt"

// State of one document run. Transitions only move forward:
// Idle -> Extracting -> Canonicalizing -> Reconciling -> Done, or to Failed
// from Extracting.
type State int

const (
	Idle State = iota
	Extracting
	Canonicalizing
	Reconciling
	Done
	Failed
)

var stateNames = [...]string{"idle", "extracting", "canonicalizing", "reconciling", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Observer is told about every transition of a run.
type Observer func(runID string, from, to State)

// ProcessingError is the only failure Process returns. Err is the
// collaborator's error unchanged when it was already classified.
type ProcessingError struct {
	Stage State
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
