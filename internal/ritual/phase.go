// ABOUTME: Ritual phases and tear outcomes
// ABOUTME: The orchestrator moves Uninitialized -> Loading -> Intact | Torn | Error

package ritual

// Phase is the presentation state of the scroll for the current session.
type Phase int32

// Ritual phases
const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseIntact
	PhaseTorn
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseIntact:
		return "intact"
	case PhaseTorn:
		return "torn"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is what a tear attempt did.
type Outcome int

// Tear outcomes
const (
	// TearIgnored means nothing happened: another tear was in flight or the
	// session was not ready.
	TearIgnored Outcome = iota
	// TearSnapBack means the drag was released short of the threshold.
	TearSnapBack
	// TearRejected means today's tear was already committed.
	TearRejected
	// TearCommitted means a new result was recorded.
	TearCommitted
)

func (o Outcome) String() string {
	switch o {
	case TearSnapBack:
		return "snap-back"
	case TearRejected:
		return "rejected"
	case TearCommitted:
		return "committed"
	default:
		return "ignored"
	}
}
