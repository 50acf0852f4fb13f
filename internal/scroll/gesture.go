// ABOUTME: Tear gesture interpretation as a pure function of drag positions
// ABOUTME: Decides tear, snap-back or reject without any rendering surface

package scroll

import "math"

// Decision is the outcome of interpreting a drag gesture.
type Decision int

// Gesture decisions
const (
	DecisionSnapBack Decision = iota
	DecisionTear
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionSnapBack:
		return "snap-back"
	case DecisionTear:
		return "tear"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Gesture is a horizontal drag from StartX to EndX, in pixels.
type Gesture struct {
	StartX float64
	EndX   float64
}

// Delta returns the absolute horizontal distance dragged.
func (g Gesture) Delta() float64 {
	return math.Abs(g.EndX - g.StartX)
}

// ReadyToTear reports whether releasing now would tear.
func (g Gesture) ReadyToTear() bool {
	return g.Delta() > TearThreshold
}

// Feedback returns the visual distortion for an in-progress drag. ok is false
// once the drag passes FeedbackLimit and the scroll stops distorting.
func (g Gesture) Feedback() (scale, rotation float64, ok bool) {
	delta := g.Delta()
	if delta >= FeedbackLimit {
		return 0, 0, false
	}
	direction := -1.0
	if g.EndX > g.StartX {
		direction = 1.0
	}
	return 1 + delta*0.0005, direction * delta * 0.05, true
}

// InterpretGesture decides what a released drag does. A user who already
// tore today is rejected regardless of distance.
func InterpretGesture(g Gesture, actedToday bool) Decision {
	if actedToday {
		return DecisionReject
	}
	if g.ReadyToTear() {
		return DecisionTear
	}
	return DecisionSnapBack
}
