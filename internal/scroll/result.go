// ABOUTME: Result and history entry types produced by a tear
// ABOUTME: Defines result kinds, entry classes and their presentation helpers

package scroll

import "time"

// Kind is the category of a tear result.
type Kind string

// Result kinds, in the fixed enumeration order used for weighted selection.
const (
	KindIncrement Kind = "increment"
	KindNeutral   Kind = "neutral"
	KindEmpty     Kind = "empty"
	KindMarker    Kind = "marker"
)

// Kinds lists every kind in selection order.
var Kinds = [...]Kind{KindIncrement, KindNeutral, KindEmpty, KindMarker}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindIncrement, KindNeutral, KindEmpty, KindMarker:
		return true
	}
	return false
}

// Modifier returns the style modifier a presentation layer applies to the result.
func (k Kind) Modifier() string {
	switch k {
	case KindEmpty:
		return "result--void"
	case KindMarker:
		return "result--temporal"
	default:
		return "result--standard"
	}
}

// EntryClass determines how a committed result is shown in history.
type EntryClass string

// Entry classes
const (
	EntryTorn      EntryClass = "torn"
	EntryEmpty     EntryClass = "empty"
	EntryUnchanged EntryClass = "unchanged"
)

// Valid reports whether c is a known entry class.
func (c EntryClass) Valid() bool {
	switch c {
	case EntryTorn, EntryEmpty, EntryUnchanged:
		return true
	}
	return false
}

// Result is what appears when the scroll is torn. It is produced once by the
// generator and consumed once by the state store.
type Result struct {
	Kind       Kind       `json:"type"`
	Display    string     `json:"display"`
	Value      int        `json:"value"`
	EntryClass EntryClass `json:"entry_type"`
}

// Entry is one committed tear in a user's history.
type Entry struct {
	EntryID      string     `json:"entry_id,omitempty"`
	Identity     string     `json:"id"`
	Day          int        `json:"day"`
	EntryClass   EntryClass `json:"entry_class"`
	NumericValue int        `json:"numeric_value"`
	CreatedAt    time.Time  `json:"created_at"`
}
