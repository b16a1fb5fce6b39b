package types

// ContextState is a semantic classification of what the user is doing right
// now, derived from machine-state snapshots.
type ContextState string

const (
	StateCoding        ContextState = "CODING"
	StateBrowsing      ContextState = "BROWSING"
	StateMeeting       ContextState = "MEETING"
	StateCommunicating ContextState = "COMMUNICATING"
	StateOnBreak       ContextState = "BREAK"
	StateDeepWork      ContextState = "DEEP_WORK"
	StateAway          ContextState = "AWAY"
)

// All lists every valid context state.
func All() []ContextState {
	return []ContextState{
		StateCoding,
		StateBrowsing,
		StateMeeting,
		StateCommunicating,
		StateOnBreak,
		StateDeepWork,
		StateAway,
	}
}

func (s ContextState) Valid() bool {
	switch s {
	case StateCoding, StateBrowsing, StateMeeting, StateCommunicating,
		StateOnBreak, StateDeepWork, StateAway:
		return true
	}
	return false
}

// Parse maps a stored state string back to a ContextState. Unknown values
// come back as StateAway with ok=false so old records stay readable.
func Parse(raw string) (ContextState, bool) {
	s := ContextState(raw)
	if s.Valid() {
		return s, true
	}
	return StateAway, false
}
