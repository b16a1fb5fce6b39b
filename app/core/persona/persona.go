// Package persona maps the current working context to a delivery tone so a
// notification lands the right way for the moment it arrives in.
package persona

import (
	config "vigil0/app/configs"
	"vigil0/app/pkg/types"
)

// Style shapes how a message is worded and delivered.
type Style struct {
	// Name is the tone label handed to the composer prompt.
	Name string
	// Directive is the wording instruction for the composer.
	Directive string
	// Muted asks the dispatcher to deliver without an audible alert.
	Muted bool
}

type Selector struct {
	lateHour int
}

func NewSelector(cfg config.PersonaConfig) *Selector {
	lateHour := cfg.LateHour
	if lateHour <= 0 || lateHour > 23 {
		lateHour = 22
	}
	return &Selector{lateHour: lateHour}
}

// StyleFor picks a tone for the given state and local hour. The late-hour
// override subdues the tone regardless of state; deep work stays minimal
// otherwise. A critical alert keeps its tone but is never delivered muted.
func (s *Selector) StyleFor(state types.ContextState, hour int, critical bool) Style {
	style := s.baseStyle(state, hour)
	if critical {
		style.Muted = false
	}
	return style
}

func (s *Selector) baseStyle(state types.ContextState, hour int) Style {
	if hour >= s.lateHour || hour < 5 {
		return Style{
			Name:      "gentle",
			Directive: "Soft and brief. Acknowledge the late hour and lean toward wrapping up.",
			Muted:     true,
		}
	}
	if state == types.StateDeepWork {
		return Style{
			Name:      "minimal",
			Directive: "One short sentence, only the essential fact. No greeting, no follow-up question.",
			Muted:     true,
		}
	}
	switch state {
	case types.StateCoding:
		return Style{
			Name:      "focused",
			Directive: "Technical and to the point. No small talk.",
		}
	case types.StateMeeting:
		return Style{
			Name:      "discreet",
			Directive: "Very short, suitable to glance at during a call.",
			Muted:     true,
		}
	case types.StateOnBreak:
		return Style{
			Name:      "relaxed",
			Directive: "Casual and friendly. A light touch is fine.",
		}
	case types.StateAway:
		return Style{
			Name:      "welcoming",
			Directive: "Brief recap tone, as if greeting someone back at their desk.",
		}
	default:
		return Style{
			Name:      "neutral",
			Directive: "Plain, helpful and concise.",
		}
	}
}
