// Package phase defines the fixed four-phase signal cycle and its transition function
package phase

import (
	"time"
)

// Phase is one of the four signal states of the cycle
type Phase int

const (
	Red Phase = iota
	YellowToGreen
	Green
	YellowToRed
)

// Indicator codes understood by the indicator driver
const (
	CodeRed    = "RED"
	CodeYellow = "YELLOW"
	CodeGreen  = "GREEN"
	CodeBlank  = "BLANK"
)

var (
	RedDwell    = 5 * time.Second
	YellowDwell = 2 * time.Second
	GreenDwell  = 4 * time.Second
	// Cycle lists the phases in the order they are driven
	Cycle = []Phase{Red, YellowToGreen, Green, YellowToRed}
)

// Next is the transition function of the cycle. A raised preemption always resets to Red,
// otherwise the fixed successor is returned.
func Next(cur Phase, preempted bool) Phase {
	if preempted {
		return Red
	}
	switch cur {
	case Red:
		return YellowToGreen
	case YellowToGreen:
		return Green
	case Green:
		return YellowToRed
	default:
		return Red
	}
}

// Dwell returns how long the phase is held before advancing
func (p Phase) Dwell() time.Duration {
	switch p {
	case Red:
		return RedDwell
	case Green:
		return GreenDwell
	default:
		return YellowDwell
	}
}

// IndicatorCode returns the code written to the indicator when entering the phase
func (p Phase) IndicatorCode() string {
	switch p {
	case Red:
		return CodeRed
	case Green:
		return CodeGreen
	default:
		return CodeYellow
	}
}

func (p Phase) String() string {
	switch p {
	case Red:
		return "RED"
	case YellowToGreen:
		return "YELLOW_TO_GREEN"
	case Green:
		return "GREEN"
	case YellowToRed:
		return "YELLOW_TO_RED"
	default:
		return "UNDEFINED"
	}
}
