// Package data holds the controller status shared between the control loops and their observers
package data

import (
	"time"

	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/SSSOC-CAN/trafficd/state"
)

type EventKind int32

const (
	PhaseEntered EventKind = iota
	SensorSampled
	PreemptTripped
	CycleRestarted
)

func (k EventKind) String() string {
	switch k {
	case PhaseEntered:
		return "phase"
	case SensorSampled:
		return "sample"
	case PreemptTripped:
		return "trip"
	case CycleRestarted:
		return "restart"
	default:
		return "unknown"
	}
}

// Event is the change which produced the current Status
type Event struct {
	Kind   EventKind
	Phase  phase.Phase
	Sample [2]byte
	At     time.Time
}

// Status is the state held in the status store
type Status struct {
	Phase      phase.Phase
	Preempted  bool
	Cycles     uint64
	Samples    uint64
	Trips      uint64
	Restarts   uint64
	LastSample [2]byte
	LastEvent  Event
}

const (
	phaseEnterAction   = "phase/enter"
	sensorSampleAction = "sensor/sample"
	preemptTripAction  = "preempt/trip"
	cycleRestartAction = "cycle/restart"
)

var (
	InitialStatus = Status{Phase: phase.Red}
	StatusReducer state.Reducer[Status] = func(s Status, a state.Action) (Status, error) {
		ev, ok := a.Payload.(Event)
		if !ok {
			return s, state.ErrInvalidPayloadType
		}
		switch a.Type {
		case phaseEnterAction:
			s.Phase = ev.Phase
			if ev.Phase == phase.Red {
				s.Cycles++
			}
		case sensorSampleAction:
			s.Samples++
			s.LastSample = ev.Sample
		case preemptTripAction:
			s.Trips++
			s.Preempted = true
			s.LastSample = ev.Sample
		case cycleRestartAction:
			s.Restarts++
			s.Preempted = false
		default:
			return s, state.ErrInvalidAction
		}
		s.LastEvent = ev
		return s, nil
	}
	PhaseEnterAction = func(p phase.Phase, at time.Time) state.Action {
		return state.Action{
			Type:    phaseEnterAction,
			Payload: Event{Kind: PhaseEntered, Phase: p, At: at},
		}
	}
	SensorSampleAction = func(sample [2]byte, at time.Time) state.Action {
		return state.Action{
			Type:    sensorSampleAction,
			Payload: Event{Kind: SensorSampled, Sample: sample, At: at},
		}
	}
	PreemptTripAction = func(sample [2]byte, at time.Time) state.Action {
		return state.Action{
			Type:    preemptTripAction,
			Payload: Event{Kind: PreemptTripped, Sample: sample, At: at},
		}
	}
	// CycleRestartAction records a restart at Red. interrupted is the phase which was about to run.
	CycleRestartAction = func(interrupted phase.Phase, at time.Time) state.Action {
		return state.Action{
			Type:    cycleRestartAction,
			Payload: Event{Kind: CycleRestarted, Phase: interrupted, At: at},
		}
	}
)

// NewStatusStore creates the status store used by the daemon
func NewStatusStore() *state.Store[Status] {
	return state.CreateStore(InitialStatus, StatusReducer)
}
