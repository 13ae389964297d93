package data

import (
	"testing"
	"time"

	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/SSSOC-CAN/trafficd/state"
)

// TestStatusReducer runs one cycle, a trip and a restart through the status store
func TestStatusReducer(t *testing.T) {
	store := NewStatusStore()
	now := time.Now()
	actions := []state.Action{
		PhaseEnterAction(phase.Red, now),
		PhaseEnterAction(phase.YellowToGreen, now),
		SensorSampleAction([2]byte{0x01, 0x00}, now),
		PreemptTripAction([2]byte{0x09, 0x00}, now),
		CycleRestartAction(phase.Green, now),
		PhaseEnterAction(phase.Red, now),
	}
	for _, a := range actions {
		if err := store.Dispatch(a); err != nil {
			t.Fatalf("Could not dispatch %s: %v", a.Type, err)
		}
	}
	s := store.GetState()
	if s.Phase != phase.Red {
		t.Errorf("Expected phase RED, received %v", s.Phase)
	}
	if s.Cycles != 2 || s.Samples != 1 || s.Trips != 1 || s.Restarts != 1 {
		t.Errorf("Unexpected counters: %+v", s)
	}
	if s.Preempted {
		t.Errorf("Preemption should be consumed by the restart")
	}
	if s.LastSample != [2]byte{0x09, 0x00} {
		t.Errorf("Unexpected last sample: %v", s.LastSample)
	}
	if s.LastEvent.Kind != PhaseEntered {
		t.Errorf("Unexpected last event: %v", s.LastEvent.Kind)
	}
}

func TestStatusReducerInvalid(t *testing.T) {
	store := NewStatusStore()
	if err := store.Dispatch(state.Action{Type: phaseEnterAction, Payload: phase.Green}); err != state.ErrInvalidPayloadType {
		t.Errorf("Unexpected error when dispatching: %v", err)
	}
	if err := store.Dispatch(state.Action{Type: "phase/skip", Payload: Event{}}); err != state.ErrInvalidAction {
		t.Errorf("Unexpected error when dispatching: %v", err)
	}
}
