package controller

import (
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/state"
	"github.com/rs/zerolog"
)

var (
	ControllerName = "CTRL"
)

// Actuators is the part of the device session the phase controller writes to
type Actuators interface {
	WriteIndicator(code string) error
	WriteActuator(dir drivers.Direction) error
}

type BaseControllerService struct {
	Running    int32 // used atomically
	Logger     *zerolog.Logger
	name       string
	stateStore *state.Store[data.Status]
}

// Name satisfies the api.Service interface
func (s *BaseControllerService) Name() string {
	return s.name
}

// dispatch records a status change. A failed dispatch is logged and never stops the cycle.
func (s *BaseControllerService) dispatch(a state.Action) {
	if s.stateStore == nil {
		return
	}
	if err := s.stateStore.Dispatch(a); err != nil {
		s.Logger.Error().Msgf("Could not update controller status with %s: %v", a.Type, err)
	}
}
