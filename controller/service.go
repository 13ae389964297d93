/*
Author: Paul Côté
Last Change Author: Paul Côté
Last Date Changed: 2026/10/12
*/

// Package controller drives the four-phase signal cycle
package controller

import (
	"sync/atomic"

	"github.com/SSSOC-CAN/trafficd/api"
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/SSSOC-CAN/trafficd/preempt"
	"github.com/SSSOC-CAN/trafficd/state"
	"github.com/rs/zerolog"
	"github.com/xmidt-org/webpa-common/clock"
)

// ControllerService runs the signal cycle RED, YELLOW, GREEN, YELLOW and restarts it at RED
// whenever the sensor watcher has raised the preemption flag
type ControllerService struct {
	BaseControllerService
	device  Actuators
	gate    *preempt.State
	clock   clock.Interface
	pending int32 // used atomically
	errChan chan error
}

// A compile time check to make sure that ControllerService fully implements the api.LoopService interface
var _ api.LoopService = (*ControllerService)(nil)

// NewControllerService creates an instance of the ControllerService struct. The cycle starts at RED.
func NewControllerService(logger *zerolog.Logger, store *state.Store[data.Status], device Actuators, gate *preempt.State, clk clock.Interface) *ControllerService {
	return &ControllerService{
		BaseControllerService: BaseControllerService{
			Logger:     logger,
			name:       ControllerName,
			stateStore: store,
		},
		device:  device,
		gate:    gate,
		clock:   clk,
		pending: int32(phase.Red),
		errChan: make(chan error, 1),
	}
}

// Start starts the phase cycle in its own goroutine
func (s *ControllerService) Start() error {
	s.Logger.Info().Msg("Starting controller service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	go s.run()
	s.Logger.Info().Msg("Controller service successfully started.")
	return nil
}

// Stop stops the controller service. A phase already in its dwell is not interrupted, the loop
// exits at its next check.
func (s *ControllerService) Stop() error {
	s.Logger.Info().Msg("Stopping controller service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.Logger.Info().Msg("Controller service successfully stopped.")
	return nil
}

// Errors returns the channel on which a fatal device error is delivered
func (s *ControllerService) Errors() <-chan error {
	return s.errChan
}

// Pending returns the phase the next Step will try to enter. It is safe to call while the loop runs.
func (s *ControllerService) Pending() phase.Phase {
	return phase.Phase(atomic.LoadInt32(&s.pending))
}

// run loops Step until the service is stopped or a device write fails
func (s *ControllerService) run() {
	for atomic.LoadInt32(&s.Running) == 1 {
		if err := s.Step(); err != nil {
			if atomic.LoadInt32(&s.Running) == 0 {
				s.Logger.Debug().Msgf("Controller loop exiting after shutdown: %v", err)
				return
			}
			s.Logger.Error().Msgf("Device write failed, stopping phase cycle: %v", err)
			s.errChan <- err
			return
		}
	}
}

// Step runs one phase of the cycle. If a preemption is pending it is consumed and the cycle is
// reset to RED without writing or dwelling. Otherwise the pending phase is entered and held for
// its dwell. The flag is checked before every phase.
func (s *ControllerService) Step() error {
	p := s.Pending()
	restarted := false
	err := s.gate.WithLock(func(f *preempt.Flag) error {
		if f.Raised() {
			f.Clear()
			restarted = true
			s.dispatch(data.CycleRestartAction(p, s.clock.Now()))
			return nil
		}
		return s.enter(p)
	})
	if err != nil {
		return err
	}
	if restarted {
		next := phase.Next(p, true)
		atomic.StoreInt32(&s.pending, int32(next))
		s.Logger.Info().Msgf("Preemption observed before %v, restarting cycle at %v", p, next)
		return nil
	}
	s.clock.Sleep(p.Dwell())
	atomic.StoreInt32(&s.pending, int32(phase.Next(p, false)))
	return nil
}

// enter writes the indicator code of p and moves the crossing arm for RED and GREEN.
// Must be called while holding the preemption lock.
func (s *ControllerService) enter(p phase.Phase) error {
	if err := s.device.WriteIndicator(p.IndicatorCode()); err != nil {
		return err
	}
	switch p {
	case phase.Red:
		if err := s.device.WriteActuator(drivers.Lower); err != nil {
			return err
		}
	case phase.Green:
		if err := s.device.WriteActuator(drivers.Raise); err != nil {
			return err
		}
	}
	s.Logger.Debug().Msgf("Entered %v for %v", p, p.Dwell())
	s.dispatch(data.PhaseEnterAction(p, s.clock.Now()))
	return nil
}
