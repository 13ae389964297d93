// Package watcher samples the proximity sensor and preempts the signal cycle when something is
// detected at the crossing
package watcher

import (
	"sync/atomic"
	"time"

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

var (
	WatcherName = "WTCH"
	// DefaultThreshold is compared against the high-order byte of each sample
	DefaultThreshold byte = 0x07
)

// Bench is the part of the device session the watcher uses
type Bench interface {
	ReadSensor() ([2]byte, error)
	WriteActuator(dir drivers.Direction) error
	SoundAlarm(dir drivers.Direction) error
	WriteIndicator(code string) error
}

// WatcherService polls the proximity sensor. A sample whose first byte exceeds the threshold
// raises the crossing arm, sounds the alarm, blanks the indicator and raises the preemption flag,
// then keeps the lock for the safety hold.
type WatcherService struct {
	Running    int32 // used atomically
	Logger     *zerolog.Logger
	name       string
	stateStore *state.Store[data.Status]
	device     Bench
	gate       *preempt.State
	clock      clock.Interface
	threshold  byte
	safetyHold time.Duration
	errChan    chan error
}

// A compile time check to make sure that WatcherService fully implements the api.LoopService interface
var _ api.LoopService = (*WatcherService)(nil)

// NewWatcherService creates an instance of the WatcherService struct. The safety hold lasts as long as
// the RED dwell.
func NewWatcherService(logger *zerolog.Logger, store *state.Store[data.Status], device Bench, gate *preempt.State, clk clock.Interface, threshold byte) *WatcherService {
	return &WatcherService{
		Logger:     logger,
		name:       WatcherName,
		stateStore: store,
		device:     device,
		gate:       gate,
		clock:      clk,
		threshold:  threshold,
		safetyHold: phase.RedDwell,
		errChan:    make(chan error, 1),
	}
}

// Start starts polling the sensor in its own goroutine
func (s *WatcherService) Start() error {
	s.Logger.Info().Msg("Starting sensor watcher...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	go s.run()
	s.Logger.Info().Msgf("Sensor watcher started with threshold %#04x.", s.threshold)
	return nil
}

// Stop stops the watcher. A read blocked on the sensor returns once the session is closed.
func (s *WatcherService) Stop() error {
	s.Logger.Info().Msg("Stopping sensor watcher...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.Logger.Info().Msg("Sensor watcher stopped.")
	return nil
}

// Name satisfies the api.Service interface
func (s *WatcherService) Name() string {
	return s.name
}

// Errors returns the channel on which a fatal device error is delivered
func (s *WatcherService) Errors() <-chan error {
	return s.errChan
}

func (s *WatcherService) run() {
	for atomic.LoadInt32(&s.Running) == 1 {
		if _, err := s.Poll(); err != nil {
			if atomic.LoadInt32(&s.Running) == 0 {
				s.Logger.Debug().Msgf("Watcher loop exiting after shutdown: %v", err)
				return
			}
			s.Logger.Error().Msgf("Sensor watcher failed: %v", err)
			s.errChan <- err
			return
		}
	}
}

// Poll reads one sample and runs the emergency sequence if it exceeds the threshold. There is no
// debounce, every sample above the threshold retriggers the full sequence.
func (s *WatcherService) Poll() (bool, error) {
	sample, err := s.device.ReadSensor()
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	s.dispatch(data.SensorSampleAction(sample, now))
	if sample[0] <= s.threshold {
		return false, nil
	}
	s.Logger.Warn().Msgf("Proximity sample %#04x exceeds threshold %#04x, preempting cycle", sample[0], s.threshold)
	err = s.gate.WithLock(func(f *preempt.Flag) error {
		if err := s.device.WriteActuator(drivers.Raise); err != nil {
			return err
		}
		if err := s.device.SoundAlarm(drivers.Raise); err != nil {
			return err
		}
		if err := s.device.WriteIndicator(phase.CodeBlank); err != nil {
			return err
		}
		f.Raise()
		s.dispatch(data.PreemptTripAction(sample, now))
		s.clock.Sleep(s.safetyHold)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *WatcherService) dispatch(a state.Action) {
	if s.stateStore == nil {
		return
	}
	if err := s.stateStore.Dispatch(a); err != nil {
		s.Logger.Error().Msgf("Could not update controller status with %s: %v", a.Type, err)
	}
}
