package controller

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/SSSOC-CAN/trafficd/clock/clocktest"
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/SSSOC-CAN/trafficd/preempt"
	"github.com/SSSOC-CAN/trafficd/state"
	e "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// describe turns recorded writes into readable strings like "indicator:RED" or "crossing-arm:a"
func describe(writes []drivers.Write) []string {
	out := make([]string, 0, len(writes))
	for _, w := range writes {
		out = append(out, string(w.Endpoint)+":"+string(bytes.TrimRight(w.Payload, "\x00")))
	}
	return out
}

// initController initializes a controller service on a simulated bench
func initController(t *testing.T) (*ControllerService, *drivers.SimBench, *drivers.Session, *clocktest.Fake, *state.Store[data.Status], *preempt.State) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	bench := drivers.NewSimBench()
	session, err := drivers.OpenAll(drivers.DefaultEndpoints, bench.Open)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.CloseAll() })
	clk := clocktest.New(time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC))
	store := data.NewStatusStore()
	gate := preempt.New()
	return NewControllerService(&log, store, session, gate, clk), bench, session, clk, store, gate
}

// TestStartStopControllerService tests the start/stop functions of the ControllerService
func TestStartStopControllerService(t *testing.T) {
	controllerService, _, _, clk, _, _ := initController(t)
	release := make(chan struct{})
	clk.OnSleep = func(time.Duration) { <-release }
	defer close(release)
	t.Run("Start Controller Service", func(t *testing.T) {
		err := controllerService.Start()
		if err != nil {
			t.Errorf("Could not start controller service: %v", err)
		}
	})
	t.Run("Start Controller Service Invalid", func(t *testing.T) {
		err := controllerService.Start()
		if err != errors.ErrServiceAlreadyStarted {
			t.Errorf("Unexpected error when starting controller service: %v", err)
		}
	})
	t.Run("Stop Controller Service", func(t *testing.T) {
		err := controllerService.Stop()
		if err != nil {
			t.Errorf("Could not stop controller service: %v", err)
		}
	})
	t.Run("Stop Controller Service Invalid", func(t *testing.T) {
		err := controllerService.Stop()
		if err != errors.ErrServiceAlreadyStopped {
			t.Errorf("Unexpected error when stopping controller service: %v", err)
		}
	})
	if controllerService.Name() != ControllerName {
		t.Errorf("Unexpected service name: %v", controllerService.Name())
	}
}

// TestNormalCycle runs two full cycles without any preemption
func TestNormalCycle(t *testing.T) {
	ctrl, bench, _, clk, store, _ := initController(t)
	for i := 0; i < 8; i++ {
		require.NoError(t, ctrl.Step())
	}
	oneCycle := []string{
		"indicator:RED", "crossing-arm:a",
		"indicator:YELLOW",
		"indicator:GREEN", "crossing-arm:b",
		"indicator:YELLOW",
	}
	assert.Equal(t, append(oneCycle, oneCycle...), describe(bench.Writes()))
	dwells := []time.Duration{5 * time.Second, 2 * time.Second, 4 * time.Second, 2 * time.Second}
	assert.Equal(t, append(dwells, dwells...), clk.Sleeps())
	assert.Equal(t, phase.Red, ctrl.Pending())
	s := store.GetState()
	assert.Equal(t, uint64(2), s.Cycles)
	assert.Equal(t, uint64(0), s.Restarts)
	assert.Equal(t, phase.YellowToRed, s.Phase)
}

// TestPreemptBeforeEveryPhase raises the flag ahead of each phase and checks the cycle restarts at RED
func TestPreemptBeforeEveryPhase(t *testing.T) {
	for i, interrupted := range phase.Cycle {
		t.Run(interrupted.String(), func(t *testing.T) {
			ctrl, bench, _, clk, store, gate := initController(t)
			for j := 0; j < i; j++ {
				require.NoError(t, ctrl.Step())
			}
			require.Equal(t, interrupted, ctrl.Pending())
			writesBefore := len(bench.Writes())
			sleepsBefore := len(clk.Sleeps())
			require.NoError(t, gate.WithLock(func(f *preempt.Flag) error {
				f.Raise()
				return nil
			}))
			require.NoError(t, ctrl.Step())
			assert.Len(t, bench.Writes(), writesBefore, "restart must not write")
			assert.Len(t, clk.Sleeps(), sleepsBefore, "restart must not dwell")
			assert.Equal(t, phase.Red, ctrl.Pending())
			assert.Equal(t, data.CycleRestarted, store.GetState().LastEvent.Kind)
			assert.Equal(t, interrupted, store.GetState().LastEvent.Phase)
			require.NoError(t, gate.WithLock(func(f *preempt.Flag) error {
				assert.False(t, f.Raised())
				return nil
			}))
			require.NoError(t, ctrl.Step())
			writes := describe(bench.Writes())
			assert.Equal(t, "indicator:RED", writes[writesBefore])
			assert.Equal(t, uint64(1), store.GetState().Restarts)
		})
	}
}

// TestPreemptDuringDwell raises the flag while GREEN is dwelling. GREEN completes its dwell and the
// YELLOW which would follow is replaced by RED.
func TestPreemptDuringDwell(t *testing.T) {
	ctrl, bench, _, clk, store, gate := initController(t)
	clk.OnSleep = func(d time.Duration) {
		if d == phase.GreenDwell {
			require.NoError(t, gate.WithLock(func(f *preempt.Flag) error {
				f.Raise()
				return nil
			}))
		}
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, ctrl.Step())
	}
	assert.Equal(t, []string{
		"indicator:RED", "crossing-arm:a",
		"indicator:YELLOW",
		"indicator:GREEN", "crossing-arm:b",
		"indicator:RED", "crossing-arm:a",
	}, describe(bench.Writes()))
	assert.Equal(t, uint64(1), store.GetState().Restarts)
}

// TestRepeatedFlagRaiseRestartsOnce checks a flag raised several times before the controller looks
// at it produces a single restart
func TestRepeatedFlagRaiseRestartsOnce(t *testing.T) {
	ctrl, _, _, _, store, gate := initController(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, gate.WithLock(func(f *preempt.Flag) error {
			f.Raise()
			return nil
		}))
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, ctrl.Step())
	}
	assert.Equal(t, uint64(1), store.GetState().Restarts)
}

// TestControllerDeviceFailure checks a failed write is delivered on the error channel
func TestControllerDeviceFailure(t *testing.T) {
	ctrl, bench, _, _, _, _ := initController(t)
	bench.FailWrite(drivers.CrossingArm, e.New("servo jammed"))
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()
	select {
	case err := <-ctrl.Errors():
		var ioErr *errors.IoError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, string(drivers.CrossingArm), ioErr.Endpoint)
		assert.Equal(t, "write", ioErr.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("Controller did not report the write failure")
	}
}

// TestControllerExitsSilentlyAfterTeardown closes the session under a stopped controller
func TestControllerExitsSilentlyAfterTeardown(t *testing.T) {
	ctrl, _, session, clk, _, _ := initController(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	clk.OnSleep = func(time.Duration) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}
	require.NoError(t, ctrl.Start())
	<-entered
	require.NoError(t, ctrl.Stop())
	require.NoError(t, session.CloseAll())
	close(release)
	select {
	case err := <-ctrl.Errors():
		t.Fatalf("Unexpected error after teardown: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestPendingWhileRunning reads the pending phase while the cycle runs
func TestPendingWhileRunning(t *testing.T) {
	ctrl, _, _, clk, _, _ := initController(t)
	clk.OnSleep = func(time.Duration) { time.Sleep(time.Millisecond) }
	require.NoError(t, ctrl.Start())
	seen := make(map[phase.Phase]bool)
	deadline := time.Now().Add(time.Second)
	for len(seen) < len(phase.Cycle) && time.Now().Before(deadline) {
		seen[ctrl.Pending()] = true
	}
	require.NoError(t, ctrl.Stop())
	for _, p := range phase.Cycle {
		assert.True(t, seen[p], "%v never pending", p)
	}
}
