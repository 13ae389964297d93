package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/SSSOC-CAN/trafficd/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initMetrics(t *testing.T, file string) (*MetricsService, *state.Store[data.Status]) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	store := data.NewStatusStore()
	svc, err := NewMetricsService(&log, store, file, time.Hour)
	require.NoError(t, err)
	return svc, store
}

// TestStartStopMetricsService tests the start/stop functions of the MetricsService
func TestStartStopMetricsService(t *testing.T) {
	svc, _ := initMetrics(t, "")
	t.Run("Start Metrics Service", func(t *testing.T) {
		if err := svc.Start(); err != nil {
			t.Errorf("Could not start metrics service: %v", err)
		}
	})
	t.Run("Start Metrics Service Invalid", func(t *testing.T) {
		if err := svc.Start(); err != errors.ErrServiceAlreadyStarted {
			t.Errorf("Unexpected error when starting metrics service: %v", err)
		}
	})
	t.Run("Stop Metrics Service", func(t *testing.T) {
		if err := svc.Stop(); err != nil {
			t.Errorf("Could not stop metrics service: %v", err)
		}
	})
	t.Run("Stop Metrics Service Invalid", func(t *testing.T) {
		if err := svc.Stop(); err != errors.ErrServiceAlreadyStopped {
			t.Errorf("Unexpected error when stopping metrics service: %v", err)
		}
	})
}

// TestMetricsFollowStatus dispatches a cycle with one trip and checks every collector
func TestMetricsFollowStatus(t *testing.T) {
	svc, store := initMetrics(t, "")
	require.NoError(t, svc.Start())
	now := time.Now()
	for _, a := range []state.Action{
		data.PhaseEnterAction(phase.Red, now),
		data.SensorSampleAction([2]byte{0x01, 0x00}, now),
		data.PhaseEnterAction(phase.YellowToGreen, now),
		data.PhaseEnterAction(phase.Green, now),
		data.PreemptTripAction([2]byte{0x09, 0x00}, now),
	} {
		require.NoError(t, store.Dispatch(a))
	}
	m := svc.measures
	assert.Equal(t, float64(phase.Green), testutil.ToFloat64(m.Phase))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Preempted))
	assert.Equal(t, float64(0x09), testutil.ToFloat64(m.LastSample))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Samples))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Trips))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PhaseEntries.WithLabelValues("RED")))

	require.NoError(t, store.Dispatch(data.CycleRestartAction(phase.YellowToRed, now)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Preempted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Restarts))

	// nothing is observed once stopped
	require.NoError(t, svc.Stop())
	require.NoError(t, store.Dispatch(data.CycleRestartAction(phase.Red, now)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Restarts))
}

// TestMetricsExport checks the textfile written on stop
func TestMetricsExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "trafficd.prom")
	svc, store := initMetrics(t, file)
	require.NoError(t, svc.Start())
	require.NoError(t, store.Dispatch(data.PreemptTripAction([2]byte{0x0a, 0x00}, time.Now())))
	require.NoError(t, svc.Stop())
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "trafficd_trips_total 1")
	assert.Contains(t, string(b), "trafficd_preempted 1")
	n, err := testutil.GatherAndCount(svc.Gatherer(), "trafficd_trips_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
