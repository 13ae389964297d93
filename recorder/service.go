// Package recorder writes phase entries, samples, trips and restarts to InfluxDB
package recorder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/SSSOC-CAN/trafficd/api"
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/state"
	bg "github.com/SSSOCPaulCote/blunderguard"
	influx "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const (
	ErrInfluxUnreachable = bg.Error("influxdb did not answer the ping")
)

var (
	RecorderName       = "RCRD"
	defaultBatchSize   = uint(50)
	pointBufferSize    = 256
	runIDTag           = "run_id"
	phaseTag           = "phase"
	interruptedTag     = "interrupted"
	phaseMeasurement   = "phase"
	sampleMeasurement  = "sample"
	tripMeasurement    = "trip"
	restartMeasurement = "restart"
)

// RecorderService subscribes to the status store and turns every event into an InfluxDB point
type RecorderService struct {
	Running     int32 // used atomically
	Logger      *zerolog.Logger
	name        string
	idb         influx.Client
	writeAPI    influxapi.WriteAPI
	stateStore  *state.Store[data.Status]
	unsubscribe func()
	runID       string
	org         string
	bucket      string
	points      chan *write.Point
	dropped     uint64 // used atomically
	quit        chan struct{}
	wgListen    sync.WaitGroup
	wgRecord    sync.WaitGroup
}

// A compile time check to make sure that RecorderService fully implements the api.Service interface
var _ api.Service = (*RecorderService)(nil)

// NewRecorderService creates a new RecorderService. Points are tagged with runID.
func NewRecorderService(logger *zerolog.Logger, store *state.Store[data.Status], influxUrl, influxToken, org, bucket, runID string) *RecorderService {
	client := influx.NewClientWithOptions(influxUrl, influxToken, influx.DefaultOptions().SetBatchSize(defaultBatchSize))
	return &RecorderService{
		Logger:     logger,
		name:       RecorderName,
		idb:        client,
		stateStore: store,
		runID:      runID,
		org:        org,
		bucket:     bucket,
	}
}

// Start starts the service. Returns an error if any issues occur
func (s *RecorderService) Start() error {
	s.Logger.Info().Msg("Starting recorder service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	s.writeAPI = s.idb.WriteAPI(s.org, s.bucket)
	s.quit = make(chan struct{})
	s.points = make(chan *write.Point, pointBufferSize)
	s.wgListen.Add(1)
	go s.listenForErrors(s.writeAPI.Errors())
	s.wgRecord.Add(1)
	go s.writePoints()
	s.unsubscribe = s.stateStore.Subscribe(s.record)
	s.Logger.Info().Msgf("Recording to bucket %s of %s.", s.bucket, s.org)
	return nil
}

// Stop stops the service. Pending points are flushed before the client is closed.
func (s *RecorderService) Stop() error {
	s.Logger.Info().Msg("Stopping recorder service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.unsubscribe()
	close(s.points)
	s.wgRecord.Wait()
	s.writeAPI.Flush()
	s.idb.Close()
	close(s.quit)
	s.wgListen.Wait()
	if n := atomic.LoadUint64(&s.dropped); n > 0 {
		s.Logger.Warn().Msgf("%v points were dropped because influxdb could not keep up", n)
	}
	s.Logger.Info().Msg("Recorder service stopped.")
	return nil
}

// Name satisfies the api.Service interface
func (s *RecorderService) Name() string {
	return s.name
}

// Ping satisfies the health.RegisteredHealthService interface
func (s *RecorderService) Ping(ctx context.Context) error {
	ok, err := s.idb.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInfluxUnreachable
	}
	return nil
}

func (s *RecorderService) listenForErrors(errChan <-chan error) {
	defer s.wgListen.Done()
	for {
		select {
		case err, ok := <-errChan:
			if !ok {
				return
			}
			s.Logger.Error().Msgf("Could not write to influxdb: %v", err)
		case <-s.quit:
			return
		}
	}
}

// record is called by the status store after every dispatch, sometimes while the control loops hold
// the preemption lock, so it never blocks. Points are dropped when the buffer is full.
func (s *RecorderService) record(st data.Status) {
	p := s.point(st)
	if p == nil {
		return
	}
	select {
	case s.points <- p:
	default:
		atomic.AddUint64(&s.dropped, 1)
	}
}

// writePoints hands buffered points to the influx write API until the buffer is closed
func (s *RecorderService) writePoints() {
	defer s.wgRecord.Done()
	for p := range s.points {
		s.writeAPI.WritePoint(p)
	}
}

func (s *RecorderService) point(st data.Status) *write.Point {
	ev := st.LastEvent
	tags := map[string]string{runIDTag: s.runID}
	switch ev.Kind {
	case data.PhaseEntered:
		tags[phaseTag] = ev.Phase.String()
		return influx.NewPoint(phaseMeasurement, tags, map[string]interface{}{
			"code":   int64(ev.Phase),
			"cycles": int64(st.Cycles),
		}, ev.At)
	case data.SensorSampled:
		return influx.NewPoint(sampleMeasurement, tags, map[string]interface{}{
			"high": int64(ev.Sample[0]),
			"low":  int64(ev.Sample[1]),
		}, ev.At)
	case data.PreemptTripped:
		tags[phaseTag] = st.Phase.String()
		return influx.NewPoint(tripMeasurement, tags, map[string]interface{}{
			"high":  int64(ev.Sample[0]),
			"low":   int64(ev.Sample[1]),
			"trips": int64(st.Trips),
		}, ev.At)
	case data.CycleRestarted:
		tags[interruptedTag] = ev.Phase.String()
		return influx.NewPoint(restartMeasurement, tags, map[string]interface{}{
			"restarts": int64(st.Restarts),
		}, ev.At)
	}
	return nil
}
