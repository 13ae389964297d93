package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/SSSOC-CAN/trafficd/api"
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	MetricsName            = "MTRC"
	DefaultMetricsInterval = 15 * time.Second
)

// MetricsService keeps the collectors in sync with the status store and periodically writes them
// to a textfile. No listener is opened.
type MetricsService struct {
	Running     int32 // used atomically
	Logger      *zerolog.Logger
	name        string
	registry    *prometheus.Registry
	measures    *Measures
	stateStore  *state.Store[data.Status]
	unsubscribe func()
	file        string
	interval    time.Duration
	quit        chan struct{}
	wg          sync.WaitGroup
}

// A compile time check to make sure that MetricsService fully implements the api.Service interface
var _ api.Service = (*MetricsService)(nil)

// NewMetricsService creates the collectors on a fresh registry. An empty file disables the export.
func NewMetricsService(logger *zerolog.Logger, store *state.Store[data.Status], file string, interval time.Duration) (*MetricsService, error) {
	registry := prometheus.NewRegistry()
	measures, err := NewMeasures(registry)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultMetricsInterval
	}
	return &MetricsService{
		Logger:     logger,
		name:       MetricsName,
		registry:   registry,
		measures:   measures,
		stateStore: store,
		file:       file,
		interval:   interval,
	}, nil
}

// Start subscribes to the status store and starts the export loop
func (s *MetricsService) Start() error {
	s.Logger.Info().Msg("Starting metrics service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	s.measures.Phase.Set(float64(s.stateStore.GetState().Phase))
	s.unsubscribe = s.stateStore.Subscribe(s.measures.Observe)
	s.quit = make(chan struct{})
	if s.file != "" {
		s.wg.Add(1)
		go s.exportLoop()
	}
	s.Logger.Info().Msg("Metrics service successfully started.")
	return nil
}

// Stop unsubscribes from the status store and writes a last export
func (s *MetricsService) Stop() error {
	s.Logger.Info().Msg("Stopping metrics service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.unsubscribe()
	close(s.quit)
	s.wg.Wait()
	if s.file != "" {
		if err := s.Export(); err != nil {
			return err
		}
	}
	s.Logger.Info().Msg("Metrics service successfully stopped.")
	return nil
}

// Name satisfies the api.Service interface
func (s *MetricsService) Name() string {
	return s.name
}

// Gatherer returns the registry holding the collectors
func (s *MetricsService) Gatherer() prometheus.Gatherer {
	return s.registry
}

// Export writes every collector to the textfile in the prometheus text format
func (s *MetricsService) Export() error {
	return prometheus.WriteToTextfile(s.file, s.registry)
}

func (s *MetricsService) exportLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Export(); err != nil {
				s.Logger.Error().Msgf("Could not export metrics to %s: %v", s.file, err)
			}
		case <-s.quit:
			return
		}
	}
}
