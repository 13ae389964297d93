/*
Author: Paul Côté
Last Change Author: Paul Côté
Last Date Changed: 2026/10/12
*/

package trafficd

import (
	"sync/atomic"
	"time"

	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/SSSOC-CAN/trafficd/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xmidt-org/webpa-common/clock"
)

var (
	// demoPace is the time the simulated sensor takes to produce one sample
	demoPace = 100 * time.Millisecond
)

// Server is the object representing the state of the server
type Server struct {
	Active int32 // atomic
	cfg    *Config
	logger *zerolog.Logger
	runID  string
	clock  clock.Interface
	opener drivers.Opener
}

// InitServer creates a new instance of the server and returns a pointer to it. Every log line of
// the run carries the same run id.
func InitServer(config *Config, logger *zerolog.Logger) (*Server, error) {
	runID := uuid.New().String()
	l := logger.With().Str("run_id", runID).Logger()
	s := &Server{
		cfg:    config,
		logger: &l,
		runID:  runID,
		clock:  clock.System(),
		opener: drivers.OpenCharDevice,
	}
	if config.Demo {
		bench := drivers.NewDemoBench(s.clock, demoPace, config.SensorThreshold, config.DemoTripRate)
		s.opener = bench.Open
	}
	return s, nil
}

// Start starts the server. Returns an error if any issues occur
func (s *Server) Start() error {
	s.logger.Info().Msg("Starting Daemon...")
	if ok := atomic.CompareAndSwapInt32(&s.Active, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	s.logger.Info().Msgf("Daemon succesfully started. Version: %s", utils.AppVersion)
	return nil
}

// Stop stops the server. Returns an error if any issues occur
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping Daemon...")
	if ok := atomic.CompareAndSwapInt32(&s.Active, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.logger.Info().Msg("Daemon succesfully stopped.")
	return nil
}

// RunID returns the identifier attached to the logs and recorded points of this run
func (s *Server) RunID() string {
	return s.runID
}
