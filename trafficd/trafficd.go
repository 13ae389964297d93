/*
Author: Paul Côté
Last Change Author: Paul Côté
Last Date Changed: 2026/10/12
*/

package trafficd

import (
	"context"
	"sync"

	"github.com/SSSOC-CAN/trafficd/api"
	"github.com/SSSOC-CAN/trafficd/controller"
	"github.com/SSSOC-CAN/trafficd/data"
	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/health"
	"github.com/SSSOC-CAN/trafficd/intercept"
	"github.com/SSSOC-CAN/trafficd/metrics"
	"github.com/SSSOC-CAN/trafficd/preempt"
	"github.com/SSSOC-CAN/trafficd/recorder"
	"github.com/SSSOC-CAN/trafficd/watcher"
	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/rs/zerolog"
)

const (
	ErrInvalidConfig = bg.Error("invalid configuration")
)

// Teardown closes the device session exactly once, whichever of the signal path or the error
// path gets there first. It does not wait for the control loops.
type Teardown struct {
	once    sync.Once
	session *drivers.Session
	logger  *zerolog.Logger
	err     error
}

// NewTeardown returns the teardown of session
func NewTeardown(session *drivers.Session, logger *zerolog.Logger) *Teardown {
	return &Teardown{session: session, logger: logger}
}

// Run closes every device handle on the first call. Every call returns the close error of the first.
func (t *Teardown) Run() error {
	t.once.Do(func() {
		t.logger.Info().Msg("Closing devices...")
		t.err = t.session.CloseAll()
		if t.err != nil {
			t.logger.Error().Msgf("Devices did not close cleanly: %v", t.err)
			return
		}
		t.logger.Info().Msg("Devices closed.")
	})
	return t.err
}

// Main is the true entry point for trafficd. It's called in a nested manner for proper defer execution.
// It returns once a shutdown is requested or a control loop fails, after the devices are closed.
func Main(interceptor *intercept.Interceptor, server *Server) error {
	err := server.Start()
	if err != nil {
		server.logger.Error().Msg("Could not start server")
		return err
	}
	defer server.Stop()

	// Opening devices
	drvLogger := NewSubLogger(server.logger, "DRVR").SubLogger
	drvLogger.Info().Msg("Opening devices...")
	session, err := drivers.OpenAll(server.cfg.Endpoints(), server.opener)
	if err != nil {
		drvLogger.Error().Msgf("Could not open devices: %v", err)
		return err
	}
	teardown := NewTeardown(session, &drvLogger)
	// covers the early returns below, a no-op once the session has been torn down
	defer teardown.Run()
	if server.cfg.Demo {
		drvLogger.Warn().Msg("Running against simulated devices.")
	}
	drvLogger.Info().Msg("Devices successfully opened.")

	store := data.NewStatusStore()
	gate := preempt.New()

	// Initialize Health Checker
	healthChecker := health.NewHealthService()
	err = healthChecker.RegisterHealthService("drivers", session)
	if err != nil {
		server.logger.Error().Msgf("Could not register device session with health checker: %v", err)
		return err
	}

	// Metrics
	mtrcLogger := NewSubLogger(server.logger, "MTRC").SubLogger
	metricsService, err := metrics.NewMetricsService(&mtrcLogger, store, server.cfg.MetricsFile, server.cfg.MetricsInterval)
	if err != nil {
		server.logger.Error().Msgf("Could not initialize metrics service: %v", err)
		return err
	}
	services := []api.Service{metricsService}

	// Recorder
	if server.cfg.InfluxURL != "" {
		rcrdLogger := NewSubLogger(server.logger, "RCRD").SubLogger
		recorderService := recorder.NewRecorderService(
			&rcrdLogger,
			store,
			server.cfg.InfluxURL,
			server.cfg.InfluxAPIToken,
			server.cfg.InfluxOrg,
			server.cfg.InfluxBucket,
			server.runID,
		)
		err = healthChecker.RegisterHealthService("recorder", recorderService)
		if err != nil {
			server.logger.Error().Msgf("Could not register recorder with health checker: %v", err)
			return err
		}
		services = append(services, recorderService)
	}
	for _, s := range services {
		err = s.Start()
		if err != nil {
			server.logger.Error().Msgf("Unable to start %s service: %v", s.Name(), err)
			return err
		}
		defer s.Stop()
	}
	logHealth(server.logger, healthChecker)

	// Control loops
	wtchLogger := NewSubLogger(server.logger, watcher.WatcherName).SubLogger
	watcherService := watcher.NewWatcherService(&wtchLogger, store, session, gate, server.clock, server.cfg.SensorThreshold)
	ctrlLogger := NewSubLogger(server.logger, controller.ControllerName).SubLogger
	controllerService := controller.NewControllerService(&ctrlLogger, store, session, gate, server.clock)
	loops := []api.LoopService{watcherService, controllerService}
	for _, l := range loops {
		err = l.Start()
		if err != nil {
			server.logger.Error().Msgf("Unable to start %s service: %v", l.Name(), err)
			return err
		}
	}

	var loopErr error
	select {
	case <-interceptor.ShutdownChannel():
		server.logger.Info().Msg("Shutdown requested.")
	case loopErr = <-watcherService.Errors():
		server.logger.Error().Msgf("Sensor watcher stopped: %v", loopErr)
		interceptor.RequestShutdown()
	case loopErr = <-controllerService.Errors():
		server.logger.Error().Msgf("Phase controller stopped: %v", loopErr)
		interceptor.RequestShutdown()
	}
	// loops stopped before the teardown exit silently when their device handle goes away
	for _, l := range loops {
		_ = l.Stop()
	}
	closeErr := teardown.Run()
	if loopErr != nil {
		return loopErr
	}
	return closeErr
}

// logHealth runs every registered health check once and logs the result
func logHealth(logger *zerolog.Logger, h *health.HealthService) {
	updates, err := h.Check(context.Background(), "all")
	if err != nil {
		logger.Error().Msgf("Could not run health checks: %v", err)
		return
	}
	for _, u := range updates {
		if u.State == health.SERVING {
			logger.Info().Msgf("Health check %s: %v", u.Name, u.State)
		} else {
			logger.Warn().Msgf("Health check %s: %v (%v)", u.Name, u.State, u.Err)
		}
	}
}
