// Package intercept defines objects and related functions to monitor requests to shutdown the application
package intercept

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/rs/zerolog"
)

var (
	started int32
)

// Interceptor is the object controlling application shutdown requests
type Interceptor struct {
	interruptChannel       chan os.Signal
	shutdownChannel        chan struct{}
	shutdownRequestChannel chan struct{}
	quit                   chan struct{}
	logger                 *zerolog.Logger
	received               atomic.Value
}

// mainInterruptHandler listens for termination signals on the interruptChannel and shutdown requests on the
// shutdownRequestChannel.
func (interceptor *Interceptor) mainInterruptHandler() {
	defer atomic.StoreInt32(&started, 0)
	var isShutdown bool
	shutdown := func() {
		if isShutdown {
			interceptor.logger.Info().Msg("Already shutting down...")
			return
		}
		isShutdown = true
		interceptor.logger.Info().Msg("Shutting down...")
		close(interceptor.quit)
	}
	for {
		select {
		case sig := <-interceptor.interruptChannel:
			interceptor.logger.Info().Msgf("Received %v", sig)
			interceptor.received.Store(sig.String())
			shutdown()
		case <-interceptor.shutdownRequestChannel:
			interceptor.logger.Info().Msg("Received shutdown request.")
			shutdown()
		case <-interceptor.quit:
			interceptor.logger.Info().Msg("Gracefully shutting down.")
			signal.Stop(interceptor.interruptChannel)
			close(interceptor.shutdownChannel)
			return
		}
	}
}

// RequestShutdown initiates a graceful shutdown from the application.
func (interceptor *Interceptor) RequestShutdown() {
	select {
	case interceptor.shutdownRequestChannel <- struct{}{}:
	case <-interceptor.quit:
	}
}

// ShutdownChannel returns the channel that will be closed once the main
// interrupt handler has exited.
func (interceptor *Interceptor) ShutdownChannel() <-chan struct{} {
	return interceptor.shutdownChannel
}

// Signal returns the name of the signal which triggered the shutdown, or an empty string if the
// shutdown was requested from within the application
func (interceptor *Interceptor) Signal() string {
	if s, ok := interceptor.received.Load().(string); ok {
		return s
	}
	return ""
}

// InitInterceptor initializes the shutdown and interrupt interceptor. Only one interceptor can run per process.
func InitInterceptor(logger *zerolog.Logger) (*Interceptor, error) {
	if !atomic.CompareAndSwapInt32(&started, 0, 1) {
		return nil, errors.ErrAlreadyIntercepting
	}
	interceptor := &Interceptor{
		interruptChannel:       make(chan os.Signal, 1),
		shutdownChannel:        make(chan struct{}),
		shutdownRequestChannel: make(chan struct{}),
		quit:                   make(chan struct{}),
		logger:                 logger,
	}
	signalsToCatch := []os.Signal{
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
	signal.Notify(interceptor.interruptChannel, signalsToCatch...)
	go interceptor.mainInterruptHandler()
	return interceptor, nil
}
