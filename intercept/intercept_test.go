//go:build unix

package intercept

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/SSSOC-CAN/trafficd/errors"
	"github.com/rs/zerolog"
)

// waitForRelease waits until the previous interceptor has exited and a new one can be started
func waitForRelease(t *testing.T, logger *zerolog.Logger) *Interceptor {
	deadline := time.Now().Add(2 * time.Second)
	for {
		interceptor, err := InitInterceptor(logger)
		if err == nil {
			return interceptor
		}
		if time.Now().After(deadline) {
			t.Fatalf("Could not initialize interceptor: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitForShutdown(t *testing.T, interceptor *Interceptor) {
	select {
	case <-interceptor.ShutdownChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown channel was not closed")
	}
}

// TestInterceptor tests the shutdown request and signal paths of the Interceptor
func TestInterceptor(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	t.Run("Request Shutdown", func(t *testing.T) {
		interceptor := waitForRelease(t, &logger)
		if _, err := InitInterceptor(&logger); err != errors.ErrAlreadyIntercepting {
			t.Errorf("Unexpected error when initializing a second interceptor: %v", err)
		}
		interceptor.RequestShutdown()
		waitForShutdown(t, interceptor)
		// a second request after shutdown must not block
		interceptor.RequestShutdown()
		if interceptor.Signal() != "" {
			t.Errorf("Unexpected signal recorded: %v", interceptor.Signal())
		}
	})
	t.Run("Termination Signal", func(t *testing.T) {
		interceptor := waitForRelease(t, &logger)
		if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
			t.Fatalf("Could not signal the test process: %v", err)
		}
		waitForShutdown(t, interceptor)
		if interceptor.Signal() != syscall.SIGTERM.String() {
			t.Errorf("Expected %v to be recorded, received %q", syscall.SIGTERM, interceptor.Signal())
		}
	})
}
