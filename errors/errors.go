// Package errors holds the error values shared by the trafficd packages
package errors

import (
	"fmt"
	"sort"
	"strings"

	bg "github.com/SSSOCPaulCote/blunderguard"
)

const (
	ErrServiceAlreadyStarted = bg.Error("service already started")
	ErrServiceAlreadyStopped = bg.Error("service already stopped")
	ErrSessionClosed         = bg.Error("device session closed")
	ErrShortSample           = bg.Error("sensor returned a short sample")
	ErrUnknownEndpoint       = bg.Error("unknown device endpoint")
	ErrAlreadyIntercepting   = bg.Error("interceptor already initialized")
)

// OpenError is returned when one of the device endpoints could not be opened. CloseErr holds the
// failure to release the endpoints opened before it, if any.
type OpenError struct {
	Endpoint string
	Path     string
	Err      error
	CloseErr error
}

func (e *OpenError) Error() string {
	msg := fmt.Sprintf("could not open %s endpoint at %s: %v", e.Endpoint, e.Path, e.Err)
	if e.CloseErr != nil {
		msg += fmt.Sprintf(" (rollback failed: %v)", e.CloseErr)
	}
	return msg
}

func (e *OpenError) Unwrap() []error {
	if e.CloseErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.CloseErr}
}

// IoError is returned when a read or write on an open endpoint fails
type IoError struct {
	Endpoint string
	Op       string
	Err      error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s on %s endpoint failed: %v", e.Op, e.Endpoint, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// CloseError collects every endpoint which failed to close during teardown
type CloseError struct {
	Failures map[string]error
}

func (e *CloseError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, name := range sortedKeys(e.Failures) {
		msgs = append(msgs, fmt.Sprintf("%s: %v", name, e.Failures[name]))
	}
	return "could not close endpoints: " + strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is and errors.As walk every close failure
func (e *CloseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, name := range sortedKeys(e.Failures) {
		errs = append(errs, e.Failures[name])
	}
	return errs
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
