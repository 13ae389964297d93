// Package drivers is the only gateway from the daemon to the traffic hardware. It opens the
// indicator, crossing arm, alarm and proximity sensor endpoints and exposes thin blocking
// read and write primitives on them.
package drivers

import (
	"context"
	"io"
	"sync"

	"github.com/SSSOC-CAN/trafficd/errors"
)

type handle struct {
	port   Port
	closed bool
}

// Session owns the four open device handles
type Session struct {
	mu      sync.Mutex
	handles map[Endpoint]*handle
	order   []Endpoint
}

var _ DriverConnection = (*Session)(nil)

// OpenAll opens every endpoint. If any endpoint fails to open, the ones already opened are closed
// again and an *errors.OpenError naming the failed endpoint is returned. A failure to close them
// is carried in its CloseErr.
func OpenAll(eps Endpoints, open Opener) (*Session, error) {
	s := &Session{
		handles: make(map[Endpoint]*handle),
	}
	for _, e := range eps.ordered() {
		port, err := open(e.ep, e.path)
		if err != nil {
			return nil, &errors.OpenError{
				Endpoint: string(e.ep),
				Path:     e.path,
				Err:      err,
				CloseErr: s.CloseAll(),
			}
		}
		s.handles[e.ep] = &handle{port: port}
		s.order = append(s.order, e.ep)
	}
	return s, nil
}

// portFor returns the port of an endpoint which has not been closed yet
func (s *Session) portFor(ep Endpoint) (Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[ep]
	if !ok {
		return nil, errors.ErrUnknownEndpoint
	}
	if h.closed {
		return nil, errors.ErrSessionClosed
	}
	return h.port, nil
}

func (s *Session) write(ep Endpoint, payload []byte) error {
	port, err := s.portFor(ep)
	if err != nil {
		return &errors.IoError{Endpoint: string(ep), Op: "write", Err: err}
	}
	n, err := port.Write(payload)
	if err == nil && n < len(payload) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &errors.IoError{Endpoint: string(ep), Op: "write", Err: err}
	}
	return nil
}

// WriteIndicator writes a phase code, NUL padded to IndicatorWidth, to the indicator
func (s *Session) WriteIndicator(code string) error {
	buf := make([]byte, IndicatorWidth)
	copy(buf, code)
	return s.write(Indicator, buf)
}

// WriteActuator sends a direction command to the crossing arm
func (s *Session) WriteActuator(dir Direction) error {
	return s.write(CrossingArm, []byte{byte(dir)})
}

// SoundAlarm sends a direction command to the alarm, Raise starts it and Lower stops it
func (s *Session) SoundAlarm(dir Direction) error {
	return s.write(Alarm, []byte{byte(dir)})
}

// ReadSensor blocks until one sample is available from the proximity sensor
func (s *Session) ReadSensor() ([2]byte, error) {
	var sample [2]byte
	port, err := s.portFor(Sensor)
	if err != nil {
		return sample, &errors.IoError{Endpoint: string(Sensor), Op: "read", Err: err}
	}
	_, err = io.ReadFull(port, sample[:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = errors.ErrShortSample
	}
	if err != nil {
		return sample, &errors.IoError{Endpoint: string(Sensor), Op: "read", Err: err}
	}
	return sample, nil
}

// CloseAll closes every handle that is still open. It can be called any number of times and
// concurrently with in-flight reads and writes; handles already closed are skipped. Any close
// failure is reported in an *errors.CloseError.
func (s *Session) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failures := make(map[string]error)
	for _, ep := range s.order {
		h := s.handles[ep]
		if h.closed {
			continue
		}
		h.closed = true
		if err := h.port.Close(); err != nil {
			failures[string(ep)] = err
		}
	}
	if len(failures) > 0 {
		return &errors.CloseError{Failures: failures}
	}
	return nil
}

// Close satisfies the DriverConnection interface
func (s *Session) Close() error {
	return s.CloseAll()
}

// Closed reports whether any handle of the session has been torn down
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		if h.closed {
			return true
		}
	}
	return false
}

// Ping satisfies the health.RegisteredHealthService interface
func (s *Session) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Closed() {
		return errors.ErrSessionClosed
	}
	return nil
}
