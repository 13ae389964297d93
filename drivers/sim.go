package drivers

import (
	"math/rand"
	"os"
	"sync"
	"time"

	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/xmidt-org/webpa-common/clock"
)

const (
	ErrEndpointBusy = bg.Error("endpoint already open")
)

// Write is one payload recorded by a SimBench
type Write struct {
	Endpoint Endpoint
	Payload  []byte
}

// SimBench is an in-memory stand-in for the four device endpoints. It backs the demo mode of
// the daemon and the tests: actuator writes are recorded in order, sensor reads are served from
// injected samples or from a generator, and failures can be injected per endpoint.
type SimBench struct {
	mu        sync.Mutex
	log       []Write
	samples   chan [2]byte
	open      map[Endpoint]bool
	failOpen  map[Endpoint]error
	failWrite map[Endpoint]error
	failClose map[Endpoint]error
	generator func() [2]byte
	// OnWrite, when set, is called after every recorded write
	OnWrite func(Write)
}

// NewSimBench returns a bench whose sensor blocks until a sample is injected
func NewSimBench() *SimBench {
	return &SimBench{
		samples:   make(chan [2]byte, 64),
		open:      make(map[Endpoint]bool),
		failOpen:  make(map[Endpoint]error),
		failWrite: make(map[Endpoint]error),
		failClose: make(map[Endpoint]error),
	}
}

// NewDemoBench returns a bench whose sensor produces one sample every pace. A sample exceeds
// the threshold with probability tripRate.
func NewDemoBench(clk clock.Interface, pace time.Duration, threshold byte, tripRate float64) *SimBench {
	b := NewSimBench()
	b.generator = func() [2]byte {
		clk.Sleep(pace)
		if rand.Float64() < tripRate && threshold < 0xff {
			return [2]byte{threshold + 1 + byte(rand.Intn(int(0xff-threshold))), byte(rand.Intn(256))}
		}
		return [2]byte{byte(rand.Intn(int(threshold) + 1)), byte(rand.Intn(256))}
	}
	return b
}

// Open satisfies the Opener type. An endpoint can only be open once at a time.
func (b *SimBench) Open(ep Endpoint, _ string) (Port, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failOpen[ep]; err != nil {
		return nil, err
	}
	if b.open[ep] {
		return nil, ErrEndpointBusy
	}
	b.open[ep] = true
	return &simPort{bench: b, ep: ep, closed: make(chan struct{})}, nil
}

// InjectSample queues a sample for the next sensor read
func (b *SimBench) InjectSample(sample [2]byte) {
	b.samples <- sample
}

// FailOpen makes every following Open of ep return err
func (b *SimBench) FailOpen(ep Endpoint, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failOpen[ep] = err
}

// FailWrite makes every following write to ep return err
func (b *SimBench) FailWrite(ep Endpoint, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrite[ep] = err
}

// FailClose makes the next close of ep return err
func (b *SimBench) FailClose(ep Endpoint, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failClose[ep] = err
}

// Writes returns every recorded write in the order it happened
func (b *SimBench) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Write, len(b.log))
	copy(out, b.log)
	return out
}

// IsOpen reports whether ep currently has an open port
func (b *SimBench) IsOpen(ep Endpoint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[ep]
}

func (b *SimBench) record(ep Endpoint, p []byte) error {
	b.mu.Lock()
	if err := b.failWrite[ep]; err != nil {
		b.mu.Unlock()
		return err
	}
	w := Write{Endpoint: ep, Payload: append([]byte(nil), p...)}
	b.log = append(b.log, w)
	hook := b.OnWrite
	b.mu.Unlock()
	if hook != nil {
		hook(w)
	}
	return nil
}

type simPort struct {
	bench  *SimBench
	ep     Endpoint
	once   sync.Once
	closed chan struct{}
}

func (p *simPort) Read(buf []byte) (int, error) {
	var sample [2]byte
	select {
	case <-p.closed:
		return 0, os.ErrClosed
	case sample = <-p.bench.samples:
	default:
		if p.bench.generator != nil {
			sample = p.bench.generator()
		} else {
			select {
			case <-p.closed:
				return 0, os.ErrClosed
			case sample = <-p.bench.samples:
			}
		}
	}
	return copy(buf, sample[:]), nil
}

func (p *simPort) Write(buf []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, os.ErrClosed
	default:
	}
	if err := p.bench.record(p.ep, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (p *simPort) Close() error {
	err := os.ErrClosed
	p.once.Do(func() {
		close(p.closed)
		p.bench.mu.Lock()
		defer p.bench.mu.Unlock()
		p.bench.open[p.ep] = false
		err = p.bench.failClose[p.ep]
		delete(p.bench.failClose, p.ep)
	})
	return err
}
