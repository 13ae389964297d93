package health

import (
	"context"
	"sort"
	"sync"
	"time"

	bg "github.com/SSSOCPaulCote/blunderguard"
)

const (
	ErrHealthServiceAlreadyRegistered = bg.Error("health service already registered")
	ErrUnregisteredHealthService      = bg.Error("unregistered health service")
)

type State int32

const (
	UNKNOWN State = iota
	SERVING
	NOT_SERVING
)

func (s State) String() string {
	switch s {
	case SERVING:
		return "SERVING"
	case NOT_SERVING:
		return "NOT_SERVING"
	default:
		return "UNKNOWN"
	}
}

// Update is the result of one health check
type Update struct {
	Name  string
	State State
	Err   error
}

var (
	defaultCheckTimeout time.Duration = 5 * time.Second
)

type HealthService struct {
	sync.RWMutex
	registeredServices map[string]RegisteredHealthService
	timeout            time.Duration
}

// NewHealthService instantiates a new HealthService
func NewHealthService() *HealthService {
	return &HealthService{
		registeredServices: make(map[string]RegisteredHealthService),
		timeout:            defaultCheckTimeout,
	}
}

// RegisterHealthService registers a given service that we want to perform health checks on
func (h *HealthService) RegisterHealthService(name string, s RegisteredHealthService) error {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.registeredServices[name]; ok {
		return ErrHealthServiceAlreadyRegistered
	}
	h.registeredServices[name] = s
	return nil
}

// Check performs the health check on the named service, or on every registered service when name
// is empty or "all". Updates are sorted by service name.
func (h *HealthService) Check(ctx context.Context, name string) ([]Update, error) {
	h.RLock()
	defer h.RUnlock()
	if name == "" || name == "all" {
		names := make([]string, 0, len(h.registeredServices))
		for n := range h.registeredServices {
			names = append(names, n)
		}
		sort.Strings(names)
		updates := make([]Update, 0, len(names))
		for _, n := range names {
			updates = append(updates, h.ping(ctx, n, h.registeredServices[n]))
		}
		return updates, nil
	}
	service, ok := h.registeredServices[name]
	if !ok {
		return nil, ErrUnregisteredHealthService
	}
	return []Update{h.ping(ctx, name, service)}, nil
}

func (h *HealthService) ping(ctx context.Context, name string, service RegisteredHealthService) Update {
	newCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- service.Ping(newCtx)
	}()
	update := Update{
		Name:  name,
		State: SERVING,
	}
	select {
	case err := <-errChan:
		if err != nil {
			update.State = NOT_SERVING
			update.Err = err
		}
	case <-newCtx.Done():
		update.State = UNKNOWN
		update.Err = newCtx.Err()
	}
	return update
}
