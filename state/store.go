package state

import (
	"sync"

	bg "github.com/SSSOCPaulCote/blunderguard"
)

const (
	ErrInvalidAction      = bg.Error("invalid action")
	ErrInvalidPayloadType = bg.Error("invalid payload type")
)

type (
	Reducer[S any] func(S, Action) (S, error)

	Action struct {
		Type    string
		Payload interface{}
	}

	Store[S any] struct {
		mutex     sync.RWMutex
		state     S
		reducer   Reducer[S]
		listeners map[int]func(S)
		nextID    int
	}
)

// CreateStore creates a new state store object
func CreateStore[S any](initialState S, rootReducer Reducer[S]) *Store[S] {
	return &Store[S]{
		state:     initialState,
		reducer:   rootReducer,
		listeners: make(map[int]func(S)),
	}
}

// GetState returns the current state object
func (s *Store[S]) GetState() S {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// Dispatch takes an action and returns an error. It is the only way to change the state.
// Listeners are called with the new state before Dispatch returns and must not dispatch themselves.
func (s *Store[S]) Dispatch(action Action) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	newState, err := s.reducer(s.state, action)
	if err != nil {
		return err
	}
	s.state = newState
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			l(newState)
		}
	}
	return nil
}

// Subscribe adds a callback which is executed upon each successful Dispatch. The returned function
// removes it again.
func (s *Store[S]) Subscribe(f func(S)) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = f
	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.listeners, id)
	}
}
