package input

import (
	"fmt"
	"sync"
)

// Store caches the most recent intent per controller and enforces monotonic
// sequence ids so a stale or replayed frame can never override a newer one.
type Store struct {
	mu      sync.Mutex
	intents map[string]*Intent
	lastSeq map[string]uint64
}

// NewStore constructs an empty intent store.
func NewStore() *Store {
	return &Store{
		intents: make(map[string]*Intent),
		lastSeq: make(map[string]uint64),
	}
}

// Put validates and records the intent, rejecting out-of-order sequences.
func (s *Store) Put(intent *Intent) error {
	if s == nil {
		return fmt.Errorf("intent store is nil")
	}
	if err := intent.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	//1.- Enforce strictly increasing sequence ids per controller.
	last := s.lastSeq[intent.ControllerID]
	if intent.SequenceID <= last {
		return fmt.Errorf("%w: got %d, last %d", ErrStaleSequence, intent.SequenceID, last)
	}
	clone := *intent
	s.intents[intent.ControllerID] = &clone
	s.lastSeq[intent.ControllerID] = intent.SequenceID
	return nil
}

// Latest returns the clamped controls from the most recent intent for the
// controller, falling back to neutral controls when none arrived yet.
func (s *Store) Latest(controllerID string) Controls {
	if s == nil {
		return Controls{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[controllerID]
	if !ok {
		return Controls{}
	}
	return intent.Controls()
}

// Reset clears all cached intents, preserving sequence history so reconnecting
// controllers cannot replay old frames.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = make(map[string]*Intent)
}
