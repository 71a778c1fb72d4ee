// Package session keeps per-user view state in memory.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"go.uber.org/zap"
)

type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*State
	ttl      time.Duration
	defaults Defaults
	now      func() time.Time
}

// NewStore returns a store whose sessions expire after ttl without
// updates. A zero ttl keeps sessions forever.
func NewStore(ttl time.Duration, defaults Defaults) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*State),
		ttl:      ttl,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *Store) Create() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newState(uuid.New(), s.defaults)
	st.UpdatedAt = s.now()
	s.sessions[st.ID] = st
	return st.clone()
}

func (s *Store) lookup(id string) (*State, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", id, constants.ErrSessionNotFound)
	}
	st, ok := s.sessions[uid]
	if !ok || s.expired(st) {
		delete(s.sessions, uid)
		return nil, fmt.Errorf("session %s: %w", id, constants.ErrSessionNotFound)
	}
	return st, nil
}

func (s *Store) expired(st *State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}

func (s *Store) Get(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	return st.clone(), nil
}

// Update applies fn to the session under the store lock. Changes made by fn
// are kept even when it returns an error, so warnings set on failure reach
// the caller's next read.
func (s *Store) Update(id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	err = fn(st)
	st.UpdatedAt = s.now()
	return st.clone(), err
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	delete(s.sessions, st.ID)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops expired sessions and returns how many were removed.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, st := range s.sessions {
		if s.expired(st) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if s.ttl <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				logger.Debug(ctx, "evicted idle sessions", zap.Int("count", n), zap.Int("active", s.Len()))
			}
		}
	}
}
