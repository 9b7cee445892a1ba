// Package core owns the mutable gateway state: the session registry and
// the room registry. Callers operate by identifier only; raw entities
// never leave the package, which sidesteps aliasing against deletion.
//
// Both registries share one RWMutex. Join/leave must update a room's
// member set and the session's room reference in the same critical
// section, and a single lock is the simplest way to make the pairing
// atomic at this contention level.
package core

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoomNotFound    = errors.New("room not found")
)

type SessionRegistry struct {
	mu       *sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

// New wires a session registry and a room registry over one shared lock.
func New() (*SessionRegistry, *RoomRegistry) {
	mu := &sync.RWMutex{}
	s := &SessionRegistry{
		mu:       mu,
		sessions: make(map[domain.SessionID]*domain.Session),
	}
	r := &RoomRegistry{
		mu:       mu,
		sessions: s,
		rooms:    make(map[domain.RoomID]*domain.Room),
		reserved: make(map[domain.RoomID]time.Time),
	}
	return s, r
}

// Create allocates a fresh session: not established, empty queue, no room.
func (s *SessionRegistry) Create() domain.SessionID {
	sess := domain.NewSession()
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	log.Info().Str("module", "core.sessions").Str("sid", string(sess.ID)).Msg("session created")
	return sess.ID
}

func (s *SessionRegistry) Exists(id domain.SessionID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Touch refreshes the idle clock for id.
func (s *SessionRegistry) Touch(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastActivity = time.Now()
	return nil
}

// MarkEstablished flips the session to established and reports whether it
// already was. The first successful poll after handshake lands here.
func (s *SessionRegistry) MarkEstablished(id domain.SessionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	was := sess.Established
	sess.Established = true
	return was, nil
}

// Enqueue appends a pre-encoded packet to the session's outbound queue.
// Delivery is best-effort: a vanished destination is not an error, the
// return value just says whether anyone was there to receive it.
func (s *SessionRegistry) Enqueue(id domain.SessionID, packet string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Queue = append(sess.Queue, packet)
	return true
}

// DequeueOne pops the oldest queued packet. ok is false on an empty queue.
func (s *SessionRegistry) DequeueOne(id domain.SessionID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", false, ErrSessionNotFound
	}
	if len(sess.Queue) == 0 {
		return "", false, nil
	}
	packet := sess.Queue[0]
	sess.Queue = sess.Queue[1:]
	return packet, true, nil
}

// RoomOf returns the session's current room, if any.
func (s *SessionRegistry) RoomOf(id domain.SessionID) (domain.RoomID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return sess.RoomID, nil
}

func (s *SessionRegistry) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
