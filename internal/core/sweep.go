package core

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/domain"
)

// Eviction records one swept session and, when it was in a room, the
// members left behind so the caller can tell them.
type Eviction struct {
	SessionID domain.SessionID
	RoomID    domain.RoomID
	Remaining []domain.SessionID
}

// SweepExpired evicts sessions idle past ttl, pulling each out of its room
// on the way (rooms empty out and delete as usual), and drops room code
// reservations older than ttl.
//
// The wire format advertises keep-alive parameters but nothing on the
// polling path enforces them, so staleness is collected here instead, from
// a ticker owned by the server process.
func (r *RoomRegistry) SweepExpired(ttl time.Duration) []Eviction {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []domain.SessionID
	for id, sess := range r.sessions.sessions {
		if sess.LastActivity.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	var evictions []Eviction
	for _, id := range expired {
		ev := Eviction{SessionID: id}
		if sess := r.sessions.sessions[id]; sess.RoomID != "" {
			ev.RoomID = sess.RoomID
			r.removeMemberLocked(sess.RoomID, id)
			if room, still := r.rooms[ev.RoomID]; still {
				ev.Remaining = append([]domain.SessionID(nil), room.Members...)
			}
		}
		delete(r.sessions.sessions, id)
		evictions = append(evictions, ev)
	}
	for code, reservedAt := range r.reserved {
		if reservedAt.Before(cutoff) {
			delete(r.reserved, code)
		}
	}
	if len(evictions) > 0 {
		log.Info().Str("module", "core.sweep").Int("evicted", len(evictions)).Msg("expired idle sessions")
	}
	return evictions
}
