// Package domain contains entities without logic, just meta-data.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// Session is the server-side identity of one logical client across
// otherwise-stateless polling requests. The queue holds pre-encoded
// packet strings in strict FIFO order.
type Session struct {
	ID           SessionID
	Established  bool
	Queue        []string
	RoomID       RoomID // empty when not in a room
	LastActivity time.Time
}

// NewSession avoids raw literals in the registry and keeps construction obvious.
func NewSession() *Session {
	return &Session{
		ID:           SessionID(uuid.NewString()),
		LastActivity: time.Now(),
	}
}
