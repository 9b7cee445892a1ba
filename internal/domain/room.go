package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const RoomCodeLen = 6

type RoomID string

// Room is a named group of sessions that receive each other's broadcasts.
// Members is an ordered set: no duplicates, join order preserved.
type Room struct {
	ID        RoomID
	HostID    SessionID
	Members   []SessionID
	CreatedAt time.Time
}

// NewRoomID derives a short uppercase code from a fresh uuid, the kind
// players can read out loud.
func NewRoomID() RoomID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return RoomID(strings.ToUpper(raw[:RoomCodeLen]))
}

func NewRoom(host SessionID) *Room {
	return &Room{
		ID:        NewRoomID(),
		HostID:    host,
		Members:   []SessionID{host},
		CreatedAt: time.Now(),
	}
}

// HasMember reports whether sid is already in the member set.
func (r *Room) HasMember(sid SessionID) bool {
	for _, m := range r.Members {
		if m == sid {
			return true
		}
	}
	return false
}
