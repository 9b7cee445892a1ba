package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/domain"
)

type RoomRegistry struct {
	mu       *sync.RWMutex
	sessions *SessionRegistry
	rooms    map[domain.RoomID]*domain.Room
	reserved map[domain.RoomID]time.Time
}

// RoomView is an immutable snapshot handed out to callers.
type RoomView struct {
	ID      domain.RoomID
	HostID  domain.SessionID
	Members []domain.SessionID
}

func snapshot(r *domain.Room) RoomView {
	return RoomView{
		ID:      r.ID,
		HostID:  r.HostID,
		Members: append([]domain.SessionID(nil), r.Members...),
	}
}

// Others returns the member set minus one session, the broadcast target list.
func (v RoomView) Others(except domain.SessionID) []domain.SessionID {
	out := make([]domain.SessionID, 0, len(v.Members))
	for _, m := range v.Members {
		if m != except {
			out = append(out, m)
		}
	}
	return out
}

// Create makes a room with host as its only member and points the host's
// session at it. A host already in another room leaves it first.
func (r *RoomRegistry) Create(host domain.SessionID) (RoomView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions.sessions[host]
	if !ok {
		return RoomView{}, ErrSessionNotFound
	}
	if sess.RoomID != "" {
		r.removeMemberLocked(sess.RoomID, host)
	}
	room := domain.NewRoom(host)
	r.rooms[room.ID] = room
	sess.RoomID = room.ID
	log.Info().Str("module", "core.rooms").Str("room", string(room.ID)).Str("host", string(host)).Msg("room created")
	return snapshot(room), nil
}

// Reserve allocates a room code without creating the room. The first join
// naming the code promotes it, joiner as host. Rooms never exist empty.
func (r *RoomRegistry) Reserve() domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := domain.NewRoomID()
	for {
		if _, taken := r.rooms[id]; !taken {
			if _, taken := r.reserved[id]; !taken {
				break
			}
		}
		id = domain.NewRoomID()
	}
	r.reserved[id] = time.Now()
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room code reserved")
	return id
}

func (r *RoomRegistry) Get(id domain.RoomID) (RoomView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return RoomView{}, ErrRoomNotFound
	}
	return snapshot(room), nil
}

// JoinResult tells the router what actually happened on a join.
type JoinResult struct {
	Room          RoomView
	BecameHost    bool // join promoted a reserved code
	AlreadyMember bool // idempotent no-op
}

// Join adds sid to the room. Joining a room you are already in changes
// nothing. Joining while in a different room leaves that one first.
func (r *RoomRegistry) Join(roomID domain.RoomID, sid domain.SessionID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions.sessions[sid]
	if !ok {
		return JoinResult{}, ErrSessionNotFound
	}
	room, ok := r.rooms[roomID]
	if !ok {
		if _, reservedOK := r.reserved[roomID]; !reservedOK {
			return JoinResult{}, ErrRoomNotFound
		}
		if sess.RoomID != "" {
			r.removeMemberLocked(sess.RoomID, sid)
		}
		delete(r.reserved, roomID)
		room = &domain.Room{
			ID:        roomID,
			HostID:    sid,
			Members:   []domain.SessionID{sid},
			CreatedAt: time.Now(),
		}
		r.rooms[roomID] = room
		sess.RoomID = roomID
		log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("sid", string(sid)).Msg("reserved room claimed")
		return JoinResult{Room: snapshot(room), BecameHost: true}, nil
	}
	if room.HasMember(sid) {
		return JoinResult{Room: snapshot(room), AlreadyMember: true}, nil
	}
	if sess.RoomID != "" {
		r.removeMemberLocked(sess.RoomID, sid)
	}
	room.Members = append(room.Members, sid)
	sess.RoomID = roomID
	log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("sid", string(sid)).Int("members", len(room.Members)).Msg("joined room")
	return JoinResult{Room: snapshot(room)}, nil
}

// LeaveResult reports who is left behind after a leave.
type LeaveResult struct {
	RoomID    domain.RoomID
	Remaining []domain.SessionID
	Deleted   bool
}

// Leave removes sid from its current room, deleting the room the moment
// it empties. Leaving while not in a room is a no-op.
func (r *RoomRegistry) Leave(sid domain.SessionID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions.sessions[sid]
	if !ok {
		return LeaveResult{}, ErrSessionNotFound
	}
	if sess.RoomID == "" {
		return LeaveResult{}, nil
	}
	roomID := sess.RoomID
	r.removeMemberLocked(roomID, sid)
	res := LeaveResult{RoomID: roomID, Deleted: true}
	if room, still := r.rooms[roomID]; still {
		res.Deleted = false
		res.Remaining = append([]domain.SessionID(nil), room.Members...)
	}
	return res, nil
}

// removeMemberLocked drops sid from a room and clears the session's back
// reference; empty room means the room goes away entirely. Caller holds mu.
func (r *RoomRegistry) removeMemberLocked(roomID domain.RoomID, sid domain.SessionID) {
	if sess, ok := r.sessions.sessions[sid]; ok && sess.RoomID == roomID {
		sess.RoomID = ""
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for i, m := range room.Members {
		if m == sid {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			break
		}
	}
	if len(room.Members) == 0 {
		delete(r.rooms, roomID)
		log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Msg("room deleted, last member left")
	}
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
