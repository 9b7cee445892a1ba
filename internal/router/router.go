// Package router interprets decoded event packets and turns them into
// registry mutations and queued replies. Game-specific payloads are opaque
// here: only the event name and room targeting matter.
package router

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/core"
	"github.com/okvee/parley/internal/domain"
	"github.com/okvee/parley/internal/metrics"
	"github.com/okvee/parley/internal/protocol"
)

// Inbound event vocabulary. Anything outside this set is logged and
// dropped; an unknown name must never take the router down.
const (
	evCreateRoom  = "createRoom"
	evJoinRoom    = "joinRoom"
	evLeaveRoom   = "leaveRoom"
	evChatMessage = "chatMessage"
	evLogMessage  = "logMessage"
)

// Outbound event names.
const (
	evCreatedRoom  = "createdRoom"
	evJoinedRoom   = "joinedRoom"
	evPlayerJoined = "playerJoined"
	evLeftRoom     = "leftRoom"
	evPlayerLeft   = "playerLeft"
	evJoinError    = "joinError"
)

const defaultChatType = "chat"

type Router struct {
	sessions *core.SessionRegistry
	rooms    *core.RoomRegistry
	metrics  *metrics.Metrics
}

func New(sessions *core.SessionRegistry, rooms *core.RoomRegistry, m *metrics.Metrics) *Router {
	return &Router{sessions: sessions, rooms: rooms, metrics: m}
}

// HandleEvent dispatches one event packet on behalf of sid.
func (rt *Router) HandleEvent(sid domain.SessionID, pkt protocol.EventPacket) {
	switch pkt.Name {
	case evCreateRoom:
		rt.metrics.Events.WithLabelValues(evCreateRoom).Inc()
		rt.createRoom(sid)
	case evJoinRoom:
		rt.metrics.Events.WithLabelValues(evJoinRoom).Inc()
		rt.joinRoom(sid, pkt)
	case evLeaveRoom:
		rt.metrics.Events.WithLabelValues(evLeaveRoom).Inc()
		rt.leaveRoom(sid)
	case evChatMessage:
		rt.metrics.Events.WithLabelValues(evChatMessage).Inc()
		rt.chatMessage(sid, pkt)
	case evLogMessage:
		rt.metrics.Events.WithLabelValues(evLogMessage).Inc()
		rt.logMessage(sid, pkt)
	default:
		rt.metrics.Events.WithLabelValues("other").Inc()
		log.Warn().Str("module", "router").Str("sid", string(sid)).Str("event", pkt.Name).Msg("unrecognized event")
	}
}

func (rt *Router) createRoom(sid domain.SessionID) {
	view, err := rt.rooms.Create(sid)
	if err != nil {
		log.Warn().Err(err).Str("module", "router").Str("sid", string(sid)).Msg("createRoom")
		return
	}
	resp := struct {
		RoomID domain.RoomID `json:"roomId"`
		IsHost bool          `json:"isHost"`
	}{view.ID, true}
	rt.sessions.Enqueue(sid, protocol.EncodeEventMessage(evCreatedRoom, resp))
}

func (rt *Router) joinRoom(sid domain.SessionID, pkt protocol.EventPacket) {
	roomID := roomIDArg(pkt)
	if roomID == "" {
		log.Warn().Str("module", "router").Str("sid", string(sid)).Msg("joinRoom without room id")
		return
	}
	res, err := rt.rooms.Join(roomID, sid)
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		// the legacy behavior was a silent no-op; an explicit failure
		// event lets the client stop waiting instead of timing out
		resp := struct {
			RoomID domain.RoomID `json:"roomId"`
			Error  string        `json:"error"`
		}{roomID, "room not found"}
		rt.sessions.Enqueue(sid, protocol.EncodeEventMessage(evJoinError, resp))
		log.Warn().Str("module", "router").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join: unknown room")
		return
	case err != nil:
		log.Warn().Err(err).Str("module", "router").Str("sid", string(sid)).Msg("joinRoom")
		return
	case res.AlreadyMember:
		return
	}

	joined := struct {
		RoomID domain.RoomID `json:"roomId"`
		IsHost bool          `json:"isHost"`
	}{roomID, res.BecameHost}
	rt.sessions.Enqueue(sid, protocol.EncodeEventMessage(evJoinedRoom, joined))

	announce := struct {
		PlayerID domain.SessionID `json:"playerId"`
	}{sid}
	rt.broadcast(roomID, sid, protocol.EncodeEventMessage(evPlayerJoined, announce))
}

func (rt *Router) leaveRoom(sid domain.SessionID) {
	res, err := rt.rooms.Leave(sid)
	if err != nil {
		log.Warn().Err(err).Str("module", "router").Str("sid", string(sid)).Msg("leaveRoom")
		return
	}
	rt.sessions.Enqueue(sid, protocol.EncodeEventMessage(evLeftRoom))
	if res.RoomID == "" || res.Deleted {
		return
	}
	announce := struct {
		PlayerID domain.SessionID `json:"playerId"`
	}{sid}
	rt.deliver(res.Remaining, protocol.EncodeEventMessage(evPlayerLeft, announce))
}

func (rt *Router) chatMessage(sid domain.SessionID, pkt protocol.EventPacket) {
	args := mapArg(pkt)
	msgType := stringArg(args, "type")
	if msgType == "" {
		msgType = defaultChatType
	}
	resp := struct {
		Message   string           `json:"message"`
		From      domain.SessionID `json:"from"`
		Timestamp int64            `json:"timestamp"`
		Type      string           `json:"type"`
	}{stringArg(args, "message"), sid, time.Now().UnixMilli(), msgType}
	rt.broadcastToOwnRoom(sid, protocol.EncodeEventMessage(evChatMessage, resp))
}

func (rt *Router) logMessage(sid domain.SessionID, pkt protocol.EventPacket) {
	args := mapArg(pkt)
	resp := struct {
		Log       string           `json:"log"`
		From      domain.SessionID `json:"from"`
		Timestamp int64            `json:"timestamp"`
	}{stringArg(args, "log"), sid, time.Now().UnixMilli()}
	rt.broadcastToOwnRoom(sid, protocol.EncodeEventMessage(evLogMessage, resp))
}

// SweepIdle evicts sessions idle past ttl and announces each departure to
// the survivors of its room, so rosters do not drift between polls.
// Returns the number of sessions evicted.
func (rt *Router) SweepIdle(ttl time.Duration) int {
	evictions := rt.rooms.SweepExpired(ttl)
	for _, ev := range evictions {
		if len(ev.Remaining) == 0 {
			continue
		}
		announce := struct {
			PlayerID domain.SessionID `json:"playerId"`
		}{ev.SessionID}
		rt.deliver(ev.Remaining, protocol.EncodeEventMessage(evPlayerLeft, announce))
	}
	return len(evictions)
}

// broadcastToOwnRoom fans a pre-encoded packet out to everyone in the
// caller's room except the caller. The sender's own copy is the client's
// optimistic append, not ours.
func (rt *Router) broadcastToOwnRoom(sid domain.SessionID, packet string) {
	roomID, err := rt.sessions.RoomOf(sid)
	if err != nil {
		log.Warn().Err(err).Str("module", "router").Str("sid", string(sid)).Msg("broadcast")
		return
	}
	if roomID == "" {
		log.Warn().Str("module", "router").Str("sid", string(sid)).Msg("broadcast while not in a room")
		return
	}
	rt.broadcast(roomID, sid, packet)
}

func (rt *Router) broadcast(roomID domain.RoomID, except domain.SessionID, packet string) {
	view, err := rt.rooms.Get(roomID)
	if err != nil {
		return
	}
	rt.deliver(view.Others(except), packet)
}

// deliver enqueues one encoded packet to every target, best effort.
func (rt *Router) deliver(targets []domain.SessionID, packet string) {
	sent := 0
	for _, target := range targets {
		if rt.sessions.Enqueue(target, packet) {
			sent++
		}
	}
	rt.metrics.Fanout.Add(float64(sent))
	log.Debug().Str("module", "router").Int("sent_to", sent).Int("targets", len(targets)).Msg("fanout")
}

// roomIDArg accepts both {"roomId": "..."} objects and a bare string id.
func roomIDArg(pkt protocol.EventPacket) domain.RoomID {
	switch v := pkt.Arg().(type) {
	case string:
		return domain.RoomID(v)
	case map[string]interface{}:
		return domain.RoomID(stringArg(v, "roomId"))
	}
	return ""
}

func mapArg(pkt protocol.EventPacket) map[string]interface{} {
	m, _ := pkt.Arg().(map[string]interface{})
	return m
}

func stringArg(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
