package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/config"
	"github.com/okvee/parley/internal/core"
	"github.com/okvee/parley/internal/domain"
	"github.com/okvee/parley/internal/metrics"
	"github.com/okvee/parley/internal/protocol"
	"github.com/okvee/parley/internal/router"
)

const contentType = "text/plain; charset=UTF-8"

// Request error vocabulary on the polling surface.
const (
	codeUnknownTransport = iota
	codeUnknownSID
	_ // bad handshake method
	codeBadRequest
)

// Gateway is the HTTP face of the polling protocol. Every request is a
// complete state-machine turn: nothing here blocks or holds a request
// open waiting for data.
type Gateway struct {
	cfg      *config.Config
	sessions *core.SessionRegistry
	rooms    *core.RoomRegistry
	events   *router.Router
	metrics  *metrics.Metrics
}

func NewGateway(cfg *config.Config, sessions *core.SessionRegistry, rooms *core.RoomRegistry, events *router.Router, m *metrics.Metrics) *Gateway {
	return &Gateway{cfg: cfg, sessions: sessions, rooms: rooms, events: events, metrics: m}
}

func (g *Gateway) requestError(c *gin.Context, code int, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": code, "message": message})
}

// checkTransport rejects everything but polling; there is no upgrade path.
func (g *Gateway) checkTransport(c *gin.Context) bool {
	if c.Query("transport") != "polling" {
		g.requestError(c, codeUnknownTransport, "Transport unknown")
		return false
	}
	return true
}

// HandlePoll serves GET: handshake when no sid, delivery poll otherwise.
func (g *Gateway) HandlePoll(c *gin.Context) {
	if !g.checkTransport(c) {
		return
	}
	sid := domain.SessionID(c.Query("sid"))
	if sid == "" {
		g.handshake(c)
		return
	}

	if err := g.sessions.Touch(sid); err != nil {
		g.requestError(c, codeUnknownSID, "Session ID unknown")
		return
	}
	established, err := g.sessions.MarkEstablished(sid)
	if err != nil {
		g.requestError(c, codeUnknownSID, "Session ID unknown")
		return
	}
	if !established {
		g.metrics.Polls.WithLabelValues("connect").Inc()
		log.Info().Str("module", "adapters.http").Str("sid", string(sid)).Msg("session established")
		c.Data(http.StatusOK, contentType, []byte(protocol.ConnectAck()))
		return
	}

	packet, ok, err := g.sessions.DequeueOne(sid)
	if err != nil {
		g.requestError(c, codeUnknownSID, "Session ID unknown")
		return
	}
	if !ok {
		// nothing queued; the peer polls again at its own cadence
		g.metrics.Polls.WithLabelValues("empty").Inc()
		c.Data(http.StatusOK, contentType, nil)
		return
	}
	g.metrics.Polls.WithLabelValues("packet").Inc()
	c.Data(http.StatusOK, contentType, []byte(packet))
}

func (g *Gateway) handshake(c *gin.Context) {
	sid := g.sessions.Create()
	body, err := protocol.EncodeOpen(protocol.OpenPayload{
		SID:          string(sid),
		Upgrades:     []string{},
		PingInterval: g.cfg.PingInterval.Milliseconds(),
		PingTimeout:  g.cfg.PingTimeout.Milliseconds(),
		MaxPayload:   g.cfg.MaxPayload,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "handshake failed")
		return
	}
	g.metrics.Handshakes.Inc()
	log.Info().Str("module", "adapters.http").Str("sid", string(sid)).Msg("handshake")
	c.Data(http.StatusOK, contentType, []byte(body))
}

// HandleData serves POST: client-to-server packet delivery. The body may
// batch several frames; they are processed in order and acknowledged once.
func (g *Gateway) HandleData(c *gin.Context) {
	if !g.checkTransport(c) {
		return
	}
	sid := domain.SessionID(c.Query("sid"))
	if sid == "" {
		g.requestError(c, codeBadRequest, "Bad request")
		return
	}
	if err := g.sessions.Touch(sid); err != nil {
		g.requestError(c, codeUnknownSID, "Session ID unknown")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, g.cfg.MaxPayload))
	if err != nil {
		g.requestError(c, codeBadRequest, "Bad request")
		return
	}

	for _, frame := range protocol.DecodePayload(string(body)) {
		g.metrics.PacketsIn.WithLabelValues(frame.Type.String()).Inc()
		switch frame.Type {
		case protocol.Ping:
			// pong is queued for the next poll, never returned in-line
			g.sessions.Enqueue(sid, protocol.EncodePacket(protocol.Packet{Type: protocol.Pong, Payload: frame.Payload}))
		case protocol.Message:
			g.handleMessage(sid, frame.Payload)
		default:
			log.Debug().Str("module", "adapters.http").Str("sid", string(sid)).Stringer("type", frame.Type).Msg("ignoring control frame")
		}
	}
	c.Data(http.StatusOK, contentType, []byte("ok"))
}

func (g *Gateway) handleMessage(sid domain.SessionID, payload string) {
	pkt, err := protocol.DecodeEvent(payload)
	if err != nil {
		log.Debug().Err(err).Str("module", "adapters.http").Str("sid", string(sid)).Msg("undecodable event packet")
		return
	}
	if pkt.Type != protocol.EventEvent {
		log.Debug().Str("module", "adapters.http").Str("sid", string(sid)).Stringer("type", pkt.Type).Msg("ignoring non-event packet")
		return
	}
	g.events.HandleEvent(sid, pkt)
}

// HandleCreateRoom is the REST convenience wrapper used by lobby UIs: it
// hands out a room code which the first joinRoom promotes to a real room.
func (g *Gateway) HandleCreateRoom(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roomId": string(g.rooms.Reserve())})
}
