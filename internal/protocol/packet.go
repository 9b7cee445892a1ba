// Package protocol implements the two-layer wire format spoken by
// polling clients: an outer transport frame carrying control signals
// and an inner event packet carried inside "message" frames.
package protocol

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PacketType byte

const (
	Open PacketType = iota
	Close
	Ping
	Pong
	Message
	Upgrade
	Noop
)

var ErrInvalidPacket = errors.New("protocol: invalid packet")

func (t PacketType) String() string {
	switch t {
	case Open:
		return "open"
	case Close:
		return "close"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	case Message:
		return "message"
	case Upgrade:
		return "upgrade"
	case Noop:
		return "noop"
	}
	return "invalid"
}

// Packet is one transport-layer frame: a single type tag character
// followed by an opaque payload.
type Packet struct {
	Type    PacketType
	Payload string
}

// EncodePacket renders one frame as tag + payload.
func EncodePacket(p Packet) string {
	return string('0'+byte(p.Type)) + p.Payload
}

// DecodePacket parses a single unprefixed frame.
func DecodePacket(raw string) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, ErrInvalidPacket
	}
	tag := raw[0]
	if tag < '0' || tag > '0'+byte(Noop) {
		return Packet{}, ErrInvalidPacket
	}
	return Packet{Type: PacketType(tag - '0'), Payload: raw[1:]}, nil
}

// OpenPayload is the JSON body of the handshake "open" frame.
type OpenPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// EncodeOpen renders the handshake frame. Upgrades is always present in
// the JSON, empty when no upgrade path is offered.
func EncodeOpen(o OpenPayload) (string, error) {
	if o.Upgrades == nil {
		o.Upgrades = []string{}
	}
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return EncodePacket(Packet{Type: Open, Payload: string(b)}), nil
}
