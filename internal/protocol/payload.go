package protocol

import (
	"strconv"
	"strings"
)

// Payload framing: a POST body is either a single bare frame or a run of
// "<decimal length>:<frame>" segments. Lengths count characters, not
// bytes, so multi-byte payloads and payloads containing ':' survive the
// round trip.

// DecodePayload splits a request body into frames. Malformed input never
// returns an error: parsing stops at the first bad prefix and the frames
// decoded so far are returned, so one bad frame cannot block its siblings.
func DecodePayload(raw string) []Packet {
	if raw == "" {
		return nil
	}
	if !strings.ContainsRune(raw, ':') {
		p, err := DecodePacket(raw)
		if err != nil {
			return nil
		}
		return []Packet{p}
	}

	runes := []rune(raw)
	var packets []Packet
	i := 0
	for i < len(runes) {
		length := 0
		digits := 0
		for i < len(runes) && runes[i] != ':' {
			r := runes[i]
			if r < '0' || r > '9' {
				return packets
			}
			length = length*10 + int(r-'0')
			// a prefix beyond the buffer is malformed whatever its
			// digits say; bailing here also keeps the sum from ever
			// overflowing on an adversarial run of digits
			if length > len(runes) {
				return packets
			}
			digits++
			i++
		}
		if digits == 0 || i >= len(runes) {
			return packets
		}
		i++ // ':'
		if length == 0 || i+length > len(runes) {
			return packets
		}
		p, err := DecodePacket(string(runes[i : i+length]))
		if err != nil {
			return packets
		}
		packets = append(packets, p)
		i += length
	}
	return packets
}

// EncodePayload is the inverse of DecodePayload: every frame gets a
// character-count prefix, even a lone one, so the result is unambiguous.
func EncodePayload(packets []Packet) string {
	var sb strings.Builder
	for _, p := range packets {
		frame := EncodePacket(p)
		sb.WriteString(strconv.Itoa(len([]rune(frame))))
		sb.WriteByte(':')
		sb.WriteString(frame)
	}
	return sb.String()
}
