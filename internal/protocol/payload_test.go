package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadSingleBareFrame(t *testing.T) {
	packets := DecodePayload("2probe")
	require.Len(t, packets, 1)
	assert.Equal(t, Ping, packets[0].Type)
	assert.Equal(t, "probe", packets[0].Payload)
}

func TestPayloadRoundTrip(t *testing.T) {
	in := []Packet{
		{Type: Message, Payload: `2["chatMessage",{"message":"a:b:c"}]`},
		{Type: Ping},
		{Type: Message, Payload: `2["logMessage",{"log":"héllo ⚙"}]`},
	}
	out := DecodePayload(EncodePayload(in))
	require.Equal(t, in, out)
}

func TestPayloadLengthCountsCharacters(t *testing.T) {
	// 4 characters: tag + three runes, one of them multi-byte.
	encoded := EncodePayload([]Packet{{Type: Message, Payload: "aé☃"}})
	assert.Equal(t, "4:4aé☃", encoded)

	out := DecodePayload(encoded)
	require.Len(t, out, 1)
	assert.Equal(t, "aé☃", out[0].Payload)
}

func TestDecodePayloadStopsOnMalformedPrefix(t *testing.T) {
	good := EncodePayload([]Packet{{Type: Ping}})
	packets := DecodePayload(good + "x:junk")
	require.Len(t, packets, 1)
	assert.Equal(t, Ping, packets[0].Type)
}

func TestDecodePayloadTruncatedFrame(t *testing.T) {
	packets := DecodePayload("2:4" + "10:4truncated-gone")
	// first frame is short of its declared length chain; parser keeps
	// whatever was complete and drops the rest without erroring
	assert.LessOrEqual(t, len(packets), 2)
	packets = DecodePayload("999:4nope")
	assert.Empty(t, packets)
}

func TestDecodePayloadHugePrefixIsMalformedNotFatal(t *testing.T) {
	// a prefix wide enough to wrap an int64 must stop parsing, not panic
	assert.Empty(t, DecodePayload("9999999999999999999:x"))
	assert.Empty(t, DecodePayload("99999999999999999999999999999999999999:x"))

	// frames parsed before the bad prefix survive
	good := EncodePayload([]Packet{{Type: Ping}})
	packets := DecodePayload(good + "9999999999999999999:x")
	require.Len(t, packets, 1)
	assert.Equal(t, Ping, packets[0].Type)
}

func TestDecodePayloadEmpty(t *testing.T) {
	assert.Empty(t, DecodePayload(""))
}

func TestDecodePacketRejectsBadTag(t *testing.T) {
	_, err := DecodePacket("9whatever")
	assert.ErrorIs(t, err, ErrInvalidPacket)
	_, err = DecodePacket("")
	assert.ErrorIs(t, err, ErrInvalidPacket)
}
