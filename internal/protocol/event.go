package protocol

type EventType byte

const (
	EventConnect EventType = iota
	EventDisconnect
	EventEvent
	EventAck
	EventConnectError
	EventBinaryEvent
	EventBinaryAck
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventEvent:
		return "event"
	case EventAck:
		return "ack"
	case EventConnectError:
		return "connect-error"
	case EventBinaryEvent:
		return "binary-event"
	case EventBinaryAck:
		return "binary-ack"
	}
	return "invalid"
}

// EventPacket is one inner packet carried by a "message" transport frame.
// For type event, Name/Args hold the decoded [name, args...] pair; when
// the body is not a well-formed array the remainder lands in Raw instead —
// malformed application payloads degrade, they do not abort the request.
type EventPacket struct {
	Type EventType
	Name string
	Args []interface{}
	Raw  string
}

// Arg returns the first event argument, or nil.
func (p EventPacket) Arg() interface{} {
	if len(p.Args) == 0 {
		return nil
	}
	return p.Args[0]
}

// DecodeEvent parses the payload of a message frame.
func DecodeEvent(payload string) (EventPacket, error) {
	if len(payload) == 0 {
		return EventPacket{}, ErrInvalidPacket
	}
	tag := payload[0]
	if tag < '0' || tag > '0'+byte(EventBinaryAck) {
		return EventPacket{}, ErrInvalidPacket
	}
	pkt := EventPacket{Type: EventType(tag - '0')}
	rest := payload[1:]
	if rest == "" {
		return pkt, nil
	}

	var arr []interface{}
	if err := json.UnmarshalFromString(rest, &arr); err != nil || len(arr) == 0 {
		pkt.Raw = rest
		return pkt, nil
	}
	name, ok := arr[0].(string)
	if !ok {
		pkt.Raw = rest
		return pkt, nil
	}
	pkt.Name = name
	pkt.Args = arr[1:]
	return pkt, nil
}

// EncodeEvent renders an event packet body: tag + JSON [name, args...].
func EncodeEvent(name string, args ...interface{}) string {
	arr := append([]interface{}{name}, args...)
	b, err := json.Marshal(arr)
	if err != nil {
		// only unmarshalable values (channels, funcs) end up here
		b = []byte(`["` + name + `"]`)
	}
	return string('0'+byte(EventEvent)) + string(b)
}

// EncodeEventMessage is the common two-layer convenience: a "message"
// transport tag wrapping an encoded event packet, ready for fan-out.
func EncodeEventMessage(name string, args ...interface{}) string {
	return EncodePacket(Packet{Type: Message, Payload: EncodeEvent(name, args...)})
}

// ConnectAck is the body of the poll that flips a session to established:
// message tag + connect tag, nothing else.
func ConnectAck() string {
	return EncodePacket(Packet{Type: Message, Payload: string('0' + byte(EventConnect))})
}
