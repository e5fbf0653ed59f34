package wire

import (
	"fmt"
)

const (
	// MaxDatagramSize is the largest payload the codec will decode.
	MaxDatagramSize = 32 * 1024
	// MinDatagramSize is the smallest payload the codec will decode.
	MinDatagramSize = 16

	// DataReply is the handler-return sentinel meaning "the data table I
	// populated on the accumulator is the reply payload".
	DataReply = 1
)

// Message is the mandatory-field wire frame described in the protocol: an
// addressed, sequenced, typed envelope around an optional data table.
type Message struct {
	To   string
	From string
	Seq  uint32
	Type string
	Data *Table
}

// Encode renders m as a textual frame suitable for a UDP payload.
func (m *Message) Encode() ([]byte, error) {
	t := NewTable()
	t.Set("to", m.To)
	t.Set("from", m.From)
	t.Set("seq", m.Seq)
	t.Set("type", m.Type)
	if m.Data != nil {
		t.Set("data", m.Data)
	}
	return t.MarshalJSON()
}

// Decode parses a UDP payload into a Message. It enforces the size and
// framing constraints from the wire codec spec: too short, too long, or not
// beginning with '{' are all rejected before any JSON parsing is attempted.
func Decode(payload []byte) (*Message, error) {
	if len(payload) < MinDatagramSize {
		return nil, fmt.Errorf("wire: datagram too short (%d bytes)", len(payload))
	}
	if len(payload) > MaxDatagramSize {
		return nil, fmt.Errorf("wire: datagram too large (%d bytes)", len(payload))
	}
	if payload[0] != '{' {
		return nil, fmt.Errorf("wire: datagram is not a textual object")
	}

	t := NewTable()
	if err := t.UnmarshalJSON(payload); err != nil {
		return nil, fmt.Errorf("wire: malformed object: %w", err)
	}

	to, ok := t.GetString("to")
	if !ok {
		return nil, fmt.Errorf("wire: missing or invalid 'to'")
	}
	from, ok := t.GetString("from")
	if !ok {
		return nil, fmt.Errorf("wire: missing or invalid 'from'")
	}
	typ, ok := t.GetString("type")
	if !ok {
		return nil, fmt.Errorf("wire: missing or invalid 'type'")
	}
	seq, _ := t.GetUint32("seq")

	msg := &Message{To: to, From: from, Seq: seq, Type: typ}
	if data, ok := t.Get("data"); ok {
		switch d := data.(type) {
		case *Table:
			msg.Data = d
		default:
			// Scalar or array data payload: wrap it so handlers can still
			// reach it through a single, uniform accessor.
			wrap := NewTable()
			wrap.Set("__scalar__", d)
			msg.Data = wrap
		}
	}

	return msg, nil
}

// DataString returns the message's data payload as a string, for the
// control primitives (e.g. !whois) whose data is a bare scalar rather than
// a table.
func (m *Message) DataString() (string, bool) {
	if m.Data == nil {
		return "", false
	}
	if s, ok := m.Data.GetString("__scalar__"); ok {
		return s, true
	}
	return "", false
}

// Reply builds the outbound envelope for a response to in: addressed back
// to the sender, stamped with this agent's unique ID, and carrying the
// request's sequence number so the controller can match it up.
func Reply(in *Message, selfID, typ string) *Message {
	return &Message{
		To:   in.From,
		From: selfID,
		Seq:  in.Seq,
		Type: typ,
	}
}
