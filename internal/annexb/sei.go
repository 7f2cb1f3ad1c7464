package annexb

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SEI payload types.
const (
	SEIUserDataUnregistered = 5
)

var errBadSEI = errors.New("annexb: malformed SEI message")

// SEIMessage is one sei_message of an SEI RBSP.
type SEIMessage struct {
	PayloadType int
	Payload     []byte
}

// MarshalSEI encodes messages as an SEI RBSP with trailing bits.
func MarshalSEI(msgs ...SEIMessage) []byte {
	var out []byte
	for _, m := range msgs {
		out = appendFFCoded(out, m.PayloadType)
		out = appendFFCoded(out, len(m.Payload))
		out = append(out, m.Payload...)
	}
	return append(out, 0x80) // rbsp_stop_one_bit + alignment
}

// appendFFCoded appends v as a run of 0xFF bytes followed by the remainder.
func appendFFCoded(b []byte, v int) []byte {
	for v >= 255 {
		b = append(b, 0xFF)
		v -= 255
	}
	return append(b, byte(v))
}

// ParseSEI decodes the messages of an SEI RBSP.
func ParseSEI(rbsp []byte) ([]SEIMessage, error) {
	var msgs []SEIMessage
	pos := 0
	// The final byte holds the rbsp_stop_one_bit.
	for pos < len(rbsp)-1 {
		typ, n, err := readFFCoded(rbsp, pos)
		if err != nil {
			return msgs, err
		}
		pos = n
		size, n, err := readFFCoded(rbsp, pos)
		if err != nil {
			return msgs, err
		}
		pos = n
		if pos+size > len(rbsp) {
			return msgs, fmt.Errorf("%w: payload of %d bytes exceeds message", errBadSEI, size)
		}
		msgs = append(msgs, SEIMessage{PayloadType: typ, Payload: rbsp[pos : pos+size]})
		pos += size
	}
	return msgs, nil
}

func readFFCoded(b []byte, pos int) (int, int, error) {
	v := 0
	for {
		if pos >= len(b) {
			return 0, pos, fmt.Errorf("%w: truncated header", errBadSEI)
		}
		c := b[pos]
		pos++
		v += int(c)
		if c != 0xFF {
			return v, pos, nil
		}
	}
}

// UserDataUnregistered builds a user_data_unregistered SEI message.
func UserDataUnregistered(id uuid.UUID, data []byte) SEIMessage {
	payload := make([]byte, 0, len(id)+len(data))
	payload = append(payload, id[:]...)
	payload = append(payload, data...)
	return SEIMessage{PayloadType: SEIUserDataUnregistered, Payload: payload}
}

// ParseUserDataUnregistered splits a user_data_unregistered payload into
// its UUID and the user data.
func ParseUserDataUnregistered(m SEIMessage) (uuid.UUID, []byte, error) {
	if m.PayloadType != SEIUserDataUnregistered {
		return uuid.Nil, nil, fmt.Errorf("%w: payload type %d", errBadSEI, m.PayloadType)
	}
	id, err := uuid.FromBytes(m.Payload[:min(16, len(m.Payload))])
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %w", errBadSEI, err)
	}
	return id, m.Payload[16:], nil
}
