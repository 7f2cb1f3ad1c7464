package annexb

import (
	"bytes"
	"fmt"
	"io"
)

var startCode3 = []byte{0, 0, 1}

// Split parses an Annex B byte stream into NAL units. Payloads alias data.
// Leading zero bytes before the first start code are allowed; any other
// leading garbage is an error.
func Split(data []byte) ([]NALU, error) {
	first := bytes.Index(data, startCode3)
	if first < 0 {
		return nil, ErrNoStartCode
	}
	for _, b := range data[:first] {
		if b != 0 {
			return nil, fmt.Errorf("%w: %d bytes before first start code", ErrNoStartCode, first)
		}
	}

	var units []NALU
	pos := first
	for pos < len(data) {
		scLen := StartCodeShort
		if pos > 0 && data[pos-1] == 0 {
			scLen = StartCodeLong
		}
		body := pos + len(startCode3)
		if body >= len(data) {
			return units, fmt.Errorf("%w: start code at end of stream", ErrTruncated)
		}
		next := bytes.Index(data[body:], startCode3)
		end := len(data)
		if next >= 0 {
			end = body + next
		}
		if end <= body {
			return units, fmt.Errorf("%w: empty NAL unit at offset %d", ErrTruncated, body)
		}
		pos = end
		// Strip trailing_zero_8bits and the zero_byte of the next start code.
		for end > body+1 && data[end-1] == 0 {
			end--
		}
		h := data[body]
		units = append(units, NALU{
			ForbiddenBit: int(h >> 7),
			RefIdc:       int(h>>5) & 3,
			Type:         int(h) & 31,
			StartCodeLen: scLen,
			Payload:      data[body+1 : end],
		})
		if next < 0 {
			break
		}
	}
	return units, nil
}

// ReadAll reads an Annex B stream from r and splits it into NAL units.
func ReadAll(r io.Reader) ([]NALU, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("annexb: reading stream: %w", err)
	}
	return Split(data)
}
