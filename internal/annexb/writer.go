package annexb

import (
	"fmt"
	"io"

	"github.com/deepteams/h264intra/internal/pool"
)

var startCode = [StartCodeLong]byte{0, 0, 0, 1}

// WriteError reports a failed or short write of a NAL unit.
type WriteError struct {
	Want    int // bytes requested
	Written int // bytes the sink accepted
	Err     error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("annexb: wrote %d of %d bytes: %v", e.Written, e.Want, e.Err)
	}
	return fmt.Sprintf("annexb: wrote %d of %d bytes", e.Written, e.Want)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer writes NAL units to a byte sink in Annex B format.
type Writer struct {
	w     io.Writer
	bytes int64
	units int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteNALU writes the start code, the header byte and the payload of n as
// one write and returns the number of bits written. A failed or short
// write returns a *WriteError; the stream is then unusable.
func (w *Writer) WriteNALU(n *NALU) (int, error) {
	if err := n.Validate(); err != nil {
		return 0, err
	}
	size := n.StartCodeLen + 1 + len(n.Payload)
	buf := pool.Get(size)
	defer pool.Put(buf)

	copy(buf, startCode[StartCodeLong-n.StartCodeLen:])
	buf[n.StartCodeLen] = n.Header()
	copy(buf[n.StartCodeLen+1:], n.Payload)

	written, err := w.w.Write(buf)
	w.bytes += int64(written)
	if err != nil || written != size {
		if err == nil {
			err = io.ErrShortWrite
		}
		return written * 8, &WriteError{Want: size, Written: written, Err: err}
	}
	w.units++
	return size * 8, nil
}

// WriteRBSP wraps rbsp in a NAL unit with a 4-byte start code and writes it.
func (w *Writer) WriteRBSP(refIdc, typ int, rbsp []byte) (int, error) {
	return w.WriteNALU(New(refIdc, typ, rbsp))
}

// BytesWritten returns the number of bytes written so far.
func (w *Writer) BytesWritten() int64 { return w.bytes }

// Units returns the number of NAL units written successfully.
func (w *Writer) Units() int { return w.units }
