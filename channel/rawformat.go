package channel

import (
	"encoding/binary"
	"io"
)

// The raw-results wire format is fixed at 64-bit little-endian for all
// size/length fields, per the portability note recorded in DESIGN.md:
// the reference implementation this module is derived from persisted
// max_value using the wrong field width (it is a 32-bit counter in
// memory, written with a native pointer-sized write). We store it as a
// genuine 32-bit field here, matching both its in-memory type and the
// fixed-width counter array it bounds.
const (
	sizeFieldBytes = 8
	maxValueBytes  = 4
)

func writeUint64(w io.Writer, v uint64, scratch []byte) error {
	binary.LittleEndian.PutUint64(scratch, v)
	_, err := w.Write(scratch)
	return err
}

func readUint64(r io.Reader, scratch []byte) (uint64, error) {
	if _, err := io.ReadFull(r, scratch); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(scratch), nil
}

// writeTo emits, in order: completed_iterations (u64 LE), max_value (u32
// LE), then the raw counter array (u32 LE each, row-major).
func (b *Buffer) writeTo(w io.Writer) error {
	scratch := make([]byte, sizeFieldBytes)
	if err := writeUint64(w, b.completedIterations, scratch); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(scratch[:maxValueBytes], b.maxValue)
	if _, err := w.Write(scratch[:maxValueBytes]); err != nil {
		return err
	}
	buf := make([]byte, 4*len(b.data))
	for i, v := range b.data {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	_, err := w.Write(buf)
	return err
}

// readInto fills b's completed_iterations, max_value and counters from
// r, which must hold exactly the payload writeTo produces for a buffer
// of b's dimensions. Any short read is propagated verbatim so the
// caller can distinguish a clean EOF (no more records) from a truncated
// one (CorruptInput).
func (b *Buffer) readInto(r io.Reader) error {
	scratch := make([]byte, sizeFieldBytes)
	completed, err := readUint64(r, scratch)
	if err != nil {
		return err
	}
	if _, err := io.ReadFull(r, scratch[:maxValueBytes]); err != nil {
		return err
	}
	maxValue := binary.LittleEndian.Uint32(scratch[:maxValueBytes])

	buf := make([]byte, 4*len(b.data))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range b.data {
		b.data[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	b.completedIterations = completed
	b.maxValue = maxValue
	return nil
}
