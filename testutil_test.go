package macho

import "encoding/binary"

// byteBuilder accumulates a little- or big-endian byte stream for
// synthetic Mach-O fixtures used across this package's tests. There are
// no real binary fixtures available in this environment, so tests
// construct the exact byte sequences the scenarios specify instead of
// loading pre-built files.
type byteBuilder struct {
	order binary.ByteOrder
	buf   []byte
}

func newBuilder(order binary.ByteOrder) *byteBuilder { return &byteBuilder{order: order} }

func (b *byteBuilder) u32(v uint32) *byteBuilder {
	var tmp [4]byte
	b.order.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *byteBuilder) u64(v uint64) *byteBuilder {
	var tmp [8]byte
	b.order.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *byteBuilder) i16(v int16) *byteBuilder {
	var tmp [2]byte
	b.order.PutUint16(tmp[:], uint16(v))
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *byteBuilder) raw(bs ...byte) *byteBuilder {
	b.buf = append(b.buf, bs...)
	return b
}

// name16 appends a NUL-padded 16-byte C-string field.
func (b *byteBuilder) name16(s string) *byteBuilder {
	var field [16]byte
	copy(field[:], s)
	b.buf = append(b.buf, field[:]...)
	return b
}

func (b *byteBuilder) bytes() []byte { return b.buf }
func (b *byteBuilder) len() int64    { return int64(len(b.buf)) }
