package macho

import (
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader is a positioned cursor over an io.ReaderAt, through which the
// decoders read the source (the MD5 digest pass in digestAt reads the
// source directly instead). It tracks its own offset
// so callers can record cmd_offset-style bookkeeping without maintaining
// a parallel counter (encoding/binary's Reader methods are not
// positioned, hence this wrapper instead of using one directly).
type Reader struct {
	src io.ReaderAt
	off int64
	len int64
}

// NewReader wraps src, which must report its total extent via size.
func NewReader(src io.ReaderAt, size int64) *Reader {
	return &Reader{src: src, len: size}
}

// Len reports the total byte length of the underlying source.
func (r *Reader) Len() int64 { return r.len }

// Tell reports the current absolute read position.
func (r *Reader) Tell() int64 { return r.off }

// SeekAbs repositions the cursor to an absolute offset.
func (r *Reader) SeekAbs(p int64) { r.off = p }

// SeekRel repositions the cursor relative to its current position.
func (r *Reader) SeekRel(d int64) { r.off += d }

// Read reads exactly n bytes at the current position and advances by n.
// A short read fails with a TruncatedError rather than a partial result.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 || r.off < 0 || r.off+int64(n) > r.len {
		return nil, newTruncatedError(r.off, n, r.len-r.off)
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, r.off); err != nil {
		return nil, newTruncatedError(r.off, n, r.len-r.off)
	}
	r.off += int64(n)
	return buf, nil
}

// ReadAt reads n bytes at an absolute offset without disturbing the
// cursor, used by decoders operating on retained load-command bytes.
func (r *Reader) ReadAt(off int64, n int) ([]byte, error) {
	if n < 0 || off < 0 || off+int64(n) > r.len {
		return nil, newTruncatedError(off, n, r.len-off)
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, off); err != nil {
		return nil, newTruncatedError(off, n, r.len-off)
	}
	return buf, nil
}

func readU16(b []byte, order binary.ByteOrder) uint16 { return order.Uint16(b) }
func readU32(b []byte, order binary.ByteOrder) uint32 { return order.Uint32(b) }
func readU64(b []byte, order binary.ByteOrder) uint64 { return order.Uint64(b) }
func readI16(b []byte, order binary.ByteOrder) int16  { return int16(order.Uint16(b)) }

func readFixedBytes(b []byte, n int) [16]byte {
	var out [16]byte
	copy(out[:], b[:n])
	return out
}

// cstring decodes a fixed-width C-string field: the prefix up to the
// first NUL byte, UTF-8 decoded with replacement on error. Content is
// never grounds to fail a decode.
func cstring(b []byte) string {
	if i := indexNUL(b); i >= 0 {
		b = b[:i]
	}
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func cstringFixed16(b [16]byte) string { return cstring(b[:]) }
