package macho

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/osok/apple-core/types"
)

// FatArchHeader is a decoded fat arch descriptor, always read
// big-endian: 20 bytes on disk for a 32-bit-offset fat container
// (MagicFat), 32 bytes for a 64-bit-offset one (MagicFat2). Offset and
// Size are always widened to int64 regardless of the on-disk width so
// callers don't need to branch on the container's magic.
type FatArchHeader struct {
	CPU    types.CPU
	SubCPU types.CPUSubtype
	Offset int64
	Size   int64
	Align  uint32
}

// FatArch is one slice of a fat binary: its descriptor plus the fully
// decoded File for that slice. A slice that failed to decode has a nil
// File and a non-nil Err; sibling slices are unaffected (§4.9 isolation,
// property P6).
type FatArch struct {
	FatArchHeader
	*File
	Err error
}

// FatFile is a parsed universal/fat binary: the fat header plus one
// FatArch per embedded slice, in descriptor order.
type FatFile struct {
	Magic types.Magic
	Arches []FatArch

	Warnings []Warning

	closer io.Closer
}

// Close releases the underlying source, if FatFile owns it (i.e. it
// was obtained via OpenFat rather than NewFatFile).
func (ff *FatFile) Close() error {
	if ff.closer != nil {
		return ff.closer.Close()
	}
	return nil
}

// OpenFat opens the named file and parses it as a fat/universal binary.
func OpenFat(name string) (*FatFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	ff, err := NewFatFile(context.Background(), f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

// NewFatFile reads the fat header (always big-endian) and its array of
// arch descriptors, then invokes the thin decoder at each slice's
// offset. One corrupt slice is recorded on its FatArch.Err and does not
// prevent sibling slices from decoding (§4.9).
func NewFatFile(ctx context.Context, src io.ReaderAt, size int64) (*FatFile, error) {
	r := NewReader(src, size)
	ident, err := r.Read(4)
	if err != nil {
		return nil, err
	}
	class := classify([4]byte{ident[0], ident[1], ident[2], ident[3]})
	if !class.isFat() {
		return nil, newNotMachOError(0, binary.BigEndian.Uint32(ident))
	}

	nfatBuf, err := r.Read(4)
	if err != nil {
		return nil, err
	}
	nfatArch := binary.BigEndian.Uint32(nfatBuf)

	magic := types.MagicFat
	if class == Fat64 {
		magic = types.MagicFat2
	}

	ff := &FatFile{Magic: magic}
	var ranges [][2]int64

	for i := uint32(0); i < nfatArch; i++ {
		var ah FatArchHeader
		var offset, archSize int64

		if class == Fat64 {
			b, err := r.Read(32)
			if err != nil {
				return nil, err
			}
			ah.CPU = types.CPU(binary.BigEndian.Uint32(b[0:4]))
			ah.SubCPU = types.CPUSubtype(binary.BigEndian.Uint32(b[4:8]))
			offset = int64(binary.BigEndian.Uint64(b[8:16]))
			archSize = int64(binary.BigEndian.Uint64(b[16:24]))
			ah.Align = binary.BigEndian.Uint32(b[24:28])
		} else {
			b, err := r.Read(20)
			if err != nil {
				return nil, err
			}
			ah.CPU = types.CPU(binary.BigEndian.Uint32(b[0:4]))
			ah.SubCPU = types.CPUSubtype(binary.BigEndian.Uint32(b[4:8]))
			offset = int64(binary.BigEndian.Uint32(b[8:12]))
			archSize = int64(binary.BigEndian.Uint32(b[12:16]))
			ah.Align = binary.BigEndian.Uint32(b[16:20])
		}
		ah.Offset = offset
		ah.Size = archSize

		for _, rg := range ranges {
			if offset < rg[1] && rg[0] < offset+archSize {
				log.Printf("fat slice %d at offset %#x overlaps a previous slice", i, offset)
				ff.Warnings = append(ff.Warnings, Warning{
					Kind:    WarnOverlappingFatSlice,
					Message: fmt.Sprintf("fat slice %d at offset %#x overlaps a previous slice", i, offset),
					Offset:  offset,
				})
			}
		}
		ranges = append(ranges, [2]int64{offset, offset + archSize})

		slice, err := NewFile(ctx, src, size, DecodeOptions{Offset: offset, ArchSize: archSize})
		arch := FatArch{FatArchHeader: ah}
		if err != nil {
			arch.Err = fmt.Errorf("fat slice %d at offset %#x: %w", i, offset, err)
		} else {
			slice.IsFat = true
			arch.File = slice
		}
		ff.Arches = append(ff.Arches, arch)
	}

	return ff, nil
}
