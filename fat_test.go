package macho

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/osok/apple-core/types"
)

// buildThinSlice returns a minimal decodable 64-bit LE thin header, right
// padded to size bytes so it can be embedded at a fixed offset inside a
// larger fat container.
func buildThinSlice(size int) []byte {
	b := newBuilder(binary.LittleEndian)
	b.u32(uint32(types.Magic64))
	b.u32(0x01000007) // cputype: x86_64
	b.u32(0)           // cpusubtype
	b.u32(0x00000002)  // MH_EXECUTE
	b.u32(0)           // ncmds
	b.u32(0)           // sizeofcmds
	b.u32(0)           // flags
	b.u32(0)           // reserved
	out := make([]byte, size)
	copy(out, b.bytes())
	return out
}

// scenario 6: fat universal binary, two slices at fixed offsets.
func TestNewFatFile_TwoSlices(t *testing.T) {
	const sliceSize = 256
	const off0 = 128
	const off1 = 384

	total := off1 + sliceSize
	body := make([]byte, total)

	fat := newBuilder(binary.BigEndian)
	fat.u32(uint32(types.MagicFat))
	fat.u32(2) // nfat_arch
	// arch 0: x86_64
	fat.u32(0x01000007).u32(3).u32(off0).u32(sliceSize).u32(0x4000)
	// arch 1: arm64
	fat.u32(0x0100000c).u32(0).u32(off1).u32(sliceSize).u32(0x4000)
	copy(body, fat.bytes())

	copy(body[off0:], buildThinSlice(sliceSize))
	copy(body[off1:], buildThinSlice(sliceSize))

	src := bytes.NewReader(body)
	ff, err := NewFatFile(context.Background(), src, int64(len(body)))
	if err != nil {
		t.Fatalf("NewFatFile: %v", err)
	}
	if ff.Magic != types.MagicFat {
		t.Errorf("Magic = %v, want MagicFat", ff.Magic)
	}
	if len(ff.Arches) != 2 {
		t.Fatalf("len(Arches) = %d, want 2", len(ff.Arches))
	}

	for i, arch := range ff.Arches {
		if arch.Err != nil {
			t.Fatalf("arch %d: unexpected error %v", i, arch.Err)
		}
		if !arch.File.IsFat {
			t.Errorf("arch %d: IsFat = false, want true", i)
		}
	}
	if ff.Arches[0].Offset != off0 {
		t.Errorf("arch0 offset = %d, want %d", ff.Arches[0].Offset, off0)
	}
	if ff.Arches[1].Offset != off1 {
		t.Errorf("arch1 offset = %d, want %d", ff.Arches[1].Offset, off1)
	}
	if ff.Arches[0].ArchOffset != off0 || ff.Arches[1].ArchOffset != off1 {
		t.Errorf("Header.ArchOffset mismatch: %d/%d, want %d/%d",
			ff.Arches[0].ArchOffset, ff.Arches[1].ArchOffset, off0, off1)
	}

	// I1: arch0 is not the last slice, so its ArchSize must be bounded
	// to the descriptor's declared size, not "rest of the fat container"
	// (which would overlap arch1's range).
	if ff.Arches[0].ArchSize != sliceSize {
		t.Errorf("arch0 Header.ArchSize = %d, want %d", ff.Arches[0].ArchSize, sliceSize)
	}
	if ff.Arches[1].ArchSize != sliceSize {
		t.Errorf("arch1 Header.ArchSize = %d, want %d", ff.Arches[1].ArchSize, sliceSize)
	}
	if len(ff.Warnings) != 0 {
		t.Errorf("unexpected warnings for non-overlapping slices: %v", ff.Warnings)
	}

	want := []types.CPU{0x01000007, 0x0100000c}
	got := []types.CPU{ff.Arches[0].CPU, ff.Arches[1].CPU}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CPU mismatch (-want +got):\n%s", diff)
	}
}

// P6: a corrupt first slice does not prevent a valid sibling slice from
// decoding.
func TestNewFatFile_FirstSliceCorrupt(t *testing.T) {
	const sliceSize = 256
	const off0 = 128
	const off1 = 384

	total := off1 + sliceSize
	body := make([]byte, total)

	fat := newBuilder(binary.BigEndian)
	fat.u32(uint32(types.MagicFat))
	fat.u32(2)
	fat.u32(0x01000007).u32(3).u32(off0).u32(sliceSize).u32(0x4000)
	fat.u32(0x0100000c).u32(0).u32(off1).u32(sliceSize).u32(0x4000)
	copy(body, fat.bytes())

	// slice 0: garbage magic, not a recognized Mach-O.
	copy(body[off0:], bytes.Repeat([]byte{0xff}, sliceSize))
	// slice 1: a valid thin header.
	copy(body[off1:], buildThinSlice(sliceSize))

	src := bytes.NewReader(body)
	ff, err := NewFatFile(context.Background(), src, int64(len(body)))
	if err != nil {
		t.Fatalf("NewFatFile: %v", err)
	}
	if len(ff.Arches) != 2 {
		t.Fatalf("len(Arches) = %d, want 2", len(ff.Arches))
	}
	if ff.Arches[0].Err == nil {
		t.Error("expected arch 0 to report a decode error")
	}
	if ff.Arches[0].File != nil {
		t.Error("expected arch 0 File to be nil after a decode failure")
	}
	if ff.Arches[1].Err != nil {
		t.Fatalf("expected arch 1 to decode cleanly, got %v", ff.Arches[1].Err)
	}
	if ff.Arches[1].File == nil {
		t.Fatal("expected arch 1 File to be populated")
	}
}

// §4.3/§7: an overlapping fat slice is reported as a caller-observable
// warning, not only logged.
func TestNewFatFile_OverlappingSlicesWarn(t *testing.T) {
	const sliceSize = 256
	const off0 = 128
	const off1 = 256 // overlaps [128, 384) from slice 0

	total := off1 + sliceSize
	body := make([]byte, total)

	fat := newBuilder(binary.BigEndian)
	fat.u32(uint32(types.MagicFat))
	fat.u32(2)
	fat.u32(0x01000007).u32(3).u32(off0).u32(sliceSize).u32(0x4000)
	fat.u32(0x0100000c).u32(0).u32(off1).u32(sliceSize).u32(0x4000)
	copy(body, fat.bytes())

	copy(body[off0:], buildThinSlice(sliceSize))
	copy(body[off1:], buildThinSlice(sliceSize))

	src := bytes.NewReader(body)
	ff, err := NewFatFile(context.Background(), src, int64(len(body)))
	if err != nil {
		t.Fatalf("NewFatFile: %v", err)
	}
	if len(ff.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(ff.Warnings))
	}
	if ff.Warnings[0].Kind != WarnOverlappingFatSlice {
		t.Errorf("Warnings[0].Kind = %v, want WarnOverlappingFatSlice", ff.Warnings[0].Kind)
	}
}
