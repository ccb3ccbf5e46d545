package macho

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/osok/apple-core/types"
)

// scenario 1: minimal 64-bit LE header, no load commands.
func TestNewFile_MinimalHeader64LE(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.u32(uint32(types.Magic64))
	b.u32(0x01000007) // cputype
	b.u32(0x00000003) // cpusubtype
	b.u32(0x00000002) // filetype
	b.u32(0)          // ncmds
	b.u32(0)          // sizeofcmds
	b.u32(0x00000085) // flags
	b.u32(0)          // reserved

	src := bytes.NewReader(b.bytes())
	f, err := NewFile(context.Background(), src, b.len(), DecodeOptions{})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if !f.Is64 {
		t.Error("expected Is64 = true")
	}
	if f.ByteOrder != binary.LittleEndian {
		t.Error("expected little-endian byte order")
	}
	if len(f.LoadCmds) != 0 {
		t.Errorf("expected 0 load commands, got %d", len(f.LoadCmds))
	}
	if f.NCommands != 0 || f.SizeCommands != 0 {
		t.Errorf("expected ncmds=0 sizeofcmds=0, got %d/%d", f.NCommands, f.SizeCommands)
	}
}

// scenario 2: two load commands, 32-bit LE, exercised at the walker
// level directly (P1: round-trip of retained bytes) rather than through
// the full segment/symtab decoders, since the fixture's LC_SEGMENT body
// is deliberately shorter than a real segment record.
func TestWalkLoadCommands_TwoCommands32LE(t *testing.T) {
	order := binary.LittleEndian
	hdr := types.FileHeader{NCommands: 2, SizeCommands: 56}

	b := newBuilder(order)
	// LC_SEGMENT, cmd_size=24
	b.u32(uint32(types.LC_SEGMENT)).u32(24)
	b.raw(make([]byte, 16)...)
	// LC_SYMTAB, cmd_size=32
	b.u32(uint32(types.LC_SYMTAB)).u32(32)
	b.raw(make([]byte, 24)...)

	src := bytes.NewReader(b.bytes())
	r := NewReader(src, b.len())

	cmds, _, err := walkLoadCommands(context.Background(), r, hdr, order, 0, 0)
	if err != nil {
		t.Fatalf("walkLoadCommands: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 load commands, got %d", len(cmds))
	}
	if cmds[0].Offset != 0 || cmds[0].Len != 24 {
		t.Errorf("cmd0: offset=%d len=%d, want 0/24", cmds[0].Offset, cmds[0].Len)
	}
	if cmds[1].Offset != 24 || cmds[1].Len != 32 {
		t.Errorf("cmd1: offset=%d len=%d, want 24/32", cmds[1].Offset, cmds[1].Len)
	}

	// P1: concatenating cmd_bytes of all commands yields exactly
	// sizeofcmds bytes.
	total := 0
	for _, c := range cmds {
		total += len(c.Raw)
	}
	if total != int(hdr.SizeCommands) {
		t.Errorf("retained bytes total = %d, want %d", total, hdr.SizeCommands)
	}
}

func TestWalkLoadCommands_MalformedCmdSize(t *testing.T) {
	order := binary.LittleEndian
	hdr := types.FileHeader{NCommands: 1, SizeCommands: 56}

	b := newBuilder(order)
	b.u32(uint32(types.LC_SEGMENT)).u32(4) // cmd_size < 8

	src := bytes.NewReader(b.bytes())
	r := NewReader(src, b.len())

	_, _, err := walkLoadCommands(context.Background(), r, hdr, order, 0, 0)
	if err == nil {
		t.Fatal("expected MalformedLoadCommandError")
	}
	var target *MalformedLoadCommandError
	if !errors.As(err, &target) {
		t.Errorf("expected *MalformedLoadCommandError, got %T", err)
	}
}
