package macho

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/osok/apple-core/types"
)

// scenario 4: symbol classification across four nlist_64 entries.
func TestDecodeSymtab_Classification(t *testing.T) {
	order := binary.LittleEndian

	names := []string{"_local", "_ext", "_undef", "_dbg"}
	str := newBuilder(order)
	str.raw(0) // offset 0 reserved, matching real string tables
	offsets := make([]uint32, len(names))
	for i, n := range names {
		offsets[i] = uint32(len(str.bytes()))
		str.raw([]byte(n)...)
		str.raw(0)
	}
	strtab := str.bytes()

	type row struct {
		strx  uint32
		ntype uint8
		value uint64
	}
	rows := []row{
		{offsets[0], 0x0E, 0x1000}, // _local: N_SECT, not external -> local+defined
		{offsets[1], 0x0F, 0x2000}, // _ext: N_SECT|N_EXT -> external+defined
		{offsets[2], 0x01, 0},      // _undef: N_EXT, N_UNDF -> external+undefined
		{offsets[3], 0x2E, 0x3000}, // _dbg: N_STAB bits set -> debug
	}

	nl := newBuilder(order)
	for _, r := range rows {
		nl.u32(r.strx)
		nl.raw(r.ntype, 0)
		nl.i16(0)
		nl.u64(r.value)
	}

	const symoff = 1024
	const stroff = 2048
	body := make([]byte, stroff+len(strtab))
	copy(body[symoff:], nl.bytes())
	copy(body[stroff:], strtab)

	cmdBody := newBuilder(order)
	cmdBody.u32(uint32(types.LC_SYMTAB)).u32(24) // cmdsize: 8-byte preamble + 16-byte body
	cmdBody.u32(symoff)
	cmdBody.u32(uint32(len(rows)))
	cmdBody.u32(stroff)
	cmdBody.u32(uint32(len(strtab)))

	lc := LoadCommand{Cmd: types.LC_SYMTAB, Len: uint32(len(cmdBody.bytes())), Raw: cmdBody.bytes()}

	src := bytes.NewReader(body)
	r := NewReader(src, int64(len(body)))

	st, warnings, err := decodeSymtab(context.Background(), r, lc, true, order, DecodeOptions{})
	if err != nil {
		t.Fatalf("decodeSymtab: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(st.Syms) != 4 {
		t.Fatalf("expected 4 symbols, got %d", len(st.Syms))
	}

	local, ext, undef, dbg := st.Syms[0], st.Syms[1], st.Syms[2], st.Syms[3]

	if local.Name != "_local" || !local.IsLocal || local.IsExternal || !local.IsDefined {
		t.Errorf("_local classification wrong: %+v", local)
	}
	if ext.Name != "_ext" || !ext.IsExternal || !ext.IsDefined || ext.IsLocal {
		t.Errorf("_ext classification wrong: %+v", ext)
	}
	if undef.Name != "_undef" || !undef.IsExternal || undef.IsDefined {
		t.Errorf("_undef classification wrong: %+v", undef)
	}
	if dbg.Name != "_dbg" || !dbg.IsDebug {
		t.Errorf("_dbg classification wrong: %+v", dbg)
	}
}

func TestLookupString_OutOfRange(t *testing.T) {
	strtab := []byte("abc\x00")
	if _, ok := lookupString(strtab, 100); ok {
		t.Error("expected ok=false for out-of-range strx")
	}
	if name, ok := lookupString(strtab, 0); !ok || name != "abc" {
		t.Errorf("lookupString(0) = %q, %v; want abc, true", name, ok)
	}
}
