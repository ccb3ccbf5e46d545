package macho

import (
	"encoding/binary"
	"fmt"

	"github.com/osok/apple-core/types"
)

// Section is a decoded section header. reloff/nreloc and the trailing
// reserved words are read for position advancement only and are not
// carried further.
type Section struct {
	Name    string
	Seg     string
	Addr    uint64
	Size    uint64
	Offset  uint32
	Align   uint32
	Flags   types.SectionFlag
}

func (s *Section) String() string {
	return fmt.Sprintf("%s.%s addr=%#x size=%#x type=%s", s.Seg, s.Name, s.Addr, s.Size, s.Flags)
}

// Segment is a decoded LC_SEGMENT/LC_SEGMENT_64 command: the mapped
// virtual memory range plus its ordered Sections.
type Segment struct {
	Cmd      types.LoadCmd
	Name     string
	Addr     uint64
	Memsz    uint64
	Offset   uint64
	Filesz   uint64
	Maxprot  types.VmProtection
	Prot     types.VmProtection
	Flags    types.SegFlag
	Sections []*Section
}

func (s *Segment) String() string {
	return fmt.Sprintf("%-16s addr=%#x-%#x prot=%s/%s nsects=%d",
		s.Name, s.Addr, s.Addr+s.Memsz, s.Prot, s.Maxprot, len(s.Sections))
}

// decodeSegment decodes a segment and its trailing section headers from
// a retained LoadCommand's raw bytes, per the wire layout of §4.5: the
// command body starts at byte 8 (after cmd/cmdsize), segname occupies
// the next 16 bytes, then four address-width scalars, then four
// Word32s (maxprot, initprot, nsects, flags), then nsects section
// records.
func decodeSegment(lc LoadCommand, is64 bool, order binary.ByteOrder, base int64) (*Segment, []Warning, error) {
	b := lc.Raw
	const preamble = 8
	const nameLen = 16

	scalarWidth := 4
	if is64 {
		scalarWidth = 8
	}
	// header: name(16) + 4 address-width scalars + maxprot/initprot/nsects/flags(4x4)
	headerLen := preamble + nameLen + 4*scalarWidth + 4*4
	if len(b) < headerLen {
		return nil, nil, newMalformedSegmentError(lc.Offset+base, "segment command shorter than fixed header", len(b))
	}

	off := preamble
	name := cstring(b[off : off+nameLen])
	off += nameLen

	readScalar := func() uint64 {
		if is64 {
			v := readU64(b[off:off+8], order)
			off += 8
			return v
		}
		v := uint64(readU32(b[off:off+4], order))
		off += 4
		return v
	}

	addr := readScalar()
	memsz := readScalar()
	fileoff := readScalar()
	filesz := readScalar()

	maxprot := types.VmProtection(readU32(b[off:off+4], order))
	off += 4
	initprot := types.VmProtection(readU32(b[off:off+4], order))
	off += 4
	nsects := readU32(b[off:off+4], order)
	off += 4
	flags := types.SegFlag(readU32(b[off:off+4], order))
	off += 4

	seg := &Segment{
		Cmd:     lc.Cmd,
		Name:    name,
		Addr:    addr,
		Memsz:   memsz,
		Offset:  fileoff,
		Filesz:  filesz,
		Maxprot: maxprot,
		Prot:    initprot,
		Flags:   flags,
	}

	// sectname(16) + segname(16) + addr/size(2*scalarWidth) +
	// offset/align/reloff/nreloc/flags(5*4) + reserved words (2 in
	// 32-bit sections, 3 in 64-bit).
	secLen := 16 + 16 + 2*scalarWidth + 5*4 + 8
	if is64 {
		secLen += 4
	}

	var warnings []Warning
	for i := uint32(0); i < nsects; i++ {
		if off+secLen > len(b) {
			return nil, nil, newMalformedSegmentError(lc.Offset+base, "nsects exceeds cmd_size", nsects)
		}
		sb := b[off : off+secLen]
		off += secLen

		sectname := cstring(sb[0:16])
		segname := cstring(sb[16:32])
		p := 32
		var saddr, ssize uint64
		if is64 {
			saddr = readU64(sb[p:p+8], order)
			p += 8
			ssize = readU64(sb[p:p+8], order)
			p += 8
		} else {
			saddr = uint64(readU32(sb[p:p+4], order))
			p += 4
			ssize = uint64(readU32(sb[p:p+4], order))
			p += 4
		}
		soffset := readU32(sb[p:p+4], order)
		p += 4
		salign := readU32(sb[p:p+4], order)
		p += 4
		// reloff, nreloc: read for advancement only, not retained
		p += 4 // reloff
		p += 4 // nreloc
		sflags := types.SectionFlag(readU32(sb[p:p+4], order))

		if segname != name {
			warnings = append(warnings, Warning{
				Kind:    WarnSegnameMismatch,
				Message: fmt.Sprintf("section %s.%s segname does not match owning segment %s", segname, sectname, name),
				Offset:  lc.Offset + base,
			})
		}

		sec := &Section{
			Name:   sectname,
			Seg:    segname,
			Addr:   saddr,
			Size:   ssize,
			Offset: soffset,
			Align:  salign,
			Flags:  sflags,
		}

		if addr != 0 && memsz != 0 && !isZerofillLike(name, sflags) {
			if saddr < addr || saddr+ssize > addr+memsz {
				warnings = append(warnings, Warning{
					Kind:    WarnSectionOutsideSegment,
					Message: fmt.Sprintf("section %s.%s [%#x,%#x) escapes segment range [%#x,%#x)", segname, sectname, saddr, saddr+ssize, addr, addr+memsz),
					Offset:  lc.Offset + base,
				})
			}
		}

		seg.Sections = append(seg.Sections, sec)
	}

	return seg, warnings, nil
}

// isZerofillLike reports whether a section's containment check should
// be skipped: __PAGEZERO carries no meaningful address range, and
// zero-fill sections commonly live outside their nominal file mapping.
func isZerofillLike(segName string, flags types.SectionFlag) bool {
	if segName == "__PAGEZERO" {
		return true
	}
	switch flags.Type() {
	case types.SZerofill, types.SGbZerofill, types.SThreadLocalZerofill:
		return true
	}
	return false
}
