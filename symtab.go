package macho

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/osok/apple-core/types"
)

// Symbol is a decoded nlist/nlist_64 entry: its resolved name plus the
// four derived classification bits of spec §4.6, computed once and
// never re-derived by consumers.
type Symbol struct {
	Name  string
	Type  uint8
	Sect  uint8
	Desc  int16
	Value uint64

	IsExternal bool
	IsDebug    bool
	IsLocal    bool
	IsDefined  bool
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s value=%#x ext=%v debug=%v defined=%v", s.Name, s.Value, s.IsExternal, s.IsDebug, s.IsDefined)
}

// classify fills in the four derived bits from the raw n_type byte,
// per the masks of §4.6: N_STAB=0xE0, N_PEXT=0x10, N_TYPE=0x0E,
// N_EXT=0x01, with N_SECT=0x0E and N_ABS=0x02 marking "defined".
func (s *Symbol) classify() {
	s.IsExternal = s.Type&types.NExt != 0
	s.IsDebug = s.Type&types.NStab != 0
	t := s.Type & types.NType
	s.IsDefined = t == types.NSect || t == types.NAbs
	s.IsLocal = !s.IsExternal && !s.IsDebug
}

// Symtab is the decoded LC_SYMTAB command: the symbol table offsets
// plus the resolved Symbols themselves, in on-disk order.
type Symtab struct {
	types.SymtabCmd
	Syms []*Symbol
}

// Dysymtab is the decoded LC_DYSYMTAB command.
type Dysymtab struct {
	types.DysymtabCmd
}

// decodeSymtab implements §4.6: read the string table, then nsyms
// nlist entries in batches bounded by opts.MaxCancelBatch, resolving
// each symbol's name and classification bits as it goes.
func decodeSymtab(ctx context.Context, r *Reader, lc LoadCommand, is64 bool, order binary.ByteOrder, opts DecodeOptions) (*Symtab, []Warning, error) {
	if len(lc.Raw) < 24 {
		return nil, nil, newMalformedSymtabError(lc.Offset, "LC_SYMTAB command shorter than fixed body", len(lc.Raw))
	}
	b := lc.Raw[8:] // skip cmd/cmdsize preamble
	cmd := types.SymtabCmd{
		Symoff:  readU32(b[0:4], order),
		Nsyms:   readU32(b[4:8], order),
		Stroff:  readU32(b[8:12], order),
		Strsize: readU32(b[12:16], order),
	}

	if int64(cmd.Stroff)+int64(cmd.Strsize) > r.Len() {
		return nil, nil, newMalformedSymtabError(int64(cmd.Stroff), "string table runs past end of file", cmd.Strsize)
	}
	strtab, err := r.ReadAt(int64(cmd.Stroff), int(cmd.Strsize))
	if err != nil {
		return nil, nil, err
	}

	entrySize := 12
	if is64 {
		entrySize = 16
	}
	need := int64(cmd.Nsyms) * int64(entrySize)
	if int64(cmd.Symoff)+need > r.Len() {
		return nil, nil, newMalformedSymtabError(int64(cmd.Symoff), "nlist count exceeds remaining bytes", cmd.Nsyms)
	}

	var warnings []Warning
	syms := make([]*Symbol, 0, cmd.Nsyms)
	batch := opts.cancelBatch()

	for i := uint32(0); i < cmd.Nsyms; i++ {
		if int(i)%batch == 0 {
			select {
			case <-ctx.Done():
				return nil, nil, newCancelledError(ctx.Err())
			default:
			}
		}

		entOff := int64(cmd.Symoff) + int64(i)*int64(entrySize)
		eb, err := r.ReadAt(entOff, entrySize)
		if err != nil {
			return nil, nil, err
		}

		strx := readU32(eb[0:4], order)
		ntype := eb[4]
		nsect := eb[5]
		ndesc := readI16(eb[6:8], order)
		var value uint64
		if is64 {
			value = readU64(eb[8:16], order)
		} else {
			value = uint64(readU32(eb[8:12], order))
		}

		name, ok := lookupString(strtab, strx)
		if !ok {
			name = fmt.Sprintf("INVALID_STRING_OFFSET_%d", strx)
			warnings = append(warnings, Warning{
				Kind:    WarnInvalidStringOffset,
				Message: fmt.Sprintf("symbol %d has out-of-range n_strx %d", i, strx),
				Offset:  entOff,
			})
		}

		sym := &Symbol{Name: name, Type: ntype, Sect: nsect, Desc: ndesc, Value: value}
		sym.classify()
		syms = append(syms, sym)
	}

	return &Symtab{SymtabCmd: cmd, Syms: syms}, warnings, nil
}

// lookupString returns the NUL-terminated, UTF-8-decoded string starting
// at strx within strtab. strx out of range reports ok=false so the
// caller can substitute the sentinel name required by I5.
func lookupString(strtab []byte, strx uint32) (string, bool) {
	if strx >= uint32(len(strtab)) {
		return "", false
	}
	end := strx
	for end < uint32(len(strtab)) && strtab[end] != 0 {
		end++
	}
	return cstring(strtab[strx:end]), true
}

func decodeDysymtab(lc LoadCommand, order binary.ByteOrder) *Dysymtab {
	b := lc.Raw
	if len(b) < 8+18*4 {
		return nil
	}
	b = b[8:]
	rd := func(i int) uint32 { return readU32(b[i*4:i*4+4], order) }
	return &Dysymtab{DysymtabCmd: types.DysymtabCmd{
		Ilocalsym:      rd(0),
		Nlocalsym:      rd(1),
		Iextdefsym:     rd(2),
		Nextdefsym:     rd(3),
		Iundefsym:      rd(4),
		Nundefsym:      rd(5),
		Tocoffset:      rd(6),
		Ntoc:           rd(7),
		Modtaboff:      rd(8),
		Nmodtab:        rd(9),
		Extrefsymoff:   rd(10),
		Nextrefsyms:    rd(11),
		Indirectsymoff: rd(12),
		Nindirectsyms:  rd(13),
		Extreloff:      rd(14),
		Nextrel:        rd(15),
		Locreloff:      rd(16),
		Nlocrel:        rd(17),
	}}
}
