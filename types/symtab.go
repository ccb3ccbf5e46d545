package types

// SymtabCmd is the wire layout of LC_SYMTAB: offsets into the file for the
// symbol table (nlist array) and the string table backing symbol names.
type SymtabCmd struct {
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

// DysymtabCmd is the wire layout of LC_DYSYMTAB, partitioning the symbol
// table built by SymtabCmd into local/external/undefined ranges plus the
// auxiliary dynamic-linking tables. Only the four index/count pairs in
// spec scope (local, external defined, undefined, indirect symbols) are
// structurally meaningful here; the rest of the dynamic-linking fields
// are retained for completeness of the wire record.
type DysymtabCmd struct {
	Ilocalsym      uint32
	Nlocalsym      uint32
	Iextdefsym     uint32
	Nextdefsym     uint32
	Iundefsym      uint32
	Nundefsym      uint32
	Tocoffset      uint32
	Ntoc           uint32
	Modtaboff      uint32
	Nmodtab        uint32
	Extrefsymoff   uint32
	Nextrefsyms    uint32
	Indirectsymoff uint32
	Nindirectsyms  uint32
	Extreloff      uint32
	Nextrel        uint32
	Locreloff      uint32
	Nlocrel        uint32
}

// Nlist32 is the wire layout of a 32-bit symbol table entry.
type Nlist32 struct {
	Name  uint32
	Type  uint8
	Sect  uint8
	Desc  uint16
	Value uint32
}

// Nlist64 is the wire layout of a 64-bit symbol table entry.
type Nlist64 struct {
	Name  uint32
	Type  uint8
	Sect  uint8
	Desc  uint16
	Value uint64
}

// n_type bit masks, per <mach-o/nlist.h>.
const (
	NStab uint8 = 0xe0 // if any of these bits set, a symbolic debugging entry
	NPext uint8 = 0x10 // private external symbol bit
	NType uint8 = 0x0e // mask for the type bits
	NExt  uint8 = 0x01 // external symbol bit, set for external symbols
)

// Values of N_TYPE once masked from n_type.
const (
	NUndf uint8 = 0x0 // undefined, n_sect == NO_SECT
	NAbs  uint8 = 0x2 // absolute, n_sect == NO_SECT
	NSect uint8 = 0xe // defined in section number n_sect
	NPbud uint8 = 0xc // prebound undefined (defined in a dylib)
	NIndr uint8 = 0xa // indirect
)

// NoSect is the reserved section-index value meaning "no section".
const NoSect uint8 = 0
