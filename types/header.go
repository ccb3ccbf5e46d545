package types

import (
	"fmt"
	"strings"
)

// FileHeader is the wire layout of a Mach-O thin header: seven Word32s,
// plus Reserved when the slice is 64-bit. This is the header record before
// any load commands are attached.
type FileHeader struct {
	Magic        Magic
	CPU          CPU
	SubCPU       CPUSubtype
	Type         HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        HeaderFlag
	Reserved     uint32 // only present (read) for Magic64
}

const (
	FileHeaderSize32 = 7 * 4
	FileHeaderSize64 = 8 * 4
)

// Magic is the four-byte sentinel at offset 0 of a Mach-O slice or fat
// wrapper, encoding format variant and (for thin slices) byte order.
type Magic uint32

const (
	Magic32   Magic = 0xfeedface
	Magic64   Magic = 0xfeedfacf
	MagicFat  Magic = 0xcafebabe // 32-bit fat arch descriptors
	MagicFat2 Magic = 0xcafebabf // 64-bit fat arch descriptors
)

var magicStrings = []IntName{
	{uint32(Magic32), "32-bit MachO"},
	{uint32(Magic64), "64-bit MachO"},
	{uint32(MagicFat), "Fat MachO"},
	{uint32(MagicFat2), "Fat MachO (64-bit arches)"},
}

func (i Magic) Int() uint32      { return uint32(i) }
func (i Magic) String() string   { return StringName(uint32(i), magicStrings, false) }
func (i Magic) GoString() string { return StringName(uint32(i), magicStrings, true) }

// HeaderFileType is the Mach-O file type, e.g. an object file, executable,
// or dynamic library.
type HeaderFileType uint32

const (
	MH_OBJECT      HeaderFileType = 0x1 /* relocatable object file */
	MH_EXECUTE     HeaderFileType = 0x2 /* demand paged executable file */
	MH_FVMLIB      HeaderFileType = 0x3 /* fixed VM shared library file */
	MH_CORE        HeaderFileType = 0x4 /* core file */
	MH_PRELOAD     HeaderFileType = 0x5 /* preloaded executable file */
	MH_DYLIB       HeaderFileType = 0x6 /* dynamically bound shared library */
	MH_DYLINKER    HeaderFileType = 0x7 /* dynamic link editor */
	MH_BUNDLE      HeaderFileType = 0x8 /* dynamically bound bundle file */
	MH_DYLIB_STUB  HeaderFileType = 0x9 /* shared library stub for static linking only */
	MH_DSYM        HeaderFileType = 0xa /* companion file with only debug sections */
	MH_KEXT_BUNDLE HeaderFileType = 0xb /* x86_64 kexts */
)

var fileTypeStrings = []IntName{
	{uint32(MH_OBJECT), "MH_OBJECT"},
	{uint32(MH_EXECUTE), "MH_EXECUTE"},
	{uint32(MH_FVMLIB), "MH_FVMLIB"},
	{uint32(MH_CORE), "MH_CORE"},
	{uint32(MH_PRELOAD), "MH_PRELOAD"},
	{uint32(MH_DYLIB), "MH_DYLIB"},
	{uint32(MH_DYLINKER), "MH_DYLINKER"},
	{uint32(MH_BUNDLE), "MH_BUNDLE"},
	{uint32(MH_DYLIB_STUB), "MH_DYLIB_STUB"},
	{uint32(MH_DSYM), "MH_DSYM"},
	{uint32(MH_KEXT_BUNDLE), "MH_KEXT_BUNDLE"},
}

func (t HeaderFileType) String() string { return StringName(uint32(t), fileTypeStrings, false) }

// HeaderFlag holds the Mach-O header's bitfield flags.
type HeaderFlag uint32

const (
	NoUndefs                   HeaderFlag = 0x1
	IncrLink                   HeaderFlag = 0x2
	DyldLink                   HeaderFlag = 0x4
	BindAtLoad                 HeaderFlag = 0x8
	Prebound                   HeaderFlag = 0x10
	SplitSegs                  HeaderFlag = 0x20
	LazyInit                   HeaderFlag = 0x40
	TwoLevel                   HeaderFlag = 0x80
	ForceFlat                  HeaderFlag = 0x100
	NoMultiDefs                HeaderFlag = 0x200
	NoFixPrebinding            HeaderFlag = 0x400
	Prebindable                HeaderFlag = 0x800
	AllModsBound               HeaderFlag = 0x1000
	SubsectionsViaSymbols      HeaderFlag = 0x2000
	Canonical                  HeaderFlag = 0x4000
	WeakDefines                HeaderFlag = 0x8000
	BindsToWeak                HeaderFlag = 0x10000
	AllowStackExecution        HeaderFlag = 0x20000
	RootSafe                   HeaderFlag = 0x40000
	SetuidSafe                 HeaderFlag = 0x80000
	NoReexportedDylibs         HeaderFlag = 0x100000
	PIE                        HeaderFlag = 0x200000
	DeadStrippableDylib        HeaderFlag = 0x400000
	HasTLVDescriptors          HeaderFlag = 0x800000
	NoHeapExecution            HeaderFlag = 0x1000000
	AppExtensionSafe           HeaderFlag = 0x2000000
	NlistOutofsyncWithDyldinfo HeaderFlag = 0x4000000
	SimSupport                 HeaderFlag = 0x8000000
	DylibInCache               HeaderFlag = 0x80000000
)

var headerFlagBits = []struct {
	bit  HeaderFlag
	name string
}{
	{NoUndefs, "NoUndefs"},
	{IncrLink, "IncrLink"},
	{DyldLink, "DyldLink"},
	{BindAtLoad, "BindAtLoad"},
	{Prebound, "Prebound"},
	{SplitSegs, "SplitSegs"},
	{LazyInit, "LazyInit"},
	{TwoLevel, "TwoLevel"},
	{ForceFlat, "ForceFlat"},
	{NoMultiDefs, "NoMultiDefs"},
	{NoFixPrebinding, "NoFixPrebinding"},
	{Prebindable, "Prebindable"},
	{AllModsBound, "AllModsBound"},
	{SubsectionsViaSymbols, "SubsectionsViaSymbols"},
	{Canonical, "Canonical"},
	{WeakDefines, "WeakDefines"},
	{BindsToWeak, "BindsToWeak"},
	{AllowStackExecution, "AllowStackExecution"},
	{RootSafe, "RootSafe"},
	{SetuidSafe, "SetuidSafe"},
	{NoReexportedDylibs, "NoReexportedDylibs"},
	{PIE, "PIE"},
	{DeadStrippableDylib, "DeadStrippableDylib"},
	{HasTLVDescriptors, "HasTLVDescriptors"},
	{NoHeapExecution, "NoHeapExecution"},
	{AppExtensionSafe, "AppExtensionSafe"},
	{NlistOutofsyncWithDyldinfo, "NlistOutofsyncWithDyldinfo"},
	{SimSupport, "SimSupport"},
	{DylibInCache, "DylibInCache"},
}

// Has reports whether flag bit is set.
func (f HeaderFlag) Has(bit HeaderFlag) bool { return f&bit != 0 }

// List returns the names of every set flag bit, in declaration order.
func (f HeaderFlag) List() []string {
	if f == 0 {
		return []string{"None"}
	}
	var flags []string
	for _, b := range headerFlagBits {
		if f.Has(b.bit) {
			flags = append(flags, b.name)
		}
	}
	return flags
}

func (f HeaderFlag) String() string { return strings.Join(f.List(), ", ") }

func (h FileHeader) String() string {
	return fmt.Sprintf(
		"Magic         = %s\n"+
			"Type          = %s\n"+
			"CPU           = %s, %s\n"+
			"Commands      = %d (Size: %d)\n"+
			"Flags         = %s\n",
		h.Magic,
		h.Type,
		h.CPU, h.SubCPU.String(h.CPU),
		h.NCommands,
		h.SizeCommands,
		h.Flags,
	)
}
