package types

import (
	"fmt"
	"strings"
)

// Section32 is the wire layout of a 32-bit section header, following
// immediately after its owning LC_SEGMENT's Segment32 record, one per
// Segment32.Nsect.
type Section32 struct {
	Name    [16]byte
	Seg     [16]byte
	Addr    uint32
	Size    uint32
	Offset  uint32
	Align   uint32
	Reloff  uint32
	Nreloc  uint32
	Flags   SectionFlag
	Reserve1 uint32
	Reserve2 uint32
}

// Section64 is the wire layout of a 64-bit section header.
type Section64 struct {
	Name    [16]byte
	Seg     [16]byte
	Addr    uint64
	Size    uint64
	Offset  uint32
	Align   uint32
	Reloff  uint32
	Nreloc  uint32
	Flags   SectionFlag
	Reserve1 uint32
	Reserve2 uint32
	Reserve3 uint32
}

// SectionFlag is the section's 32-bit flags word: the low byte holds the
// SectionType, the remaining 24 bits hold SectionAttributes. The
// defining table isn't carried anywhere in the retrieved example pack
// (blacktop/go-macho references types.SectionFlag throughout cmds.go and
// file.go but never defines it), so the type codes and attribute bits
// below are taken from the public Mach-O ABI (<mach-o/loader.h>) rather
// than any single source file.
type SectionFlag uint32

// SectionType occupies the low byte of a section's flags.
const sectionTypeMask SectionFlag = 0x000000ff

// SectionAttributes occupies the high three bytes of a section's flags.
const sectionAttrsMask SectionFlag = 0xffffff00

const (
	SRegular                  SectionFlag = 0x0
	SZerofill                 SectionFlag = 0x1
	SCstringLiterals          SectionFlag = 0x2
	S4byteLiterals            SectionFlag = 0x3
	S8byteLiterals            SectionFlag = 0x4
	SLiteralPointers          SectionFlag = 0x5
	SNonLazySymbolPointers    SectionFlag = 0x6
	SLazySymbolPointers       SectionFlag = 0x7
	SSymbolStubs              SectionFlag = 0x8
	SModInitFuncPointers      SectionFlag = 0x9
	SModTermFuncPointers      SectionFlag = 0xa
	SCoalesced                SectionFlag = 0xb
	SGbZerofill               SectionFlag = 0xc
	SInterposing              SectionFlag = 0xd
	S16byteLiterals           SectionFlag = 0xe
	SDtraceDof                SectionFlag = 0xf
	SLazyDylibSymbolPointers  SectionFlag = 0x10
	SThreadLocalRegular       SectionFlag = 0x11
	SThreadLocalZerofill      SectionFlag = 0x12
	SThreadLocalVariables     SectionFlag = 0x13
	SThreadLocalVariablePtrs  SectionFlag = 0x14
	SThreadLocalInitFuncPtrs  SectionFlag = 0x15
)

var sectionTypeStrings = []IntName{
	{uint32(SRegular), "Regular"},
	{uint32(SZerofill), "ZeroFill"},
	{uint32(SCstringLiterals), "CstringLiterals"},
	{uint32(S4byteLiterals), "4ByteLiterals"},
	{uint32(S8byteLiterals), "8ByteLiterals"},
	{uint32(SLiteralPointers), "LiteralPointers"},
	{uint32(SNonLazySymbolPointers), "NonLazySymbolPointers"},
	{uint32(SLazySymbolPointers), "LazySymbolPointers"},
	{uint32(SSymbolStubs), "SymbolStubs"},
	{uint32(SModInitFuncPointers), "ModInitFuncPointers"},
	{uint32(SModTermFuncPointers), "ModTermFuncPointers"},
	{uint32(SCoalesced), "Coalesced"},
	{uint32(SGbZerofill), "GBZeroFill"},
	{uint32(SInterposing), "Interposing"},
	{uint32(S16byteLiterals), "16ByteLiterals"},
	{uint32(SDtraceDof), "DtraceDOF"},
	{uint32(SLazyDylibSymbolPointers), "LazyDylibSymbolPointers"},
	{uint32(SThreadLocalRegular), "ThreadLocalRegular"},
	{uint32(SThreadLocalZerofill), "ThreadLocalZeroFill"},
	{uint32(SThreadLocalVariables), "ThreadLocalVariables"},
	{uint32(SThreadLocalVariablePtrs), "ThreadLocalVariablePointers"},
	{uint32(SThreadLocalInitFuncPtrs), "ThreadLocalInitFunctionPointers"},
}

// Attribute bits, occupying the high 24 bits of the flags word.
const (
	SAttrPureInstructions   SectionFlag = 0x80000000
	SAttrNoTOC              SectionFlag = 0x40000000
	SAttrStripStaticSyms    SectionFlag = 0x20000000
	SAttrNoDeadStrip        SectionFlag = 0x10000000
	SAttrLiveSupport        SectionFlag = 0x08000000
	SAttrSelfModifyingCode  SectionFlag = 0x04000000
	SAttrDebug              SectionFlag = 0x02000000
	SAttrSomeInstructions   SectionFlag = 0x00000400
	SAttrExtReloc           SectionFlag = 0x00000200
	SAttrLocReloc           SectionFlag = 0x00000100
)

var sectionAttrBits = []struct {
	bit  SectionFlag
	name string
}{
	{SAttrPureInstructions, "PureInstructions"},
	{SAttrNoTOC, "NoTOC"},
	{SAttrStripStaticSyms, "StripStaticSyms"},
	{SAttrNoDeadStrip, "NoDeadStrip"},
	{SAttrLiveSupport, "LiveSupport"},
	{SAttrSelfModifyingCode, "SelfModifyingCode"},
	{SAttrDebug, "Debug"},
	{SAttrSomeInstructions, "SomeInstructions"},
	{SAttrExtReloc, "ExtReloc"},
	{SAttrLocReloc, "LocReloc"},
}

// Type returns the low-byte section type code.
func (f SectionFlag) Type() SectionFlag { return f & sectionTypeMask }

// Attributes returns the high-24-bit attribute bits.
func (f SectionFlag) Attributes() SectionFlag { return f & sectionAttrsMask }

// IsRegular reports whether the section's type is S_REGULAR.
func (f SectionFlag) IsRegular() bool { return f.Type() == SRegular }

// Has reports whether an attribute bit is set.
func (f SectionFlag) Has(attr SectionFlag) bool { return f&attr != 0 }

// TypeString renders the section's type code by name, or, per §4.5,
// "Unknown(<hex>)" for a code not in the 22 named Mach-O section types.
func (f SectionFlag) TypeString() string {
	for _, n := range sectionTypeStrings {
		if n.I == uint32(f.Type()) {
			return n.S
		}
	}
	return fmt.Sprintf("Unknown(%#x)", uint32(f.Type()))
}

func (f SectionFlag) AttributesString() string {
	var attrs []string
	for _, b := range sectionAttrBits {
		if f.Has(b.bit) {
			attrs = append(attrs, b.name)
		}
	}
	if len(attrs) == 0 {
		return "None"
	}
	return strings.Join(attrs, ", ")
}

func (f SectionFlag) String() string {
	if f.Attributes() == 0 {
		return f.TypeString()
	}
	return f.TypeString() + " (" + f.AttributesString() + ")"
}
