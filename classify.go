package macho

import "encoding/binary"

// Classification is the result of inspecting a slice's first four bytes:
// format variant (thin/fat) and, for thin slices, word size and byte
// order.
type Classification int

const (
	Unknown Classification = iota
	Fat32
	Fat64
	Thin32LE
	Thin64LE
	Thin32BE
	Thin64BE
)

func (c Classification) String() string {
	switch c {
	case Fat32:
		return "FAT32"
	case Fat64:
		return "FAT64"
	case Thin32LE:
		return "THIN32_LE"
	case Thin64LE:
		return "THIN64_LE"
	case Thin32BE:
		return "THIN32_BE"
	case Thin64BE:
		return "THIN64_BE"
	default:
		return "UNKNOWN"
	}
}

func (c Classification) isFat() bool { return c == Fat32 || c == Fat64 }
func (c Classification) is64() bool  { return c == Fat64 || c == Thin64LE || c == Thin64BE }

func (c Classification) order() binary.ByteOrder {
	if c == Thin32BE || c == Thin64BE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

const (
	magic32  = 0xfeedface
	magic64  = 0xfeedfacf
	magicFat = 0xcafebabe
	magicFat64Arches = 0xcafebabf
)

// classify inspects the first four magic bytes of a slice. A thin
// slice's byte order is determined the way the Mach-O ABI defines it:
// the magic is a fixed bit pattern, and whichever of the big-endian or
// little-endian reading of the four on-disk bytes reproduces that exact
// pattern tells you the byte order the rest of the header was written
// in. Fat wrappers are always big-endian, so their two magic variants
// are matched directly.
func classify(b [4]byte) Classification {
	be := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	le := uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])

	switch be {
	case magicFat:
		return Fat32
	case magicFat64Arches:
		return Fat64
	case magic32:
		return Thin32BE
	case magic64:
		return Thin64BE
	}
	switch le {
	case magic32:
		return Thin32LE
	case magic64:
		return Thin64LE
	}
	return Unknown
}
