// Package macho implements a byte-precise, endianness-aware decoder for
// Mach-O object files, executables, and fat/universal binaries: headers,
// load commands, segments, sections, symbol tables, and the
// cross-references between symbols and sections.
package macho

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/osok/apple-core/types"
)

// LoadCommand is one (cmd, cmd_size)-prefixed record from the load
// command area. Raw is the verbatim command body (including the
// 8-byte preamble), retained so structurally-undecoded command types
// pass through losslessly and so the segment/symtab decoders can
// re-parse without touching the shared reader.
type LoadCommand struct {
	Cmd    types.LoadCmd
	Len    uint32
	Offset int64 // cmd_offset, relative to the slice base
	Raw    []byte
}

func (l LoadCommand) String() string {
	return fmt.Sprintf("%s (len=%d, offset=%#x)", l.Cmd, l.Len, l.Offset)
}

// Header is a decoded Mach-O thin header plus its positional context
// within the (possibly fat) container: ArchOffset is the slice's
// position in the source (zero for a top-level thin file) and ArchSize
// is the slice's length (the whole source for a top-level thin file).
type Header struct {
	types.FileHeader
	Is64       bool
	ByteOrder  binary.ByteOrder
	ArchOffset int64
	ArchSize   int64
	LoadCmds   []LoadCommand
}

// FileTOC is the table of contents for one decoded slice: the Header
// plus the higher-level entities derived from its load commands.
type FileTOC struct {
	Header
	Segments []*Segment
	Symtab   *Symtab
	Dysymtab *Dysymtab
}

// String renders a short human-readable report of the slice, in the
// style the teacher's FileHeader.String produces for a single header.
func (t *FileTOC) String() string {
	s := t.Header.FileHeader.String()
	for _, seg := range t.Segments {
		s += fmt.Sprintf("  %s\n", seg)
		for _, sec := range seg.Sections {
			s += fmt.Sprintf("    %s\n", sec)
		}
	}
	if t.Symtab != nil {
		s += fmt.Sprintf("  Symtab: %d symbols\n", len(t.Symtab.Syms))
	}
	return s
}

// File is a fully decoded, sealed Mach-O slice: everything FileTOC
// carries, plus the source identity (path, size, digest) and the
// cross-references computed over the finished model.
type File struct {
	FileTOC

	Path   string
	Size   int64
	Digest [md5.Size]byte
	IsFat  bool

	CrossReferences []CrossReference

	Warnings []Warning

	closer io.Closer
}

// Close releases the underlying source, if the caller obtained it
// through Open rather than supplying their own io.ReaderAt.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Open opens the named file and decodes it as a thin Mach-O slice.
func Open(name string) (*File, error) {
	return OpenContext(context.Background(), name, DecodeOptions{})
}

// OpenContext is Open with an explicit context and DecodeOptions.
func OpenContext(ctx context.Context, name string, opts DecodeOptions) (*File, error) {
	osf, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, err
	}
	file, err := NewFile(ctx, osf, info.Size(), opts)
	if err != nil {
		osf.Close()
		return nil, err
	}
	file.Path = name
	file.closer = osf
	return file, nil
}

// NewFile decodes a single thin Mach-O slice from src, whose total
// length is size, per DecodeOptions. src must not be mutated; the
// decoder holds it only for the call's duration.
func NewFile(ctx context.Context, src io.ReaderAt, size int64, opts DecodeOptions) (*File, error) {
	digest, err := digestAt(src, size)
	if err != nil {
		return nil, err
	}

	r := NewReader(src, size)
	r.SeekAbs(opts.Offset)

	ident, err := r.Read(4)
	if err != nil {
		return nil, err
	}
	class := classify([4]byte{ident[0], ident[1], ident[2], ident[3]})
	if class == Unknown || class.isFat() {
		return nil, newNotMachOError(opts.Offset, binary.BigEndian.Uint32(ident))
	}

	sliceLen := size - opts.Offset
	if opts.ArchSize > 0 && opts.ArchSize < sliceLen {
		sliceLen = opts.ArchSize
	}
	toc, warnings, err := decodeThin(ctx, r, opts, class, opts.Offset, sliceLen)
	if err != nil {
		return nil, err
	}

	file := &File{
		FileTOC:  *toc,
		Size:     size,
		Digest:   digest,
		Warnings: warnings,
	}
	_, xrefWarnings := BuildCrossReferences(file)
	file.Warnings = append(file.Warnings, xrefWarnings...)
	return file, nil
}

// decodeThin parses the thin header and its load commands starting at
// base within r, which must already be positioned just past the magic.
func decodeThin(ctx context.Context, r *Reader, opts DecodeOptions, class Classification, base, sliceLen int64) (*FileTOC, []Warning, error) {
	order := class.order()
	is64 := class.is64()

	hdr := types.FileHeader{}
	rest, err := r.Read(24) // cputype..flags: six Word32s; magic already consumed
	if err != nil {
		return nil, nil, err
	}
	magicBuf, err := r.ReadAt(base, 4)
	if err != nil {
		return nil, nil, err
	}
	hdr.Magic = types.Magic(readU32(magicBuf, order))
	hdr.CPU = types.CPU(readU32(rest[0:4], order))
	hdr.SubCPU = types.CPUSubtype(readU32(rest[4:8], order))
	hdr.Type = types.HeaderFileType(readU32(rest[8:12], order))
	hdr.NCommands = readU32(rest[12:16], order)
	hdr.SizeCommands = readU32(rest[16:20], order)
	hdr.Flags = types.HeaderFlag(readU32(rest[20:24], order))

	if is64 {
		resv, err := r.Read(4)
		if err != nil {
			return nil, nil, err
		}
		hdr.Reserved = readU32(resv, order)
	}

	if hdr.NCommands > 1<<20 || int64(hdr.SizeCommands) > sliceLen {
		return nil, nil, newInvalidEndiannessError(base, "implausible ncmds/sizeofcmds for this byte order", hdr.NCommands)
	}

	cmdAreaStart := r.Tell()
	loadCmds, warnings, err := walkLoadCommands(ctx, r, hdr, order, cmdAreaStart, base)
	if err != nil {
		return nil, nil, err
	}

	h := Header{
		FileHeader: hdr,
		Is64:       is64,
		ByteOrder:  order,
		ArchOffset: base,
		ArchSize:   sliceLen,
		LoadCmds:   loadCmds,
	}

	toc := &FileTOC{Header: h}
	for _, lc := range loadCmds {
		switch lc.Cmd {
		case types.LC_SEGMENT, types.LC_SEGMENT_64:
			if !opts.wants(lc.Cmd) {
				continue
			}
			seg, segWarnings, err := decodeSegment(lc, is64, order, base)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, segWarnings...)
			toc.Segments = append(toc.Segments, seg)
		case types.LC_SYMTAB:
			if !opts.wants(lc.Cmd) {
				continue
			}
			st, symWarnings, err := decodeSymtab(ctx, r, lc, is64, order, opts)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, symWarnings...)
			toc.Symtab = st
		case types.LC_DYSYMTAB:
			if !opts.wants(lc.Cmd) {
				continue
			}
			toc.Dysymtab = decodeDysymtab(lc, order)
		}
	}

	return toc, warnings, nil
}

// walkLoadCommands iterates exactly hdr.NCommands commands starting at
// cmdAreaStart, retaining each one's raw bytes verbatim.
func walkLoadCommands(ctx context.Context, r *Reader, hdr types.FileHeader, order binary.ByteOrder, cmdAreaStart, base int64) ([]LoadCommand, []Warning, error) {
	var cmds []LoadCommand
	var warnings []Warning

	pos := cmdAreaStart
	limit := cmdAreaStart + int64(hdr.SizeCommands)

	for i := 0; i < int(hdr.NCommands); i++ {
		select {
		case <-ctx.Done():
			return nil, nil, newCancelledError(ctx.Err())
		default:
		}

		r.SeekAbs(pos)
		preamble, err := r.Read(8)
		if err != nil {
			return nil, nil, err
		}
		cmdType := readU32(preamble[0:4], order)
		cmdSize := readU32(preamble[4:8], order)

		if cmdSize < 8 || pos+int64(cmdSize) > limit {
			return nil, nil, newMalformedLoadCommandError(pos, i, cmdType, cmdSize)
		}

		r.SeekAbs(pos)
		raw, err := r.Read(int(cmdSize))
		if err != nil {
			return nil, nil, err
		}

		cmd := types.LoadCmd(cmdType)
		cmds = append(cmds, LoadCommand{Cmd: cmd, Len: cmdSize, Offset: pos - base, Raw: raw})
		if _, known := loadCmdStringsKnown[cmd]; !known {
			warnings = append(warnings, Warning{
				Kind:    WarnUnknownLoadCommand,
				Message: fmt.Sprintf("unrecognized load command %s at offset %#x", cmd, pos-base),
				Offset:  pos,
			})
		}

		pos += int64(cmdSize)
	}

	return cmds, warnings, nil
}

var loadCmdStringsKnown = map[types.LoadCmd]struct{}{
	types.LC_SEGMENT:    {},
	types.LC_SEGMENT_64: {},
	types.LC_SYMTAB:     {},
	types.LC_DYSYMTAB:   {},
}

func digestAt(src io.ReaderAt, size int64) ([md5.Size]byte, error) {
	var out [md5.Size]byte
	h := md5.New()
	sr := io.NewSectionReader(src, 0, size)
	if _, err := io.Copy(h, sr); err != nil {
		return out, err
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

