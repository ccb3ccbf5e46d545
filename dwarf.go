package macho

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/go-dwarf"
)

// DWARF returns the DWARF debug information for the file, if present.
// This is not a required operation of the decoder core — no invariant
// or cross-reference depends on it — but it is a free, low-risk
// convenience built entirely from already-decoded Section data, so it
// stays as an opt-in extra rather than being dropped.
func (f *File) DWARF() (*dwarf.Data, error) {
	dwarfSuffix := func(s *Section) string {
		switch {
		case strings.HasPrefix(s.Name, "__debug_"):
			return s.Name[len("__debug_"):]
		case strings.HasPrefix(s.Name, "__zdebug_"):
			return s.Name[len("__zdebug_"):]
		default:
			return ""
		}
	}

	sections := make(map[string][]byte)
	for _, seg := range f.Segments {
		for _, sec := range seg.Sections {
			suffix := dwarfSuffix(sec)
			if suffix == "" {
				continue
			}
			b, err := f.sectionData(sec)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", sec.Name, err)
			}
			if strings.HasPrefix(sec.Name, "__zdebug_") {
				b, err = decompressZlib(b)
				if err != nil {
					return nil, fmt.Errorf("decompressing %s: %w", sec.Name, err)
				}
			}
			if _, ok := sections[suffix]; !ok {
				sections[suffix] = b
			}
		}
	}

	d, err := dwarf.New(
		sections["abbrev"],
		sections["aranges"],
		sections["frame"],
		sections["info"],
		sections["line"],
		sections["pubnames"],
		sections["ranges"],
		sections["str"],
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// sectionData reads a section's raw file content by its decoded file
// offset and size.
func (f *File) sectionData(sec *Section) ([]byte, error) {
	r := NewReader(io.NewSectionReader(sectionSource{f}, 0, f.Size), f.Size)
	return r.ReadAt(int64(sec.Offset), int(sec.Size))
}

// sectionSource adapts *File back to an io.ReaderAt for re-reading raw
// section bytes after decode; File itself does not retain the original
// source handle once NewFile returns, so DWARF() is only usable on
// Files opened via Open/OpenContext, which keep the backing *os.File
// alive through f.closer. The per-slice Files of a FatFile have no
// closer, so DWARF() fails on them.
type sectionSource struct{ f *File }

func (s sectionSource) ReadAt(p []byte, off int64) (int, error) {
	ra, ok := s.f.closer.(io.ReaderAt)
	if !ok {
		return 0, fmt.Errorf("macho: section data unavailable, file not opened via Open/OpenContext")
	}
	return ra.ReadAt(p, off)
}

func decompressZlib(b []byte) ([]byte, error) {
	if len(b) < 12 || string(b[:4]) != "ZLIB" {
		return b, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(b[12:]))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
