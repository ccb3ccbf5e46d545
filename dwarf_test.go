package macho

import "testing"

func TestFile_DWARF_NoDebugSections(t *testing.T) {
	f := &File{FileTOC: FileTOC{Segments: []*Segment{
		{Name: "__TEXT", Sections: []*Section{{Name: "__text", Seg: "__TEXT"}}},
	}}}

	// With no __debug_info section, dwarf.New has no info to parse and
	// rejects the input, so DWARF() reports an error and no data.
	d, err := f.DWARF()
	if err == nil {
		t.Fatal("DWARF() with no debug sections: expected an error")
	}
	if d != nil {
		t.Fatal("expected nil dwarf.Data when no debug sections are present")
	}
}

func TestFile_DWARF_UnopenedFileErrors(t *testing.T) {
	f := &File{FileTOC: FileTOC{Segments: []*Segment{
		{Name: "__DWARF", Sections: []*Section{
			{Name: "__debug_info", Seg: "__DWARF", Offset: 0, Size: 4},
		}},
	}}}

	// f.closer is nil: this File was built in-test rather than via
	// Open/OpenFat, so reading section bytes for DWARF must fail
	// cleanly rather than panic.
	if _, err := f.DWARF(); err == nil {
		t.Fatal("expected an error reading section data from an unopened File")
	}
}
