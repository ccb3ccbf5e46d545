package macho

// RefKind distinguishes the two cross-reference shapes the resolver
// produces: structural containment and value-equality linkage.
type RefKind int

const (
	RefContains RefKind = iota
	RefReferences
)

func (k RefKind) String() string {
	if k == RefContains {
		return "contains"
	}
	return "references"
}

// EntityKind tags which side of a CrossReference a SourceID/TargetID
// refers to.
type EntityKind int

const (
	EntitySection EntityKind = iota
	EntitySymbol
)

func (k EntityKind) String() string {
	if k == EntitySection {
		return "section"
	}
	return "symbol"
}

// CrossReference links two entities belonging to the same File: either
// a section containing a symbol's value, or two symbols sharing a
// value. SourceID/TargetID are indices into the owning File's flattened
// Section/Symbol lists, scoped to EntityKind.
type CrossReference struct {
	SourceKind EntityKind
	SourceID   int
	TargetKind EntityKind
	TargetID   int
	Offset     *int64
	Kind       RefKind
}

// BuildCrossReferences runs the two-phase resolver of §4.7 over an
// already-populated File and appends the edges to f.CrossReferences. It
// returns the number of edges emitted and any warnings recorded along
// the way (the builder never fails on bad data; it skips incoherent
// rows).
func BuildCrossReferences(f *File) (int, []Warning) {
	type flatSection struct {
		sec *Section
		id  int
	}
	var sections []flatSection
	id := 0
	for _, seg := range f.Segments {
		for _, sec := range seg.Sections {
			sections = append(sections, flatSection{sec, id})
			id++
		}
	}

	var symbols []*Symbol
	if f.Symtab != nil {
		symbols = f.Symtab.Syms
	}

	var warnings []Warning
	count := 0

	// Phase A: containment. For each defined symbol, scan sections in
	// insertion order and take the first match.
	for si, sym := range symbols {
		if !sym.IsDefined {
			continue
		}
		for _, fs := range sections {
			s := fs.sec
			if sym.Value >= s.Addr && sym.Value < s.Addr+s.Size {
				f.CrossReferences = append(f.CrossReferences, CrossReference{
					SourceKind: EntitySection,
					SourceID:   fs.id,
					TargetKind: EntitySymbol,
					TargetID:   si,
					Kind:       RefContains,
				})
				count++
				break
			}
		}
	}

	// Phase B: value equality among distinct defined symbols with a
	// nonzero section index. This is a deliberate over-approximation;
	// no instruction analysis is performed.
	for ai, a := range symbols {
		if !a.IsDefined || a.Sect == 0 {
			continue
		}
		for bi, b := range symbols {
			if ai == bi || !b.IsDefined {
				continue
			}
			if a.Value == b.Value {
				f.CrossReferences = append(f.CrossReferences, CrossReference{
					SourceKind: EntitySymbol,
					SourceID:   ai,
					TargetKind: EntitySymbol,
					TargetID:   bi,
					Kind:       RefReferences,
				})
				count++
			}
		}
	}

	return count, warnings
}
