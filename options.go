package macho

import "github.com/osok/apple-core/types"

// DecodeOptions configures a single NewFile/NewFatFile call. The zero
// value decodes every recognized load command structurally at offset 0
// with a generous cancellation batch size.
type DecodeOptions struct {
	// LoadFilter, when non-nil, restricts which load command types are
	// decoded structurally; everything else still walks the command
	// list and is retained opaquely (raw bytes + type + size), it just
	// isn't handed to the segment/symtab decoders. A nil filter decodes
	// every recognized type.
	LoadFilter []types.LoadCmd

	// Offset is the absolute position of the thin slice's header within
	// the underlying source. The fat dispatcher reuses this field
	// rather than threading a bespoke recursive parameter through
	// NewFile, so one signature serves both the top-level and
	// per-slice calls.
	Offset int64

	// ArchSize bounds the slice to the fat arch descriptor's declared
	// size: it becomes Header.ArchSize, and a header whose sizeofcmds
	// exceeds it is rejected. Zero (the top-level, non-fat case) means
	// the slice runs to the end of the source. Symbol and string tables
	// are read against the whole source and are not bounded by it.
	ArchSize int64

	// MaxCancelBatch bounds how many symbol-table rows are decoded
	// between cooperative cancellation checks. Zero means the default
	// of 4096.
	MaxCancelBatch int
}

func (o DecodeOptions) cancelBatch() int {
	if o.MaxCancelBatch > 0 {
		return o.MaxCancelBatch
	}
	return 4096
}

func (o DecodeOptions) wants(cmd types.LoadCmd) bool {
	if o.LoadFilter == nil {
		return true
	}
	for _, c := range o.LoadFilter {
		if c == cmd {
			return true
		}
	}
	return false
}

// WarningKind classifies a non-fatal condition surfaced during decode.
type WarningKind int

const (
	WarnUnknownLoadCommand WarningKind = iota
	WarnOverlappingFatSlice
	WarnSectionOutsideSegment
	WarnInvalidStringOffset
	WarnSegnameMismatch
)

func (k WarningKind) String() string {
	switch k {
	case WarnUnknownLoadCommand:
		return "unknown-load-command"
	case WarnOverlappingFatSlice:
		return "overlapping-fat-slice"
	case WarnSectionOutsideSegment:
		return "section-outside-segment"
	case WarnInvalidStringOffset:
		return "invalid-string-offset"
	case WarnSegnameMismatch:
		return "segname-mismatch"
	default:
		return "unknown"
	}
}

// Warning is a structured, non-fatal decode observation: something the
// decoder recovered from rather than aborted on.
type Warning struct {
	Kind    WarningKind
	Message string
	Offset  int64
}

func (w Warning) String() string { return w.Kind.String() + ": " + w.Message }
