package macho

import "fmt"

// FormatError is the base shape of every structural decode error: an
// absolute position in the source, a message, and (optionally) the
// offending value, rendered the way encoding/binary-style decoders in
// this vein customarily do.
type FormatError struct {
	off int64
	msg string
	val any
}

func (e *FormatError) Error() string {
	msg := e.msg
	if e.val != nil {
		msg += fmt.Sprintf(" '%v'", e.val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.off)
	return msg
}

func newFormatError(off int64, msg string, val any) *FormatError {
	return &FormatError{off: off, msg: msg, val: val}
}

// NotMachOError reports that the root magic did not match any recognized
// Mach-O or fat variant.
type NotMachOError struct{ *FormatError }

func newNotMachOError(off int64, magic uint32) error {
	return &NotMachOError{newFormatError(off, "not a Mach-O file: unrecognized magic", magic)}
}

// TruncatedError reports a read that ran past the end of the source or
// the enclosing slice.
type TruncatedError struct {
	*FormatError
	Requested int
	Available int64
}

func newTruncatedError(off int64, requested int, available int64) error {
	return &TruncatedError{
		FormatError: newFormatError(off, "truncated read", requested),
		Requested:   requested,
		Available:   available,
	}
}

// MalformedLoadCommandError reports a load command whose cmd_size is
// smaller than the preamble or runs past sizeofcmds.
type MalformedLoadCommandError struct {
	*FormatError
	Index   int
	CmdType uint32
}

func newMalformedLoadCommandError(off int64, index int, cmdType, cmdSize uint32) error {
	return &MalformedLoadCommandError{
		FormatError: newFormatError(off, "malformed load command", cmdSize),
		Index:       index,
		CmdType:     cmdType,
	}
}

// MalformedSegmentError reports a segment whose declared section count
// would require more bytes than the command's cmd_size provides.
type MalformedSegmentError struct{ *FormatError }

func newMalformedSegmentError(off int64, msg string, val any) error {
	return &MalformedSegmentError{newFormatError(off, msg, val)}
}

// MalformedSymtabError reports a symbol table whose offsets fall outside
// the file, or whose nlist count exceeds the remaining bytes.
type MalformedSymtabError struct{ *FormatError }

func newMalformedSymtabError(off int64, msg string, val any) error {
	return &MalformedSymtabError{newFormatError(off, msg, val)}
}

// InvalidEndiannessError reports that the magic's implied byte order is
// contradicted by later fields (e.g. an absurd ncmds).
type InvalidEndiannessError struct{ *FormatError }

func newInvalidEndiannessError(off int64, msg string, val any) error {
	return &InvalidEndiannessError{newFormatError(off, msg, val)}
}

// CancelledError reports that the caller's context was cancelled
// mid-decode. No persistent side effects occur; the in-flight File is
// discarded.
type CancelledError struct{ Cause error }

func (e *CancelledError) Error() string { return "decode cancelled: " + e.Cause.Error() }
func (e *CancelledError) Unwrap() error { return e.Cause }

func newCancelledError(cause error) error { return &CancelledError{Cause: cause} }
