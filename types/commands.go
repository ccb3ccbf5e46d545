package types

// LoadCmd is the tag of a Mach-O load command: the first Word32 of every
// (cmd, cmd_size)-prefixed record in the load-command area. Only
// LC_SEGMENT, LC_SEGMENT_64, LC_SYMTAB, and LC_DYSYMTAB are structurally
// decoded (§4.6/§4.5 of the design); every other recognized constant below
// exists purely so an opaque Load Command can still render a readable name
// instead of a bare hex tag.
type LoadCmd uint32

func (c LoadCmd) Command() LoadCmd { return c }

const (
	LC_REQ_DYLD       LoadCmd = 0x80000000
	LC_SEGMENT        LoadCmd = 0x1  // segment of this file to be mapped
	LC_SYMTAB         LoadCmd = 0x2  // link-edit stab symbol table info
	LC_SYMSEG         LoadCmd = 0x3  // link-edit gdb symbol table info (obsolete)
	LC_THREAD         LoadCmd = 0x4  // thread
	LC_UNIXTHREAD     LoadCmd = 0x5  // thread+stack
	LC_LOADFVMLIB     LoadCmd = 0x6  // load a specified fixed VM shared library
	LC_IDFVMLIB       LoadCmd = 0x7  // fixed VM shared library identification
	LC_IDENT          LoadCmd = 0x8  // object identification info (obsolete)
	LC_FVMFILE        LoadCmd = 0x9  // fixed VM file inclusion (internal use)
	LC_PREPAGE        LoadCmd = 0xa  // prepage command (internal use)
	LC_DYSYMTAB       LoadCmd = 0xb  // dynamic link-edit symbol table info
	LC_LOAD_DYLIB     LoadCmd = 0xc  // load dylib command
	LC_ID_DYLIB       LoadCmd = 0xd  // id dylib command
	LC_LOAD_DYLINKER  LoadCmd = 0xe  // load a dynamic linker
	LC_ID_DYLINKER    LoadCmd = 0xf  // id dylinker command (not load dylinker command)
	LC_PREBOUND_DYLIB LoadCmd = 0x10 // modules prebound for a dynamically linked shared library
	LC_ROUTINES       LoadCmd = 0x11 // image routines
	LC_SUB_FRAMEWORK  LoadCmd = 0x12 // sub framework
	LC_SUB_UMBRELLA   LoadCmd = 0x13 // sub umbrella
	LC_SUB_CLIENT     LoadCmd = 0x14 // sub client
	LC_SUB_LIBRARY    LoadCmd = 0x15 // sub library
	LC_TWOLEVEL_HINTS LoadCmd = 0x16 // two-level namespace lookup hints
	LC_PREBIND_CKSUM  LoadCmd = 0x17 // prebind checksum

	LC_LOAD_WEAK_DYLIB          LoadCmd = 0x18 | LC_REQ_DYLD
	LC_SEGMENT_64               LoadCmd = 0x19 // 64-bit segment of this file to be mapped
	LC_ROUTINES_64              LoadCmd = 0x1a
	LC_UUID                     LoadCmd = 0x1b
	LC_RPATH                    LoadCmd = 0x1c | LC_REQ_DYLD
	LC_CODE_SIGNATURE           LoadCmd = 0x1d
	LC_SEGMENT_SPLIT_INFO       LoadCmd = 0x1e
	LC_REEXPORT_DYLIB           LoadCmd = 0x1f | LC_REQ_DYLD
	LC_LAZY_LOAD_DYLIB          LoadCmd = 0x20
	LC_ENCRYPTION_INFO          LoadCmd = 0x21
	LC_DYLD_INFO                LoadCmd = 0x22
	LC_DYLD_INFO_ONLY           LoadCmd = 0x22 | LC_REQ_DYLD
	LC_LOAD_UPWARD_DYLIB        LoadCmd = 0x23 | LC_REQ_DYLD
	LC_VERSION_MIN_MACOSX       LoadCmd = 0x24
	LC_VERSION_MIN_IPHONEOS     LoadCmd = 0x25
	LC_FUNCTION_STARTS          LoadCmd = 0x26
	LC_DYLD_ENVIRONMENT         LoadCmd = 0x27
	LC_MAIN                     LoadCmd = 0x28 | LC_REQ_DYLD
	LC_DATA_IN_CODE             LoadCmd = 0x29
	LC_SOURCE_VERSION           LoadCmd = 0x2A
	LC_DYLIB_CODE_SIGN_DRS      LoadCmd = 0x2B
	LC_ENCRYPTION_INFO_64       LoadCmd = 0x2C
	LC_LINKER_OPTION            LoadCmd = 0x2D
	LC_LINKER_OPTIMIZATION_HINT LoadCmd = 0x2E
	LC_VERSION_MIN_TVOS         LoadCmd = 0x2F
	LC_VERSION_MIN_WATCHOS      LoadCmd = 0x30
	LC_NOTE                     LoadCmd = 0x31
	LC_BUILD_VERSION            LoadCmd = 0x32
	LC_DYLD_EXPORTS_TRIE        LoadCmd = 0x33 | LC_REQ_DYLD
	LC_DYLD_CHAINED_FIXUPS      LoadCmd = 0x34 | LC_REQ_DYLD
	LC_FILESET_ENTRY            LoadCmd = 0x35 | LC_REQ_DYLD
)

var loadCmdStrings = map[LoadCmd]string{
	LC_SEGMENT:                  "LC_SEGMENT",
	LC_SYMTAB:                   "LC_SYMTAB",
	LC_SYMSEG:                   "LC_SYMSEG",
	LC_THREAD:                   "LC_THREAD",
	LC_UNIXTHREAD:               "LC_UNIXTHREAD",
	LC_LOADFVMLIB:               "LC_LOADFVMLIB",
	LC_IDFVMLIB:                 "LC_IDFVMLIB",
	LC_IDENT:                    "LC_IDENT",
	LC_FVMFILE:                  "LC_FVMFILE",
	LC_PREPAGE:                  "LC_PREPAGE",
	LC_DYSYMTAB:                 "LC_DYSYMTAB",
	LC_LOAD_DYLIB:               "LC_LOAD_DYLIB",
	LC_ID_DYLIB:                 "LC_ID_DYLIB",
	LC_LOAD_DYLINKER:            "LC_LOAD_DYLINKER",
	LC_ID_DYLINKER:              "LC_ID_DYLINKER",
	LC_PREBOUND_DYLIB:           "LC_PREBOUND_DYLIB",
	LC_ROUTINES:                 "LC_ROUTINES",
	LC_SUB_FRAMEWORK:            "LC_SUB_FRAMEWORK",
	LC_SUB_UMBRELLA:             "LC_SUB_UMBRELLA",
	LC_SUB_CLIENT:               "LC_SUB_CLIENT",
	LC_SUB_LIBRARY:              "LC_SUB_LIBRARY",
	LC_TWOLEVEL_HINTS:           "LC_TWOLEVEL_HINTS",
	LC_PREBIND_CKSUM:            "LC_PREBIND_CKSUM",
	LC_LOAD_WEAK_DYLIB:          "LC_LOAD_WEAK_DYLIB",
	LC_SEGMENT_64:               "LC_SEGMENT_64",
	LC_ROUTINES_64:              "LC_ROUTINES_64",
	LC_UUID:                     "LC_UUID",
	LC_RPATH:                    "LC_RPATH",
	LC_CODE_SIGNATURE:           "LC_CODE_SIGNATURE",
	LC_SEGMENT_SPLIT_INFO:       "LC_SEGMENT_SPLIT_INFO",
	LC_REEXPORT_DYLIB:           "LC_REEXPORT_DYLIB",
	LC_LAZY_LOAD_DYLIB:          "LC_LAZY_LOAD_DYLIB",
	LC_ENCRYPTION_INFO:          "LC_ENCRYPTION_INFO",
	LC_DYLD_INFO:                "LC_DYLD_INFO",
	LC_DYLD_INFO_ONLY:           "LC_DYLD_INFO_ONLY",
	LC_LOAD_UPWARD_DYLIB:        "LC_LOAD_UPWARD_DYLIB",
	LC_VERSION_MIN_MACOSX:       "LC_VERSION_MIN_MACOSX",
	LC_VERSION_MIN_IPHONEOS:     "LC_VERSION_MIN_IPHONEOS",
	LC_FUNCTION_STARTS:          "LC_FUNCTION_STARTS",
	LC_DYLD_ENVIRONMENT:         "LC_DYLD_ENVIRONMENT",
	LC_MAIN:                     "LC_MAIN",
	LC_DATA_IN_CODE:             "LC_DATA_IN_CODE",
	LC_SOURCE_VERSION:           "LC_SOURCE_VERSION",
	LC_DYLIB_CODE_SIGN_DRS:      "LC_DYLIB_CODE_SIGN_DRS",
	LC_ENCRYPTION_INFO_64:       "LC_ENCRYPTION_INFO_64",
	LC_LINKER_OPTION:            "LC_LINKER_OPTION",
	LC_LINKER_OPTIMIZATION_HINT: "LC_LINKER_OPTIMIZATION_HINT",
	LC_VERSION_MIN_TVOS:         "LC_VERSION_MIN_TVOS",
	LC_VERSION_MIN_WATCHOS:      "LC_VERSION_MIN_WATCHOS",
	LC_NOTE:                     "LC_NOTE",
	LC_BUILD_VERSION:            "LC_BUILD_VERSION",
	LC_DYLD_EXPORTS_TRIE:        "LC_DYLD_EXPORTS_TRIE",
	LC_DYLD_CHAINED_FIXUPS:      "LC_DYLD_CHAINED_FIXUPS",
	LC_FILESET_ENTRY:            "LC_FILESET_ENTRY",
}

func (c LoadCmd) String() string {
	if s, ok := loadCmdStrings[c]; ok {
		return s
	}
	return StringName(uint32(c), nil, false)
}

// SegFlag holds the bitfield flags of a segment load command.
type SegFlag uint32

const (
	HighVM            SegFlag = 0x1 // contents is for the high part of VM space
	FvmLib            SegFlag = 0x2 // VM allocated by a fixed VM library
	NoReLoc           SegFlag = 0x4 // nothing relocated in or to this segment
	ProtectedVersion1 SegFlag = 0x8 // pages after the first are protected
)

var segFlagStrings = []IntName{
	{uint32(HighVM), "HighVM"},
	{uint32(FvmLib), "FvmLib"},
	{uint32(NoReLoc), "NoReLoc"},
	{uint32(ProtectedVersion1), "ProtectedVersion1"},
}

func (f SegFlag) String() string { return StringName(uint32(f), segFlagStrings, false) }
