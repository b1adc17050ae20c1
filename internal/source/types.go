package source

// FileID identifies a file inside a FileSet.
type FileID uint32

// FileFlags records normalization facts about a stored file.
type FileFlags uint8

const (
	// FileVirtual marks files that never existed on disk (tests, builders).
	FileVirtual FileFlags = 1 << iota
)

// File is one stored source file plus its line index.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offset of every '\n'
	Flags   FileFlags
}

// LineCol is a 1-based line/column position.
type LineCol struct {
	Line uint32
	Col  uint32
}
