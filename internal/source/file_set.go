package source

import (
	"fmt"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves spans to
// line/column positions. Code generation only ever sees virtual files:
// real files belong to the frontend, fixtures and builders register
// their content here so failure paths can embed file/line constants.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 4),
		index: make(map[string]FileID),
	}
}

// Add stores content under path and returns its new FileID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fs.index[path] = id
	return id
}

// AddVirtual adds a file that has no on-disk backing.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// GetByPath returns the file registered under path, if any.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[path]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Len reports the number of stored files.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into start/end line-column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Snippet returns the raw source text the span covers, clamped to the file.
func (fs *FileSet) Snippet(span Span) string {
	f := fs.files[span.File]
	start, end := span.Start, span.End
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

func buildLineIndex(content []byte) []uint32 {
	var idx []uint32
	for i, b := range content {
		if b == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("line offset overflow: %w", err))
			}
			idx = append(idx, off)
		}
	}
	return idx
}

// toLineCol maps a byte offset through a line index. Lines and columns
// are 1-based; columns count bytes, not runes.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	lo, hi := 0, len(lineIdx)
	for lo < hi {
		mid := (lo + hi) / 2
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	line, err := safecast.Conv[uint32](lo + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	col := off + 1
	if lo > 0 {
		col = off - lineIdx[lo-1]
	}
	return LineCol{Line: line, Col: col}
}
