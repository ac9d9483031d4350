package shader

import (
	"fmt"
	"io/fs"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
)

// FileReader resolves shader source files by path. The game package implements it; tests use an
// in-memory map.
type FileReader interface {
	// ReadFileFromPath returns the contents of the file at path.
	//
	// Parameters:
	//   - path: a slash-separated path relative to the package root
	//
	// Returns:
	//   - []byte: the file contents
	//   - error: an error if the file does not exist or cannot be read
	ReadFileFromPath(path string) ([]byte, error)
}

// fsReader adapts an fs.FS to FileReader.
type fsReader struct {
	fsys fs.FS
}

// FSReader serves shader files from fsys, for example an embedded directory.
//
// Parameters:
//   - fsys: the file system holding the sources
//
// Returns:
//   - FileReader: the reader
func FSReader(fsys fs.FS) FileReader {
	return fsReader{fsys: fsys}
}

func (r fsReader) ReadFileFromPath(path string) ([]byte, error) {
	return fs.ReadFile(r.fsys, path)
}

// ShaderInfo is one shader stage source attached to a Program. Path is the origin of Source and is
// the directory anchor for #include resolution. A ShaderInfo is a value and is never modified after
// it is attached.
type ShaderInfo struct {
	// Stage is the pipeline stage the source compiles for.
	Stage gpu.ShaderStage

	// Source is the raw, unexpanded shader text.
	Source string

	// Path is the slash-separated origin path of Source. May be empty for inline sources, in which
	// case includes resolve relative to the package root.
	Path string
}

// NewShaderInfoFromFile reads a stage source through reader.
//
// Parameters:
//   - reader: the file reader used to fetch the source
//   - stage: the stage the source is compiled for
//   - path: the file path, also used as the include anchor
//
// Returns:
//   - ShaderInfo: the populated info
//   - error: an error if the file could not be read
func NewShaderInfoFromFile(reader FileReader, stage gpu.ShaderStage, path string) (ShaderInfo, error) {
	data, err := reader.ReadFileFromPath(path)
	if err != nil {
		return ShaderInfo{}, fmt.Errorf("failed to read %s shader %q: %w", stage, path, err)
	}
	return ShaderInfo{Stage: stage, Source: string(data), Path: path}, nil
}
