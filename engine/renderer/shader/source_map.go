package shader

import "fmt"

// generatedFile is the origin recorded for lines the program synthesizes (version directive and
// defines) rather than reads from a file.
const generatedFile = "<generated>"

// SourceLocation is the origin of one expanded line.
type SourceLocation struct {
	// File is the path of the file the line came from.
	File string
	// Line is the 1-based line number inside File.
	Line int
}

// String formats the location as file:line.
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// SourceMap maps each expanded line (index 0 is line 1) to its origin.
type SourceMap []SourceLocation

// Locate returns the origin of a 1-based expanded line.
//
// Parameters:
//   - line: the 1-based line number in the expanded source
//
// Returns:
//   - SourceLocation: the origin file and line
//   - bool: false if line is out of range
func (m SourceMap) Locate(line int) (SourceLocation, bool) {
	if line < 1 || line > len(m) {
		return SourceLocation{}, false
	}
	return m[line-1], true
}
