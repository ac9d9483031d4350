// directives.go recognizes the macro directives understood by the shader expander. A directive is
// a line whose first non-blank character is '#' followed (optionally after blanks) by a directive
// keyword and at least one blank. Every other line, including native preprocessor lines such as
// #version or #ifdef, passes through untouched.
package shader

import (
	"fmt"
	"strings"
)

// DirectiveType identifies a macro directive.
type DirectiveType string

const (
	// DirectiveInclude splices another file, expanded recursively, in place of the line.
	//
	// Syntax: #include "relative/path.glsl"
	DirectiveInclude DirectiveType = "include"

	// DirectiveAlias records a textual substitution for ${NAME} in every following line.
	//
	// Syntax: #alias NAME replacement text
	DirectiveAlias DirectiveType = "alias"
)

// Directive is a parsed macro directive.
type Directive struct {
	// Type is the directive kind.
	Type DirectiveType

	// Args holds the arguments:
	//   - include: [0] = the quoted path without quotes
	//   - alias:   [0] = NAME, [1] = replacement text (inner whitespace preserved)
	Args []string

	// Line is the 1-based line number in the file being expanded.
	Line int
}

// parseDirective parses a single source line. Lines that are not macro directives return nil with
// no error. A directive keyword followed by malformed arguments returns an error.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Directive: the parsed directive, or nil if the line is not a directive
//   - error: a descriptive error if the directive is malformed
func parseDirective(line string, lineNum int) (*Directive, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#")
	if !ok {
		return nil, nil
	}
	rest = strings.TrimLeft(rest, " \t")

	var kind DirectiveType
	switch {
	case hasKeyword(rest, DirectiveInclude):
		kind = DirectiveInclude
	case hasKeyword(rest, DirectiveAlias):
		kind = DirectiveAlias
	default:
		return nil, nil
	}
	args := strings.TrimLeft(rest[len(kind):], " \t")

	switch kind {
	case DirectiveInclude:
		path, ok := quoted(args)
		if !ok {
			return nil, fmt.Errorf("line %d: #include requires a quoted path, got %q", lineNum, args)
		}
		return &Directive{Type: DirectiveInclude, Args: []string{path}, Line: lineNum}, nil
	default:
		i := strings.IndexAny(args, " \t")
		if i < 0 {
			return nil, fmt.Errorf("line %d: #alias requires a name and a replacement, got %q", lineNum, args)
		}
		name, text := args[:i], strings.TrimLeft(args[i+1:], " \t")
		if text == "" {
			return nil, fmt.Errorf("line %d: #alias requires a name and a replacement, got %q", lineNum, args)
		}
		return &Directive{Type: DirectiveAlias, Args: []string{name, text}, Line: lineNum}, nil
	}
}

// hasKeyword reports whether s starts with keyword followed by a blank.
func hasKeyword(s string, keyword DirectiveType) bool {
	after, ok := strings.CutPrefix(s, string(keyword))
	return ok && after != "" && (after[0] == ' ' || after[0] == '\t')
}

// quoted extracts the text between the first pair of double quotes in s.
func quoted(s string) (string, bool) {
	_, after, ok := strings.Cut(s, `"`)
	if !ok {
		return "", false
	}
	inner, _, ok := strings.Cut(after, `"`)
	if !ok || inner == "" {
		return "", false
	}
	return inner, true
}
