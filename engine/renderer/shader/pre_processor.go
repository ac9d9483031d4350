// pre_processor.go implements the shader macro expander. It rewrites raw stage sources line by line,
// splicing #include files, recording #alias rules and substituting ${NAME} tokens, and produces a
// source map so compile errors can be reported against the file and line that produced them.
//
// Expansion rules:
//   - #include "p" is resolved with path.Join(path.Dir(current), p), expanded recursively with the
//     same alias table, and followed by one empty line that carries the include's own location.
//     A missing file or an include cycle logs a warning and yields a single empty line.
//   - #alias NAME text records ${NAME} -> text and yields an empty line. Aliases apply from the
//     following line on; there are no forward references. The first definition of a name wins.
//   - A malformed #include or #alias logs a warning with its location and yields an empty line.
//   - Any other line has its ${...} tokens substituted in one left-to-right scan. Replacement text
//     is not rescanned and unknown tokens are kept verbatim.
package shader

import (
	"path"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"go.uber.org/zap"
)

// Expansion is the result of expanding one source.
type Expansion struct {
	// Source is the expanded text.
	Source string

	// SourceMap maps every line of Source to the file and line it came from.
	SourceMap SourceMap
}

// expander is the implementation of the Expander interface.
type expander struct {
	reader  FileReader
	aliases map[string]string
}

// Expander expands the shader macro language. One Expander belongs to one program: the alias table
// it accumulates is shared by every source expanded through it, in expansion order.
type Expander interface {
	// Expand rewrites source, which originates from path, into plain shader text.
	//
	// Parameters:
	//   - path: the origin of source, used to resolve includes and to fill the source map
	//   - source: the raw text
	//
	// Returns:
	//   - Expansion: the expanded text and its source map
	Expand(path, source string) Expansion

	// SetAlias records ${name} -> text, replacing any earlier definition. #alias lines that
	// expand later cannot override it.
	//
	// Parameters:
	//   - name: the alias name without the ${} wrapper
	//   - text: the replacement text
	SetAlias(name, text string)

	// Alias returns the replacement recorded for name.
	//
	// Parameters:
	//   - name: the alias name without the ${} wrapper
	//
	// Returns:
	//   - string: the replacement text
	//   - bool: false if name has no alias
	Alias(name string) (string, bool)
}

var _ Expander = &expander{}

// NewExpander creates an Expander with an empty alias table.
//
// Parameters:
//   - reader: resolves #include paths; nil makes every include missing
//
// Returns:
//   - Expander: the new expander
func NewExpander(reader FileReader) Expander {
	return &expander{
		reader:  reader,
		aliases: make(map[string]string),
	}
}

func (e *expander) SetAlias(name, text string) {
	e.aliases[aliasKey(name)] = text
}

func (e *expander) Alias(name string) (string, bool) {
	text, ok := e.aliases[aliasKey(name)]
	return text, ok
}

func (e *expander) Expand(path, source string) Expansion {
	var lines []string
	var sm SourceMap
	e.expandInto(path, source, []string{path}, &lines, &sm)
	return Expansion{Source: strings.Join(lines, "\n"), SourceMap: sm}
}

// expandInto appends the expansion of source to lines and sm. stack holds the chain of files
// currently being expanded and is used to break include cycles.
func (e *expander) expandInto(file, source string, stack []string, lines *[]string, sm *SourceMap) {
	emit := func(text string, line int) {
		*lines = append(*lines, text)
		*sm = append(*sm, SourceLocation{File: file, Line: line})
	}

	for i, line := range strings.Split(source, "\n") {
		d, err := parseDirective(line, i+1)
		if err != nil {
			common.Log().Warn("malformed shader directive, using empty line instead",
				zap.String("file", file), zap.Int("line", i+1), zap.Error(err))
			emit("", i+1)
			continue
		}
		if d == nil {
			emit(e.substitute(line), i+1)
			continue
		}

		switch d.Type {
		case DirectiveInclude:
			target := path.Join(path.Dir(file), d.Args[0])
			if slices.Contains(stack, target) {
				common.Log().Warn("shader include cycle, using empty file instead",
					zap.String("file", file), zap.Int("line", i+1), zap.String("include", target))
				emit("", i+1)
				continue
			}
			data, ok := e.read(target)
			if !ok {
				common.Log().Warn("shader include not found, using empty file instead",
					zap.String("file", file), zap.Int("line", i+1), zap.String("include", target))
				emit("", i+1)
				continue
			}
			e.expandInto(target, data, append(stack, target), lines, sm)
			emit("", i+1)
		case DirectiveAlias:
			key := aliasKey(d.Args[0])
			if _, defined := e.aliases[key]; defined {
				common.Log().Debug("shader alias already defined, keeping the first definition",
					zap.String("file", file), zap.Int("line", i+1), zap.String("alias", d.Args[0]))
			} else {
				e.aliases[key] = d.Args[1]
			}
			emit("", i+1)
		}
	}
}

func (e *expander) read(p string) (string, bool) {
	if e.reader == nil {
		return "", false
	}
	data, err := e.reader.ReadFileFromPath(p)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// substitute replaces every known ${NAME} token of line in a single left-to-right scan.
func (e *expander) substitute(line string) string {
	if len(e.aliases) == 0 || !strings.Contains(line, "${") {
		return line
	}

	var b strings.Builder
	for {
		start := strings.Index(line, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(line[start:], '}')
		if end < 0 {
			break
		}
		end += start + 1

		b.WriteString(line[:start])
		token := line[start:end]
		if text, ok := e.aliases[token]; ok {
			b.WriteString(text)
		} else {
			b.WriteString(token)
		}
		line = line[end:]
	}
	b.WriteString(line)
	return b.String()
}

func aliasKey(name string) string {
	return "${" + name + "}"
}
