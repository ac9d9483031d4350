// Package glsl embeds the built-in shader sources of the graphic engine. The sources use the
// engine's #include and #alias directives and are expanded by the shader package.
package glsl

import (
	"embed"

	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

//go:embed *.vert *.frag include/*.glsl
var files embed.FS

// Reader serves the embedded sources. main.vert, main.frag, effects.vert and effects.frag sit at
// the root; shared code lives under include/.
//
// Returns:
//   - shader.FileReader: the reader
func Reader() shader.FileReader {
	return shader.FSReader(files)
}
