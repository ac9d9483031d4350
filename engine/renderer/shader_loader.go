package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// ShaderLoader attaches shader sources to the engine's programs. The engine calls it from Start and
// ReloadShaders, then loads the programs itself.
type ShaderLoader interface {
	// LoadShaderProgram attaches the stages of the main program.
	//
	// Parameters:
	//   - program: the unloaded main program
	//
	// Returns:
	//   - error: an error if a source cannot be read
	LoadShaderProgram(program shader.Program) error

	// LoadEffectsShader attaches the stages of the effects composite program.
	//
	// Parameters:
	//   - program: the unloaded effects program
	//
	// Returns:
	//   - error: an error if a source cannot be read
	LoadEffectsShader(program shader.Program) error
}

// ShaderFile names one stage source.
type ShaderFile struct {
	Stage gpu.ShaderStage
	Path  string
}

// FileShaderLoader reads the stage sources of both programs through a FileReader.
type FileShaderLoader struct {
	Reader  shader.FileReader
	Main    []ShaderFile
	Effects []ShaderFile
}

var _ ShaderLoader = &FileShaderLoader{}

// NewFileShaderLoader creates a loader for the conventional layout under dir:
// main.vert, main.frag, effects.vert and effects.frag.
//
// Parameters:
//   - reader: the reader serving the files
//   - dir: the directory holding the sources, "" for the reader root
//
// Returns:
//   - *FileShaderLoader: the loader
func NewFileShaderLoader(reader shader.FileReader, dir string) *FileShaderLoader {
	join := func(name string) string {
		if dir == "" {
			return name
		}
		return dir + "/" + name
	}
	return &FileShaderLoader{
		Reader: reader,
		Main: []ShaderFile{
			{Stage: gpu.ShaderStageVertex, Path: join("main.vert")},
			{Stage: gpu.ShaderStagePixel, Path: join("main.frag")},
		},
		Effects: []ShaderFile{
			{Stage: gpu.ShaderStageVertex, Path: join("effects.vert")},
			{Stage: gpu.ShaderStagePixel, Path: join("effects.frag")},
		},
	}
}

func (l *FileShaderLoader) LoadShaderProgram(program shader.Program) error {
	return l.attach(program, l.Main)
}

func (l *FileShaderLoader) LoadEffectsShader(program shader.Program) error {
	return l.attach(program, l.Effects)
}

func (l *FileShaderLoader) attach(program shader.Program, files []ShaderFile) error {
	if l.Reader == nil {
		return errors.New("shader loader has no reader")
	}
	for _, f := range files {
		info, err := shader.NewShaderInfoFromFile(l.Reader, f.Stage, f.Path)
		if err != nil {
			return err
		}
		program.AttachShader(info)
	}
	return nil
}
