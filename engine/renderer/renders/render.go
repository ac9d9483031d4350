// Package renders holds the per-kind draw routines the graphic engine dispatches game objects to.
package renders

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"go.uber.org/zap"
)

// ModelMatrixUniform receives the object's model matrix.
const ModelMatrixUniform = "OXY_model_matrix"

// Render draws one game object with the current program. The graphic engine selects the shader
// procedure (forward, geometry pass, material pass) before calling Draw; the render selects the
// technique and uploads per-object state.
type Render interface {
	// Draw submits obj. program is current.
	//
	// Parameters:
	//   - program: the current main program
	//   - obj: the object to draw
	Draw(program shader.Program, obj game_object.GameObject)
}

// techniqueRender draws a model mesh under a fixed technique.
type techniqueRender struct {
	device    gpu.Device
	technique shader.Technique
	material  bool
}

var _ Render = &techniqueRender{}

// NewModel3DRender creates the render for lit 3D meshes (static and entity objects).
//
// Parameters:
//   - device: the device used to draw
//
// Returns:
//   - Render: the render
func NewModel3DRender(device gpu.Device) Render {
	return &techniqueRender{device: device, technique: shader.TechniqueModel3D, material: true}
}

// NewModel2DRender creates the render for flat 2D meshes.
func NewModel2DRender(device gpu.Device) Render {
	return &techniqueRender{device: device, technique: shader.TechniqueModel2D, material: true}
}

// NewSpriteRender creates the render for camera-facing textured quads.
func NewSpriteRender(device gpu.Device) Render {
	return &techniqueRender{device: device, technique: shader.TechniqueSprite, material: true}
}

// NewParticleRender creates the render for particle systems. Particles carry their color in the
// vertex data, so no material is uploaded.
func NewParticleRender(device gpu.Device) Render {
	return &techniqueRender{device: device, technique: shader.TechniqueParticle}
}

// NewSkyRender creates the render for the sky box.
func NewSkyRender(device gpu.Device) Render {
	return &techniqueRender{device: device, technique: shader.TechniqueSky, material: true}
}

// Defaults returns the standard kind-to-render registry. KindCustom has no entry; custom
// objects draw through their own game_object.Drawer.
//
// Parameters:
//   - device: the device used to draw
//
// Returns:
//   - map[game_object.Kind]Render: the registry
func Defaults(device gpu.Device) map[game_object.Kind]Render {
	model3D := NewModel3DRender(device)
	return map[game_object.Kind]Render{
		game_object.KindStatic:    model3D,
		game_object.KindEntity:    model3D,
		game_object.KindSprite:    NewSpriteRender(device),
		game_object.KindParticles: NewParticleRender(device),
		game_object.KindSky:       NewSkyRender(device),
	}
}

func (r *techniqueRender) Draw(program shader.Program, obj game_object.GameObject) {
	m := obj.Model()
	if m == nil || m.Mesh().VertexArray == 0 {
		common.Log().Debug("object has no mesh, skipping draw",
			zap.Uint64("object", obj.ID()), zap.Stringer("kind", obj.Kind()))
		return
	}

	program.SetInterfaceInstance(shader.TechniqueUniform, r.technique.String(), gpu.ShaderStageVertex)
	program.SetMatrix4(ModelMatrixUniform, obj.Transform())
	if r.material {
		m.Material().Apply(r.device, program)
	}
	r.device.DrawMesh(m.Mesh())
}
