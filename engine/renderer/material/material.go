package material

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureSlot identifies one of the material texture bindings.
type TextureSlot int

const (
	TextureAmbient TextureSlot = iota
	TextureDiffuse
	TextureNormalMap

	textureSlotCount
)

// Uniform names shared with the shaders.
const (
	KaUniform        = "OXY_material.ka"
	KdUniform        = "OXY_material.kd"
	KsUniform        = "OXY_material.ks"
	ShininessUniform = "OXY_material.shininess"
)

var textureUniforms = [textureSlotCount]struct {
	sampler string
	enabled string
}{
	TextureAmbient:   {sampler: "OXY_texture_ambient", enabled: "OXY_texture_ambient_enabled"},
	TextureDiffuse:   {sampler: "OXY_texture_diffuse", enabled: "OXY_texture_diffuse_enabled"},
	TextureNormalMap: {sampler: "OXY_texture_normal", enabled: "OXY_texture_normal_enabled"},
}

// material is the implementation of the Material interface.
type material struct {
	name      string
	ka        mgl32.Vec3
	kd        mgl32.Vec3
	ks        mgl32.Vec3
	shininess float32
	textures  [textureSlotCount]gpu.Handle
}

// Material defines the surface constants and textures of a model. Constants follow the classic
// ambient/diffuse/specular model the G-buffer material pass stores per pixel.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Ka retrieves the ambient reflectance.
	Ka() mgl32.Vec3

	// Kd retrieves the diffuse reflectance.
	Kd() mgl32.Vec3

	// Ks retrieves the specular reflectance.
	Ks() mgl32.Vec3

	// Shininess retrieves the specular exponent.
	Shininess() float32

	// Texture retrieves the texture bound to a slot, zero if none.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - gpu.Handle: the texture, or zero
	Texture(slot TextureSlot) gpu.Handle

	// SetTexture assigns a texture to a slot. Zero clears the slot.
	//
	// Parameters:
	//   - slot: the texture slot
	//   - t: the texture
	SetTexture(slot TextureSlot, t gpu.Handle)

	// Apply uploads the constants to program and binds the textures to units 0..2. program must
	// be current.
	//
	// Parameters:
	//   - device: the device used to bind textures
	//   - program: the current program
	Apply(device gpu.Device, program shader.Program)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options. Defaults are
// a white diffuse surface with a weak specular highlight.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		ka:        mgl32.Vec3{0.1, 0.1, 0.1},
		kd:        mgl32.Vec3{1, 1, 1},
		ks:        mgl32.Vec3{0.2, 0.2, 0.2},
		shininess: 16,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Ka() mgl32.Vec3 {
	return m.ka
}

func (m *material) Kd() mgl32.Vec3 {
	return m.kd
}

func (m *material) Ks() mgl32.Vec3 {
	return m.ks
}

func (m *material) Shininess() float32 {
	return m.shininess
}

func (m *material) Texture(slot TextureSlot) gpu.Handle {
	if slot < 0 || slot >= textureSlotCount {
		return 0
	}
	return m.textures[slot]
}

func (m *material) SetTexture(slot TextureSlot, t gpu.Handle) {
	if slot < 0 || slot >= textureSlotCount {
		return
	}
	m.textures[slot] = t
}

func (m *material) Apply(device gpu.Device, program shader.Program) {
	program.SetVec3(KaUniform, m.ka)
	program.SetVec3(KdUniform, m.kd)
	program.SetVec3(KsUniform, m.ks)
	program.SetFloat(ShininessUniform, m.shininess)

	for slot, u := range textureUniforms {
		t := m.textures[slot]
		program.SetBool(u.enabled, t != 0)
		if t == 0 {
			continue
		}
		device.BindTexture(slot, t)
		program.SetInt(u.sampler, int32(slot))
	}
}
