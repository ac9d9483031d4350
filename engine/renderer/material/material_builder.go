package material

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithKa is an option builder that sets the ambient reflectance.
//
// Parameters:
//   - ka: the ambient reflectance as RGB
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithKa(ka mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.ka = ka
	}
}

// WithKd is an option builder that sets the diffuse reflectance.
//
// Parameters:
//   - kd: the diffuse reflectance as RGB
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithKd(kd mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.kd = kd
	}
}

// WithKs is an option builder that sets the specular reflectance.
//
// Parameters:
//   - ks: the specular reflectance as RGB
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithKs(ks mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.ks = ks
	}
}

// WithShininess is an option builder that sets the specular exponent.
//
// Parameters:
//   - shininess: the exponent
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithShininess(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.shininess = shininess
	}
}

// WithTexture is an option builder that assigns a texture to a slot.
//
// Parameters:
//   - slot: the texture slot
//   - t: the uploaded texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithTexture(slot TextureSlot, t gpu.Handle) MaterialBuilderOption {
	return func(m *material) {
		if slot >= 0 && slot < textureSlotCount {
			m.textures[slot] = t
		}
	}
}
