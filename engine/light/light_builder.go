package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption configures a Light in NewLight.
type LightBuilderOption func(*lightImpl)

// WithPosition places a specular light in world space. Ambient lights ignore it.
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithColor sets the RGB color, white by default.
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity scales the color on upload. Negative values clamp to zero.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = max(intensity, 0)
	}
}

// WithEnabled starts the light enabled or disabled. A disabled light keeps its slot in the scene
// but is skipped when the engine fills the shader arrays.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}
