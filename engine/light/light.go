package light

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient is a uniform, position-less contribution added to every fragment.
	LightTypeAmbient LightType = iota

	// LightTypeSpecular is a positional light producing diffuse and specular terms.
	LightTypeSpecular

	// LightTypeCount is the number of light types.
	LightTypeCount
)

// String returns the light type name used in logs.
func (t LightType) String() string {
	switch t {
	case LightTypeAmbient:
		return "ambient"
	case LightTypeSpecular:
		return "specular"
	default:
		return "unknown"
	}
}

const (
	// MaxAmbients is the length of the ambient light array declared by the shaders.
	MaxAmbients = 5

	// MaxSpeculars is the length of the specular light array declared by the shaders.
	MaxSpeculars = 10
)

// Uniform names shared with the shaders.
const (
	AmbientsUniform       = "OXY_ambient_lights"
	SpecularsUniform      = "OXY_speculars"
	AmbientsCountUniform  = "OXY_ambients_count"
	SpecularsCountUniform = "OXY_speculars_count"
	ColorField            = "lightColor"
	PositionField         = "lightPosition"
)

// Max returns how many lights of type t the shaders accept.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - int: the maximum count, zero for unknown types
func Max(t LightType) int {
	switch t {
	case LightTypeAmbient:
		return MaxAmbients
	case LightTypeSpecular:
		return MaxSpeculars
	default:
		return 0
	}
}

// UniformName builds the name of one field of the i-th light of type t, for example
// "OXY_speculars[2].lightPosition".
//
// Parameters:
//   - t: the light type
//   - i: the index within the type
//   - field: ColorField or PositionField
//
// Returns:
//   - string: the uniform name
func UniformName(t LightType, i int, field string) string {
	array := AmbientsUniform
	if t == LightTypeSpecular {
		array = SpecularsUniform
	}
	return fmt.Sprintf("%s[%d].%s", array, i, field)
}

// CountUniform returns the uniform holding the number of active lights of type t.
func CountUniform(t LightType) string {
	if t == LightTypeSpecular {
		return SpecularsCountUniform
	}
	return AmbientsCountUniform
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType LightType
	position  mgl32.Vec3
	color     mgl32.Vec3
	intensity float32
	enabled   bool
}

// Light is a light source submitted to the graphic engine. The engine uploads the color (scaled
// by intensity) of every enabled light, and the position of specular lights, into the light arrays
// of the main program.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (ambient or specular)
	Type() LightType

	// Position returns the world-space position of the light. Meaningless for ambient lights.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar multiplier applied to Color on upload.
	Intensity() float32

	// Radiance returns Color scaled by Intensity, the value uploaded to the shaders.
	Radiance() mgl32.Vec3

	// Enabled returns whether this light is uploaded.
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with white color, unit intensity and any
// provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		color:     mgl32.Vec3{1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radiance() mgl32.Vec3 {
	return l.color.Mul(l.intensity)
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = mgl32.Vec3{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = mgl32.Vec3{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
