// Package gpu defines the narrow graphics-device surface the engine core drives, the per-surface
// Context that tracks the bound program. The OpenGL implementation lives in gpu/gldevice.
package gpu

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Handle is a native object name (program, shader, texture, framebuffer, renderbuffer, vertex array).
// Zero means "no object".
type Handle uint32

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	// ShaderStageVertex is the vertex processing stage.
	ShaderStageVertex ShaderStage = iota

	// ShaderStagePixel is the fragment (pixel) stage.
	ShaderStagePixel

	// ShaderStageGeometry is the optional geometry stage.
	ShaderStageGeometry
)

// String returns the stage name used in logs.
func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStagePixel:
		return "pixel"
	case ShaderStageGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// FramebufferTarget selects which binding point a framebuffer is bound to.
type FramebufferTarget int

const (
	// FramebufferTargetBoth binds for both drawing and reading.
	FramebufferTargetBoth FramebufferTarget = iota
	// FramebufferTargetDraw binds for drawing only.
	FramebufferTargetDraw
	// FramebufferTargetRead binds for reading only.
	FramebufferTargetRead
)

// BufferMask selects framebuffer planes for clears and blits.
type BufferMask uint32

const (
	BufferColor BufferMask = 1 << iota
	BufferDepth
	BufferStencil
)

// Filter selects texture and blit filtering.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Capability is a toggleable fixed-function state.
type Capability int

const (
	CapabilityDepthTest Capability = iota
	CapabilityStencilTest
	CapabilityBlend
	CapabilityCullFace
)

// CompareFunc is a depth or stencil comparison.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilAction is the stencil buffer update applied by StencilOp.
type StencilAction int

const (
	StencilKeep StencilAction = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilDecrement
	StencilInvert
)

// BlendFactor is a source or destination blend weight.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendDstColor
	BlendSrcAlpha
	BlendDstAlpha
	BlendOneMinusSrcAlpha
	BlendOneMinusDstColor
	BlendOneMinusDstAlpha
)

// TextureFormat is the storage format of a texture or renderbuffer.
type TextureFormat int

const (
	// FormatRGBA8 is 8-bit normalized RGBA, used for colors and material channels.
	FormatRGBA8 TextureFormat = iota
	// FormatRGB16F is half-float RGB, used for positions, normals and tangents.
	FormatRGB16F
	// FormatRGBA16F is half-float RGBA.
	FormatRGBA16F
	// FormatDepth24Stencil8 is a packed depth-stencil format.
	FormatDepth24Stencil8
)

// Primitive is the topology used to assemble vertices.
type Primitive int

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveTriangleStrip
	PrimitiveLines
	PrimitivePoints
)

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width  int
	Height int
	Format TextureFormat
	Filter Filter
}

// FramebufferDesc lists the attachments of a framebuffer. Color textures attach in order to
// color attachment 0..n-1.
type FramebufferDesc struct {
	Color        []Handle
	DepthStencil Handle
}

// VertexAttribute describes one float vertex attribute inside an interleaved vertex.
type VertexAttribute struct {
	// Location is the shader attribute location.
	Location uint32
	// Size is the number of float components.
	Size int32
}

// MeshDesc describes interleaved float vertex data and optional indices.
type MeshDesc struct {
	Vertices   []float32
	Indices    []uint32
	Attributes []VertexAttribute
	Primitive  Primitive
}

// Mesh is an uploaded vertex array ready for drawing.
type Mesh struct {
	VertexArray  Handle
	VertexBuffer Handle
	IndexBuffer  Handle
	Count        int32
	Primitive    Primitive
}

// Indexed reports whether the mesh draws through an index buffer.
func (m Mesh) Indexed() bool {
	return m.IndexBuffer != 0
}

// Device is the graphics API surface consumed by the engine core. Every call executes on the
// thread owning the rendering context.
type Device interface {
	// CreateProgram allocates an empty program object.
	CreateProgram() Handle
	// DeleteProgram releases a program object.
	DeleteProgram(p Handle)
	// CreateShader allocates a shader object for stage and uploads source.
	CreateShader(stage ShaderStage, source string) Handle
	// CompileShader compiles s and returns its status and info log.
	CompileShader(s Handle) (bool, string)
	// AttachShader attaches s to p.
	AttachShader(p, s Handle)
	// DeleteShader releases a shader object.
	DeleteShader(s Handle)
	// LinkProgram links p and returns its status and info log.
	LinkProgram(p Handle) (bool, string)
	// UseProgram makes p the current program.
	UseProgram(p Handle)
	// UniformLocation resolves a uniform name in p, -1 if it is not an active uniform.
	UniformLocation(p Handle, name string) int32

	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, v mgl32.Vec3)
	Uniform4f(loc int32, v mgl32.Vec4)
	UniformMatrix4f(loc int32, m mgl32.Mat4)

	// CreateTexture allocates a 2D texture, optionally filled with RGBA pixels.
	CreateTexture(desc TextureDesc, pixels []byte) (Handle, error)
	DeleteTexture(t Handle)
	// BindTexture binds t to the given texture unit.
	BindTexture(unit int, t Handle)
	// CreateRenderbuffer allocates renderbuffer storage.
	CreateRenderbuffer(format TextureFormat, width, height int) (Handle, error)
	DeleteRenderbuffer(rb Handle)
	// CreateFramebuffer assembles a framebuffer and verifies it is complete.
	CreateFramebuffer(desc FramebufferDesc) (Handle, error)
	DeleteFramebuffer(fb Handle)
	// BindFramebuffer binds fb (0 is the default framebuffer).
	BindFramebuffer(target FramebufferTarget, fb Handle)
	// DrawBuffers enables color attachments 0..count-1 for drawing.
	DrawBuffers(count int)
	// ReadBuffer selects the color attachment used as blit/read source.
	ReadBuffer(attachment int)
	// BlitFramebuffer copies the src region of the read framebuffer into the dst region of the draw framebuffer.
	BlitFramebuffer(src, dst common.Rect, mask BufferMask, filter Filter)

	Viewport(r common.Rect)
	Clear(mask BufferMask)
	Enable(c Capability)
	Disable(c Capability)
	DepthFunc(f CompareFunc)
	StencilFunc(f CompareFunc, ref int32, mask uint32)
	StencilOp(sfail, dpfail, dppass StencilAction)
	StencilMask(mask uint32)
	// StencilWriteMask returns the current stencil write mask.
	StencilWriteMask() uint32
	BlendFunc(src, dst BlendFactor)

	// CreateMesh uploads vertex (and index) data.
	CreateMesh(desc MeshDesc) (Mesh, error)
	// DrawMesh draws an uploaded mesh.
	DrawMesh(m Mesh)
	DeleteMesh(m Mesh)

	// CheckError returns the pending API error, if any.
	CheckError() error
}
