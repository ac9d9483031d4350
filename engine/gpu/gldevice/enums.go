package gldevice

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
)

func shaderType(stage gpu.ShaderStage) uint32 {
	switch stage {
	case gpu.ShaderStagePixel:
		return gl.FRAGMENT_SHADER
	case gpu.ShaderStageGeometry:
		return gl.GEOMETRY_SHADER
	default:
		return gl.VERTEX_SHADER
	}
}

// textureFormat returns the internal format, pixel format and pixel type for f.
func textureFormat(f gpu.TextureFormat) (int32, uint32, uint32) {
	switch f {
	case gpu.FormatRGB16F:
		return gl.RGB16F, gl.RGB, gl.FLOAT
	case gpu.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.FLOAT
	case gpu.FormatDepth24Stencil8:
		return gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func textureFilter(f gpu.Filter) uint32 {
	if f == gpu.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func bufferMask(m gpu.BufferMask) uint32 {
	var mask uint32
	if m&gpu.BufferColor != 0 {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if m&gpu.BufferDepth != 0 {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if m&gpu.BufferStencil != 0 {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	return mask
}

func capability(c gpu.Capability) uint32 {
	switch c {
	case gpu.CapabilityStencilTest:
		return gl.STENCIL_TEST
	case gpu.CapabilityBlend:
		return gl.BLEND
	case gpu.CapabilityCullFace:
		return gl.CULL_FACE
	default:
		return gl.DEPTH_TEST
	}
}

func compareFunc(f gpu.CompareFunc) uint32 {
	switch f {
	case gpu.CompareNever:
		return gl.NEVER
	case gpu.CompareLess:
		return gl.LESS
	case gpu.CompareEqual:
		return gl.EQUAL
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareGreater:
		return gl.GREATER
	case gpu.CompareNotEqual:
		return gl.NOTEQUAL
	case gpu.CompareGreaterEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

func stencilAction(a gpu.StencilAction) uint32 {
	switch a {
	case gpu.StencilZero:
		return gl.ZERO
	case gpu.StencilReplace:
		return gl.REPLACE
	case gpu.StencilIncrement:
		return gl.INCR
	case gpu.StencilDecrement:
		return gl.DECR
	case gpu.StencilInvert:
		return gl.INVERT
	default:
		return gl.KEEP
	}
}

func blendFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendZero:
		return gl.ZERO
	case gpu.BlendOne:
		return gl.ONE
	case gpu.BlendSrcColor:
		return gl.SRC_COLOR
	case gpu.BlendDstColor:
		return gl.DST_COLOR
	case gpu.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendDstAlpha:
		return gl.DST_ALPHA
	case gpu.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gpu.BlendOneMinusDstColor:
		return gl.ONE_MINUS_DST_COLOR
	case gpu.BlendOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	default:
		return gl.ONE
	}
}

func primitive(p gpu.Primitive) uint32 {
	switch p {
	case gpu.PrimitiveTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.PrimitiveLines:
		return gl.LINES
	case gpu.PrimitivePoints:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}
