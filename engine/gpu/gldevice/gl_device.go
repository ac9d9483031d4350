// Package gldevice implements gpu.Device on OpenGL 4.1 core through go-gl. The package links
// against the system OpenGL library and must only be used after a context is current.
package gldevice

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// glDevice is the OpenGL implementation of gpu.Device.
type glDevice struct{}

var _ gpu.Device = &glDevice{}

// NewDevice loads the OpenGL function pointers for the current context and returns a device.
// A context must be current on the calling thread (see window.Window.MakeContextCurrent).
//
// Returns:
//   - gpu.Device: the OpenGL device
//   - error: an error if the GL bindings could not be initialized
func NewDevice() (gpu.Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &glDevice{}, nil
}

func (d *glDevice) CreateProgram() gpu.Handle {
	return gpu.Handle(gl.CreateProgram())
}

func (d *glDevice) DeleteProgram(p gpu.Handle) {
	gl.DeleteProgram(uint32(p))
}

func (d *glDevice) CreateShader(stage gpu.ShaderStage, source string) gpu.Handle {
	s := gl.CreateShader(shaderType(stage))
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csources, nil)
	free()
	return gpu.Handle(s)
}

func (d *glDevice) CompileShader(s gpu.Handle) (bool, string) {
	gl.CompileShader(uint32(s))

	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (d *glDevice) AttachShader(p, s gpu.Handle) {
	gl.AttachShader(uint32(p), uint32(s))
}

func (d *glDevice) DeleteShader(s gpu.Handle) {
	gl.DeleteShader(uint32(s))
}

func (d *glDevice) LinkProgram(p gpu.Handle) (bool, string) {
	gl.LinkProgram(uint32(p))

	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (d *glDevice) UseProgram(p gpu.Handle) {
	gl.UseProgram(uint32(p))
}

func (d *glDevice) UniformLocation(p gpu.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *glDevice) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (d *glDevice) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (d *glDevice) Uniform3f(loc int32, v mgl32.Vec3) {
	gl.Uniform3fv(loc, 1, &v[0])
}

func (d *glDevice) Uniform4f(loc int32, v mgl32.Vec4) {
	gl.Uniform4fv(loc, 1, &v[0])
}

func (d *glDevice) UniformMatrix4f(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *glDevice) CreateTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Handle, error) {
	internal, format, xtype := textureFormat(desc.Format)
	filter := int32(textureFilter(desc.Filter))

	var t uint32
	gl.GenTextures(1, &t)
	gl.BindTexture(gl.TEXTURE_2D, t)
	if len(pixels) > 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, nil)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := d.CheckError(); err != nil {
		gl.DeleteTextures(1, &t)
		return 0, fmt.Errorf("failed to create %dx%d texture: %w", desc.Width, desc.Height, err)
	}
	return gpu.Handle(t), nil
}

func (d *glDevice) DeleteTexture(t gpu.Handle) {
	h := uint32(t)
	gl.DeleteTextures(1, &h)
}

func (d *glDevice) BindTexture(unit int, t gpu.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *glDevice) CreateRenderbuffer(format gpu.TextureFormat, width, height int) (gpu.Handle, error) {
	internal, _, _ := textureFormat(format)

	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(internal), int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := d.CheckError(); err != nil {
		gl.DeleteRenderbuffers(1, &rb)
		return 0, fmt.Errorf("failed to create %dx%d renderbuffer: %w", width, height, err)
	}
	return gpu.Handle(rb), nil
}

func (d *glDevice) DeleteRenderbuffer(rb gpu.Handle) {
	h := uint32(rb)
	gl.DeleteRenderbuffers(1, &h)
}

func (d *glDevice) CreateFramebuffer(desc gpu.FramebufferDesc) (gpu.Handle, error) {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)

	for i, t := range desc.Color {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, uint32(t), 0)
	}
	if desc.DepthStencil != 0 {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, uint32(desc.DepthStencil))
	}
	d.DrawBuffers(len(desc.Color))

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb)
		return 0, fmt.Errorf("framebuffer not complete: status 0x%x", status)
	}
	return gpu.Handle(fb), nil
}

func (d *glDevice) DeleteFramebuffer(fb gpu.Handle) {
	h := uint32(fb)
	gl.DeleteFramebuffers(1, &h)
}

func (d *glDevice) BindFramebuffer(target gpu.FramebufferTarget, fb gpu.Handle) {
	switch target {
	case gpu.FramebufferTargetDraw:
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, uint32(fb))
	case gpu.FramebufferTargetRead:
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(fb))
	default:
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	}
}

func (d *glDevice) DrawBuffers(count int) {
	if count <= 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	attachments := make([]uint32, count)
	for i := range attachments {
		attachments[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(count), &attachments[0])
}

func (d *glDevice) ReadBuffer(attachment int) {
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(attachment))
}

func (d *glDevice) BlitFramebuffer(src, dst common.Rect, mask gpu.BufferMask, filter gpu.Filter) {
	gl.BlitFramebuffer(
		int32(src.X), int32(src.Y), int32(src.X+src.Width), int32(src.Y+src.Height),
		int32(dst.X), int32(dst.Y), int32(dst.X+dst.Width), int32(dst.Y+dst.Height),
		bufferMask(mask), textureFilter(filter),
	)
}

func (d *glDevice) Viewport(r common.Rect) {
	gl.Viewport(int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height))
}

func (d *glDevice) Clear(mask gpu.BufferMask) {
	gl.Clear(bufferMask(mask))
}

func (d *glDevice) Enable(c gpu.Capability) {
	gl.Enable(capability(c))
}

func (d *glDevice) Disable(c gpu.Capability) {
	gl.Disable(capability(c))
}

func (d *glDevice) DepthFunc(f gpu.CompareFunc) {
	gl.DepthFunc(compareFunc(f))
}

func (d *glDevice) StencilFunc(f gpu.CompareFunc, ref int32, mask uint32) {
	gl.StencilFunc(compareFunc(f), ref, mask)
}

func (d *glDevice) StencilOp(sfail, dpfail, dppass gpu.StencilAction) {
	gl.StencilOp(stencilAction(sfail), stencilAction(dpfail), stencilAction(dppass))
}

func (d *glDevice) StencilMask(mask uint32) {
	gl.StencilMask(mask)
}

func (d *glDevice) StencilWriteMask() uint32 {
	var mask int32
	gl.GetIntegerv(gl.STENCIL_WRITEMASK, &mask)
	return uint32(mask)
}

func (d *glDevice) BlendFunc(src, dst gpu.BlendFactor) {
	gl.BlendFunc(blendFactor(src), blendFactor(dst))
}

func (d *glDevice) CreateMesh(desc gpu.MeshDesc) (gpu.Mesh, error) {
	if len(desc.Vertices) == 0 {
		return gpu.Mesh{}, fmt.Errorf("mesh has no vertices")
	}

	var stride int32
	for _, a := range desc.Attributes {
		stride += a.Size
	}
	if stride == 0 {
		return gpu.Mesh{}, fmt.Errorf("mesh has no vertex attributes")
	}

	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(desc.Vertices)*4, gl.Ptr(desc.Vertices), gl.STATIC_DRAW)

	m := gpu.Mesh{
		VertexArray:  gpu.Handle(vao),
		VertexBuffer: gpu.Handle(vbo),
		Count:        int32(len(desc.Vertices)) / stride,
		Primitive:    desc.Primitive,
	}

	if len(desc.Indices) > 0 {
		var ebo uint32
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(desc.Indices)*4, gl.Ptr(desc.Indices), gl.STATIC_DRAW)
		m.IndexBuffer = gpu.Handle(ebo)
		m.Count = int32(len(desc.Indices))
	}

	var offset uintptr
	for _, a := range desc.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Size, gl.FLOAT, false, stride*4, offset)
		offset += uintptr(a.Size) * 4
	}
	gl.BindVertexArray(0)

	if err := d.CheckError(); err != nil {
		d.DeleteMesh(m)
		return gpu.Mesh{}, fmt.Errorf("failed to upload mesh: %w", err)
	}
	return m, nil
}

func (d *glDevice) DrawMesh(m gpu.Mesh) {
	gl.BindVertexArray(uint32(m.VertexArray))
	if m.Indexed() {
		gl.DrawElements(primitive(m.Primitive), m.Count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(primitive(m.Primitive), 0, m.Count)
	}
	gl.BindVertexArray(0)
}

func (d *glDevice) DeleteMesh(m gpu.Mesh) {
	gl.BindVertexArray(0)
	if m.VertexBuffer != 0 {
		h := uint32(m.VertexBuffer)
		gl.DeleteBuffers(1, &h)
	}
	if m.IndexBuffer != 0 {
		h := uint32(m.IndexBuffer)
		gl.DeleteBuffers(1, &h)
	}
	if m.VertexArray != 0 {
		h := uint32(m.VertexArray)
		gl.DeleteVertexArrays(1, &h)
	}
}

func (d *glDevice) CheckError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}
