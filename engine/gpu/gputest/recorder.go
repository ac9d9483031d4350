// Package gputest provides an in-memory gpu.Device that records every call, for tests of the
// rendering core that must run without a graphics context.
package gputest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFailCompileMarker makes CompileShader fail for any source containing it.
const DefaultFailCompileMarker = "#error"

// Call is one recorded device call.
type Call struct {
	Name string
	Args []any
}

type recordedShader struct {
	stage  gpu.ShaderStage
	source string
}

type recordedProgram struct {
	sources   []string
	locations map[string]int32
	values    map[int32]any
	linked    bool
}

// Recorder is a gpu.Device that records calls and emulates the small amount of state the engine
// observes: program linkage, uniform resolution, the bound program and the stencil write mask.
//
// A uniform name resolves when its base (the part before any "[" or ".") occurs in one of the
// sources attached to the program. Every other name resolves to -1, like an inactive uniform.
type Recorder struct {
	// FailCompileMarker makes CompileShader fail when the shader source contains it.
	FailCompileMarker string
	// FailLink makes every LinkProgram fail.
	FailLink bool
	// FailFramebuffer makes every CreateFramebuffer fail.
	FailFramebuffer bool

	next        gpu.Handle
	calls       []Call
	shaders     map[gpu.Handle]*recordedShader
	programs    map[gpu.Handle]*recordedProgram
	current     gpu.Handle
	stencilMask uint32
	enabled     map[gpu.Capability]bool
	bound       map[gpu.FramebufferTarget]gpu.Handle
	live        map[string]int
}

var _ gpu.Device = &Recorder{}

// NewRecorder creates a Recorder with compile failures keyed on DefaultFailCompileMarker.
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder() *Recorder {
	return &Recorder{
		FailCompileMarker: DefaultFailCompileMarker,
		shaders:           make(map[gpu.Handle]*recordedShader),
		programs:          make(map[gpu.Handle]*recordedProgram),
		stencilMask:       0xFF,
		enabled:           make(map[gpu.Capability]bool),
		bound:             make(map[gpu.FramebufferTarget]gpu.Handle),
		live:              make(map[string]int),
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.calls = append(r.calls, Call{Name: name, Args: args})
}

func (r *Recorder) alloc(kind string) gpu.Handle {
	r.next++
	r.live[kind]++
	return r.next
}

func (r *Recorder) free(kind string, h gpu.Handle) {
	if h != 0 {
		r.live[kind]--
	}
}

// Calls returns every call recorded since creation or the last Reset.
func (r *Recorder) Calls() []Call {
	return append([]Call(nil), r.calls...)
}

// CallsNamed returns the recorded calls with the given name, in order.
//
// Parameters:
//   - name: the Device method name, e.g. "StencilMask"
//
// Returns:
//   - []Call: the matching calls
func (r *Recorder) CallsNamed(name string) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times the named call was recorded.
func (r *Recorder) Count(name string) int {
	return len(r.CallsNamed(name))
}

// Names returns the names of all recorded calls, in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Name
	}
	return out
}

// Reset forgets recorded calls. Emulated state is kept.
func (r *Recorder) Reset() {
	r.calls = nil
}

// Live returns the number of allocated, not yet deleted objects of a kind
// ("program", "shader", "texture", "renderbuffer", "framebuffer", "mesh").
func (r *Recorder) Live(kind string) int {
	return r.live[kind]
}

// ProgramInUse returns the program last passed to UseProgram.
func (r *Recorder) ProgramInUse() gpu.Handle {
	return r.current
}

// Enabled reports whether a capability is currently enabled.
func (r *Recorder) Enabled(c gpu.Capability) bool {
	return r.enabled[c]
}

// Bound returns the framebuffer bound to a target.
func (r *Recorder) Bound(target gpu.FramebufferTarget) gpu.Handle {
	return r.bound[target]
}

// Linked reports whether p exists and linked successfully.
func (r *Recorder) Linked(p gpu.Handle) bool {
	prog, ok := r.programs[p]
	return ok && prog.linked
}

// UniformValue returns the last value uploaded to the named uniform of p.
//
// Parameters:
//   - p: the program
//   - name: the uniform name, as passed to UniformLocation
//
// Returns:
//   - any: the value (int32, float32, mgl32.Vec3, mgl32.Vec4 or mgl32.Mat4)
//   - bool: false if the uniform was never resolved or never written
func (r *Recorder) UniformValue(p gpu.Handle, name string) (any, bool) {
	prog, ok := r.programs[p]
	if !ok {
		return nil, false
	}
	loc, ok := prog.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := prog.values[loc]
	return v, ok
}

func (r *Recorder) CreateProgram() gpu.Handle {
	p := r.alloc("program")
	r.programs[p] = &recordedProgram{
		locations: make(map[string]int32),
		values:    make(map[int32]any),
	}
	r.record("CreateProgram", p)
	return p
}

func (r *Recorder) DeleteProgram(p gpu.Handle) {
	r.record("DeleteProgram", p)
	if _, ok := r.programs[p]; ok {
		delete(r.programs, p)
		r.free("program", p)
	}
	if r.current == p {
		r.current = 0
	}
}

func (r *Recorder) CreateShader(stage gpu.ShaderStage, source string) gpu.Handle {
	s := r.alloc("shader")
	r.shaders[s] = &recordedShader{stage: stage, source: source}
	r.record("CreateShader", stage, source)
	return s
}

func (r *Recorder) CompileShader(s gpu.Handle) (bool, string) {
	r.record("CompileShader", s)
	sh, ok := r.shaders[s]
	if !ok {
		return false, "invalid shader object"
	}
	if r.FailCompileMarker != "" {
		if i := strings.Index(sh.source, r.FailCompileMarker); i >= 0 {
			line := strings.Count(sh.source[:i], "\n") + 1
			return false, fmt.Sprintf("0:%d(1): error: syntax error", line)
		}
	}
	return true, ""
}

func (r *Recorder) AttachShader(p, s gpu.Handle) {
	r.record("AttachShader", p, s)
	prog, ok := r.programs[p]
	if !ok {
		return
	}
	if sh, ok := r.shaders[s]; ok {
		prog.sources = append(prog.sources, sh.source)
	}
}

func (r *Recorder) DeleteShader(s gpu.Handle) {
	r.record("DeleteShader", s)
	if _, ok := r.shaders[s]; ok {
		delete(r.shaders, s)
		r.free("shader", s)
	}
}

func (r *Recorder) LinkProgram(p gpu.Handle) (bool, string) {
	r.record("LinkProgram", p)
	prog, ok := r.programs[p]
	if !ok {
		return false, "invalid program object"
	}
	if r.FailLink {
		return false, "error: linking failed"
	}
	prog.linked = true
	return true, ""
}

func (r *Recorder) UseProgram(p gpu.Handle) {
	r.record("UseProgram", p)
	r.current = p
}

func (r *Recorder) UniformLocation(p gpu.Handle, name string) int32 {
	r.record("UniformLocation", p, name)
	prog, ok := r.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.locations[name]; ok {
		return loc
	}

	base := name
	if i := strings.IndexAny(base, "[."); i >= 0 {
		base = base[:i]
	}
	for _, src := range prog.sources {
		if strings.Contains(src, base) {
			loc := int32(len(prog.locations))
			prog.locations[name] = loc
			return loc
		}
	}
	return -1
}

func (r *Recorder) setUniform(name string, loc int32, v any) {
	r.record(name, loc, v)
	if prog, ok := r.programs[r.current]; ok && loc >= 0 {
		prog.values[loc] = v
	}
}

func (r *Recorder) Uniform1i(loc int32, v int32) {
	r.setUniform("Uniform1i", loc, v)
}

func (r *Recorder) Uniform1f(loc int32, v float32) {
	r.setUniform("Uniform1f", loc, v)
}

func (r *Recorder) Uniform3f(loc int32, v mgl32.Vec3) {
	r.setUniform("Uniform3f", loc, v)
}

func (r *Recorder) Uniform4f(loc int32, v mgl32.Vec4) {
	r.setUniform("Uniform4f", loc, v)
}

func (r *Recorder) UniformMatrix4f(loc int32, m mgl32.Mat4) {
	r.setUniform("UniformMatrix4f", loc, m)
}

func (r *Recorder) CreateTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Handle, error) {
	t := r.alloc("texture")
	r.record("CreateTexture", desc, len(pixels))
	return t, nil
}

func (r *Recorder) DeleteTexture(t gpu.Handle) {
	r.record("DeleteTexture", t)
	r.free("texture", t)
}

func (r *Recorder) BindTexture(unit int, t gpu.Handle) {
	r.record("BindTexture", unit, t)
}

func (r *Recorder) CreateRenderbuffer(format gpu.TextureFormat, width, height int) (gpu.Handle, error) {
	rb := r.alloc("renderbuffer")
	r.record("CreateRenderbuffer", format, width, height)
	return rb, nil
}

func (r *Recorder) DeleteRenderbuffer(rb gpu.Handle) {
	r.record("DeleteRenderbuffer", rb)
	r.free("renderbuffer", rb)
}

func (r *Recorder) CreateFramebuffer(desc gpu.FramebufferDesc) (gpu.Handle, error) {
	r.record("CreateFramebuffer", len(desc.Color), desc.DepthStencil)
	if r.FailFramebuffer {
		return 0, errors.New("framebuffer not complete")
	}
	return r.alloc("framebuffer"), nil
}

func (r *Recorder) DeleteFramebuffer(fb gpu.Handle) {
	r.record("DeleteFramebuffer", fb)
	r.free("framebuffer", fb)
}

func (r *Recorder) BindFramebuffer(target gpu.FramebufferTarget, fb gpu.Handle) {
	r.record("BindFramebuffer", target, fb)
	if target == gpu.FramebufferTargetBoth {
		r.bound[gpu.FramebufferTargetDraw] = fb
		r.bound[gpu.FramebufferTargetRead] = fb
	}
	r.bound[target] = fb
}

func (r *Recorder) DrawBuffers(count int) {
	r.record("DrawBuffers", count)
}

func (r *Recorder) ReadBuffer(attachment int) {
	r.record("ReadBuffer", attachment)
}

func (r *Recorder) BlitFramebuffer(src, dst common.Rect, mask gpu.BufferMask, filter gpu.Filter) {
	r.record("BlitFramebuffer", src, dst, mask, filter)
}

func (r *Recorder) Viewport(rect common.Rect) {
	r.record("Viewport", rect)
}

func (r *Recorder) Clear(mask gpu.BufferMask) {
	r.record("Clear", mask)
}

func (r *Recorder) Enable(c gpu.Capability) {
	r.record("Enable", c)
	r.enabled[c] = true
}

func (r *Recorder) Disable(c gpu.Capability) {
	r.record("Disable", c)
	r.enabled[c] = false
}

func (r *Recorder) DepthFunc(f gpu.CompareFunc) {
	r.record("DepthFunc", f)
}

func (r *Recorder) StencilFunc(f gpu.CompareFunc, ref int32, mask uint32) {
	r.record("StencilFunc", f, ref, mask)
}

func (r *Recorder) StencilOp(sfail, dpfail, dppass gpu.StencilAction) {
	r.record("StencilOp", sfail, dpfail, dppass)
}

func (r *Recorder) StencilMask(mask uint32) {
	r.record("StencilMask", mask)
	r.stencilMask = mask
}

func (r *Recorder) StencilWriteMask() uint32 {
	return r.stencilMask
}

func (r *Recorder) BlendFunc(src, dst gpu.BlendFactor) {
	r.record("BlendFunc", src, dst)
}

func (r *Recorder) CreateMesh(desc gpu.MeshDesc) (gpu.Mesh, error) {
	r.record("CreateMesh", len(desc.Vertices), len(desc.Indices))
	m := gpu.Mesh{
		VertexArray:  r.alloc("mesh"),
		VertexBuffer: r.next,
		Count:        int32(len(desc.Vertices)),
		Primitive:    desc.Primitive,
	}
	if len(desc.Indices) > 0 {
		m.IndexBuffer = r.next
		m.Count = int32(len(desc.Indices))
	}
	return m, nil
}

func (r *Recorder) DrawMesh(m gpu.Mesh) {
	r.record("DrawMesh", m.VertexArray)
}

func (r *Recorder) DeleteMesh(m gpu.Mesh) {
	r.record("DeleteMesh", m.VertexArray)
	r.free("mesh", m.VertexArray)
}

func (r *Recorder) CheckError() error {
	return nil
}
