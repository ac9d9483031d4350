package framebuffer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// EffectsSampler is the sampler uniform of the effects program that reads the captured image.
const EffectsSampler = "OXY_framebuffer"

// effects is the implementation of the Effects interface.
type effects struct {
	device gpu.Device
	rect   common.Rect

	framebuffer gpu.Handle
	color       gpu.Handle
	depth       gpu.Handle
	begun       bool
}

// Effects is the post-process framebuffer. Draws between BeginDrawEffects and EndDrawEffects are
// captured off-screen; Draw composites the capture to the default framebuffer through the effects
// program. An unallocated Effects still tracks begin/end but captures and composites nothing, so
// drawing falls through to the default framebuffer.
type Effects interface {
	// Init allocates the color and depth-stencil attachments at the size of rect.
	//
	// Parameters:
	//   - rect: the client rect; only its size is used
	//
	// Returns:
	//   - error: a wrapped ErrIncomplete if allocation failed
	Init(rect common.Rect) error

	// Dispose releases the attachments.
	Dispose()

	// Ready reports whether the framebuffer is allocated.
	Ready() bool

	// BeginDrawEffects starts capturing: binds and clears the framebuffer.
	BeginDrawEffects()

	// EndDrawEffects stops capturing and restores the default framebuffer.
	EndDrawEffects()

	// HasBegun reports whether a capture is in progress.
	HasBegun() bool

	// Draw composites the capture with program, selecting filter, over a fullscreen quad.
	//
	// Parameters:
	//   - program: the loaded effects program
	//   - filter: the post-process kernel
	//   - quad: the fullscreen quad mesh
	Draw(program shader.Program, filter shader.Filter, quad gpu.Mesh)

	// Framebuffer returns the native framebuffer, zero when unallocated.
	Framebuffer() gpu.Handle

	// ReleaseBind restores the default framebuffer without ending the capture.
	ReleaseBind()
}

var _ Effects = &effects{}

// NewEffects creates an unallocated effects framebuffer.
//
// Parameters:
//   - device: the device used to allocate and bind attachments
//
// Returns:
//   - Effects: the new effects framebuffer
func NewEffects(device gpu.Device) Effects {
	return &effects{device: device}
}

func (e *effects) Init(rect common.Rect) error {
	if rect.Empty() {
		return fmt.Errorf("effects framebuffer %dx%d: %w", rect.Width, rect.Height, ErrIncomplete)
	}
	e.Dispose()
	e.rect = common.Rect{Width: rect.Width, Height: rect.Height}

	color, err := e.device.CreateTexture(gpu.TextureDesc{
		Width:  rect.Width,
		Height: rect.Height,
		Format: gpu.FormatRGBA8,
		Filter: gpu.FilterLinear,
	}, nil)
	if err != nil {
		return fmt.Errorf("effects color attachment: %w: %v", ErrIncomplete, err)
	}
	e.color = color

	depth, err := e.device.CreateRenderbuffer(gpu.FormatDepth24Stencil8, rect.Width, rect.Height)
	if err != nil {
		e.Dispose()
		return fmt.Errorf("effects depth attachment: %w: %v", ErrIncomplete, err)
	}
	e.depth = depth

	fb, err := e.device.CreateFramebuffer(gpu.FramebufferDesc{Color: []gpu.Handle{e.color}, DepthStencil: e.depth})
	if err != nil {
		e.Dispose()
		return fmt.Errorf("effects framebuffer: %w: %v", ErrIncomplete, err)
	}
	e.framebuffer = fb
	return nil
}

func (e *effects) Dispose() {
	if e.framebuffer != 0 {
		e.device.DeleteFramebuffer(e.framebuffer)
		e.framebuffer = 0
	}
	if e.color != 0 {
		e.device.DeleteTexture(e.color)
		e.color = 0
	}
	if e.depth != 0 {
		e.device.DeleteRenderbuffer(e.depth)
		e.depth = 0
	}
}

func (e *effects) Ready() bool {
	return e.framebuffer != 0
}

func (e *effects) BeginDrawEffects() {
	e.begun = true
	if e.framebuffer == 0 {
		return
	}
	e.device.BindFramebuffer(gpu.FramebufferTargetBoth, e.framebuffer)
	e.device.Clear(gpu.BufferColor | gpu.BufferDepth | gpu.BufferStencil)
}

func (e *effects) EndDrawEffects() {
	e.begun = false
	if e.framebuffer == 0 {
		return
	}
	e.device.BindFramebuffer(gpu.FramebufferTargetBoth, 0)
}

func (e *effects) HasBegun() bool {
	return e.begun
}

func (e *effects) Draw(program shader.Program, filter shader.Filter, quad gpu.Mesh) {
	if e.framebuffer == 0 || program == nil || !program.Loaded() {
		return
	}
	program.Use()
	program.SetInterfaceInstance(shader.TechniqueUniform, filter.String(), gpu.ShaderStagePixel)
	e.device.BindTexture(0, e.color)
	program.SetInt(EffectsSampler, 0)

	e.device.Disable(gpu.CapabilityDepthTest)
	e.device.DrawMesh(quad)
	e.device.Enable(gpu.CapabilityDepthTest)
}

func (e *effects) Framebuffer() gpu.Handle {
	return e.framebuffer
}

func (e *effects) ReleaseBind() {
	e.device.BindFramebuffer(gpu.FramebufferTargetBoth, 0)
}
