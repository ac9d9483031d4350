// Package framebuffer owns the off-screen render targets of the deferred pipeline: the
// multi-attachment G-buffer written by the geometry pass and the effects framebuffer that captures
// the composed image before the post-process shader.
package framebuffer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
)

// ErrIncomplete is returned when a render target cannot be allocated or is not complete.
var ErrIncomplete = errors.New("framebuffer incomplete")

// Channel is one G-buffer attachment. Channels are numbered across both passes so the debug viewer
// can address them with a single index.
type Channel int

const (
	// Geometry pass.
	ChannelPosition Channel = iota
	ChannelNormal
	ChannelTexAmbient
	ChannelTexDiffuse
	ChannelTangent
	ChannelBitangent
	ChannelNormalMap

	// Material pass.
	ChannelKa
	ChannelKd
	ChannelKs
	ChannelShininess

	ChannelCount
)

// PassCount is the number of sub-passes the geometry pass iterates.
const PassCount = 2

// SamplerPrefix prefixes the sampler uniform of each channel, e.g. "OXY_gbuffer_position".
const SamplerPrefix = "OXY_gbuffer_"

type channelSpec struct {
	name   string
	pass   int
	format gpu.TextureFormat
}

var channelSpecs = [ChannelCount]channelSpec{
	ChannelPosition:   {name: "position", pass: 0, format: gpu.FormatRGB16F},
	ChannelNormal:     {name: "normal", pass: 0, format: gpu.FormatRGB16F},
	ChannelTexAmbient: {name: "texAmbient", pass: 0, format: gpu.FormatRGBA8},
	ChannelTexDiffuse: {name: "texDiffuse", pass: 0, format: gpu.FormatRGBA8},
	ChannelTangent:    {name: "tangent", pass: 0, format: gpu.FormatRGB16F},
	ChannelBitangent:  {name: "bitangent", pass: 0, format: gpu.FormatRGB16F},
	ChannelNormalMap:  {name: "normalMap", pass: 0, format: gpu.FormatRGBA8},
	ChannelKa:         {name: "ka", pass: 1, format: gpu.FormatRGBA8},
	ChannelKd:         {name: "kd", pass: 1, format: gpu.FormatRGBA8},
	ChannelKs:         {name: "ks", pass: 1, format: gpu.FormatRGBA8},
	ChannelShininess:  {name: "shininess", pass: 1, format: gpu.FormatRGBA8},
}

// String returns the channel name used in sampler uniforms.
func (c Channel) String() string {
	if c < 0 || c >= ChannelCount {
		return "unknown"
	}
	return channelSpecs[c].name
}

// Pass returns the sub-pass that writes the channel.
func (c Channel) Pass() int {
	return channelSpecs[c].pass
}

// attachment returns the color attachment index of the channel inside its pass.
func (c Channel) attachment() int {
	n := 0
	for i := Channel(0); i < c; i++ {
		if channelSpecs[i].pass == channelSpecs[c].pass {
			n++
		}
	}
	return n
}

// gbuffer is the implementation of the GBuffer interface.
type gbuffer struct {
	device gpu.Device
	rect   common.Rect

	framebuffers [PassCount]gpu.Handle
	textures     [ChannelCount]gpu.Handle
	depth        gpu.Handle
	pass         int
	ready        bool
}

// GBuffer is the deferred geometry buffer. Its channels are split over PassCount framebuffers
// that share one depth-stencil attachment; the geometry pass draws every deferrable object once per
// sub-pass.
type GBuffer interface {
	// Init allocates all attachments at the size of rect.
	//
	// Parameters:
	//   - rect: the client rect; only its size is used
	//
	// Returns:
	//   - error: a wrapped ErrIncomplete if allocation failed; nothing stays allocated in that case
	Init(rect common.Rect) error

	// Dispose releases all attachments. Safe to call on a disposed buffer.
	Dispose()

	// Ready reports whether the buffer is allocated and complete.
	Ready() bool

	// BeginPass rewinds to the first sub-pass.
	BeginPass()

	// NextPass advances to the next sub-pass.
	//
	// Returns:
	//   - bool: false once every sub-pass was visited
	NextPass() bool

	// Pass returns the current sub-pass index.
	Pass() int

	// NewFrame binds the current sub-pass framebuffer and clears it.
	NewFrame()

	// BindForWriting binds the current sub-pass framebuffer as the draw target.
	BindForWriting()

	// BindForReading binds the current sub-pass framebuffer as the read source.
	BindForReading()

	// SetReadBuffer selects a channel as the read source, binding the framebuffer of its pass.
	//
	// Parameters:
	//   - c: the channel to read
	SetReadBuffer(c Channel)

	// ReleaseBind restores the default framebuffer.
	ReleaseBind()

	// CopyDepthBuffer blits the shared depth-stencil contents into target and leaves target bound.
	//
	// Parameters:
	//   - target: the framebuffer receiving the depth, zero for the default framebuffer
	CopyDepthBuffer(target gpu.Handle)

	// ActivateTextures binds every channel to a texture unit and points the channel samplers of
	// program at them. program must be current.
	//
	// Parameters:
	//   - program: the light pass program
	ActivateTextures(program shader.Program)

	// AdjustViewport sets the viewport to the buffer size.
	AdjustViewport()

	// Width returns the buffer width in pixels.
	Width() int

	// Height returns the buffer height in pixels.
	Height() int
}

var _ GBuffer = &gbuffer{}

// NewGBuffer creates an unallocated G-buffer.
//
// Parameters:
//   - device: the device used to allocate and bind attachments
//
// Returns:
//   - GBuffer: the new G-buffer
func NewGBuffer(device gpu.Device) GBuffer {
	return &gbuffer{device: device}
}

func (g *gbuffer) Init(rect common.Rect) error {
	if rect.Empty() {
		return fmt.Errorf("gbuffer %dx%d: %w", rect.Width, rect.Height, ErrIncomplete)
	}
	g.Dispose()
	g.rect = common.Rect{Width: rect.Width, Height: rect.Height}

	depth, err := g.device.CreateRenderbuffer(gpu.FormatDepth24Stencil8, rect.Width, rect.Height)
	if err != nil {
		g.Dispose()
		return fmt.Errorf("gbuffer depth attachment: %w: %v", ErrIncomplete, err)
	}
	g.depth = depth

	for c := Channel(0); c < ChannelCount; c++ {
		t, err := g.device.CreateTexture(gpu.TextureDesc{
			Width:  rect.Width,
			Height: rect.Height,
			Format: channelSpecs[c].format,
			Filter: gpu.FilterNearest,
		}, nil)
		if err != nil {
			g.Dispose()
			return fmt.Errorf("gbuffer %s attachment: %w: %v", c, ErrIncomplete, err)
		}
		g.textures[c] = t
	}

	for pass := 0; pass < PassCount; pass++ {
		var color []gpu.Handle
		for c := Channel(0); c < ChannelCount; c++ {
			if channelSpecs[c].pass == pass {
				color = append(color, g.textures[c])
			}
		}
		fb, err := g.device.CreateFramebuffer(gpu.FramebufferDesc{Color: color, DepthStencil: g.depth})
		if err != nil {
			g.Dispose()
			return fmt.Errorf("gbuffer pass %d: %w: %v", pass, ErrIncomplete, err)
		}
		g.framebuffers[pass] = fb
	}

	g.pass = 0
	g.ready = true
	return nil
}

func (g *gbuffer) Dispose() {
	for i, fb := range g.framebuffers {
		if fb != 0 {
			g.device.DeleteFramebuffer(fb)
			g.framebuffers[i] = 0
		}
	}
	for i, t := range g.textures {
		if t != 0 {
			g.device.DeleteTexture(t)
			g.textures[i] = 0
		}
	}
	if g.depth != 0 {
		g.device.DeleteRenderbuffer(g.depth)
		g.depth = 0
	}
	g.ready = false
}

func (g *gbuffer) Ready() bool {
	return g.ready
}

func (g *gbuffer) BeginPass() {
	g.pass = 0
}

func (g *gbuffer) NextPass() bool {
	g.pass++
	return g.pass < PassCount
}

func (g *gbuffer) Pass() int {
	return g.pass
}

func (g *gbuffer) current() gpu.Handle {
	if g.pass < 0 || g.pass >= PassCount {
		return 0
	}
	return g.framebuffers[g.pass]
}

func (g *gbuffer) NewFrame() {
	g.device.BindFramebuffer(gpu.FramebufferTargetBoth, g.current())
	g.device.Clear(gpu.BufferColor | gpu.BufferDepth | gpu.BufferStencil)
}

func (g *gbuffer) BindForWriting() {
	g.device.BindFramebuffer(gpu.FramebufferTargetDraw, g.current())
}

func (g *gbuffer) BindForReading() {
	g.device.BindFramebuffer(gpu.FramebufferTargetRead, g.current())
}

func (g *gbuffer) SetReadBuffer(c Channel) {
	if c < 0 || c >= ChannelCount {
		common.Assert(false, "gbuffer channel out of range")
		return
	}
	g.device.BindFramebuffer(gpu.FramebufferTargetRead, g.framebuffers[c.Pass()])
	g.device.ReadBuffer(c.attachment())
}

func (g *gbuffer) ReleaseBind() {
	g.device.BindFramebuffer(gpu.FramebufferTargetBoth, 0)
}

func (g *gbuffer) CopyDepthBuffer(target gpu.Handle) {
	g.device.BindFramebuffer(gpu.FramebufferTargetRead, g.framebuffers[0])
	g.device.BindFramebuffer(gpu.FramebufferTargetDraw, target)
	g.device.BlitFramebuffer(g.rect, g.rect, gpu.BufferDepth|gpu.BufferStencil, gpu.FilterNearest)
	g.device.BindFramebuffer(gpu.FramebufferTargetBoth, target)
}

func (g *gbuffer) ActivateTextures(program shader.Program) {
	for c := Channel(0); c < ChannelCount; c++ {
		g.device.BindTexture(int(c), g.textures[c])
		program.SetInt(SamplerPrefix+c.String(), int32(c))
	}
}

func (g *gbuffer) AdjustViewport() {
	g.device.Viewport(g.rect)
}

func (g *gbuffer) Width() int {
	return g.rect.Width
}

func (g *gbuffer) Height() int {
	return g.rect.Height
}
