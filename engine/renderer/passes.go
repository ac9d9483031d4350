package renderer

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/framebuffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"go.uber.org/zap"
)

func (e *graphicEngine) DrawObjects(objects []game_object.GameObject, mode BufferMode) {
	if len(objects) == 0 {
		return
	}
	if !e.programReady() {
		common.Assert(false, "draw before the main program is loaded")
		return
	}

	if mode == BufferModeNoFramebuffer {
		e.directDraw(objects)
		return
	}

	renderMode := e.states.RenderMode()
	// the forced forward sub-pass of a deferred frame is not a mode change
	if !e.subPass && renderMode != e.renderMode {
		e.renderMode = renderMode
		e.lightsDirty = true
	}

	if renderMode == states.RenderModeDeferred && e.ensureGBuffer() {
		e.drawDeferred(objects, mode)
		return
	}

	e.ActivateLightsIfNecessary()
	e.forwardFrame(objects)
	e.checkError("forward")
}

// forwardFrame renders objects forward inside an effects capture. The capture ends even if a
// custom drawer panics.
func (e *graphicEngine) forwardFrame(objects []game_object.GameObject) {
	fx := e.beginEffects()
	defer fx.end()
	e.forwardRender(objects)
}

// directDraw renders forward into the default framebuffer with the pass machinery bypassed.
func (e *graphicEngine) directDraw(objects []game_object.GameObject) {
	defer e.forceMode(states.RenderModeForward)()
	e.effects.ReleaseBind()
	e.ActivateLightsIfNecessary()
	e.forwardRender(objects)
	e.checkError("direct draw")
}

func (e *graphicEngine) drawDeferred(objects []game_object.GameObject, mode BufferMode) {
	e.groupObjects(objects)
	forward := e.forwardObjects

	e.gbuffer.AdjustViewport()
	e.geometryPass(e.deferredObjects)
	e.shadeDeferred(forward, mode)
	e.viewGBufferFrameBuffer()
	e.checkError("deferred")
}

// shadeDeferred runs the light pass and the forward sub-pass inside one effects capture, which ends
// on every exit path.
func (e *graphicEngine) shadeDeferred(forward []game_object.GameObject, mode BufferMode) {
	fx := e.beginEffects()
	defer fx.end()
	e.lightPass()

	var target gpu.Handle
	if e.effects.HasBegun() {
		target = e.effects.Framebuffer()
	}
	e.gbuffer.CopyDepthBuffer(target)

	if len(forward) > 0 {
		e.drawForwardSubPass(forward, mode)
	}
}

// drawForwardSubPass draws the forward-only objects of a deferred frame on top of the lit image.
// Render mode is Forward for the duration and restored on every exit path.
func (e *graphicEngine) drawForwardSubPass(objects []game_object.GameObject, mode BufferMode) {
	restore := e.forceMode(states.RenderModeForward)
	e.subPass = true
	defer func() {
		e.subPass = false
		restore()
	}()
	e.DrawObjects(objects, mode)
}

// forceMode switches the render mode and returns the function restoring the previous one.
func (e *graphicEngine) forceMode(mode states.RenderMode) func() {
	prev := e.states.RenderMode()
	e.states.SetRenderMode(mode)
	return func() {
		e.states.SetRenderMode(prev)
	}
}

// ensureGBuffer reports whether the G-buffer can serve this frame, allocating it on first use and
// reallocating it when the client rect changed while another mode was active. A failed allocation
// degrades the engine to forward rendering.
func (e *graphicEngine) ensureGBuffer() bool {
	if e.gbuffer.Ready() && (e.rect.Empty() || e.gbufferFits()) {
		return true
	}
	if e.degraded || e.rect.Empty() {
		return false
	}
	if err := e.RefreshGBuffer(); err != nil {
		e.degrade(err)
		return false
	}
	return e.gbuffer.Ready()
}

func (e *graphicEngine) gbufferFits() bool {
	return e.gbuffer.Width() == e.rect.Width && e.gbuffer.Height() == e.rect.Height
}

// groupObjects partitions objects into the per-frame deferred and forward lists.
func (e *graphicEngine) groupObjects(objects []game_object.GameObject) {
	e.deferredObjects = e.deferredObjects[:0]
	e.forwardObjects = e.forwardObjects[:0]
	for _, obj := range objects {
		if obj.CanDeferredRendering() {
			e.deferredObjects = append(e.deferredObjects, obj)
		} else {
			e.forwardObjects = append(e.forwardObjects, obj)
		}
	}
}

func (e *graphicEngine) forwardRender(objects []game_object.GameObject) {
	e.program.Use()
	e.program.SetInt(ShaderProcUniform, int32(ShaderProcForward))
	for _, obj := range objects {
		e.draw(obj)
	}
}

// geometryPass draws every deferrable object once per G-buffer sub-pass.
func (e *graphicEngine) geometryPass(objects []game_object.GameObject) {
	e.program.Use()
	e.gbuffer.BeginPass()
	for {
		e.gbuffer.NewFrame()
		e.gbuffer.BindForWriting()

		proc := ShaderProcGeometryPass
		if e.gbuffer.Pass() > 0 {
			proc = ShaderProcMaterialPass
		}
		e.program.SetInt(ShaderProcUniform, int32(proc))
		for _, obj := range objects {
			e.draw(obj)
		}

		e.gbuffer.ReleaseBind()
		if !e.gbuffer.NextPass() {
			break
		}
	}
}

// lightPass resolves lighting over a fullscreen quad sampling the G-buffer.
func (e *graphicEngine) lightPass() {
	if e.effects.HasBegun() {
		e.device.BindFramebuffer(gpu.FramebufferTargetBoth, e.effects.Framebuffer())
	}

	e.program.Use()
	e.program.SetInt(ShaderProcUniform, int32(ShaderProcLightPass))
	e.ActivateLightsIfNecessary()
	e.gbuffer.ActivateTextures(e.program)

	e.device.Disable(gpu.CapabilityCullFace)
	e.device.DrawMesh(e.quad)
}

// viewGBufferFrameBuffer blits the channel selected by the debug viewer to the default framebuffer.
func (e *graphicEngine) viewGBufferFrameBuffer() {
	viewer := e.states.DebugViewer()
	if !viewer.Enabled() || !e.gbuffer.Ready() {
		return
	}
	channel := framebuffer.Channel(viewer.Index - 1)
	if channel >= framebuffer.ChannelCount {
		common.Log().Warn("debug viewer index out of range", zap.Int("index", viewer.Index))
		return
	}

	dst := viewer.Rect
	if dst.Empty() {
		dst = e.rect
	}
	src := common.Rect{Width: e.gbuffer.Width(), Height: e.gbuffer.Height()}

	e.device.Disable(gpu.CapabilityDepthTest)
	e.gbuffer.BeginPass()
	e.gbuffer.BindForReading()
	e.gbuffer.SetReadBuffer(channel)
	e.device.BindFramebuffer(gpu.FramebufferTargetDraw, 0)
	e.device.BlitFramebuffer(src, dst, gpu.BufferColor, gpu.FilterLinear)
	e.gbuffer.ReleaseBind()
	e.device.Enable(gpu.CapabilityDepthTest)
}

// draw dispatches one object to the render registered for its kind, falling back to the object's
// own Drawer.
func (e *graphicEngine) draw(obj game_object.GameObject) {
	if !obj.Enabled() {
		return
	}
	if r, ok := e.renders[obj.Kind()]; ok {
		r.Draw(e.program, obj)
		return
	}
	if d := obj.Drawer(); d != nil {
		d.Draw()
		// custom draws may bind their own program
		e.program.Use()
		return
	}
	if !e.missingRender[obj.Kind()] {
		e.missingRender[obj.Kind()] = true
		common.Log().Warn("no render registered for object kind", zap.Stringer("kind", obj.Kind()))
	}
}
