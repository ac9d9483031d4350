package renderer

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
)

// Scope is the release half of a Begin* call. End runs the matching End* exactly once, so
// `defer engine.BeginUseStencil(false).End()` is safe on every exit path.
type Scope struct {
	end  func()
	done bool
}

func newScope(end func()) *Scope {
	return &Scope{end: end}
}

// End releases the scope. Calls after the first do nothing.
func (s *Scope) End() {
	if s == nil || s.done {
		return
	}
	s.done = true
	if s.end != nil {
		s.end()
	}
}

// effectScope captures draws into the effects framebuffer. The outermost scope of a nesting
// chain is the host: it begins the capture and, on end, composites it. Inner scopes only end the
// capture if they find it already stopped.
type effectScope struct {
	e    *graphicEngine
	host bool
}

func (e *graphicEngine) beginEffects() effectScope {
	if !e.effects.Ready() || e.effectsProgram == nil || !e.effectsProgram.Loaded() {
		return effectScope{}
	}
	host := !e.effects.HasBegun()
	if host {
		e.effects.BeginDrawEffects()
	}
	return effectScope{e: e, host: host}
}

func (s effectScope) end() {
	if s.e == nil {
		return
	}
	fx := s.e.effects
	if s.host || !fx.HasBegun() {
		fx.EndDrawEffects()
		fx.Draw(s.e.effectsProgram, s.e.states.Filter(), s.e.quad)
	}
}

func (e *graphicEngine) BeginCreateStencil() *Scope {
	if e.createStencilRef == 0 {
		e.stencilMode = e.states.RenderMode()
		e.states.SetRenderMode(states.RenderModeForward)
		e.device.StencilMask(0xFF)
	}
	e.createStencilRef++
	return newScope(e.EndCreateStencil)
}

func (e *graphicEngine) EndCreateStencil() {
	if e.createStencilRef == 0 {
		common.Assert(false, "EndCreateStencil without BeginCreateStencil")
		return
	}
	e.createStencilRef--
	if e.createStencilRef == 0 {
		e.device.StencilMask(0x00)
		e.states.SetRenderMode(e.stencilMode)
	}
}

func (e *graphicEngine) BeginUseStencil(inverse bool) *Scope {
	if e.useStencilRef == 0 {
		f := gpu.CompareEqual
		if inverse {
			f = gpu.CompareNotEqual
		}
		e.device.StencilFunc(f, 1, 0xFF)
	}
	e.useStencilRef++
	return newScope(e.EndUseStencil)
}

func (e *graphicEngine) EndUseStencil() {
	if e.useStencilRef == 0 {
		common.Assert(false, "EndUseStencil without BeginUseStencil")
		return
	}
	e.useStencilRef--
	if e.useStencilRef == 0 {
		e.device.StencilFunc(gpu.CompareAlways, 1, 0xFF)
	}
}

func (e *graphicEngine) ClearStencil() {
	mask := e.device.StencilWriteMask()
	e.device.StencilMask(0xFF)
	e.device.Clear(gpu.BufferStencil)
	e.device.StencilMask(mask)
}

func (e *graphicEngine) BeginBlend(src, dst gpu.BlendFactor) *Scope {
	if e.blending {
		common.Assert(false, "blend scope is not reentrant")
		return newScope(nil)
	}
	e.blending = true
	e.blendMode = e.states.RenderMode()
	e.states.SetRenderMode(states.RenderModeForward)
	e.device.Enable(gpu.CapabilityBlend)
	e.device.BlendFunc(src, dst)
	return newScope(e.EndBlend)
}

func (e *graphicEngine) EndBlend() {
	if !e.blending {
		common.Assert(false, "EndBlend without BeginBlend")
		return
	}
	e.device.Disable(gpu.CapabilityBlend)
	e.states.SetRenderMode(e.blendMode)
	e.blending = false
}
