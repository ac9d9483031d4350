package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"go.uber.org/zap"
)

func (e *graphicEngine) HandleMessage(m message.Message) bool {
	switch m.Type {
	case message.MessageWindowSizeChanged:
		e.resize(m.Rect)
		return true
	default:
		return false
	}
}

// resize adopts a new client rect: viewport, camera aspect and both framebuffers. A G-buffer that
// cannot be allocated switches the engine to forward rendering; the next successful allocation
// switches it back.
func (e *graphicEngine) resize(rect common.Rect) {
	e.rect = rect
	e.device.Viewport(rect)

	if e.cam != nil && !rect.Empty() {
		e.cam.SetAspect(float32(rect.Width) / float32(rect.Height))
		e.Update(UpdateProjectionMatrix)
	}

	if e.states.RenderMode() == states.RenderModeDeferred || e.degraded {
		if err := e.RefreshGBuffer(); err != nil {
			e.degrade(err)
		} else if e.degraded && e.gbuffer.Ready() {
			e.degraded = false
			e.states.SetRenderMode(states.RenderModeDeferred)
			common.Log().Info("gbuffer restored, deferred rendering resumed")
		}
	}

	if err := e.RefreshFramebuffer(); err != nil {
		common.Log().Error("failed to refresh effects framebuffer", zap.Error(err))
	}
}

func (e *graphicEngine) degrade(err error) {
	common.Log().Error("failed to refresh gbuffer, falling back to forward rendering", zap.Error(err))
	e.degraded = true
	e.states.SetRenderMode(states.RenderModeForward)
}

func (e *graphicEngine) RefreshGBuffer() error {
	if e.rect.Empty() {
		return nil
	}
	e.gbuffer.Dispose()
	if err := e.gbuffer.Init(e.rect); err != nil {
		return fmt.Errorf("gbuffer %dx%d: %w", e.rect.Width, e.rect.Height, err)
	}
	return nil
}

func (e *graphicEngine) RefreshFramebuffer() error {
	if e.rect.Empty() {
		return nil
	}
	e.effects.Dispose()
	if err := e.effects.Init(e.rect); err != nil {
		return fmt.Errorf("effects framebuffer %dx%d: %w", e.rect.Width, e.rect.Height, err)
	}
	return nil
}
