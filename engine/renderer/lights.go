package renderer

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"go.uber.org/zap"
)

func (e *graphicEngine) AddLight(l light.Light) {
	if l == nil {
		return
	}
	t := l.Type()
	var n int
	for _, existing := range e.lights {
		if existing.Type() == t {
			n++
		}
	}
	if n >= light.Max(t) {
		common.Log().Warn("too many lights, dropping light",
			zap.Stringer("type", t), zap.Int("max", light.Max(t)))
		return
	}
	e.lights = append(e.lights, l)
	e.lightsDirty = true
	e.lightsGen++
}

func (e *graphicEngine) RemoveLights() {
	e.lights = e.lights[:0]
	e.lightsDirty = true
	e.lightsGen++
}

func (e *graphicEngine) InvalidateLights() {
	e.lightsDirty = true
}

func (e *graphicEngine) LightsGeneration() uint64 {
	return e.lightsGen
}

func (e *graphicEngine) ActivateLightsIfNecessary() {
	if !e.lightsDirty || !e.programReady() {
		return
	}
	e.activateLights()
	e.lightsDirty = false
}

// activateLights uploads every enabled light into the per-type arrays of the main program, then
// the per-type counts.
func (e *graphicEngine) activateLights() {
	e.program.Use()

	var counts [light.LightTypeCount]int32
	for _, l := range e.lights {
		t := l.Type()
		if !l.Enabled() || t < 0 || t >= light.LightTypeCount {
			continue
		}
		i := int(counts[t])
		e.program.SetVec3(light.UniformName(t, i, light.ColorField), l.Radiance())
		if t == light.LightTypeSpecular {
			e.program.SetVec3(light.UniformName(t, i, light.PositionField), l.Position())
		}
		counts[t]++
	}

	for t := light.LightType(0); t < light.LightTypeCount; t++ {
		e.program.SetInt(light.CountUniform(t), counts[t])
	}
}
