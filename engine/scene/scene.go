package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"go.uber.org/zap"
)

// Target is the part of renderer.GraphicEngine a scene renders into.
type Target interface {
	DrawObjects(objects []game_object.GameObject, mode renderer.BufferMode)
	AddLight(l light.Light)
	RemoveLights()
	InvalidateLights()
	LightsGeneration() uint64
	Camera() camera.Camera
	SetCamera(c camera.Camera)
	Update(t renderer.UpdateType)
}

var _ Target = renderer.GraphicEngine(nil)

// Scene holds the game objects and lights of one view or level, with the camera they are seen
// through. Scenes can be hot-swapped via the Active flag. Thread-safe for concurrent access: game
// logic on the tick goroutine may add and move objects while the render thread draws.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of objects in the scene.
	//
	// Returns:
	//   - int: count of registered objects
	Count() int

	// Add registers a GameObject. Objects without an ID are assigned the next free one. A light
	// attached to the object is added to the scene and follows the object's position.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves an object by its ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes an object, and its attached light, by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Objects returns the registered objects ordered by ID.
	Objects() []game_object.GameObject

	// Clear removes all objects and lights. GPU resources are not released.
	Clear()

	// AddLight adds a free-standing light source.
	//
	// Parameters:
	//   - l: the Light to add
	AddLight(l light.Light)

	// RemoveLight removes a light source by reference.
	//
	// Parameters:
	//   - l: the Light to remove
	RemoveLight(l light.Light)

	// Lights returns all lights of the scene, free-standing and attached.
	Lights() []light.Light

	// InvalidateLights marks the lights as changed. Call it after editing the color, intensity or
	// enabled flag of a light that is already in the scene.
	InvalidateLights()

	// CullingDisabled returns whether frustum culling is disabled for this scene.
	CullingDisabled() bool

	// SetCullingDisabled enables or disables frustum culling. Culling skips objects whose
	// bounding sphere lies outside the camera frustum.
	//
	// Parameters:
	//   - disabled: true to draw every enabled object
	SetCullingDisabled(disabled bool)

	// Render submits the scene to target: the camera matrices, the light set when it changed,
	// then every visible object in one DrawObjects call.
	//
	// Parameters:
	//   - target: the graphic engine
	//   - mode: the framebuffer mode of the draw
	//
	// Returns:
	//   - int: the number of objects submitted
	Render(target Target, mode renderer.BufferMode) int
}

type scene struct {
	mu sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	nextID   uint64

	cam camera.Camera

	cullingDisabled bool

	lights       []light.Light
	lightObjects []game_object.GameObject // objects with attached lights
	lightsDirty  bool

	// pushedTo and pushedGen identify the light set last handed to a target.
	pushedTo  Target
	pushedGen uint64

	visible []game_object.GameObject
}

var _ Scene = &scene{}

// NewScene creates an active, empty Scene.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		name:        "scene",
		active:      true,
		registry:    make(map[uint64]game_object.GameObject),
		nextID:      1,
		lightsDirty: true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add registers obj. Caller holds the write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj == nil {
		common.Assert(false, "nil game object added to scene")
		return 0
	}
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	if prev, ok := s.registry[obj.ID()]; ok && prev != obj {
		common.Log().Warn("replacing scene object with duplicate id", zap.Uint64("id", obj.ID()))
		s.detachLight(prev)
	}
	s.registry[obj.ID()] = obj

	if l := obj.Light(); l != nil && !slices.Contains(s.lightObjects, obj) {
		s.lightObjects = append(s.lightObjects, obj)
		s.lightsDirty = true
	}
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.registry[id]
	if !ok {
		return
	}
	delete(s.registry, id)
	s.detachLight(obj)
}

// detachLight stops tracking the attached light of obj. Caller holds the write lock.
func (s *scene) detachLight(obj game_object.GameObject) {
	if i := slices.Index(s.lightObjects, obj); i >= 0 {
		s.lightObjects = slices.Delete(s.lightObjects, i, i+1)
		s.lightsDirty = true
	}
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedObjects(nil)
}

// sortedObjects appends the registered objects to dst in ascending ID order. Caller holds a lock.
func (s *scene) sortedObjects(dst []game_object.GameObject) []game_object.GameObject {
	for _, obj := range s.registry {
		dst = append(dst, obj)
	}
	slices.SortFunc(dst, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
	return dst
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.registry)
	s.lights = nil
	s.lightObjects = nil
	s.lightsDirty = true
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.lights, l) {
		return
	}
	s.lights = append(s.lights, l)
	s.lightsDirty = true
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.lights, l); i >= 0 {
		s.lights = slices.Delete(s.lights, i, i+1)
		s.lightsDirty = true
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLights()
}

// allLights returns the free-standing lights followed by the attached ones. Caller holds a lock.
func (s *scene) allLights() []light.Light {
	out := make([]light.Light, 0, len(s.lights)+len(s.lightObjects))
	out = append(out, s.lights...)
	for _, obj := range s.lightObjects {
		if l := obj.Light(); l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (s *scene) InvalidateLights() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightsDirty = true
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Render(target Target, mode renderer.BufferMode) int {
	s.mu.Lock()
	if s.cam != nil {
		if target.Camera() != s.cam {
			target.SetCamera(s.cam)
		} else {
			target.Update(renderer.UpdateProjectionMatrix)
			target.Update(renderer.UpdateViewMatrix)
		}
	}

	s.syncLights(target)
	visible := s.collectVisible(s.visible[:0])
	s.visible = visible
	s.mu.Unlock()

	// unlocked: custom drawers may call back into the scene
	target.DrawObjects(visible, mode)
	return len(visible)
}

// syncLights moves attached lights to their objects and hands the light set to target when it
// changed or when another owner replaced it. Caller holds the write lock.
func (s *scene) syncLights(target Target) {
	moved := false
	for _, obj := range s.lightObjects {
		l := obj.Light()
		if l == nil {
			continue
		}
		if p := obj.Position(); l.Position() != p {
			l.SetPosition(p[0], p[1], p[2])
			moved = true
		}
	}

	if s.lightsDirty || s.pushedTo != target || s.pushedGen != target.LightsGeneration() {
		target.RemoveLights()
		for _, l := range s.allLights() {
			target.AddLight(l)
		}
		s.pushedTo = target
		s.pushedGen = target.LightsGeneration()
		s.lightsDirty = false
		return
	}
	if moved {
		target.InvalidateLights()
	}
}

// collectVisible appends the enabled objects inside the camera frustum to dst, in ID order.
// Objects without a model, and skies, are never culled. Caller holds a lock.
func (s *scene) collectVisible(dst []game_object.GameObject) []game_object.GameObject {
	all := s.sortedObjects(nil)

	var frustum common.Frustum
	cull := s.cam != nil && !s.cullingDisabled
	if cull {
		frustum = common.FrustumFromMatrix(s.cam.ProjectionMatrix().Mul4(s.cam.ViewMatrix()))
	}

	for _, obj := range all {
		if !obj.Enabled() {
			continue
		}
		if cull && !inFrustum(frustum, obj) {
			continue
		}
		dst = append(dst, obj)
	}
	return dst
}

func inFrustum(f common.Frustum, obj game_object.GameObject) bool {
	m := obj.Model()
	if m == nil || obj.Kind() == game_object.KindSky {
		return true
	}
	radius := m.BoundingRadius()
	if radius <= 0 {
		return true
	}
	scale := obj.Scale()
	radius *= max(scale[0], scale[1], scale[2])
	return f.IntersectsSphere(obj.Position(), radius)
}
