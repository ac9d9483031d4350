package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags the variant of a game object. The graphic engine dispatches draws through a render
// registered per Kind.
type Kind int

const (
	KindStatic Kind = iota
	KindEntity
	KindSprite
	KindParticles
	KindSky
	KindCustom
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindEntity:
		return "entity"
	case KindSprite:
		return "sprite"
	case KindParticles:
		return "particles"
	case KindSky:
		return "sky"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// deferrable reports whether objects of kind k take part in the geometry pass by default.
// Sprites, particles and skies are blended or depth-less, so they render forward.
func (k Kind) deferrable() bool {
	switch k {
	case KindSprite, KindParticles, KindSky:
		return false
	default:
		return true
	}
}

// Drawer is implemented by objects that draw themselves instead of going through a render.
type Drawer interface {
	Draw()
}

// DrawerFunc adapts a plain function to a Drawer.
type DrawerFunc func()

// Draw calls f.
func (f DrawerFunc) Draw() {
	f()
}

type gameObject struct {
	mu sync.RWMutex

	id            uint64
	kind          Kind
	enabled       atomic.Bool
	deferred      bool
	mdl           model.Model
	drawer        Drawer
	attachedLight light.Light

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
}

// GameObject defines the interface for a drawable scene entity. The transform is read by the
// render thread and may be written by the tick goroutine, so accessors are synchronized.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Kind returns the variant tag used for render dispatch.
	//
	// Returns:
	//   - Kind: the object kind
	Kind() Kind

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Drawer returns the custom draw hook, or nil.
	Drawer() Drawer

	// CanDeferredRendering reports whether the object is drawn in the geometry pass. Objects
	// returning false are drawn in the forward sub-pass after lighting.
	//
	// Returns:
	//   - bool: true if the object writes to the G-buffer
	CanDeferredRendering() bool

	// Position returns the world-space translation.
	Position() mgl32.Vec3

	// Rotation returns the orientation.
	Rotation() mgl32.Quat

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// Transform returns the model matrix, translation * rotation * scaling.
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix
	Transform() mgl32.Mat4

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetModel assigns a Model to this object.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// SetDeferredRendering overrides the kind's default deferred capability.
	//
	// Parameters:
	//   - deferred: true to draw in the geometry pass
	SetDeferredRendering(deferred bool)

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the orientation.
	//
	// Parameters:
	//   - q: the new orientation
	SetRotation(q mgl32.Quat)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. When the object is added to a
	// scene, the scene syncs the light's position from the object's position
	// each frame. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject of the given kind configured with the given options.
//
// Parameters:
//   - kind: the variant tag
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(kind Kind, options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		kind:     kind,
		deferred: kind.deferrable(),
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Kind() Kind {
	return g.kind
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mdl
}

func (g *gameObject) Drawer() Drawer {
	return g.drawer
}

func (g *gameObject) CanDeferredRendering() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.deferred
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) Rotation() mgl32.Quat {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) Transform() mgl32.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t := mgl32.Translate3D(g.position[0], g.position[1], g.position[2])
	s := mgl32.Scale3D(g.scale[0], g.scale[1], g.scale[2])
	return t.Mul4(g.rotation.Mat4()).Mul4(s)
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mdl = m
}

func (g *gameObject) SetDeferredRendering(deferred bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deferred = deferred
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = mgl32.Vec3{x, y, z}
}

func (g *gameObject) SetRotation(q mgl32.Quat) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = q.Normalize()
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = mgl32.Vec3{sx, sy, sz}
}

func (g *gameObject) Light() light.Light {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachedLight = l
}
