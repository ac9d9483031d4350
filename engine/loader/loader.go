// Package loader imports glTF 2.0 models (.gltf and .glb) from the models category of a game
// package into GPU-ready models. Every mesh primitive becomes one model.Model in the standard
// position/normal/uv layout, with its node transform baked in and its metallic-roughness material
// approximated by Phong constants.
package loader

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
	"github.com/Carmen-Shannon/oxy-gl/engine/texture"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for model files that are neither .gltf nor .glb.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Source reads files out of a package category. pack.Package satisfies it.
type Source interface {
	ReadFile(c pack.Category, name string) ([]byte, error)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	src         Source
	device      gpu.Device
	textureOpts []texture.TextureBuilderOption

	modelCache map[string][]model.Model
	textures   map[string][]gpu.Handle
}

// Loader imports and caches models. Loads run on the thread that owns the device.
type Loader interface {
	// Load imports the model file name from the models category. Results are cached by name.
	//
	// Parameters:
	//   - name: the file path inside the models category
	//
	// Returns:
	//   - []model.Model: one model per mesh primitive, in scene order
	//   - error: ErrUnsupportedFormat, a pack error, or a parse or upload failure
	Load(name string) ([]model.Model, error)

	// LoadBytes imports a model from memory. External buffers and images still resolve against
	// the models category, relative to name.
	//
	// Parameters:
	//   - name: the cache key and base path
	//   - data: the glTF JSON or GLB contents
	//
	// Returns:
	//   - []model.Model: one model per mesh primitive
	//   - error: a parse or upload failure
	LoadBytes(name string, data []byte) ([]model.Model, error)

	// Get returns the cached models for name, nil if not loaded.
	Get(name string) []model.Model

	// Models returns a copy of the cache.
	Models() map[string][]model.Model

	// Unload releases the meshes and textures imported for name and drops it from the cache.
	Unload(name string)

	// Release unloads every model.
	Release()
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from src and uploading to device.
//
// Parameters:
//   - src: the package models are read from
//   - device: the device meshes and textures are uploaded to
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(src Source, device gpu.Device, options ...LoaderBuilderOption) Loader {
	l := &loader{
		src:        src,
		device:     device,
		modelCache: make(map[string][]model.Model),
		textures:   make(map[string][]gpu.Handle),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(name string) ([]model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}

	data, err := l.src.ReadFile(pack.CategoryModels, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return l.LoadBytes(name, data)
}

func (l *loader) LoadBytes(name string, data []byte) ([]model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	parser := newGLTFParser(l.src, name)
	if err := parser.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	prims, err := newGLTFMeshExtractor(parser).ExtractAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	// glTF places the first image row at v = 0, which is where GL samples the first uploaded row.
	opts := append([]texture.TextureBuilderOption{texture.WithFlipY(false)}, l.textureOpts...)
	materials := newGLTFMaterialExtractor(parser, l.device, opts)

	models := make([]model.Model, 0, len(prims))
	discard := func() {
		for _, m := range models {
			m.Release(l.device)
		}
		for _, t := range materials.Textures() {
			l.device.DeleteTexture(t)
		}
	}
	fail := func(err error) ([]model.Model, error) {
		discard()
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	for _, prim := range prims {
		mat, err := materials.Extract(prim.material)
		if err != nil {
			return fail(err)
		}
		m, err := model.Upload(l.device, prim.desc, model.WithName(prim.name), model.WithMaterial(mat))
		if err != nil {
			return fail(err)
		}
		models = append(models, m)
	}

	l.mu.Lock()
	cached, raced := l.modelCache[name]
	if !raced {
		l.modelCache[name] = models
		l.textures[name] = materials.Textures()
	}
	l.mu.Unlock()
	if raced {
		// A concurrent load of the same name finished first.
		discard()
		return cached, nil
	}

	common.Log().Debug("model loaded",
		zap.String("name", name),
		zap.Int("primitives", len(models)),
		zap.Int("textures", len(materials.Textures())),
	)
	return models, nil
}

func (l *loader) Get(name string) []model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string][]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Unload(name string) {
	l.mu.Lock()
	models, textures := l.modelCache[name], l.textures[name]
	delete(l.modelCache, name)
	delete(l.textures, name)
	l.mu.Unlock()

	for _, m := range models {
		m.Release(l.device)
	}
	for _, t := range textures {
		l.device.DeleteTexture(t)
	}
}

func (l *loader) Release() {
	for name := range l.Models() {
		l.Unload(name)
	}
}
