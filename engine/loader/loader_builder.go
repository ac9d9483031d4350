package loader

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/texture"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithTextureOptions is an option builder that sets the decode and upload options applied to every
// texture a model references. Images are not flipped unless WithFlipY(true) is passed.
//
// Parameters:
//   - opts: the texture options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture options to a loader
func WithTextureOptions(opts ...texture.TextureBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.textureOpts = append(l.textureOpts, opts...)
	}
}

// WithModels is an option builder that pre-populates the model cache.
//
// Parameters:
//   - key: the cache key for the models
//   - models: the models to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the models option to a loader
func WithModels(key string, models ...model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = models
	}
}
