package texture

import "github.com/Carmen-Shannon/oxy-gl/engine/gpu"

// TextureBuilderOption is a functional option for decoding and uploading a texture.
type TextureBuilderOption func(*options)

// WithFlipY sets whether rows are stored bottom-up, the OpenGL texture origin.
//
// Parameters:
//   - flip: true (default) to flip the image vertically
//
// Returns:
//   - TextureBuilderOption: option function to apply
func WithFlipY(flip bool) TextureBuilderOption {
	return func(o *options) {
		o.flipY = flip
	}
}

// WithMaxSize scales images down with a Catmull-Rom filter so neither side exceeds size.
//
// Parameters:
//   - size: the largest side in pixels, zero to keep the original size
//
// Returns:
//   - TextureBuilderOption: option function to apply
func WithMaxSize(size int) TextureBuilderOption {
	return func(o *options) {
		o.maxSize = size
	}
}

// WithFilter sets the sampling filter of the uploaded texture.
//
// Parameters:
//   - filter: gpu.FilterLinear (default) or gpu.FilterNearest
//
// Returns:
//   - TextureBuilderOption: option function to apply
func WithFilter(filter gpu.Filter) TextureBuilderOption {
	return func(o *options) {
		o.filter = filter
	}
}
