// Package texture decodes package images into RGBA staging data and uploads them to the device.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"
)

// ErrEmptyImage is returned when an image decodes to zero pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Source is the part of a game package textures are read from.
type Source interface {
	ReadFile(c pack.Category, name string) ([]byte, error)
}

// options is the decode and upload configuration.
type options struct {
	flipY   bool
	maxSize int
	filter  gpu.Filter
}

func newOptions(opts []TextureBuilderOption) options {
	o := options{flipY: true, filter: gpu.FilterLinear}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode decodes a png, jpeg, gif, bmp, tiff or webp image into RGBA pixels. Rows are flipped so
// the first row is the bottom of the image unless WithFlipY(false) is given.
//
// Parameters:
//   - data: the encoded image
//   - opts: functional options to configure decoding
//
// Returns:
//   - common.TextureStagingData: the RGBA pixels and size
//   - string: the format name reported by the decoder
//   - error: an error if the image cannot be decoded
func Decode(data []byte, opts ...TextureBuilderOption) (common.TextureStagingData, string, error) {
	o := newOptions(opts)

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, "", fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return common.TextureStagingData{}, format, ErrEmptyImage
	}

	w, h := fit(b.Dx(), b.Dy(), o.maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	if o.flipY {
		flipRows(dst.Pix, dst.Stride, h)
	}

	return common.TextureStagingData{Pixels: dst.Pix, Width: w, Height: h}, format, nil
}

// Upload creates an RGBA8 texture from staging data.
//
// Parameters:
//   - device: the device that owns the texture
//   - data: the RGBA pixels
//   - opts: functional options; only WithFilter applies
//
// Returns:
//   - gpu.Handle: the texture
//   - error: an error if the device rejected the texture
func Upload(device gpu.Device, data common.TextureStagingData, opts ...TextureBuilderOption) (gpu.Handle, error) {
	o := newOptions(opts)
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) < data.Width*data.Height*4 {
		return 0, fmt.Errorf("texture %dx%d with %d bytes: %w", data.Width, data.Height, len(data.Pixels), ErrEmptyImage)
	}
	t, err := device.CreateTexture(gpu.TextureDesc{
		Width:  data.Width,
		Height: data.Height,
		Format: gpu.FormatRGBA8,
		Filter: o.filter,
	}, data.Pixels)
	if err != nil {
		return 0, fmt.Errorf("failed to upload texture: %w", err)
	}
	return t, nil
}

// Load reads a texture from the package's texture category, decodes and uploads it.
//
// Parameters:
//   - src: the package to read from
//   - name: the file name inside the texture root
//   - device: the device that owns the texture
//   - opts: functional options to configure decoding and upload
//
// Returns:
//   - gpu.Handle: the texture
//   - error: an error if the file cannot be read, decoded or uploaded
func Load(src Source, name string, device gpu.Device, opts ...TextureBuilderOption) (gpu.Handle, error) {
	data, err := src.ReadFile(pack.CategoryTextures, name)
	if err != nil {
		return 0, err
	}
	return decodeAndUpload(name, data, device, opts)
}

func decodeAndUpload(name string, data []byte, device gpu.Device, opts []TextureBuilderOption) (gpu.Handle, error) {
	staged, format, err := Decode(data, opts...)
	if err != nil {
		return 0, fmt.Errorf("texture %q: %w", name, err)
	}
	t, err := Upload(device, staged, opts...)
	if err != nil {
		return 0, fmt.Errorf("texture %q: %w", name, err)
	}
	common.Log().Debug("texture loaded",
		zap.String("name", name),
		zap.String("format", format),
		zap.Int("width", staged.Width),
		zap.Int("height", staged.Height),
	)
	return t, nil
}

// fit scales w x h down so neither side exceeds limit, keeping the aspect ratio. A limit of zero
// or less disables scaling.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
