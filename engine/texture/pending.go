package texture

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
)

// AsyncSource is a package that reads files on a worker pool.
type AsyncSource interface {
	BeginReadFile(c pack.Category, name string) *pack.AsyncResult
}

// Pending is a texture whose file is being read in the background. The upload itself runs on the
// render thread through Poll.
type Pending struct {
	name   string
	read   *pack.AsyncResult
	opts   []TextureBuilderOption
	handle gpu.Handle
	err    error
	done   bool
}

// Begin starts reading a texture file without blocking.
//
// Parameters:
//   - src: the package to read from
//   - name: the file name inside the texture root
//   - opts: functional options applied when the texture is decoded
//
// Returns:
//   - *Pending: the pending texture
func Begin(src AsyncSource, name string, opts ...TextureBuilderOption) *Pending {
	return &Pending{name: name, read: src.BeginReadFile(pack.CategoryTextures, name), opts: opts}
}

// Poll uploads the texture once its file has been read. Call it from the render thread each frame.
//
// Parameters:
//   - device: the device that owns the texture
//
// Returns:
//   - bool: true once the texture is uploaded or failed; Result then holds the outcome
func (p *Pending) Poll(device gpu.Device) bool {
	if p.done {
		return true
	}
	if !p.read.IsDone() {
		return false
	}
	p.done = true
	data, err := p.read.Wait()
	if err != nil {
		p.err = err
		return true
	}
	p.handle, p.err = decodeAndUpload(p.name, data, device, p.opts)
	return true
}

// Result returns the uploaded texture, zero with a nil error while still pending.
func (p *Pending) Result() (gpu.Handle, error) {
	return p.handle, p.err
}

// Name returns the texture file name.
func (p *Pending) Name() string {
	return p.name
}
