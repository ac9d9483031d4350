package loader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser      gltfParser
	device      gpu.Device
	textureOpts []texture.TextureBuilderOption

	// uploaded caches textures by glTF texture index so shared images upload once.
	uploaded map[int]gpu.Handle
}

// gltfMaterialExtractor converts metallic-roughness materials into the classic Ka/Kd/Ks
// constants and uploads the referenced images.
type gltfMaterialExtractor interface {
	// Extract builds the material at index. A nil index yields the default material.
	//
	// Parameters:
	//   - index: the glTF material index or nil
	//
	// Returns:
	//   - material.Material: the converted material
	//   - error: error if a texture cannot be read, decoded or uploaded
	Extract(index *int) (material.Material, error)

	// Textures returns every texture uploaded so far.
	Textures() []gpu.Handle
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser, device gpu.Device, opts []texture.TextureBuilderOption) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{
		parser:      parser,
		device:      device,
		textureOpts: opts,
		uploaded:    make(map[int]gpu.Handle),
	}
}

func (e *gltfMaterialExtractorImpl) Extract(index *int) (material.Material, error) {
	if index == nil {
		return material.NewMaterial(), nil
	}

	doc := e.parser.Document()
	if *index < 0 || *index >= len(doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range", *index)
	}
	mat := &doc.Materials[*index]

	baseColor := mgl32.Vec3{1, 1, 1}
	metallic, roughness := float32(1), float32(1)
	options := []material.MaterialBuilderOption{material.WithName(mat.Name)}

	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			baseColor = mgl32.Vec3{f[0], f[1], f[2]}
		}
		if pbr.MetallicFactor != nil {
			metallic = mgl32.Clamp(*pbr.MetallicFactor, 0, 1)
		}
		if pbr.RoughnessFactor != nil {
			roughness = mgl32.Clamp(*pbr.RoughnessFactor, 0, 1)
		}
		if pbr.BaseColorTexture != nil {
			t, err := e.loadTexture(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("material %q: base color texture: %w", mat.Name, err)
			}
			options = append(options, material.WithTexture(material.TextureDiffuse, t))
		}
	}

	if mat.NormalTexture != nil {
		t, err := e.loadTexture(mat.NormalTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("material %q: normal texture: %w", mat.Name, err)
		}
		options = append(options, material.WithTexture(material.TextureNormalMap, t))
	}
	if mat.OcclusionTexture != nil {
		t, err := e.loadTexture(mat.OcclusionTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("material %q: occlusion texture: %w", mat.Name, err)
		}
		options = append(options, material.WithTexture(material.TextureAmbient, t))
	}

	ka, kd, ks, shininess := phongFromPBR(baseColor, metallic, roughness)
	options = append(options,
		material.WithKa(ka),
		material.WithKd(kd),
		material.WithKs(ks),
		material.WithShininess(shininess),
	)
	return material.NewMaterial(options...), nil
}

// phongFromPBR approximates metallic-roughness parameters with Phong constants. Metals tint the
// highlight with the base color and lose their diffuse term; rough surfaces get a wide, dim lobe.
func phongFromPBR(baseColor mgl32.Vec3, metallic, roughness float32) (ka, kd, ks mgl32.Vec3, shininess float32) {
	dielectric := mgl32.Vec3{0.04, 0.04, 0.04}
	kd = baseColor.Mul(1 - metallic)
	ks = dielectric.Mul(1 - metallic).Add(baseColor.Mul(metallic))
	ks = ks.Mul(1 - roughness*0.5)
	ka = baseColor.Mul(0.1)

	smooth := 1 - roughness
	shininess = 2 + smooth*smooth*254
	return ka, kd, ks, shininess
}

func (e *gltfMaterialExtractorImpl) Textures() []gpu.Handle {
	out := make([]gpu.Handle, 0, len(e.uploaded))
	for _, t := range e.uploaded {
		out = append(out, t)
	}
	return out
}

// loadTexture resolves a glTF texture index to an uploaded texture. Images may live in a buffer
// view (GLB), in a data URI, or in a file next to the model.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (gpu.Handle, error) {
	if t, ok := e.uploaded[textureIndex]; ok {
		return t, nil
	}

	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return 0, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	tex := &doc.Textures[textureIndex]
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return 0, fmt.Errorf("texture %d has no valid image source", textureIndex)
	}
	img := &doc.Images[*tex.Source]

	var data []byte
	var err error
	switch {
	case img.BufferView != nil:
		data, err = e.parser.ReadBufferView(*img.BufferView)
	case img.URI != "":
		data, err = e.parser.ReadURI(img.URI)
	default:
		err = fmt.Errorf("image %d has neither bufferView nor uri", *tex.Source)
	}
	if err != nil {
		return 0, err
	}

	opts := e.textureOpts
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		opts = append(opts[:len(opts):len(opts)], texture.WithFilter(samplerFilter(&doc.Samplers[*tex.Sampler])))
	}

	staged, format, err := texture.Decode(data, opts...)
	if err != nil {
		return 0, fmt.Errorf("image %d (%s): %w", *tex.Source, strings.TrimSpace(img.Name+" "+img.MimeType), err)
	}
	t, err := texture.Upload(e.device, staged, opts...)
	if err != nil {
		return 0, fmt.Errorf("image %d (%s): %w", *tex.Source, format, err)
	}
	e.uploaded[textureIndex] = t
	return t, nil
}

// samplerFilter maps the glTF magnification filter onto the device filter. Unspecified filters
// sample linearly.
func samplerFilter(s *gltfSampler) gpu.Filter {
	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		return gpu.FilterNearest
	}
	return gpu.FilterLinear
}
