package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBuffer holds three positions in the XY plane followed by three uint16 indices padded to
// four bytes.
func triangleBuffer() []byte {
	var buf bytes.Buffer
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	_ = binary.Write(&buf, binary.LittleEndian, positions)
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 2, 0})
	return buf.Bytes()
}

// triangleDoc describes one indexed triangle whose buffer lives at uri. extra is merged into the
// top level object.
func triangleDoc(t *testing.T, uri string, extra map[string]any) []byte {
	t.Helper()
	buffer := map[string]any{"byteLength": 44}
	if uri != "" {
		buffer["uri"] = uri
	}
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"meshes": []any{map[string]any{"name": "tri", "primitives": []any{map[string]any{"attributes": map[string]int{"POSITION": 0}, "indices": 1}}}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentTypeFloat, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentTypeUnsignedShort, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 6},
		},
		"buffers": []any{buffer},
	}
	for k, v := range extra {
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func dataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// openModels writes files under the models category of a directory package.
func openModels(t *testing.T, files map[string][]byte) pack.Package {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, "models", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, body, 0o644))
	}
	pkg, err := pack.Open(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkg.Close() })
	return pkg
}

func texturedMaterial() map[string]any {
	return map[string]any{
		"materials": []any{map[string]any{
			"name": "painted",
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor":  []float32{0.5, 0.25, 1, 1},
				"metallicFactor":   0,
				"roughnessFactor":  1,
				"baseColorTexture": map[string]any{"index": 0},
			},
		}},
		"textures": []any{map[string]any{"source": 0, "sampler": 0}},
		"images":   []any{map[string]any{"uri": "paint%20red.png"}},
		"samplers": []any{map[string]any{"magFilter": gltfFilterNearest}},
	}
}

func TestLoadGLTF(t *testing.T) {
	extra := texturedMaterial()
	extra["meshes"] = []any{map[string]any{"name": "tri", "primitives": []any{map[string]any{
		"attributes": map[string]int{"POSITION": 0}, "indices": 1, "material": 0,
	}}}}
	pkg := openModels(t, map[string][]byte{
		"props/tri.gltf":      triangleDoc(t, "tri.bin", extra),
		"props/tri.bin":       triangleBuffer(),
		"props/paint red.png": pngBytes(t),
	})
	rec := gputest.NewRecorder()
	l := NewLoader(pkg, rec)

	models, err := l.Load("props/tri.gltf")
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "tri", m.Name())
	assert.Equal(t, int32(3), m.Mesh().Count)
	assert.InDelta(t, 1.0, m.BoundingRadius(), 1e-6)

	mat := m.Material()
	assert.Equal(t, "painted", mat.Name())
	assert.Equal(t, mgl32.Vec3{0.5, 0.25, 1}, mat.Kd())
	assert.NotZero(t, mat.Texture(material.TextureDiffuse))
	assert.Zero(t, mat.Texture(material.TextureNormalMap))

	textures := rec.CallsNamed("CreateTexture")
	require.Len(t, textures, 1)
	desc := textures[0].Args[0].(gpu.TextureDesc)
	assert.Equal(t, gpu.FilterNearest, desc.Filter)
	assert.Equal(t, 2, desc.Width)

	again, err := l.Load("props/tri.gltf")
	require.NoError(t, err)
	assert.Same(t, m, again[0])
	assert.Equal(t, 1, rec.Count("CreateMesh"))
	assert.Contains(t, l.Models(), "props/tri.gltf")
}

func TestLoadBytesGLB(t *testing.T) {
	jsonChunk := triangleDoc(t, "", nil)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	bin := triangleBuffer()

	var glb bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(bin)
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON})
	glb.Write(jsonChunk)
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	glb.Write(bin)

	rec := gputest.NewRecorder()
	l := NewLoader(openModels(t, nil), rec)

	models, err := l.LoadBytes("mem/tri.glb", glb.Bytes())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, int32(3), models[0].Mesh().Count)
	assert.Equal(t, material.NewMaterial().Kd(), models[0].Material().Kd())
	assert.Equal(t, 0, rec.Live("texture"))
}

func TestLoadErrors(t *testing.T) {
	missingImage := texturedMaterial()
	missingImage["meshes"] = []any{map[string]any{"name": "tri", "primitives": []any{
		map[string]any{"attributes": map[string]int{"POSITION": 0}, "indices": 1},
		map[string]any{"attributes": map[string]int{"POSITION": 0}, "indices": 1, "material": 0},
	}}}

	pkg := openModels(t, map[string][]byte{
		"bad/version.gltf": []byte(`{"asset":{"version":"1.0"}}`),
		"bad/empty.gltf":   []byte(`{"asset":{"version":"2.0"}}`),
		"bad/json.gltf":    []byte(`{`),
		"bad/nobin.gltf":   triangleDoc(t, "nothere.bin", nil),
		"bad/image.gltf":   triangleDoc(t, dataURI(triangleBuffer()), missingImage),
	})

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{name: "unsupported extension", file: "bad/model.obj", wantErr: ErrUnsupportedFormat},
		{name: "missing file", file: "bad/missing.gltf", wantErr: pack.ErrNotFound},
		{name: "wrong version", file: "bad/version.gltf", wantErr: errInvalidGLTFVersion},
		{name: "no meshes", file: "bad/empty.gltf", wantErr: errNoMeshes},
		{name: "invalid json", file: "bad/json.gltf"},
		{name: "missing buffer", file: "bad/nobin.gltf", wantErr: pack.ErrNotFound},
		{name: "missing image", file: "bad/image.gltf", wantErr: pack.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := gputest.NewRecorder()
			l := NewLoader(pkg, rec)

			models, err := l.Load(tt.file)
			require.Error(t, err)
			assert.Nil(t, models)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Nil(t, l.Get(tt.file))
			assert.Equal(t, 0, rec.Live("mesh"))
			assert.Equal(t, 0, rec.Live("texture"))
		})
	}
}

func TestUnloadAndRelease(t *testing.T) {
	extra := texturedMaterial()
	extra["images"] = []any{map[string]any{"uri": "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))}}
	extra["meshes"] = []any{map[string]any{"name": "tri", "primitives": []any{map[string]any{
		"attributes": map[string]int{"POSITION": 0}, "indices": 1, "material": 0,
	}}}}
	pkg := openModels(t, map[string][]byte{
		"a.gltf": triangleDoc(t, dataURI(triangleBuffer()), extra),
		"b.gltf": triangleDoc(t, dataURI(triangleBuffer()), nil),
	})
	rec := gputest.NewRecorder()
	l := NewLoader(pkg, rec)

	_, err := l.Load("a.gltf")
	require.NoError(t, err)
	_, err = l.Load("b.gltf")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Live("mesh"))
	assert.Equal(t, 1, rec.Live("texture"))

	l.Unload("a.gltf")
	assert.Nil(t, l.Get("a.gltf"))
	assert.Equal(t, 1, rec.Live("mesh"))
	assert.Equal(t, 0, rec.Live("texture"))

	l.Release()
	assert.Empty(t, l.Models())
	assert.Equal(t, 0, rec.Live("mesh"))
}

func TestNodeTransformsAreBaked(t *testing.T) {
	extra := map[string]any{
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes": []any{
			map[string]any{"translation": []float32{10, 0, 0}, "children": []int{1}},
			map[string]any{"mesh": 0, "scale": []float32{2, 2, 2}},
		},
	}
	p := newGLTFParser(openModels(t, nil), "scene.gltf")
	require.NoError(t, p.Parse(triangleDoc(t, dataURI(triangleBuffer()), extra)))

	prims, err := newGLTFMeshExtractor(p).ExtractAll()
	require.NoError(t, err)
	require.Len(t, prims, 1)

	v := prims[0].desc.Vertices
	require.Len(t, v, 3*8)
	// Second vertex (1,0,0) scaled by 2 then moved by 10.
	assert.InDelta(t, 12.0, v[8], 1e-5)
	assert.InDelta(t, 0.0, v[9], 1e-5)
	// Generated normal of a counter-clockwise XY triangle.
	assert.InDelta(t, 1.0, v[8+5], 1e-5)
	assert.Equal(t, []uint32{0, 1, 2}, prims[0].desc.Indices)
}

func TestNodeCycleIsRejected(t *testing.T) {
	extra := map[string]any{
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes":  []any{map[string]any{"mesh": 0, "children": []int{0}}},
	}
	p := newGLTFParser(openModels(t, nil), "cycle.gltf")
	require.NoError(t, p.Parse(triangleDoc(t, dataURI(triangleBuffer()), extra)))

	_, err := newGLTFMeshExtractor(p).ExtractAll()
	assert.Error(t, err)
}

func TestGenerateNormals(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {5, 5, 5}}
	normals := generateNormals(positions, []uint32{0, 1, 2})
	require.Len(t, normals, 4)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, normals[0][:], 1e-6)
	assert.Equal(t, [3]float32{0, 1, 0}, normals[3])

	flat := generateNormals([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, nil)
	assert.InDeltaSlice(t, []float32{0, 0, 1}, flat[2][:], 1e-6)
}

func TestPhongFromPBR(t *testing.T) {
	base := mgl32.Vec3{1, 0.5, 0}

	ka, kd, ks, shininess := phongFromPBR(base, 1, 0)
	assert.Equal(t, mgl32.Vec3{}, kd)
	assert.Equal(t, base, ks)
	assert.Equal(t, base.Mul(0.1), ka)
	assert.InDelta(t, 256.0, shininess, 1e-4)

	_, kd, ks, shininess = phongFromPBR(base, 0, 1)
	assert.Equal(t, base, kd)
	assert.InDeltaSlice(t, []float32{0.02, 0.02, 0.02}, ks[:], 1e-6)
	assert.InDelta(t, 2.0, shininess, 1e-6)
}

func TestDecodeDataURI(t *testing.T) {
	data, mime, err := decodeDataURI("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
	assert.Equal(t, "image/png", mime)

	_, _, err = decodeDataURI("data:text/plain,abc")
	assert.Error(t, err)
	_, _, err = decodeDataURI("data:nocomma")
	assert.ErrorIs(t, err, errInvalidDataURI)
	_, _, err = decodeDataURI("data:;base64,!!!")
	assert.Error(t, err)
}
