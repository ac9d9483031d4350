package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// errNoMeshes is returned for a document without any mesh to import.
var errNoMeshes = errors.New("document has no meshes")

// gltfPrimitiveData is one triangle list ready for upload in the model.StandardAttributes layout.
type gltfPrimitiveData struct {
	name     string
	desc     gpu.MeshDesc
	material *int
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor flattens the node hierarchy of a parsed document into interleaved vertex data.
type gltfMeshExtractor interface {
	// ExtractAll walks the default scene, baking each node's world transform into the vertices of
	// the meshes it references. Documents without scenes import every mesh untransformed.
	//
	// Returns:
	//   - []gltfPrimitiveData: one entry per mesh primitive instance
	//   - error: error if any accessor cannot be read
	ExtractAll() ([]gltfPrimitiveData, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractAll() ([]gltfPrimitiveData, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if len(doc.Meshes) == 0 {
		return nil, errNoMeshes
	}

	var out []gltfPrimitiveData
	roots := e.rootNodes(doc)
	if len(roots) == 0 {
		for i := range doc.Meshes {
			prims, err := e.extractMesh(i, mgl32.Ident4())
			if err != nil {
				return nil, err
			}
			out = append(out, prims...)
		}
		return out, nil
	}

	visited := make([]bool, len(doc.Nodes))
	var walk func(node int, parent mgl32.Mat4) error
	walk = func(node int, parent mgl32.Mat4) error {
		if node < 0 || node >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", node)
		}
		if visited[node] {
			return fmt.Errorf("node %d is referenced twice", node)
		}
		visited[node] = true

		n := &doc.Nodes[node]
		world := parent.Mul4(nodeTransform(n))
		if n.Mesh != nil {
			prims, err := e.extractMesh(*n.Mesh, world)
			if err != nil {
				return err
			}
			out = append(out, prims...)
		}
		for _, child := range n.Children {
			if err := walk(child, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root, mgl32.Ident4()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rootNodes returns the nodes of the default scene, or of the first scene when none is marked.
func (e *gltfMeshExtractorImpl) rootNodes(doc *gltfDocument) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	scene := 0
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		scene = *doc.Scene
	}
	return doc.Scenes[scene].Nodes
}

// nodeTransform returns the local matrix of n. glTF matrices are column-major like mgl32.
func nodeTransform(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}

	m := mgl32.Ident4()
	if n.Translation != nil {
		t := n.Translation
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if n.Rotation != nil {
		r := n.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if n.Scale != nil {
		s := n.Scale
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

func (e *gltfMeshExtractorImpl) extractMesh(meshIndex int, world mgl32.Mat4) ([]gltfPrimitiveData, error) {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	name := mesh.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	out := make([]gltfPrimitiveData, 0, len(mesh.Primitives))
	for i := range mesh.Primitives {
		prim, err := e.extractPrimitive(&mesh.Primitives[i], world)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, i, err)
		}
		prim.name = name
		if i > 0 {
			prim.name = fmt.Sprintf("%s_prim%d", name, i)
		}
		out = append(out, prim)
	}
	return out, nil
}

func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, world mgl32.Mat4) (gltfPrimitiveData, error) {
	topology, err := primitiveTopology(prim.Mode)
	if err != nil {
		return gltfPrimitiveData{}, err
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return gltfPrimitiveData{}, errors.New("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return gltfPrimitiveData{}, fmt.Errorf("failed to read positions: %w", err)
	}
	vertexCount := len(positions)

	var normals [][3]float32
	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = e.parser.ReadVec3Accessor(normalAccessor); err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("failed to read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if uvAccessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = e.parser.ReadVec2Accessor(uvAccessor); err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("failed to read texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= vertexCount {
				return gltfPrimitiveData{}, fmt.Errorf("index %d out of range for %d vertices", idx, vertexCount)
			}
		}
	}

	if len(normals) != vertexCount && topology == gpu.PrimitiveTriangles {
		normals = generateNormals(positions, indices)
	}

	normalMatrix := world.Mat3().Inv().Transpose()
	stride := 0
	for _, a := range model.StandardAttributes {
		stride += int(a.Size)
	}
	vertices := make([]float32, 0, vertexCount*stride)
	for i, p := range positions {
		wp := world.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		vertices = append(vertices, wp[0], wp[1], wp[2])

		var n mgl32.Vec3
		if i < len(normals) {
			n = normalMatrix.Mul3x1(mgl32.Vec3(normals[i]))
			if n.Len() > 1e-6 {
				n = n.Normalize()
			}
		}
		vertices = append(vertices, n[0], n[1], n[2])

		var uv [2]float32
		if i < len(uvs) {
			uv = uvs[i]
		}
		vertices = append(vertices, uv[0], uv[1])
	}

	return gltfPrimitiveData{
		desc: gpu.MeshDesc{
			Vertices:   vertices,
			Indices:    indices,
			Attributes: model.StandardAttributes,
			Primitive:  topology,
		},
		material: prim.Material,
	}, nil
}

func primitiveTopology(mode *int) (gpu.Primitive, error) {
	if mode == nil {
		return gpu.PrimitiveTriangles, nil
	}
	switch *mode {
	case gltfPrimitiveModeTriangles:
		return gpu.PrimitiveTriangles, nil
	case gltfPrimitiveModeTriangleStrip:
		return gpu.PrimitiveTriangleStrip, nil
	case gltfPrimitiveModeLines:
		return gpu.PrimitiveLines, nil
	case gltfPrimitiveModePoints:
		return gpu.PrimitivePoints, nil
	default:
		return 0, fmt.Errorf("unsupported primitive mode: %d", *mode)
	}
}

// generateNormals computes smooth vertex normals for a triangle list that has none. Face normals
// are accumulated area-weighted onto each corner, then normalized. Vertices touching only
// degenerate triangles point up.
//
// Parameters:
//   - positions: the vertex positions
//   - indices: the triangle indices, nil for a non-indexed list
//
// Returns:
//   - [][3]float32: one normal per position
func generateNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	n := len(positions)
	accum := make([]mgl32.Vec3, n)

	corner := func(i int) uint32 {
		if indices == nil {
			return uint32(i)
		}
		return indices[i]
	}
	count := len(indices)
	if indices == nil {
		count = n
	}

	for i := 0; i+2 < count; i += 3 {
		i0, i1, i2 := corner(i), corner(i+1), corner(i+2)
		p0, p1, p2 := mgl32.Vec3(positions[i0]), mgl32.Vec3(positions[i1]), mgl32.Vec3(positions[i2])
		face := p1.Sub(p0).Cross(p2.Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	normals := make([][3]float32, n)
	for i, a := range accum {
		if a.Len() < 1e-6 {
			normals[i] = [3]float32{0, 1, 0}
			continue
		}
		normals[i] = a.Normalize()
	}
	return normals
}
