package gpu

// quadVertices is a fullscreen triangle strip: position (xyz) followed by texture coordinates (uv).
var quadVertices = []float32{
	-1, 1, 0, 0, 1,
	-1, -1, 0, 0, 0,
	1, 1, 0, 1, 1,
	1, -1, 0, 1, 0,
}

// NewQuad uploads the fullscreen quad used by the light pass and the effects composite.
// Attribute 0 is the position, attribute 1 the texture coordinate.
//
// Parameters:
//   - d: the device to upload with
//
// Returns:
//   - Mesh: the quad mesh
//   - error: an error if the upload fails
func NewQuad(d Device) (Mesh, error) {
	return d.CreateMesh(MeshDesc{
		Vertices: quadVertices,
		Attributes: []VertexAttribute{
			{Location: 0, Size: 3},
			{Location: 1, Size: 2},
		},
		Primitive: PrimitiveTriangleStrip,
	})
}
