package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// StandardAttributes is the interleaved layout shared by the built-in renders:
// position (location 0), normal (location 1), texture coordinate (location 2).
var StandardAttributes = []gpu.VertexAttribute{
	{Location: 0, Size: 3},
	{Location: 1, Size: 3},
	{Location: 2, Size: 2},
}

// model is the implementation of the Model interface.
type model struct {
	name           string
	mesh           gpu.Mesh
	mat            material.Material
	boundingRadius float32
}

// Model defines the interface for a drawable mesh and the material it is shaded with.
// A Model is GPU-ready: its mesh has been uploaded through a gpu.Device.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Mesh retrieves the uploaded vertex array.
	//
	// Returns:
	//   - gpu.Mesh: the mesh, zero if none was uploaded
	Mesh() gpu.Mesh

	// SetMesh replaces the mesh. The previous mesh is not released.
	//
	// Parameters:
	//   - m: the new mesh
	SetMesh(m gpu.Mesh)

	// Material retrieves the material, never nil.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// SetMaterial replaces the material. nil restores the default material.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// BoundingRadius returns the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Release deletes the mesh from the device.
	//
	// Parameters:
	//   - device: the device that owns the mesh
	Release(device gpu.Device)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.mat == nil {
		m.mat = material.NewMaterial()
	}
	return m
}

// Upload creates a Model from interleaved vertex data. When desc has no attributes,
// StandardAttributes is used. The bounding radius is computed from the first three floats of
// each vertex.
//
// Parameters:
//   - device: the device to upload with
//   - desc: the vertex data
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the uploaded model
//   - error: an error if the upload fails
func Upload(device gpu.Device, desc gpu.MeshDesc, options ...ModelBuilderOption) (Model, error) {
	if len(desc.Attributes) == 0 {
		desc.Attributes = StandardAttributes
	}
	mesh, err := device.CreateMesh(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to upload model mesh: %w", err)
	}

	m := NewModel(options...).(*model)
	m.mesh = mesh
	m.boundingRadius = boundingRadius(desc)
	return m, nil
}

func boundingRadius(desc gpu.MeshDesc) float32 {
	var stride int
	for _, a := range desc.Attributes {
		stride += int(a.Size)
	}
	if stride < 3 {
		return 0
	}

	var r float32
	for i := 0; i+3 <= len(desc.Vertices); i += stride {
		v := mgl32.Vec3{desc.Vertices[i], desc.Vertices[i+1], desc.Vertices[i+2]}
		if l := v.Len(); l > r {
			r = l
		}
	}
	return r
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Mesh() gpu.Mesh {
	return m.mesh
}

func (m *model) SetMesh(mesh gpu.Mesh) {
	m.mesh = mesh
}

func (m *model) Material() material.Material {
	return m.mat
}

func (m *model) SetMaterial(mat material.Material) {
	if mat == nil {
		mat = material.NewMaterial()
	}
	m.mat = mat
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Release(device gpu.Device) {
	if m.mesh.VertexArray == 0 {
		return
	}
	device.DeleteMesh(m.mesh)
	m.mesh = gpu.Mesh{}
}
