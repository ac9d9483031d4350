package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumIntersectsSphere(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul4(view))

	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{name: "in front", center: mgl32.Vec3{0, 0, -10}, radius: 1, want: true},
		{name: "behind camera", center: mgl32.Vec3{0, 0, 10}, radius: 1, want: false},
		{name: "beyond far plane", center: mgl32.Vec3{0, 0, -200}, radius: 1, want: false},
		{name: "far left", center: mgl32.Vec3{-50, 0, -10}, radius: 1, want: false},
		{name: "straddles left plane", center: mgl32.Vec3{-10.5, 0, -10}, radius: 2, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsSphere(tt.center, tt.radius))
		})
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := FrustumFromMatrix(mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 1, 50))
	for i, p := range f.Planes {
		assert.InDelta(t, 1.0, p.Normal.Len(), 1e-5, "plane %d", i)
	}
}
