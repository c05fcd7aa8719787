package models

import (
	"slices"
	"testing"

	"github.com/taigrr/plyview/pkg/math3d"
)

func triangleMesh() *Mesh {
	m := NewMesh("tri")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0), UV: math3d.V2(0, 0)},
		{Position: math3d.V3(2, 0, 0), UV: math3d.V2(1, 0)},
		{Position: math3d.V3(0, 4, -1), UV: math3d.V2(0, 1)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}}}
	m.CalculateBounds()
	return m
}

func TestMeshBounds(t *testing.T) {
	m := triangleMesh()

	if m.BoundsMin != math3d.V3(0, 0, -1) || m.BoundsMax != math3d.V3(2, 4, 0) {
		t.Errorf("bounds = %v..%v", m.BoundsMin, m.BoundsMax)
	}
	if c := m.Center(); c != math3d.V3(1, 2, -0.5) {
		t.Errorf("Center() = %v", c)
	}
	if s := m.Size(); s != math3d.V3(2, 4, 1) {
		t.Errorf("Size() = %v", s)
	}

	empty := NewMesh("empty")
	empty.CalculateBounds()
	if lo, hi := empty.GetBounds(); lo != (math3d.Vec3{}) || hi != (math3d.Vec3{}) {
		t.Errorf("empty bounds = %v..%v", lo, hi)
	}
}

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name    string
		face    [3]int
		wantErr bool
	}{
		{"in range", [3]int{0, 1, 2}, false},
		{"past end", [3]int{0, 1, 3}, true},
		{"negative", [3]int{-1, 1, 2}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := triangleMesh()
			m.Faces[0].V = tc.face
			if err := m.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestMeshFlatten(t *testing.T) {
	m := triangleMesh()

	if got, want := m.Positions(), []float32{0, 0, 0, 2, 0, 0, 0, 4, -1}; !slices.Equal(got, want) {
		t.Errorf("Positions() = %v, want %v", got, want)
	}
	if got, want := m.TexCoords(), []float32{0, 0, 1, 0, 0, 1}; !slices.Equal(got, want) {
		t.Errorf("TexCoords() = %v, want %v", got, want)
	}
	if got, want := m.Indices(), []uint32{0, 1, 2}; !slices.Equal(got, want) {
		t.Errorf("Indices() = %v, want %v", got, want)
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	m := NewMesh("quad")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(1, 1, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}
	m.CalculateSmoothNormals()

	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
}
