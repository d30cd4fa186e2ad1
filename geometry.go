package canopy

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is indexed triangle geometry in model space.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint16
}

// NumTriangles returns the number of complete triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Validate checks that indices are in range and normals, if present, match
// the positions one to one.
func (m *Mesh) Validate() error {
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: mesh has %d normals for %d positions", ErrBadConfig, len(m.Normals), len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: mesh index count %d is not a multiple of 3", ErrBadConfig, len(m.Indices))
	}
	for _, i := range m.Indices {
		if int(i) >= len(m.Positions) {
			return fmt.Errorf("%w: mesh index %d out of range", ErrBadConfig, i)
		}
	}
	return nil
}

// Geometry is a drawable leaf. Mesh, when set, is drawn directly; otherwise
// the mesh is built from the named Primitive.
type Geometry struct {
	Primitive string
	Mesh      *Mesh
}

// NewGeometry creates a leaf drawing the named primitive.
func NewGeometry(id, primitive string) *Node {
	return NewNode(id, &Geometry{Primitive: primitive})
}

// NewMeshGeometry creates a leaf drawing m.
func NewMeshGeometry(id string, m *Mesh) *Node {
	return NewNode(id, &Geometry{Mesh: m})
}

// PrimitiveFunc builds the mesh of a named primitive.
type PrimitiveFunc func() *Mesh

// builtinPrimitives returns the primitives every engine starts with.
func builtinPrimitives() map[string]PrimitiveFunc {
	return map[string]PrimitiveFunc{
		"cube":   CubeMesh,
		"sphere": func() *Mesh { return SphereMesh(24, 16) },
		"plane":  PlaneMesh,
		// The classic teapot is not bundled; a sphere stands in for it.
		"teapot": func() *Mesh { return SphereMesh(24, 16) },
	}
}

// CubeMesh returns a unit cube spanning -1..1 with per-face normals.
func CubeMesh() *Mesh {
	faces := [6]struct {
		n    mgl32.Vec3
		u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	m := &Mesh{}
	for _, f := range faces {
		base := uint16(len(m.Positions))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.n.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.n)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// PlaneMesh returns a 2x2 quad in the XY plane facing +Z.
func PlaneMesh() *Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return &Mesh{
		Positions: []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		Normals:   []mgl32.Vec3{n, n, n, n},
		Indices:   []uint16{0, 1, 2, 0, 2, 3},
	}
}

// SphereMesh returns a unit UV sphere. slices and stacks are clamped to at
// least 3 and 2.
func SphereMesh(slices, stacks int) *Mesh {
	slices = max(slices, 3)
	stacks = max(stacks, 2)
	m := &Mesh{}
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		sp, cp := math.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			st, ct := math.Sincos(theta)
			p := mgl32.Vec3{float32(sp * ct), float32(cp), float32(sp * st)}
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, p)
		}
	}
	row := uint16(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint16(i)*row + uint16(j)
			b := a + row
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}
