package canopy

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func vec3Near(a, b mgl32.Vec3, eps float64) bool {
	for i := range 3 {
		if !approxEqual(float64(a[i]), float64(b[i]), eps) {
			return false
		}
	}
	return true
}

func TestTranslateMatrix(t *testing.T) {
	m, err := (&Translate{X: 1, Y: 2, Z: 3}).Matrix()
	if err != nil {
		t.Fatal(err)
	}
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, 1}, m)
	if !vec3Near(got, mgl32.Vec3{2, 3, 4}, 1e-6) {
		t.Errorf("translated = %v, want (2,3,4)", got)
	}
}

func TestScaleMatrix(t *testing.T) {
	m, err := (&Scale{X: 2, Y: 3, Z: 0}).Matrix()
	if err != nil {
		t.Fatal(err)
	}
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, 1}, m)
	if !vec3Near(got, mgl32.Vec3{2, 3, 0}, 1e-6) {
		t.Errorf("scaled = %v, want (2,3,0)", got)
	}
}

func TestRotateMatrix(t *testing.T) {
	tests := []struct {
		name string
		r    Rotate
		in   mgl32.Vec3
		want mgl32.Vec3
	}{
		{"90 about z", Rotate{Angle: 90, Z: 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"90 about y", Rotate{Angle: 90, Y: 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{"unnormalized axis", Rotate{Angle: 180, X: 5}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -1, 0}},
		{"zero angle", Rotate{Angle: 0, Y: 1}, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.r.Matrix()
			if err != nil {
				t.Fatal(err)
			}
			got := mgl32.TransformCoordinate(tt.in, m)
			if !vec3Near(got, tt.want, 1e-5) {
				t.Errorf("rotated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateZeroAxis(t *testing.T) {
	_, err := (&Rotate{Angle: 45}).Matrix()
	if !errors.Is(err, ErrBadConfig) {
		t.Errorf("err = %v, want ErrBadConfig", err)
	}
}

// A rotate inside a translate rotates in the parent's frame first, then
// translates.
func TestComposeModelOrder(t *testing.T) {
	parent, _ := (&Translate{X: 10}).Matrix()
	local, _ := (&Rotate{Angle: 90, Z: 1}).Matrix()
	m := composeModel(parent, local)

	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	if !vec3Near(got, mgl32.Vec3{10, 1, 0}, 1e-5) {
		t.Errorf("point = %v, want (10,1,0)", got)
	}

	want := parent.Mul4(local)
	if !m.ApproxEqual(want) {
		t.Errorf("composeModel = %v, want parent*local %v", m, want)
	}
	if m.ApproxEqual(local.Mul4(parent)) {
		t.Error("composeModel should not equal local*parent")
	}
}
