package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// OpticsType selects the projection a Camera builds.
type OpticsType uint8

const (
	OpticsPerspective OpticsType = iota
	OpticsOrtho
	OpticsFrustum
)

func (t OpticsType) String() string {
	switch t {
	case OpticsPerspective:
		return "perspective"
	case OpticsOrtho:
		return "ortho"
	case OpticsFrustum:
		return "frustum"
	default:
		return "unknown"
	}
}

// ParseOpticsType parses "perspective", "ortho" or "frustum".
func ParseOpticsType(s string) (OpticsType, error) {
	switch normalizeName(s) {
	case "", "perspective":
		return OpticsPerspective, nil
	case "ortho", "orthographic":
		return OpticsOrtho, nil
	case "frustum":
		return OpticsFrustum, nil
	}
	return 0, fmt.Errorf("%w: unknown optics type %q", ErrBadConfig, s)
}

// Optics describes a projection.
//
// Perspective uses FovY (degrees), Aspect, Near and Far. An Aspect of zero
// takes the ratio of the bound surface. Ortho and Frustum use the Left,
// Right, Bottom, Top, Near and Far planes.
type Optics struct {
	Type   OpticsType
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	Left, Right float32
	Bottom, Top float32
}

// DefaultOptics is a 60 degree perspective with the surface aspect.
var DefaultOptics = Optics{
	Type: OpticsPerspective,
	FovY: 60,
	Near: 0.1,
	Far:  5000,
}

// Camera replaces the projection transform for its subtree.
type Camera struct {
	Optics Optics
}

// NewCamera creates a projection node.
func NewCamera(id string, optics Optics) *Node {
	return NewNode(id, &Camera{Optics: optics})
}

// Matrix returns the projection matrix. surfaceAspect is used when the
// optics leave Aspect at zero.
func (c *Camera) Matrix(surfaceAspect float32) (mgl32.Mat4, error) {
	o := c.Optics
	switch o.Type {
	case OpticsPerspective:
		if o.Near <= 0 || o.Far <= o.Near {
			return mgl32.Ident4(), fmt.Errorf("%w: perspective needs 0 < near < far (near=%g far=%g)",
				ErrBadConfig, o.Near, o.Far)
		}
		if o.FovY <= 0 || o.FovY >= 180 {
			return mgl32.Ident4(), fmt.Errorf("%w: perspective fovy %g out of range", ErrBadConfig, o.FovY)
		}
		aspect := o.Aspect
		if aspect <= 0 {
			aspect = surfaceAspect
		}
		if aspect <= 0 {
			aspect = 1
		}
		return mgl32.Perspective(mgl32.DegToRad(o.FovY), aspect, o.Near, o.Far), nil
	case OpticsOrtho:
		if o.Left == o.Right || o.Bottom == o.Top || o.Near == o.Far {
			return mgl32.Ident4(), fmt.Errorf("%w: ortho planes are degenerate", ErrBadConfig)
		}
		return mgl32.Ortho(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far), nil
	case OpticsFrustum:
		if o.Left == o.Right || o.Bottom == o.Top || o.Near <= 0 || o.Far <= o.Near {
			return mgl32.Ident4(), fmt.Errorf("%w: frustum planes are degenerate", ErrBadConfig)
		}
		return mgl32.Frustum(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far), nil
	default:
		return mgl32.Ident4(), fmt.Errorf("%w: unknown optics type %d", ErrBadConfig, o.Type)
	}
}
