package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LookAt sets the view transform for its subtree from an eye position, a
// point to look at and an up vector.
type LookAt struct {
	Eye  mgl32.Vec3
	Look mgl32.Vec3
	Up   mgl32.Vec3
}

// NewLookAt creates a viewing node.
func NewLookAt(id string, eye, look, up mgl32.Vec3) *Node {
	return NewNode(id, &LookAt{Eye: eye, Look: look, Up: up})
}

// Matrix returns the local view matrix.
func (l *LookAt) Matrix() (mgl32.Mat4, error) {
	if err := l.validate(); err != nil {
		return mgl32.Ident4(), err
	}
	return mgl32.LookAtV(l.Eye, l.Look, l.Up), nil
}

func (l *LookAt) validate() error {
	if l.Eye.ApproxEqual(l.Look) {
		return fmt.Errorf("%w: lookAt eye and look coincide", ErrBadConfig)
	}
	if l.Up.Len() == 0 {
		return fmt.Errorf("%w: lookAt up vector is zero", ErrBadConfig)
	}
	if l.Look.Sub(l.Eye).Cross(l.Up).Len() < 1e-6 {
		return fmt.Errorf("%w: lookAt up vector is parallel to the view direction", ErrBadConfig)
	}
	return nil
}

// RotateAxis selects the axis LookAt.Rotate turns about.
type RotateAxis uint8

const (
	// AxisUp turns left/right (yaw) about the up vector.
	AxisUp RotateAxis = iota
	// AxisRight turns up/down (pitch) about the eye's right vector.
	AxisRight
)

// ParseRotateAxis parses "up" (or "yaw") and "right" (or "pitch").
func ParseRotateAxis(s string) (RotateAxis, error) {
	switch normalizeName(s) {
	case "", "up", "yaw":
		return AxisUp, nil
	case "right", "pitch":
		return AxisRight, nil
	}
	return 0, fmt.Errorf("%w: unknown rotate axis %q", ErrBadConfig, s)
}

// RotateOptions controls LookAt.Rotate.
type RotateOptions struct {
	Axis RotateAxis
	// IgnoreY uses world Y as the up axis, and a horizontal right axis,
	// instead of the node's own up vector.
	IgnoreY bool
}

var worldUp = mgl32.Vec3{0, 1, 0}

// Rotate turns the look point about the eye by degrees, keeping the eye
// fixed and the eye-to-look distance unchanged. Rotating by an angle and then
// by its negation restores the original look point (within float error).
// Pitch rotations also rotate the up vector.
func (l *LookAt) Rotate(degrees float32, opts RotateOptions) error {
	if err := l.validate(); err != nil {
		return err
	}
	v := l.Look.Sub(l.Eye)

	var axis mgl32.Vec3
	switch opts.Axis {
	case AxisUp:
		if opts.IgnoreY {
			axis = worldUp
		} else {
			axis = l.Up.Normalize()
		}
	case AxisRight:
		up, dir := l.Up, v
		if opts.IgnoreY {
			up = worldUp
			dir = mgl32.Vec3{v.X(), 0, v.Z()}
		}
		axis = dir.Cross(up)
		if axis.Len() < 1e-6 {
			return fmt.Errorf("%w: look direction is parallel to up", ErrBadConfig)
		}
		axis = axis.Normalize()
	default:
		return fmt.Errorf("%w: unknown rotate axis %d", ErrBadConfig, opts.Axis)
	}

	q := mgl32.QuatRotate(mgl32.DegToRad(degrees), axis)
	l.Look = l.Eye.Add(q.Rotate(v))
	if opts.Axis == AxisRight {
		l.Up = q.Rotate(l.Up)
	}
	return nil
}

// composeView nests a child view inside its parent's view.
func composeView(parent, local mgl32.Mat4) mgl32.Mat4 {
	return parent.Mul4(local)
}
