package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Translate offsets its subtree by (X, Y, Z).
type Translate struct {
	X, Y, Z float32
}

// Scale scales its subtree by (X, Y, Z). A zero component flattens the
// subtree but is not an error.
type Scale struct {
	X, Y, Z float32
}

// Rotate rotates its subtree by Angle degrees about the axis (X, Y, Z).
// The axis need not be normalized; a zero axis is invalid.
type Rotate struct {
	Angle   float32
	X, Y, Z float32
}

// NewTranslate creates a translation node.
func NewTranslate(id string, x, y, z float32) *Node {
	return NewNode(id, &Translate{X: x, Y: y, Z: z})
}

// NewScale creates a scale node.
func NewScale(id string, x, y, z float32) *Node {
	return NewNode(id, &Scale{X: x, Y: y, Z: z})
}

// NewRotate creates a rotation node of angle degrees about (x, y, z).
func NewRotate(id string, angle, x, y, z float32) *Node {
	return NewNode(id, &Rotate{Angle: angle, X: x, Y: y, Z: z})
}

// Matrix returns the local translation matrix.
func (t *Translate) Matrix() (mgl32.Mat4, error) {
	return mgl32.Translate3D(t.X, t.Y, t.Z), nil
}

// Matrix returns the local scale matrix.
func (s *Scale) Matrix() (mgl32.Mat4, error) {
	return mgl32.Scale3D(s.X, s.Y, s.Z), nil
}

// Matrix returns the local rotation matrix.
func (r *Rotate) Matrix() (mgl32.Mat4, error) {
	axis := mgl32.Vec3{r.X, r.Y, r.Z}
	if axis.Len() == 0 {
		return mgl32.Ident4(), fmt.Errorf("%w: rotate axis is zero", ErrBadConfig)
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(r.Angle), axis.Normalize()), nil
}

// modelling is implemented by the node data kinds that push onto the model
// stack.
type modelling interface {
	Matrix() (mgl32.Mat4, error)
}

var (
	_ modelling = (*Translate)(nil)
	_ modelling = (*Scale)(nil)
	_ modelling = (*Rotate)(nil)
)

// composeModel returns the model matrix of a child: the parent's matrix
// post-multiplied by the child's local matrix, so the innermost transform
// applies to geometry first.
func composeModel(parent, local mgl32.Mat4) mgl32.Mat4 {
	return parent.Mul4(local)
}
