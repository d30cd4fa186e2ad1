package canopy

import "fmt"

// MaterialState is the resolved material in effect during traversal.
type MaterialState struct {
	BaseColor     Color
	SpecularColor Color
	Specular      float64
	Shine         float64
	Emit          float64
	Alpha         float64
}

// DefaultMaterial is in effect outside every Material node.
var DefaultMaterial = MaterialState{
	BaseColor:     ColorWhite,
	SpecularColor: ColorWhite,
	Specular:      1,
	Shine:         10,
	Emit:          0,
	Alpha:         1,
}

// Material overrides surface properties for its subtree. Nil fields inherit
// the value of the enclosing material.
type Material struct {
	BaseColor     *Color
	SpecularColor *Color
	Specular      *float64
	Shine         *float64
	Emit          *float64
	Alpha         *float64
}

// NewMaterial creates a material node.
func NewMaterial(id string, m Material) *Node {
	return NewNode(id, &m)
}

// Float returns a pointer to v, for Material and Renderer literals.
func Float(v float64) *float64 { return &v }

// ColorPtr returns a pointer to c, for Material and Renderer literals.
func ColorPtr(c Color) *Color { return &c }

// apply returns parent with the fields set on m overridden.
func (m *Material) apply(parent MaterialState) (MaterialState, error) {
	out := parent
	if m.BaseColor != nil {
		out.BaseColor = *m.BaseColor
	}
	if m.SpecularColor != nil {
		out.SpecularColor = *m.SpecularColor
	}
	if m.Specular != nil {
		out.Specular = *m.Specular
	}
	if m.Shine != nil {
		if *m.Shine < 0 {
			return parent, fmt.Errorf("%w: material shine %g is negative", ErrBadConfig, *m.Shine)
		}
		out.Shine = *m.Shine
	}
	if m.Emit != nil {
		out.Emit = *m.Emit
	}
	if m.Alpha != nil {
		if *m.Alpha < 0 || *m.Alpha > 1 {
			return parent, fmt.Errorf("%w: material alpha %g outside [0, 1]", ErrBadConfig, *m.Alpha)
		}
		out.Alpha = *m.Alpha
	}
	return out, nil
}
