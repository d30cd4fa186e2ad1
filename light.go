package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightMode selects how a light contributes.
type LightMode uint8

const (
	LightPoint   LightMode = iota // positional, attenuated
	LightDir                      // directional, no position
	LightAmbient                  // uniform contribution
)

func (m LightMode) String() string {
	switch m {
	case LightPoint:
		return "point"
	case LightDir:
		return "dir"
	case LightAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// ParseLightMode parses "point", "dir" or "ambient".
func ParseLightMode(s string) (LightMode, error) {
	switch normalizeName(s) {
	case "", "point":
		return LightPoint, nil
	case "dir", "directional":
		return LightDir, nil
	case "ambient":
		return LightAmbient, nil
	}
	return 0, fmt.Errorf("%w: unknown light mode %q", ErrBadConfig, s)
}

// Light is a light source. A Light with no children lights the rest of its
// parent's subtree, later siblings included. A Light with children lights
// only those children.
type Light struct {
	Mode     LightMode
	Color    Color
	Diffuse  bool
	Specular bool

	// Pos is used by point lights, Dir by directional lights. Both are in
	// the model space in effect where the light is declared.
	Pos mgl32.Vec3
	Dir mgl32.Vec3

	ConstantAttenuation  float32
	LinearAttenuation    float32
	QuadraticAttenuation float32
}

// DefaultLight returns a white point light at the origin that contributes
// both diffuse and specular terms.
func DefaultLight() Light {
	return Light{
		Mode:                LightPoint,
		Color:               ColorWhite,
		Diffuse:             true,
		Specular:            true,
		Dir:                 mgl32.Vec3{0, 0, -1},
		ConstantAttenuation: 1,
	}
}

// NewLight creates a light node.
func NewLight(id string, l Light) *Node {
	return NewNode(id, &l)
}

// LightState is a light in scope during traversal, with its position and
// direction transformed to world space.
type LightState struct {
	NodeID   string
	Light    Light
	WorldPos mgl32.Vec3
	WorldDir mgl32.Vec3
}

// resolve places the light in world space using the current model matrix.
func (l *Light) resolve(id string, model mgl32.Mat4) (LightState, error) {
	if l.Mode == LightDir && l.Dir.Len() == 0 {
		return LightState{}, fmt.Errorf("%w: directional light has zero direction", ErrBadConfig)
	}
	ls := LightState{NodeID: id, Light: *l}
	ls.WorldPos = mgl32.TransformCoordinate(l.Pos, model)
	// A degenerate model (zero scale) collapses the direction; the light
	// then has no world direction and contributes nothing directional.
	if wd := mgl32.TransformNormal(l.Dir, model); wd.Len() > 1e-6 {
		ls.WorldDir = wd.Normalize()
	}
	return ls, nil
}

// attenuation returns the falloff factor at distance d.
func (ls LightState) attenuation(d float32) float32 {
	if ls.Light.Mode != LightPoint {
		return 1
	}
	a := ls.Light.ConstantAttenuation + ls.Light.LinearAttenuation*d + ls.Light.QuadraticAttenuation*d*d
	if a <= 0 {
		return 1
	}
	return 1 / a
}
