package canopy

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Category is one of the state stacks of a render pass.
type Category uint8

const (
	CategoryModel Category = iota
	CategoryView
	CategoryProjection
	CategoryMaterial
	CategoryLights
	CategoryRenderer

	categoryCount
)

func (c Category) String() string {
	switch c {
	case CategoryModel:
		return "model"
	case CategoryView:
		return "view"
	case CategoryProjection:
		return "projection"
	case CategoryMaterial:
		return "material"
	case CategoryLights:
		return "lights"
	case CategoryRenderer:
		return "renderer"
	default:
		return "unknown"
	}
}

// stack is a push/pop stack with a fixed base value returned when empty.
type stack[T any] struct {
	base  T
	items []T
}

func (s *stack[T]) push(v T) { s.items = append(s.items, v) }

func (s *stack[T]) pop() {
	if len(s.items) == 0 {
		panic("canopy: state stack underflow")
	}
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
}

func (s *stack[T]) top() T {
	if len(s.items) == 0 {
		return s.base
	}
	return s.items[len(s.items)-1]
}

func (s *stack[T]) depth() int { return len(s.items) }

func (s *stack[T]) reset(base T) {
	clear(s.items)
	s.items = s.items[:0]
	s.base = base
}

// RenderState is the combined state frame of one render pass: one stack per
// category. Every push during a pass is paired with exactly one pop, so all
// stacks are empty when a pass starts and when it ends.
type RenderState struct {
	model      stack[mgl32.Mat4]
	view       stack[mgl32.Mat4]
	projection stack[mgl32.Mat4]
	material   stack[MaterialState]
	lights     stack[[]LightState]
	renderer   stack[RendererState]
}

// reset empties every stack and installs the base values for a surface of
// the given size.
func (rs *RenderState) reset(width, height int) {
	rs.model.reset(mgl32.Ident4())
	rs.view.reset(mgl32.Ident4())
	rs.projection.reset(mgl32.Ident4())
	rs.material.reset(DefaultMaterial)
	rs.lights.reset(nil)
	rs.renderer.reset(DefaultRendererState(width, height))
}

// Model returns the current model matrix.
func (rs *RenderState) Model() mgl32.Mat4 { return rs.model.top() }

// View returns the current view matrix.
func (rs *RenderState) View() mgl32.Mat4 { return rs.view.top() }

// Projection returns the current projection matrix.
func (rs *RenderState) Projection() mgl32.Mat4 { return rs.projection.top() }

// Material returns the current material.
func (rs *RenderState) Material() MaterialState { return rs.material.top() }

// Lights returns the lights in scope. The slice must not be modified.
func (rs *RenderState) Lights() []LightState { return rs.lights.top() }

// Renderer returns the current renderer state.
func (rs *RenderState) Renderer() RendererState { return rs.renderer.top() }

// Depth returns the number of pushed entries for a category.
func (rs *RenderState) Depth(c Category) int {
	switch c {
	case CategoryModel:
		return rs.model.depth()
	case CategoryView:
		return rs.view.depth()
	case CategoryProjection:
		return rs.projection.depth()
	case CategoryMaterial:
		return rs.material.depth()
	case CategoryLights:
		return rs.lights.depth()
	case CategoryRenderer:
		return rs.renderer.depth()
	default:
		return 0
	}
}

// Balanced reports whether every stack is empty.
func (rs *RenderState) Balanced() bool {
	for c := Category(0); c < categoryCount; c++ {
		if rs.Depth(c) != 0 {
			return false
		}
	}
	return true
}

// PassStats describes the last render pass of a scene.
type PassStats struct {
	Pushes  [categoryCount]int
	Pops    [categoryCount]int
	Nodes   int
	Draws   int
	MaxPath int
	Elapsed time.Duration
	// Errors holds every recoverable error of the pass, in order.
	Errors []error
	// Balanced is true when every stack was empty at the end of the pass.
	Balanced bool
}

// PushCount returns the number of pushes for category c.
func (ps *PassStats) PushCount(c Category) int { return ps.Pushes[c] }

// PopCount returns the number of pops for category c.
func (ps *PassStats) PopCount(c Category) int { return ps.Pops[c] }
