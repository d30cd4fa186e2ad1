package canopy

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestStackBaseAndOrder(t *testing.T) {
	var s stack[int]
	s.reset(7)
	if s.top() != 7 || s.depth() != 0 {
		t.Fatalf("empty stack top = %d depth = %d", s.top(), s.depth())
	}
	s.push(1)
	s.push(2)
	if s.top() != 2 || s.depth() != 2 {
		t.Errorf("top = %d depth = %d, want 2 and 2", s.top(), s.depth())
	}
	s.pop()
	if s.top() != 1 {
		t.Errorf("top after pop = %d, want 1", s.top())
	}
	s.reset(9)
	if s.top() != 9 || s.depth() != 0 {
		t.Errorf("after reset top = %d depth = %d", s.top(), s.depth())
	}
}

func TestStackUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on underflow")
		}
	}()
	var s stack[string]
	s.pop()
}

func TestRenderStateReset(t *testing.T) {
	var rs RenderState
	rs.reset(320, 200)
	if rs.Model() != mgl32.Ident4() || rs.View() != mgl32.Ident4() || rs.Projection() != mgl32.Ident4() {
		t.Error("base transforms are not identity")
	}
	if rs.Material() != DefaultMaterial {
		t.Errorf("base material = %+v", rs.Material())
	}
	if rs.Lights() != nil {
		t.Errorf("base lights = %v, want none", rs.Lights())
	}
	if rs.Renderer() != DefaultRendererState(320, 200) {
		t.Errorf("base renderer = %+v", rs.Renderer())
	}
	if !rs.Balanced() {
		t.Error("fresh state not balanced")
	}

	rs.model.push(mgl32.Translate3D(1, 0, 0))
	rs.lights.push([]LightState{{NodeID: "l"}})
	if rs.Balanced() || rs.Depth(CategoryModel) != 1 || rs.Depth(CategoryLights) != 1 {
		t.Errorf("depths model=%d lights=%d", rs.Depth(CategoryModel), rs.Depth(CategoryLights))
	}
	rs.model.pop()
	rs.lights.pop()
	if !rs.Balanced() {
		t.Error("not balanced after matching pops")
	}
}

func TestCategoryString(t *testing.T) {
	want := []string{"model", "view", "projection", "material", "lights", "renderer"}
	for c := Category(0); c < categoryCount; c++ {
		if c.String() != want[c] {
			t.Errorf("Category(%d) = %q, want %q", c, c.String(), want[c])
		}
	}
	if categoryCount.String() != "unknown" {
		t.Errorf("out of range = %q", categoryCount.String())
	}
}
