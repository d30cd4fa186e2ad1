package canopy

import (
	"errors"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestParseNodeSimple(t *testing.T) {
	root, err := ParseNode([]byte(`{
		"type": "scene", "id": "main-scene", "canvasId": "main",
		"nodes": [
			{"type": "lookAt", "id": "cam", "eye": {"z": -5}, "look": {}, "up": {"y": 1},
			 "nodes": [
				{"type": "translate", "x": 2, "nodes": [{"type": "cube", "id": "box"}]},
				{"type": "sphere"}
			 ]}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if root.ID != "main-scene" || root.Kind() != KindScene {
		t.Fatalf("root = %q %s", root.ID, root.Kind())
	}
	sr, _ := As[*SceneRoot](root)
	if sr.SurfaceID != "main" {
		t.Errorf("SurfaceID = %q, want main", sr.SurfaceID)
	}
	cam := root.Find("cam")
	if cam == nil {
		t.Fatal("cam not found")
	}
	la, _ := As[*LookAt](cam)
	if la.Eye != (mgl32.Vec3{0, 0, -5}) || la.Up != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("lookAt = %+v", la)
	}
	if cam.NumChildren() != 2 {
		t.Fatalf("cam has %d children, want 2", cam.NumChildren())
	}
	tr, ok := As[*Translate](cam.ChildAt(0))
	if !ok || tr.X != 2 {
		t.Errorf("first child = %v, want translate x=2", cam.ChildAt(0).Kind())
	}
	box := root.Find("box")
	if g, ok := As[*Geometry](box); !ok || g.Primitive != "cube" {
		t.Errorf("box = %+v", box)
	}
	g, ok := As[*Geometry](cam.ChildAt(1))
	if !ok || g.Primitive != "sphere" {
		t.Errorf("second child = %+v, want sphere geometry", cam.ChildAt(1))
	}
}

func TestParseNodeDefaults(t *testing.T) {
	root, err := ParseNode([]byte(`{"type": "node", "nodes": [
		{"type": "scale", "id": "s"},
		{"type": "light", "id": "l"},
		{"type": "camera", "id": "c"}
	]}`))
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if root.Kind() != KindGroup {
		t.Errorf("root kind = %s, want group", root.Kind())
	}
	if s, _ := As[*Scale](root.Find("s")); s.X != 1 || s.Y != 1 || s.Z != 1 {
		t.Errorf("default scale = %+v, want identity", s)
	}
	if l, _ := As[*Light](root.Find("l")); *l != DefaultLight() {
		t.Errorf("default light = %+v", l)
	}
	if c, _ := As[*Camera](root.Find("c")); c.Optics != DefaultOptics {
		t.Errorf("default optics = %+v", c.Optics)
	}
}

func TestParseNodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"geometry with children", `{"type": "cube", "nodes": [{"type": "node"}]}`},
		{"nodes not an array", `{"type": "node", "nodes": {"type": "cube"}}`},
		{"child not an object", `{"type": "node", "nodes": [42]}`},
		{"type not a string", `{"type": 3}`},
		{"bad attribute", `{"type": "translate", "x": "far"}`},
		{"unknown attribute", `{"type": "rotate", "spin": 1}`},
		{"nested bad attribute", `{"type": "node", "nodes": [{"type": "material", "baseColor": [1, 0, 0]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseNode([]byte(tt.json)); !errors.Is(err, ErrBadConfig) {
				t.Errorf("err = %v, want ErrBadConfig", err)
			}
		})
	}
	if _, err := ParseNode([]byte(`{not json`)); err == nil {
		t.Error("malformed JSON: expected error")
	}
}

func TestDecodeNode(t *testing.T) {
	n, err := DecodeNode(map[string]any{"type": "instance", "id": "i", "target": "lib-item"})
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	inst, ok := As[*Instance](n)
	if !ok || inst.Target != "lib-item" {
		t.Errorf("instance = %+v", n)
	}
}

func TestParseViewportsExample(t *testing.T) {
	data, err := os.ReadFile("examples/viewports/scene.json")
	if err != nil {
		t.Fatalf("read example: %v", err)
	}
	root, err := ParseNode(data)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}

	renderers := 0
	root.Walk(func(n *Node) bool {
		if n.Kind() == KindRenderer {
			renderers++
		}
		return true
	})
	if renderers != 4 {
		t.Errorf("renderers = %d, want 4", renderers)
	}

	r, _ := As[*Renderer](root.ChildAt(1))
	if r.Clear != ClearColor|ClearDepth {
		t.Errorf("first renderer clear = %b", r.Clear)
	}
	if *r.Viewport != (Viewport{X: 0, Y: 350, Width: 515, Height: 350}) {
		t.Errorf("first renderer viewport = %+v", *r.Viewport)
	}
	if r.BlendSrcAlpha == nil || *r.BlendSrcAlpha != BlendOne {
		t.Errorf("blendFuncSeperate not applied: %+v", r.BlendSrcAlpha)
	}

	e, surface := newTestEngine(t)
	s := renderScene(t, e, root)
	if got := len(surface.Draws()); got != 4 {
		t.Fatalf("draws = %d, want one teapot per viewport", got)
	}
	for i, dc := range surface.Draws() {
		if dc.Primitive != "teapot" {
			t.Errorf("draw %d primitive = %q", i, dc.Primitive)
		}
		if len(dc.Lights) != 3 {
			t.Errorf("draw %d lights = %d, want 3", i, len(dc.Lights))
		}
		if dc.Material.Shine != 100 {
			t.Errorf("draw %d shine = %v, want 100", i, dc.Material.Shine)
		}
	}
	vp0 := surface.Draws()[0].State.Viewport
	vp3 := surface.Draws()[3].State.Viewport
	if vp0 == vp3 {
		t.Errorf("first and last draws share viewport %+v", vp0)
	}
	if errs := s.Stats().Errors; len(errs) != 0 {
		t.Errorf("pass errors = %v", errs)
	}
}
