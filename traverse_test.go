package canopy

import (
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func renderScene(t *testing.T, e *Engine, root *Node) *Scene {
	t.Helper()
	id := mustCreate(t, e, root)
	if err := e.Render(id); err != nil {
		t.Fatalf("Render: %v", err)
	}
	s, _ := e.Scene(id)
	return s
}

func drawByID(t *testing.T, surface *RecordingSurface, id string) *DrawCall {
	t.Helper()
	for _, dc := range surface.Draws() {
		if dc.NodeID == id {
			return dc
		}
	}
	t.Fatalf("no draw call for %q", id)
	return nil
}

func lightIDs(ls []LightState) []string {
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.NodeID
	}
	return ids
}

func TestRenderStackBalance(t *testing.T) {
	e, _ := newTestEngine(t)

	lib := NewLibrary("lib")
	shape := NewTranslate("shape", 1, 0, 0)
	shape.AddChild(NewGeometry("shape-geo", "sphere"))
	lib.AddChild(shape)

	eye := NewLookAt("eye", mgl32.Vec3{0, 0, -10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	cam := NewCamera("cam", DefaultOptics)
	ren := NewRenderer("ren", Renderer{Clear: ClearColor | ClearDepth, EnableBlend: Bool(true)})
	mat := NewMaterial("mat", Material{Alpha: Float(0.5)})
	rot := NewRotate("rot", 30, 0, 1, 0)
	lit := NewLight("scoped", DefaultLight())
	lit.AddChild(NewGeometry("lit-geo", "cube"))

	rot.AddChildren(NewLight("loose", DefaultLight()), NewGeometry("rot-geo", "cube"), lit)
	mat.AddChildren(rot, NewInstance("inst", "shape"))
	ren.AddChild(mat)
	cam.AddChild(ren)
	eye.AddChild(cam)

	root := NewSceneNode("root", "")
	root.AddChildren(lib, eye, NewScale("empty-scale", 2, 2, 2))

	s := renderScene(t, e, root)
	st := s.Stats()
	if !st.Balanced || !s.State().Balanced() {
		t.Error("stacks should be balanced after the pass")
	}
	for c := Category(0); c < categoryCount; c++ {
		if st.PushCount(c) == 0 {
			t.Errorf("%s: no pushes recorded", c)
		}
		if st.PushCount(c) != st.PopCount(c) {
			t.Errorf("%s: %d pushes, %d pops", c, st.PushCount(c), st.PopCount(c))
		}
	}
	if st.Draws != 3 {
		t.Errorf("draws = %d, want 3", st.Draws)
	}
	if len(st.Errors) != 0 {
		t.Errorf("unexpected errors: %v", st.Errors)
	}
}

func TestRenderDrawCallTransforms(t *testing.T) {
	e, surface := newTestEngine(t)
	eye := NewLookAt("eye", mgl32.Vec3{0, 2, -10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	cam := NewCamera("cam", Optics{Type: OpticsPerspective, FovY: 45, Near: 1, Far: 100})
	tr := NewTranslate("tr", 10, 0, 0)
	rot := NewRotate("rot", 90, 0, 0, 1)
	rot.AddChild(NewGeometry("box", "cube"))
	tr.AddChild(rot)
	cam.AddChild(tr)
	eye.AddChild(cam)
	root := NewSceneNode("root", "")
	root.AddChild(eye)

	renderScene(t, e, root)
	dc := drawByID(t, surface, "box")

	wantModel := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	if !dc.Model.ApproxEqualThreshold(wantModel, 1e-5) {
		t.Errorf("model = %v, want %v", dc.Model, wantModel)
	}
	wantView := mgl32.LookAtV(mgl32.Vec3{0, 2, -10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if !dc.View.ApproxEqualThreshold(wantView, 1e-5) {
		t.Errorf("view = %v, want %v", dc.View, wantView)
	}
	wantProj := mgl32.Perspective(mgl32.DegToRad(45), float32(testSurfaceW)/testSurfaceH, 1, 100)
	if !dc.Projection.ApproxEqualThreshold(wantProj, 1e-5) {
		t.Errorf("projection = %v, want %v", dc.Projection, wantProj)
	}
	if dc.Mesh == nil || dc.Mesh.NumTriangles() != 12 {
		t.Error("cube draw should carry the cube mesh")
	}
}

func TestNestedCameraReplacesProjection(t *testing.T) {
	e, surface := newTestEngine(t)
	outer := NewCamera("outer", DefaultOptics)
	inner := NewCamera("inner", Optics{Type: OpticsOrtho, Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1})
	inner.AddChild(NewGeometry("box", "cube"))
	outer.AddChild(inner)
	root := NewSceneNode("root", "")
	root.AddChild(outer)

	renderScene(t, e, root)
	dc := drawByID(t, surface, "box")
	if !dc.Projection.ApproxEqualThreshold(mgl32.Ortho(-1, 1, -1, 1, -1, 1), 1e-6) {
		t.Errorf("projection = %v, want the inner ortho", dc.Projection)
	}
}

func TestInstanceIsolation(t *testing.T) {
	e, surface := newTestEngine(t)

	lib := NewLibrary("lib")
	shape := NewTranslate("shape", 1, 0, 0)
	shape.AddChild(NewGeometry("leaf", "cube"))
	lib.AddChild(shape)

	up := NewTranslate("up", 0, 5, 0)
	up.AddChild(NewInstance("inst-up", "shape"))
	down := NewTranslate("down", 0, -5, 0)
	down.AddChild(NewInstance("inst-down", "shape"))

	root := NewSceneNode("root", "")
	root.AddChildren(lib, up, down)
	s := renderScene(t, e, root)

	draws := surface.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2 (library content is only drawn via instances)", len(draws))
	}
	wantUp := mgl32.Translate3D(0, 5, 0).Mul4(mgl32.Translate3D(1, 0, 0))
	wantDown := mgl32.Translate3D(0, -5, 0).Mul4(mgl32.Translate3D(1, 0, 0))
	if !draws[0].Model.ApproxEqual(wantUp) {
		t.Errorf("first instance model = %v, want %v", draws[0].Model, wantUp)
	}
	if !draws[1].Model.ApproxEqual(wantDown) {
		t.Errorf("second instance model = %v, want %v", draws[1].Model, wantDown)
	}
	if !s.Stats().Balanced {
		t.Error("stacks should be balanced")
	}
}

func TestInstanceOwnChildrenFollowTarget(t *testing.T) {
	e, surface := newTestEngine(t)
	lib := NewLibrary("lib")
	lib.AddChild(NewGeometry("target", "cube"))
	inst := NewInstance("inst", "target")
	inst.AddChild(NewGeometry("extra", "plane"))
	root := NewSceneNode("root", "")
	root.AddChildren(lib, inst)

	renderScene(t, e, root)
	var ids []string
	for _, dc := range surface.Draws() {
		ids = append(ids, dc.NodeID)
	}
	if !slices.Equal(ids, []string{"target", "extra"}) {
		t.Errorf("draw order = %v, want [target extra]", ids)
	}
}

func TestRecoverableNodeErrors(t *testing.T) {
	lib := func() *Node {
		l := NewLibrary("lib")
		loop := NewGroup("loop")
		loop.AddChild(NewInstance("back", "loop"))
		l.AddChild(loop)
		return l
	}
	badRotate := func() *Node {
		r := NewRotate("bad", 45, 0, 0, 0)
		r.AddChild(NewGeometry("never", "cube"))
		return r
	}

	tests := []struct {
		name   string
		broken func() []*Node
		nodeID string
		kind   NodeKind
		want   error
	}{
		{"missing instance target", func() []*Node { return []*Node{NewInstance("inst", "nowhere")} },
			"inst", KindInstance, ErrInstanceTarget},
		{"instance cycle", func() []*Node { return []*Node{lib(), NewInstance("inst", "loop")} },
			"back", KindInstance, ErrInstanceCycle},
		{"zero rotate axis", func() []*Node { return []*Node{badRotate()} },
			"bad", KindRotate, ErrBadConfig},
		{"unknown primitive", func() []*Node { return []*Node{NewGeometry("odd", "dodecahedron")} },
			"odd", KindGeometry, ErrBadConfig},
		{"bad material", func() []*Node { return []*Node{NewMaterial("mat", Material{Alpha: Float(2)})} },
			"mat", KindMaterial, ErrBadConfig},
		{"bad camera", func() []*Node { return []*Node{NewCamera("cam", Optics{FovY: 45})} },
			"cam", KindCamera, ErrBadConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, surface := newTestEngine(t)
			var published []*TraversalError
			Listen(e.Bus(), func(ev NodeErrorEvent) error {
				published = append(published, ev.Err)
				return nil
			})

			root := NewSceneNode("root", "")
			group := NewTranslate("group", 0, 1, 0)
			group.AddChildren(tt.broken()...)
			group.AddChild(NewGeometry("after", "cube"))
			root.AddChild(group)

			s := renderScene(t, e, root)
			st := s.Stats()
			if len(st.Errors) != 1 {
				t.Fatalf("errors = %v, want 1", st.Errors)
			}
			var te *TraversalError
			if !errors.As(st.Errors[0], &te) {
				t.Fatalf("error is %T, want *TraversalError", st.Errors[0])
			}
			if !errors.Is(te, tt.want) {
				t.Errorf("err = %v, want %v", te, tt.want)
			}
			if te.NodeID != tt.nodeID || te.Kind != tt.kind || te.SceneID != s.ID() {
				t.Errorf("context = %s/%s/%s, want %s/%s/%s", te.SceneID, te.Kind, te.NodeID, s.ID(), tt.kind, tt.nodeID)
			}
			if len(published) != 1 || published[0] != te {
				t.Error("NODE_ERROR should carry the recorded error")
			}
			if !st.Balanced {
				t.Error("stacks should be balanced after an aborted subtree")
			}
			// The next sibling still renders, inside the parent's transform.
			dc := drawByID(t, surface, "after")
			if !dc.Model.ApproxEqual(mgl32.Translate3D(0, 1, 0)) {
				t.Errorf("sibling model = %v", dc.Model)
			}
		})
	}
}

func TestLightScoping(t *testing.T) {
	e, surface := newTestEngine(t)
	dir := Light{Mode: LightDir, Color: ColorWhite, Diffuse: true, Dir: mgl32.Vec3{0, 0, 1}}

	scoped := NewLight("scoped", dir)
	scoped.AddChild(NewGeometry("g2", "cube"))
	cam := NewCamera("cam", DefaultOptics)
	cam.AddChildren(
		NewGeometry("g0", "cube"),
		NewLight("loose", dir),
		NewGeometry("g1", "cube"),
		scoped,
		NewGeometry("g3", "cube"),
	)
	root := NewSceneNode("root", "")
	root.AddChildren(cam, NewGeometry("g4", "cube"))

	s := renderScene(t, e, root)
	tests := []struct {
		geo  string
		want []string
	}{
		{"g0", []string{}},
		{"g1", []string{"loose"}},
		{"g2", []string{"loose", "scoped"}},
		{"g3", []string{"loose"}},
		{"g4", []string{}},
	}
	for _, tt := range tests {
		got := lightIDs(drawByID(t, surface, tt.geo).Lights)
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s lights = %v, want %v", tt.geo, got, tt.want)
		}
	}
	if !s.Stats().Balanced {
		t.Error("stacks should be balanced")
	}
	if n := len(e.Lighting().Lights()); n != 0 {
		t.Errorf("lighting module has %d lights after the pass", n)
	}
}

func TestLightWorldSpace(t *testing.T) {
	e, surface := newTestEngine(t)
	tr := NewTranslate("tr", 0, 10, 0)
	tr.AddChildren(
		NewLight("bulb", Light{Mode: LightPoint, Color: ColorWhite, Diffuse: true, Pos: mgl32.Vec3{1, 0, 0}, ConstantAttenuation: 1}),
		NewGeometry("box", "cube"),
	)
	root := NewSceneNode("root", "")
	root.AddChild(tr)

	renderScene(t, e, root)
	ls := drawByID(t, surface, "box").Lights
	if len(ls) != 1 {
		t.Fatalf("lights = %d, want 1", len(ls))
	}
	if !vec3Near(ls[0].WorldPos, mgl32.Vec3{1, 10, 0}, 1e-6) {
		t.Errorf("world pos = %v, want (1,10,0)", ls[0].WorldPos)
	}
}

func TestMaterialInheritance(t *testing.T) {
	e, surface := newTestEngine(t)
	red := Color{R: 1, A: 1}
	outer := NewMaterial("outer", Material{BaseColor: ColorPtr(red), Shine: Float(50)})
	inner := NewMaterial("inner", Material{Alpha: Float(0.25)})
	inner.AddChild(NewGeometry("in", "cube"))
	outer.AddChildren(inner, NewGeometry("out", "cube"))
	root := NewSceneNode("root", "")
	root.AddChildren(outer, NewGeometry("plain", "cube"))

	renderScene(t, e, root)
	in := drawByID(t, surface, "in").Material
	if in.BaseColor != red || in.Shine != 50 || in.Alpha != 0.25 {
		t.Errorf("inner material = %+v", in)
	}
	out := drawByID(t, surface, "out").Material
	if out.Alpha != 1 || out.BaseColor != red {
		t.Errorf("outer material = %+v", out)
	}
	if plain := drawByID(t, surface, "plain").Material; plain != DefaultMaterial {
		t.Errorf("material outside every node = %+v, want default", plain)
	}
}

func TestRendererStateRestoredOnExit(t *testing.T) {
	e, surface := newTestEngine(t)
	red := Color{R: 1, A: 1}
	ren := NewRenderer("quarter", Renderer{
		Clear:           ClearColor | ClearDepth,
		ClearColor:      ColorPtr(red),
		Viewport:        &Viewport{X: 0, Y: 0, Width: 32, Height: 32},
		EnableDepthTest: Bool(false),
	})
	ren.AddChild(NewGeometry("inside", "cube"))
	root := NewSceneNode("root", "")
	root.AddChildren(ren, NewGeometry("outside", "cube"))

	renderScene(t, e, root)

	in := drawByID(t, surface, "inside").State
	if in.Viewport != (Viewport{Width: 32, Height: 32}) || in.Depth.Test {
		t.Errorf("inside state = %+v", in)
	}
	out := drawByID(t, surface, "outside").State
	if out != DefaultRendererState(testSurfaceW, testSurfaceH) {
		t.Errorf("outside state = %+v, want default", out)
	}
	if n := surface.Count(OpClear); n != 1 {
		t.Fatalf("clears = %d, want 1", n)
	}
	for _, op := range surface.Ops {
		if op.Op == OpClear && (op.Clear != ClearColor|ClearDepth || op.Color != red) {
			t.Errorf("clear op = %+v", op)
		}
	}

	// The clear covered the bottom-left quadrant only.
	img, err := surface.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, testSurfaceH-1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("bottom-left pixel = %v, want red", got)
	}
	if got := img.NRGBAAt(testSurfaceW-1, 0); got.A != 0 {
		t.Errorf("top-right pixel = %v, want untouched", got)
	}
}

func TestRedrawReplaysWithoutTraversal(t *testing.T) {
	e, surface := newTestEngine(t)
	tr := NewTranslate("tr", 1, 0, 0)
	tr.AddChild(NewGeometry("box", "cube"))
	root := NewSceneNode("root", "")
	root.AddChild(tr)
	id := mustCreate(t, e, root)

	// Never rendered: no-op.
	if err := e.Redraw(id); err != nil {
		t.Fatal(err)
	}
	if len(surface.Ops) != 0 {
		t.Fatalf("redraw before render issued %d ops", len(surface.Ops))
	}

	if err := e.Render(id); err != nil {
		t.Fatal(err)
	}
	recorded := e.Renderer().Recorded(id)
	if recorded != len(surface.Ops) {
		t.Fatalf("recorded %d ops, surface saw %d", recorded, len(surface.Ops))
	}
	surface.Reset()

	var modelEvents int
	Listen(e.Bus(), func(ModelTransformUpdatedEvent) error {
		modelEvents++
		return nil
	})
	tr.Data().(*Translate).X = 99

	if err := e.Redraw(id); err != nil {
		t.Fatal(err)
	}
	if len(surface.Ops) != recorded {
		t.Errorf("redraw issued %d ops, want %d", len(surface.Ops), recorded)
	}
	if modelEvents != 0 {
		t.Error("redraw should not traverse the tree")
	}
	dc := drawByID(t, surface, "box")
	if !dc.Model.ApproxEqual(mgl32.Translate3D(1, 0, 0)) {
		t.Error("redraw should show the last rendered state, not later edits")
	}
	if e.Renderer().Recorded(id) != recorded {
		t.Error("redraw should not replace the recording")
	}

	if err := e.Redraw("s99"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("redraw unknown: %v", err)
	}
}

func TestListenerFailureIsFatal(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")
	Listen(e.Bus(), func(ModelTransformUpdatedEvent) error { return boom })

	tr := NewTranslate("tr", 1, 0, 0)
	tr.AddChild(NewGeometry("box", "cube"))
	root := NewSceneNode("root", "")
	root.AddChild(tr)
	id := mustCreate(t, e, root)

	err := e.Render(id)
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FatalError", err)
	}
	if fe.NodeID != "tr" || fe.Kind != KindTranslate || fe.SceneID != id {
		t.Errorf("fatal context = %+v", fe)
	}
	var le *ListenerError
	if !errors.As(err, &le) || le.Kind != EventModelTransformUpdated {
		t.Errorf("err should wrap the listener error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("err should wrap boom")
	}
	s, _ := e.Scene(id)
	if !s.State().Balanced() {
		t.Error("stacks should be balanced after a fatal error")
	}
	if s.Rendered() {
		t.Error("a failed pass should not count as rendered")
	}
	if e.ActiveScene() != "" {
		t.Error("scene should be deactivated")
	}
}

func TestNodeErrorListenerFailureIsFatal(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")
	Listen(e.Bus(), func(NodeErrorEvent) error { return boom })

	root := NewSceneNode("root", "")
	root.AddChild(NewInstance("inst", "nowhere"))
	id := mustCreate(t, e, root)

	err := e.Render(id)
	var fe *FatalError
	if !errors.As(err, &fe) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want fatal boom", err)
	}
	if fe.NodeID != "inst" {
		t.Errorf("NodeID = %q, want inst", fe.NodeID)
	}
}

func TestDrawFailureIsRecoverable(t *testing.T) {
	e, surface := newTestEngine(t)
	surface.FailDraw = errors.New("device lost")
	root := NewSceneNode("root", "")
	root.AddChildren(NewGeometry("a", "cube"), NewGeometry("b", "cube"))

	s := renderScene(t, e, root)
	if n := len(s.Stats().Errors); n != 2 {
		t.Errorf("errors = %d, want 2", n)
	}
}

func TestMaxDepth(t *testing.T) {
	e, _ := newTestEngine(t, WithMaxDepth(3))
	root := NewSceneNode("root", "")
	parent := root
	for _, id := range []string{"d1", "d2", "d3", "d4"} {
		n := NewGroup(id)
		parent.AddChild(n)
		parent = n
	}

	s := renderScene(t, e, root)
	st := s.Stats()
	if len(st.Errors) != 1 || !errors.Is(st.Errors[0], ErrMaxDepth) {
		t.Fatalf("errors = %v, want one ErrMaxDepth", st.Errors)
	}
	var te *TraversalError
	errors.As(st.Errors[0], &te)
	if te.NodeID != "d2" || te.Phase != PhaseVisitingChildren || te.Child != 0 {
		t.Errorf("depth error at %q %s child %d, want d2 visiting-children child 0",
			te.NodeID, te.Phase, te.Child)
	}
	if st.MaxPath != 3 {
		t.Errorf("MaxPath = %d, want 3", st.MaxPath)
	}
	if st.Nodes != 3 {
		t.Errorf("Nodes = %d, want d3 and d4 skipped", st.Nodes)
	}
}

func TestMaxDepthSkipsOnlyDeepChild(t *testing.T) {
	e, surface := newTestEngine(t, WithMaxDepth(2))
	deep := NewGroup("deep")
	deep.AddChild(NewGeometry("hidden", "cube"))
	root := NewSceneNode("root", "")
	root.AddChildren(deep, NewGeometry("shown", "cube"))

	s := renderScene(t, e, root)
	errs := s.Stats().Errors
	var te *TraversalError
	if len(errs) != 1 || !errors.As(errs[0], &te) || te.NodeID != "deep" || te.Child != 0 {
		t.Fatalf("errors = %v, want depth error under deep", errs)
	}
	draws := surface.Draws()
	if len(draws) != 1 || draws[0].NodeID != "shown" {
		t.Errorf("draws = %d, want only the sibling within depth", len(draws))
	}
}

func TestLookAtUpAlongViewIsRecoverable(t *testing.T) {
	e, surface := newTestEngine(t)
	eye := NewLookAt("eye", mgl32.Vec3{0, -5, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	eye.AddChild(NewGeometry("box", "cube"))
	root := NewSceneNode("root", "")
	root.AddChild(eye)

	s := renderScene(t, e, root)
	errs := s.Stats().Errors
	var te *TraversalError
	if len(errs) != 1 || !errors.As(errs[0], &te) {
		t.Fatalf("errors = %v, want one TraversalError", errs)
	}
	if te.NodeID != "eye" || te.Phase != PhaseEntering || !errors.Is(te, ErrBadConfig) {
		t.Errorf("error = %v, want ErrBadConfig entering eye", te)
	}
	if n := len(surface.Draws()); n != 0 {
		t.Errorf("draws = %d, want the subtree skipped", n)
	}
	if !s.State().Balanced() {
		t.Error("stacks should be balanced")
	}
}

func TestFatalErrorPhase(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		fail  int
		phase Phase
	}{
		{"push", 1, PhaseEntering},
		{"pop", 2, PhaseExiting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			calls := 0
			Listen(e.Bus(), func(MaterialUpdatedEvent) error {
				calls++
				if calls == tt.fail {
					return boom
				}
				return nil
			})
			mat := NewMaterial("mat", Material{})
			mat.AddChild(NewGeometry("box", "cube"))
			root := NewSceneNode("root", "")
			root.AddChild(mat)
			id := mustCreate(t, e, root)

			var fe *FatalError
			if err := e.Render(id); !errors.As(err, &fe) || !errors.Is(err, boom) {
				t.Fatalf("err = %v, want fatal boom", err)
			}
			if fe.NodeID != "mat" || fe.Phase != tt.phase {
				t.Errorf("fatal at %q %s, want mat %s", fe.NodeID, fe.Phase, tt.phase)
			}
		})
	}
}

func TestLightsPopFailureIsExiting(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")
	calls := 0
	Listen(e.Bus(), func(LightsUpdatedEvent) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	group := NewGroup("lit")
	group.AddChildren(NewLight("bulb", DefaultLight()), NewGeometry("box", "cube"))
	root := NewSceneNode("root", "")
	root.AddChild(group)
	id := mustCreate(t, e, root)

	var fe *FatalError
	if err := e.Render(id); !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FatalError", err)
	}
	if fe.NodeID != "lit" || fe.Phase != PhaseExiting {
		t.Errorf("fatal at %q %s, want lit exiting", fe.NodeID, fe.Phase)
	}
}

func TestNodeErrorListenerFailurePhase(t *testing.T) {
	e, _ := newTestEngine(t)
	Listen(e.Bus(), func(NodeErrorEvent) error { return errors.New("boom") })
	root := NewSceneNode("root", "")
	root.AddChild(NewInstance("inst", "nowhere"))
	id := mustCreate(t, e, root)

	var fe *FatalError
	if err := e.Render(id); !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FatalError", err)
	}
	if fe.Phase != PhaseVisitingChildren {
		t.Errorf("Phase = %s, want visiting-children", fe.Phase)
	}
}

func TestRenderEventsPerNode(t *testing.T) {
	e, _ := newTestEngine(t)
	var views []mgl32.Mat4
	Listen(e.Bus(), func(ev ViewTransformUpdatedEvent) error {
		views = append(views, ev.Matrix)
		return nil
	})
	eye := NewLookAt("eye", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	root := NewSceneNode("root", "")
	root.AddChild(eye)

	renderScene(t, e, root)
	if len(views) != 2 {
		t.Fatalf("view events = %d, want push and pop", len(views))
	}
	if views[0] == mgl32.Ident4() {
		t.Error("entering the lookAt should publish its view")
	}
	if views[1] != mgl32.Ident4() {
		t.Error("leaving the lookAt should restore identity")
	}
}
