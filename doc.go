// Package canopy is a retained-mode 3D scene-graph engine.
//
// A scene is a tree of typed [Node] values: transforms, viewing and camera
// nodes, lights, materials, renderer state and geometry. Rendering walks the
// tree depth first. Each stateful node pushes its contribution onto a
// per-category state stack on entry and pops it on exit, so a node's
// settings apply to its subtree and nothing else.
//
// # Quick start
//
// Register a surface, create an engine, build a scene and render it:
//
//	surfaces := canopy.NewSurfaces()
//	surfaces.Register(canopy.DefaultSurfaceID, canopy.NewEbitenSurface(nil))
//	e := canopy.NewEngine(canopy.WithSurfaces(surfaces))
//
//	root := canopy.NewSceneNode("scene", "")
//	eye := canopy.NewLookAt("eye", mgl32.Vec3{0, 0, -10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
//	cam := canopy.NewCamera("cam", canopy.DefaultOptics)
//	cam.AddChild(canopy.NewGeometry("box", "cube"))
//	eye.AddChild(cam)
//	root.AddChild(eye)
//	if _, err := e.CreateScene(root); err != nil {
//		log.Fatal(err)
//	}
//	canopy.Run(e, canopy.RunConfig{Title: "Demo", Width: 640, Height: 480})
//
// For full control, implement [ebiten.Game] yourself: point an
// [EbitenSurface] at the screen in Draw and call [Engine.Render].
//
// Scenes can also be described as JSON and decoded with [ParseNode]:
//
//	{"type": "scene", "nodes": [
//	    {"type": "lookAt", "eye": {"z": -10}, "up": {"y": 1}, "nodes": [
//	        {"type": "camera", "optics": {"type": "perspective", "fovy": 45}, "nodes": [
//	            {"type": "cube"}]}]}]}
//
// # Scene graph
//
// Model transforms ([Translate], [Scale], [Rotate]) compose parent times
// local. [LookAt] composes the view transform the same way, while a
// [Camera] replaces the projection. A [Light] with children lights only its
// subtree; a childless light lights the siblings that follow it. [Library]
// subtrees are never drawn directly; [Instance] nodes render them by id.
//
// # Modules and events
//
// The engine publishes typed events on a [Bus]: scene lifecycle, canvas
// activation and every state change. The built-in modules (transform,
// lighting, shading, renderer, logging) subscribe to them, and so can your
// own [Module] implementations. Forward events elsewhere with
// [Engine.SetEventSink]; canopy/ecs provides a [Donburi] sink.
//
// # Key features
//
// Canopy includes GL-style renderer state (viewport, clear, blend, depth)
// mapped onto [Ebitengine] blend modes, a recording surface for headless
// tests, redraw by operation replay, command dispatch for camera control,
// tweens (via [gween]), JSON scripts with PNG screenshots, and structured
// logging through [log/slog]. All math uses [mathgl].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
// [mathgl]: https://github.com/go-gl/mathgl
package canopy
