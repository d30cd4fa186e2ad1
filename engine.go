package canopy

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Engine owns the event bus, the modules and the scene registry. All engine
// state lives here; separate engines share nothing and may run on separate
// goroutines. An Engine itself is not safe for concurrent use.
type Engine struct {
	bus      *Bus
	logger   *slog.Logger
	sinks    map[string]*slog.Logger
	surfaces *Surfaces
	debug    bool
	maxDepth int

	modules     map[string]Module
	moduleOrder []string

	transform *TransformModule
	lighting  *LightingModule
	shading   *ShadingModule
	renderer  *RendererModule
	logging   *LoggingModule

	scenes      map[string]*Scene
	sceneOrder  []string
	nextScene   int
	active      *Scene
	initialised bool

	commands map[string]CommandHandler
}

// NewEngine creates an engine with the built-in modules and commands.
func NewEngine(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = newNopLogger()
	}
	if o.surfaces == nil {
		o.surfaces = NewSurfaces()
	}
	primitives := builtinPrimitives()
	for name, fn := range o.primitives {
		primitives[name] = fn
	}

	e := &Engine{
		bus:      &Bus{},
		logger:   o.logger,
		sinks:    make(map[string]*slog.Logger),
		surfaces: o.surfaces,
		debug:    o.debug,
		maxDepth: o.maxDepth,
		modules:  make(map[string]Module),
		scenes:   make(map[string]*Scene),
		commands: make(map[string]CommandHandler),
	}

	e.transform = newTransformModule()
	e.lighting = &LightingModule{}
	e.renderer = newRendererModule()
	e.shading = newShadingModule(e.transform, e.lighting, e.renderer, primitives)
	e.logging = newLoggingModule(e.logger)
	e.RegisterModule(e.logging)
	e.RegisterModule(e.transform)
	e.RegisterModule(e.lighting)
	e.RegisterModule(e.renderer)
	e.RegisterModule(e.shading)

	registerBuiltinCommands(e)
	return e
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// Surfaces returns the surface registry scenes bind to.
func (e *Engine) Surfaces() *Surfaces { return e.surfaces }

// SetEventSink forwards every published event to sink. Pass nil to stop.
func (e *Engine) SetEventSink(sink EventSink) { e.bus.sink = sink }

// Transform returns the built-in transform module.
func (e *Engine) Transform() *TransformModule { return e.transform }

// Lighting returns the built-in lighting module.
func (e *Engine) Lighting() *LightingModule { return e.lighting }

// Shading returns the built-in shading module.
func (e *Engine) Shading() *ShadingModule { return e.shading }

// Renderer returns the built-in renderer module.
func (e *Engine) Renderer() *RendererModule { return e.renderer }

// Logging returns the built-in logging module.
func (e *Engine) Logging() *LoggingModule { return e.logging }

// CreateScene registers the scene rooted at root and returns its id. The root
// must be a scene node. Its surface id is resolved against the surface
// registry, falling back to DefaultSurfaceID. Node ids must be unique within
// the scene.
//
// The first creation after the engine starts, or after the last scene was
// destroyed, publishes INIT before SCENE_CREATED.
func (e *Engine) CreateScene(root *Node) (string, error) {
	if root == nil {
		return "", &FatalError{Op: "create", Err: fmt.Errorf("%w: nil scene root", ErrBadConfig)}
	}
	cfg, ok := As[*SceneRoot](root)
	if !ok {
		return "", &FatalError{Op: "create", NodeID: root.ID, Kind: root.Kind(),
			Err: fmt.Errorf("%w: scene root must be a scene node, got %s", ErrBadConfig, root.Kind())}
	}
	if root.Parent != nil {
		return "", &FatalError{Op: "create", NodeID: root.ID, Kind: root.Kind(),
			Err: fmt.Errorf("%w: scene root has a parent", ErrBadConfig)}
	}
	surface, surfaceID, err := e.surfaces.Resolve(cfg.SurfaceID)
	if err != nil {
		return "", &FatalError{Op: "create", Err: err}
	}
	index, err := buildIndex(root)
	if err != nil {
		return "", &FatalError{Op: "create", Err: err}
	}

	if !e.initialised {
		if err := e.bus.Publish(InitEvent{}); err != nil {
			return "", &FatalError{Op: "create", Err: err}
		}
		e.initialised = true
	}

	id := "s" + strconv.Itoa(e.nextScene)
	e.nextScene++
	s := &Scene{
		id:        id,
		root:      root,
		surface:   surface,
		surfaceID: surfaceID,
		logger:    e.resolveLogSink(cfg.LogSinkID).With(slog.String("scene", id)),
		index:     index,
	}
	e.scenes[id] = s
	e.sceneOrder = append(e.sceneOrder, id)

	if err := e.bus.Publish(SceneCreatedEvent{SceneID: id}); err != nil {
		e.removeScene(id)
		return "", &FatalError{Op: "create", SceneID: id, Err: err}
	}
	e.logger.Info("scene created",
		slog.String("scene", id),
		slog.String("surface", surfaceID),
		slog.Int("nodes", len(index)))
	return id, nil
}

// DestroyScene removes a scene. Destroying the last scene publishes RESET,
// after which every module is back to its initial state.
func (e *Engine) DestroyScene(id string) error {
	s, ok := e.scenes[id]
	if !ok {
		return &FatalError{Op: "destroy", SceneID: id, Err: ErrSceneNotFound}
	}
	if e.active == s {
		return &FatalError{Op: "destroy", SceneID: id, Err: ErrSceneActive}
	}
	e.removeScene(id)
	if err := e.bus.Publish(SceneDestroyedEvent{SceneID: id}); err != nil {
		return &FatalError{Op: "destroy", SceneID: id, Err: err}
	}
	e.logger.Info("scene destroyed", slog.String("scene", id))
	if len(e.scenes) == 0 {
		e.initialised = false
		e.nextScene = 0
		if err := e.bus.Publish(ResetEvent{}); err != nil {
			return &FatalError{Op: "reset", Err: err}
		}
	}
	return nil
}

// Reset destroys every scene in creation order. RESET is published once,
// when the last one goes.
func (e *Engine) Reset() error {
	var errs []error
	for _, id := range append([]string(nil), e.sceneOrder...) {
		if err := e.DestroyScene(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) removeScene(id string) {
	delete(e.scenes, id)
	for i, sid := range e.sceneOrder {
		if sid == id {
			e.sceneOrder = append(e.sceneOrder[:i], e.sceneOrder[i+1:]...)
			break
		}
	}
}

// ActivateScene makes a scene the active one and binds its surface. It
// publishes LOGGING_ELEMENT_ACTIVATED, SCENE_RENDERING and CANVAS_ACTIVATED
// in that order. If a listener fails the scene stays active; call
// DeactivateScene to release it.
func (e *Engine) ActivateScene(id string) error {
	s, ok := e.scenes[id]
	if !ok {
		return &FatalError{Op: "activate", SceneID: id, Err: ErrSceneNotFound}
	}
	if e.active != nil {
		return &FatalError{Op: "activate", SceneID: id,
			Err: fmt.Errorf("%w: %s", ErrSceneActive, e.active.id)}
	}
	e.active = s
	events := [...]Event{
		LoggingElementActivatedEvent{SceneID: id, Logger: s.logger},
		SceneRenderingEvent{SceneID: id},
		CanvasActivatedEvent{SceneID: id, Surface: s.surface},
	}
	for _, ev := range events {
		if err := e.bus.Publish(ev); err != nil {
			return &FatalError{Op: "activate", SceneID: id, Err: err}
		}
	}
	return nil
}

// DeactivateScene releases the active scene, publishing CANVAS_DEACTIVATED
// and SCENE_RENDERED. The scene is released even if a listener fails.
func (e *Engine) DeactivateScene() error {
	s := e.active
	if s == nil {
		return &FatalError{Op: "deactivate", Err: ErrNoActiveScene}
	}
	e.active = nil
	var errs []error
	if err := e.bus.Publish(CanvasDeactivatedEvent{SceneID: s.id, Surface: s.surface}); err != nil {
		errs = append(errs, err)
	}
	if err := e.bus.Publish(SceneRenderedEvent{SceneID: s.id}); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &FatalError{Op: "deactivate", SceneID: s.id, Err: errors.Join(errs...)}
	}
	return nil
}

// ActiveScene returns the id of the active scene, or "".
func (e *Engine) ActiveScene() string {
	if e.active == nil {
		return ""
	}
	return e.active.id
}

// Render activates a scene, traverses it onto its surface and deactivates
// it. Recoverable node errors do not fail the pass; they are reported in the
// scene's PassStats and as NODE_ERROR events. The returned error is fatal.
func (e *Engine) Render(id string) (err error) {
	if err := e.ActivateScene(id); err != nil {
		if e.active != nil && e.active.id == id {
			_ = e.DeactivateScene()
		}
		return err
	}
	s := e.active
	defer func() {
		if derr := e.DeactivateScene(); derr != nil && err == nil {
			err = derr
		}
	}()

	w, h := s.surface.Size()
	s.state.reset(w, h)
	s.stats = PassStats{}
	t := &traversal{
		e:      e,
		scene:  s,
		rs:     &s.state,
		stats:  &s.stats,
		logger: s.logger,
	}
	err = t.run()
	s.rendered = err == nil
	e.debugLog(s)
	return err
}

// RenderAll renders every scene in creation order and joins the errors.
func (e *Engine) RenderAll() error {
	var errs []error
	for _, id := range append([]string(nil), e.sceneOrder...) {
		if err := e.Render(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Redraw replays the surface operations of a scene's last render pass
// without traversing the node tree, so node edits since then are not shown.
// It publishes CANVAS_ACTIVATED and CANVAS_DEACTIVATED around the replay.
// Redrawing a scene that has never rendered is a no-op.
func (e *Engine) Redraw(id string) error {
	s, ok := e.scenes[id]
	if !ok {
		return &FatalError{Op: "redraw", SceneID: id, Err: ErrSceneNotFound}
	}
	if e.active != nil {
		return &FatalError{Op: "redraw", SceneID: id, Err: ErrSceneActive}
	}
	if !s.rendered {
		return nil
	}
	e.renderer.replaying = true
	defer func() { e.renderer.replaying = false }()

	if err := e.bus.Publish(CanvasActivatedEvent{SceneID: id, Surface: s.surface}); err != nil {
		return &FatalError{Op: "redraw", SceneID: id, Err: err}
	}
	n, rerr := e.renderer.replay(id)
	derr := e.bus.Publish(CanvasDeactivatedEvent{SceneID: id, Surface: s.surface})
	if err := errors.Join(rerr, derr); err != nil {
		return &FatalError{Op: "redraw", SceneID: id, Err: err}
	}
	if e.debug {
		s.logger.Debug("redraw", slog.Int("ops", n))
	}
	return nil
}

// Scene returns a registered scene.
func (e *Engine) Scene(id string) (*Scene, bool) {
	s, ok := e.scenes[id]
	return s, ok
}

// Scenes returns the ids of the registered scenes in creation order.
func (e *Engine) Scenes() []string {
	return append([]string(nil), e.sceneOrder...)
}

// SceneSurface returns the surface a scene is bound to.
func (e *Engine) SceneSurface(id string) (Surface, error) {
	s, ok := e.scenes[id]
	if !ok {
		return nil, &FatalError{Op: "surface", SceneID: id, Err: ErrSceneNotFound}
	}
	return s.surface, nil
}

// Node finds a node by id across all scenes, searching in creation order.
func (e *Engine) Node(id string) (*Node, error) {
	for _, sid := range e.sceneOrder {
		if n := e.scenes[sid].Node(id); n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
}
