package canopy

import (
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Module is an engine subsystem driven by bus events. Modules keep derived
// state (current matrices, lights, bound surface) and must clear it on
// ResetEvent.
type Module interface {
	Name() string
	// Attach subscribes the module's listeners. It is called once, when the
	// module is registered.
	Attach(b *Bus)
}

// RegisterModule attaches m to the engine bus. Modules are attached in
// registration order, so their listeners run in that order. Registering a
// second module with the same name panics.
func (e *Engine) RegisterModule(m Module) {
	if m == nil {
		panic("canopy: cannot register nil module")
	}
	name := m.Name()
	if _, ok := e.modules[name]; ok {
		panic("canopy: module " + name + " already registered")
	}
	e.modules[name] = m
	e.moduleOrder = append(e.moduleOrder, name)
	m.Attach(e.bus)
}

// Module returns the registered module with the given name.
func (e *Engine) Module(name string) (Module, bool) {
	m, ok := e.modules[name]
	return m, ok
}

// Modules returns the names of the registered modules in registration order.
func (e *Engine) Modules() []string {
	return slices.Clone(e.moduleOrder)
}

// --- Transform module ---

// TransformModule mirrors the model, view and projection transforms.
type TransformModule struct {
	model, view, projection mgl32.Mat4
}

func newTransformModule() *TransformModule {
	m := &TransformModule{}
	m.reset()
	return m
}

func (m *TransformModule) reset() {
	m.model = mgl32.Ident4()
	m.view = mgl32.Ident4()
	m.projection = mgl32.Ident4()
}

// Name implements Module.
func (m *TransformModule) Name() string { return "transform" }

// Attach implements Module.
func (m *TransformModule) Attach(b *Bus) {
	Listen(b, func(ev ModelTransformUpdatedEvent) error {
		m.model = ev.Matrix
		return nil
	})
	Listen(b, func(ev ViewTransformUpdatedEvent) error {
		m.view = ev.Matrix
		return nil
	})
	Listen(b, func(ev ProjectionTransformUpdatedEvent) error {
		m.projection = ev.Matrix
		return nil
	})
	Listen(b, func(SceneRenderingEvent) error {
		m.reset()
		return nil
	})
	Listen(b, func(ResetEvent) error {
		m.reset()
		return nil
	})
}

// Model returns the current model matrix.
func (m *TransformModule) Model() mgl32.Mat4 { return m.model }

// View returns the current view matrix.
func (m *TransformModule) View() mgl32.Mat4 { return m.view }

// Projection returns the current projection matrix.
func (m *TransformModule) Projection() mgl32.Mat4 { return m.projection }

// --- Lighting module ---

// LightingModule mirrors the lights in scope.
type LightingModule struct {
	lights []LightState
}

// Name implements Module.
func (m *LightingModule) Name() string { return "lighting" }

// Attach implements Module.
func (m *LightingModule) Attach(b *Bus) {
	Listen(b, func(ev LightsUpdatedEvent) error {
		m.lights = append(m.lights[:0], ev.Lights...)
		return nil
	})
	Listen(b, func(SceneRenderingEvent) error {
		m.lights = m.lights[:0]
		return nil
	})
	Listen(b, func(ResetEvent) error {
		m.lights = nil
		return nil
	})
}

// Lights returns the lights in scope. The slice must not be modified.
func (m *LightingModule) Lights() []LightState { return m.lights }

// --- Logging module ---

// LoggingModule tracks the logger of the active scene.
type LoggingModule struct {
	fallback *slog.Logger
	active   *slog.Logger
}

func newLoggingModule(fallback *slog.Logger) *LoggingModule {
	return &LoggingModule{fallback: fallback, active: fallback}
}

// Name implements Module.
func (m *LoggingModule) Name() string { return "logging" }

// Attach implements Module.
func (m *LoggingModule) Attach(b *Bus) {
	Listen(b, func(ev LoggingElementActivatedEvent) error {
		if ev.Logger != nil {
			m.active = ev.Logger
		} else {
			m.active = m.fallback
		}
		return nil
	})
	Listen(b, func(SceneRenderedEvent) error {
		m.active = m.fallback
		return nil
	})
	Listen(b, func(ResetEvent) error {
		m.active = m.fallback
		return nil
	})
}

// Logger returns the logger of the active scene, or the engine logger
// between passes.
func (m *LoggingModule) Logger() *slog.Logger { return m.active }
