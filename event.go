package canopy

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// EventKind identifies an engine event.
type EventKind uint8

const (
	EventInit EventKind = iota
	EventReset
	EventSceneCreated
	EventSceneDestroyed
	EventSceneRendering
	EventSceneRendered
	EventCanvasActivated
	EventCanvasDeactivated
	EventProjectionTransformUpdated
	EventViewTransformUpdated
	EventLoggingElementActivated
	EventModelTransformUpdated
	EventMaterialUpdated
	EventLightsUpdated
	EventRendererStateUpdated
	EventNodeError

	eventKindCount
)

var eventKindNames = [...]string{
	EventInit:                       "INIT",
	EventReset:                      "RESET",
	EventSceneCreated:               "SCENE_CREATED",
	EventSceneDestroyed:             "SCENE_DESTROYED",
	EventSceneRendering:             "SCENE_RENDERING",
	EventSceneRendered:              "SCENE_RENDERED",
	EventCanvasActivated:            "CANVAS_ACTIVATED",
	EventCanvasDeactivated:          "CANVAS_DEACTIVATED",
	EventProjectionTransformUpdated: "PROJECTION_TRANSFORM_UPDATED",
	EventViewTransformUpdated:       "VIEW_TRANSFORM_UPDATED",
	EventLoggingElementActivated:    "LOGGING_ELEMENT_ACTIVATED",
	EventModelTransformUpdated:      "MODEL_TRANSFORM_UPDATED",
	EventMaterialUpdated:            "MATERIAL_UPDATED",
	EventLightsUpdated:              "LIGHTS_UPDATED",
	EventRendererStateUpdated:       "RENDERER_STATE_UPDATED",
	EventNodeError:                  "NODE_ERROR",
}

func (k EventKind) String() string {
	if k < eventKindCount {
		return eventKindNames[k]
	}
	return "UNKNOWN"
}

// Event is implemented by every event payload. Each kind has exactly one
// payload type.
type Event interface {
	Kind() EventKind
}

// InitEvent fires once before the first scene is created, and again on the
// first creation after a reset.
type InitEvent struct{}

// ResetEvent fires when the last scene is destroyed.
type ResetEvent struct{}

// SceneCreatedEvent fires after a scene is registered.
type SceneCreatedEvent struct {
	SceneID string
}

// SceneDestroyedEvent fires after a scene is removed from the registry.
type SceneDestroyedEvent struct {
	SceneID string
}

// SceneRenderingEvent fires when a scene becomes active.
type SceneRenderingEvent struct {
	SceneID string
}

// SceneRenderedEvent fires when the active scene is deactivated.
type SceneRenderedEvent struct {
	SceneID string
}

// CanvasActivatedEvent binds the scene's surface for drawing.
type CanvasActivatedEvent struct {
	SceneID string
	Surface Surface
}

// CanvasDeactivatedEvent releases the surface bound by CanvasActivatedEvent.
type CanvasDeactivatedEvent struct {
	SceneID string
	Surface Surface
}

// ProjectionTransformUpdatedEvent carries the new top of the projection stack.
type ProjectionTransformUpdatedEvent struct {
	Matrix mgl32.Mat4
}

// ViewTransformUpdatedEvent carries the new top of the view stack.
type ViewTransformUpdatedEvent struct {
	Matrix mgl32.Mat4
}

// ModelTransformUpdatedEvent carries the new top of the model stack.
type ModelTransformUpdatedEvent struct {
	Matrix mgl32.Mat4
}

// LoggingElementActivatedEvent selects the logger for the activated scene.
type LoggingElementActivatedEvent struct {
	SceneID string
	Logger  *slog.Logger
}

// MaterialUpdatedEvent carries the new top of the material stack.
type MaterialUpdatedEvent struct {
	Material MaterialState
}

// LightsUpdatedEvent carries the lights now in scope. The slice is owned by
// the traversal and must be copied if retained.
type LightsUpdatedEvent struct {
	Lights []LightState
}

// RendererStateUpdatedEvent carries the new renderer state. Clear is non-zero
// only when entering a Renderer node that requested a clear.
type RendererStateUpdatedEvent struct {
	State RendererState
	Clear ClearMask
}

// NodeErrorEvent reports a recoverable traversal error.
type NodeErrorEvent struct {
	Err *TraversalError
}

func (InitEvent) Kind() EventKind                       { return EventInit }
func (ResetEvent) Kind() EventKind                      { return EventReset }
func (SceneCreatedEvent) Kind() EventKind               { return EventSceneCreated }
func (SceneDestroyedEvent) Kind() EventKind             { return EventSceneDestroyed }
func (SceneRenderingEvent) Kind() EventKind             { return EventSceneRendering }
func (SceneRenderedEvent) Kind() EventKind              { return EventSceneRendered }
func (CanvasActivatedEvent) Kind() EventKind            { return EventCanvasActivated }
func (CanvasDeactivatedEvent) Kind() EventKind          { return EventCanvasDeactivated }
func (ProjectionTransformUpdatedEvent) Kind() EventKind { return EventProjectionTransformUpdated }
func (ViewTransformUpdatedEvent) Kind() EventKind       { return EventViewTransformUpdated }
func (ModelTransformUpdatedEvent) Kind() EventKind      { return EventModelTransformUpdated }
func (LoggingElementActivatedEvent) Kind() EventKind    { return EventLoggingElementActivated }
func (MaterialUpdatedEvent) Kind() EventKind            { return EventMaterialUpdated }
func (LightsUpdatedEvent) Kind() EventKind              { return EventLightsUpdated }
func (RendererStateUpdatedEvent) Kind() EventKind       { return EventRendererStateUpdated }
func (NodeErrorEvent) Kind() EventKind                  { return EventNodeError }

// Listener handles one published event. Returning an error aborts dispatch.
type Listener func(Event) error

// Subscription identifies a registered listener for Unsubscribe.
type Subscription struct {
	kind EventKind
	id   uint64
}

type subscriber struct {
	id uint64
	fn Listener
}

// Bus dispatches events synchronously to listeners in registration order.
// A Bus is owned by one Engine and is not safe for concurrent use.
type Bus struct {
	listeners [eventKindCount][]subscriber
	nextID    uint64
	sink      EventSink
}

// EventSink receives every published event after the listeners have run.
// The ecs package provides a sink backed by a donburi world.
type EventSink interface {
	EmitEvent(Event)
}

// Subscribe registers fn for events of the given kind.
func (b *Bus) Subscribe(kind EventKind, fn Listener) Subscription {
	if fn == nil {
		panic("canopy: cannot subscribe nil listener")
	}
	if kind >= eventKindCount {
		panic("canopy: unknown event kind")
	}
	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], subscriber{id: b.nextID, fn: fn})
	return Subscription{kind: kind, id: b.nextID}
}

// Unsubscribe removes a listener. Unknown subscriptions are ignored. It is
// safe to call from inside a listener: the dispatch in progress keeps the
// list it started with.
func (b *Bus) Unsubscribe(s Subscription) {
	if s.kind >= eventKindCount {
		return
	}
	subs := b.listeners[s.kind]
	for i, sub := range subs {
		if sub.id == s.id {
			// Build a fresh slice so in-flight dispatches are unaffected.
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.listeners[s.kind] = next
			return
		}
	}
}

// Publish dispatches ev to a snapshot of the listeners registered for its
// kind. The first listener error stops dispatch and is returned wrapped in a
// *ListenerError. Events of an unknown kind are rejected with ErrBadConfig.
func (b *Bus) Publish(ev Event) error {
	k := ev.Kind()
	if k >= eventKindCount {
		return fmt.Errorf("%w: unknown event kind %d", ErrBadConfig, k)
	}
	subs := b.listeners[k]
	for _, sub := range subs {
		if err := sub.fn(ev); err != nil {
			return &ListenerError{Kind: k, Err: err}
		}
	}
	if b.sink != nil {
		b.sink.EmitEvent(ev)
	}
	return nil
}

// ListenerCount returns the number of listeners registered for kind.
func (b *Bus) ListenerCount(kind EventKind) int {
	if kind >= eventKindCount {
		return 0
	}
	return len(b.listeners[kind])
}

// Listen subscribes a handler typed on the payload. The kind is taken from
// the zero value of E.
//
//	canopy.Listen(bus, func(ev canopy.SceneCreatedEvent) error {
//	    log.Println("created", ev.SceneID)
//	    return nil
//	})
func Listen[E Event](b *Bus, fn func(E) error) Subscription {
	var zero E
	return b.Subscribe(zero.Kind(), func(ev Event) error {
		return fn(ev.(E))
	})
}
