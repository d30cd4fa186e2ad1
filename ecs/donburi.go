// Package ecs provides ECS adapters for canopy.
package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EngineEvent wraps a canopy event for delivery through donburi.
type EngineEvent struct {
	Kind  canopy.EventKind
	Event canopy.Event
	// SceneID is set for scene lifecycle and canvas events.
	SceneID string
}

// EngineEventType is the Donburi event type for canopy engine events.
var EngineEventType = events.NewEventType[EngineEvent]()

type donburiSink struct {
	world donburi.World
	kinds map[canopy.EventKind]bool
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// queued on EngineEventType and delivered by ProcessEvents. With kinds given,
// only those kinds are forwarded.
func NewDonburiSink(world donburi.World, kinds ...canopy.EventKind) canopy.EventSink {
	s := &donburiSink{world: world}
	if len(kinds) > 0 {
		s.kinds = make(map[canopy.EventKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	return s
}

func (s *donburiSink) EmitEvent(ev canopy.Event) {
	k := ev.Kind()
	if s.kinds != nil && !s.kinds[k] {
		return
	}
	EngineEventType.Publish(s.world, EngineEvent{Kind: k, Event: ev, SceneID: sceneID(ev)})
}

func sceneID(ev canopy.Event) string {
	switch e := ev.(type) {
	case canopy.SceneCreatedEvent:
		return e.SceneID
	case canopy.SceneDestroyedEvent:
		return e.SceneID
	case canopy.SceneRenderingEvent:
		return e.SceneID
	case canopy.SceneRenderedEvent:
		return e.SceneID
	case canopy.CanvasActivatedEvent:
		return e.SceneID
	case canopy.CanvasDeactivatedEvent:
		return e.SceneID
	case canopy.LoggingElementActivatedEvent:
		return e.SceneID
	case canopy.NodeErrorEvent:
		if e.Err != nil {
			return e.Err.SceneID
		}
	}
	return ""
}
