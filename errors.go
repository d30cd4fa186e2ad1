package canopy

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrapped errors returned by the engine unwrap to one of
// these, so callers can test with errors.Is.
var (
	// ErrSurfaceNotFound is returned when neither the requested surface id
	// nor DefaultSurfaceID is registered.
	ErrSurfaceNotFound = errors.New("canopy: surface not found")

	// ErrSceneNotFound is returned for an unknown scene id.
	ErrSceneNotFound = errors.New("canopy: scene not found")

	// ErrNoActiveScene is returned by DeactivateScene when nothing is active.
	ErrNoActiveScene = errors.New("canopy: no active scene")

	// ErrSceneActive is returned when activating while another scene is active.
	ErrSceneActive = errors.New("canopy: a scene is already active")

	// ErrNodeNotFound is returned when a node id does not resolve.
	ErrNodeNotFound = errors.New("canopy: node not found")

	// ErrDuplicateNodeID is returned when two nodes of one scene share an id.
	ErrDuplicateNodeID = errors.New("canopy: duplicate node id")

	// ErrInstanceTarget is returned when an Instance target does not resolve.
	ErrInstanceTarget = errors.New("canopy: instance target not found")

	// ErrInstanceCycle is returned when an Instance refers back into its own path.
	ErrInstanceCycle = errors.New("canopy: instance cycle")

	// ErrBadConfig is returned for invalid node configuration values.
	ErrBadConfig = errors.New("canopy: bad node configuration")

	// ErrUnknownCommand is returned by Send for an unregistered command name.
	ErrUnknownCommand = errors.New("canopy: unknown command")

	// ErrMaxDepth is returned when traversal exceeds the configured depth.
	ErrMaxDepth = errors.New("canopy: maximum traversal depth exceeded")
)

// Phase is the traversal phase a node was in when an error occurred.
// PhaseNotStarted marks errors raised outside a traversal.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseEntering
	PhaseVisitingChildren
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseEntering:
		return "entering"
	case PhaseVisitingChildren:
		return "visiting-children"
	case PhaseExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// TraversalError is a recoverable failure at one node. The traversal logs
// it, publishes EventNodeError, records it in PassStats and moves on to the
// next sibling. Child is the index of the child being visited when Phase is
// PhaseVisitingChildren.
type TraversalError struct {
	SceneID string
	NodeID  string
	Kind    NodeKind
	Phase   Phase
	Child   int
	Err     error
}

func (e *TraversalError) Error() string {
	if e.Phase == PhaseVisitingChildren {
		return fmt.Sprintf("canopy: scene %s: %s node %q (%s, child %d): %v",
			e.SceneID, e.Kind, e.NodeID, e.Phase, e.Child, e.Err)
	}
	return fmt.Sprintf("canopy: scene %s: %s node %q (%s): %v",
		e.SceneID, e.Kind, e.NodeID, e.Phase, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// FatalError aborts the operation that produced it. For traversal failures
// NodeID, Kind and Phase identify the node being visited; they are empty for
// registry operations.
type FatalError struct {
	Op      string
	SceneID string
	NodeID  string
	Kind    NodeKind
	Phase   Phase
	Err     error
}

func (e *FatalError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("canopy: %s scene %s: %s node %q (%s): %v",
			e.Op, e.SceneID, e.Kind, e.NodeID, e.Phase, e.Err)
	}
	if e.SceneID != "" {
		return fmt.Sprintf("canopy: %s scene %s: %v", e.Op, e.SceneID, e.Err)
	}
	return fmt.Sprintf("canopy: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ListenerError is returned by Bus.Publish when a listener fails. Listeners
// registered after the failing one are not called.
type ListenerError struct {
	Kind EventKind
	Err  error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("canopy: %s listener: %v", e.Kind, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// isFatal reports whether err must abort the traversal instead of being
// recorded against a single node.
func isFatal(err error) bool {
	var fe *FatalError
	var le *ListenerError
	return errors.As(err, &fe) || errors.As(err, &le)
}
