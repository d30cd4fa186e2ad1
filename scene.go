package canopy

import (
	"fmt"
	"log/slog"
)

// Scene is a registered scene graph bound to a surface. Scenes are created
// with Engine.CreateScene and rendered with Engine.Render.
type Scene struct {
	id        string
	root      *Node
	surface   Surface
	surfaceID string
	logger    *slog.Logger

	index map[string]*Node

	state    RenderState
	stats    PassStats
	rendered bool
}

// ID returns the scene id assigned at creation ("s0", "s1", ...).
func (s *Scene) ID() string { return s.id }

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.root }

// Surface returns the surface the scene is bound to.
func (s *Scene) Surface() Surface { return s.surface }

// SurfaceID returns the id of the bound surface. It differs from the id the
// root requested when the default surface was used instead.
func (s *Scene) SurfaceID() string { return s.surfaceID }

// Logger returns the logger selected for the scene.
func (s *Scene) Logger() *slog.Logger { return s.logger }

// Stats returns the statistics of the last render pass.
func (s *Scene) Stats() PassStats { return s.stats }

// State returns the scene's render state. Between passes every stack is
// empty and the accessors return base values.
func (s *Scene) State() *RenderState { return &s.state }

// Rendered reports whether the scene has completed a render pass.
func (s *Scene) Rendered() bool { return s.rendered }

// Node returns the node with the given id in this scene, or nil. The index
// is rebuilt when a lookup misses or finds a node that has since been moved
// out of the scene or renamed, so nodes added after creation are found.
func (s *Scene) Node(id string) *Node {
	if n, ok := s.index[id]; ok && n.ID == id && s.contains(n) {
		return n
	}
	s.reindex()
	return s.index[id]
}

// contains reports whether n is attached under the scene root.
func (s *Scene) contains(n *Node) bool {
	return isAncestor(s.root, n)
}

// buildIndex maps ids to nodes, failing on duplicates.
func buildIndex(root *Node) (map[string]*Node, error) {
	index := make(map[string]*Node)
	var dup error
	root.Walk(func(n *Node) bool {
		if _, ok := index[n.ID]; ok {
			dup = fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
			return false
		}
		index[n.ID] = n
		return true
	})
	return index, dup
}

// reindex rebuilds the index after tree edits. The first node wins when ids
// have since been duplicated.
func (s *Scene) reindex() {
	index := make(map[string]*Node, len(s.index))
	s.root.Walk(func(n *Node) bool {
		if _, ok := index[n.ID]; !ok {
			index[n.ID] = n
		}
		return true
	})
	s.index = index
}
