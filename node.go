package canopy

import (
	"strconv"
	"sync/atomic"
)

// --- ID counter ---

// nodeIDCounter backs auto-assigned ids. Atomic so engines on separate
// goroutines can build trees concurrently.
var nodeIDCounter atomic.Uint64

func nextNodeID() string {
	return "#" + strconv.FormatUint(nodeIDCounter.Add(1), 10)
}

// --- Node data ---

// NodeData is the kind-specific configuration of a Node. The set of
// implementations is closed: Group, SceneRoot, Library, Instance, LookAt,
// Camera, Light, Material, Renderer, Translate, Scale, Rotate and Geometry.
type NodeData interface {
	Kind() NodeKind
	nodeData()
}

// Group is a plain grouping node with no effect of its own.
type Group struct{}

// SceneRoot configures the root of a scene.
type SceneRoot struct {
	// SurfaceID names the surface to bind. Empty or unknown ids fall back to
	// DefaultSurfaceID.
	SurfaceID string
	// LogSinkID names a logger registered with Engine.RegisterLogSink.
	LogSinkID string
}

// Library holds subtrees that are only rendered through Instance nodes.
type Library struct{}

// Instance renders the node with id Target as if it were its own child.
// The target is resolved by id at traversal time, never held by pointer.
type Instance struct {
	Target string
}

func (*Group) Kind() NodeKind     { return KindGroup }
func (*SceneRoot) Kind() NodeKind { return KindScene }
func (*Library) Kind() NodeKind   { return KindLibrary }
func (*Instance) Kind() NodeKind  { return KindInstance }
func (*LookAt) Kind() NodeKind    { return KindLookAt }
func (*Camera) Kind() NodeKind    { return KindCamera }
func (*Light) Kind() NodeKind     { return KindLight }
func (*Material) Kind() NodeKind  { return KindMaterial }
func (*Renderer) Kind() NodeKind  { return KindRenderer }
func (*Translate) Kind() NodeKind { return KindTranslate }
func (*Scale) Kind() NodeKind     { return KindScale }
func (*Rotate) Kind() NodeKind    { return KindRotate }
func (*Geometry) Kind() NodeKind  { return KindGeometry }

func (*Group) nodeData()     {}
func (*SceneRoot) nodeData() {}
func (*Library) nodeData()   {}
func (*Instance) nodeData()  {}
func (*LookAt) nodeData()    {}
func (*Camera) nodeData()    {}
func (*Light) nodeData()     {}
func (*Material) nodeData()  {}
func (*Renderer) nodeData()  {}
func (*Translate) nodeData() {}
func (*Scale) nodeData()     {}
func (*Rotate) nodeData()    {}
func (*Geometry) nodeData()  {}

// --- Node ---

// Node is the scene graph element. Kind-specific configuration lives in the
// NodeData it carries; the tree structure is shared by all kinds.
type Node struct {
	// ID is unique within a scene. Constructors assign "#<n>" when given "".
	ID string

	// Parent is nil for roots and detached nodes.
	Parent   *Node
	children []*Node

	data NodeData

	// UserData is not used by the engine.
	UserData any

	disposed bool
}

// NewNode creates a node carrying data. An empty id is replaced with an
// auto-assigned one.
func NewNode(id string, data NodeData) *Node {
	if data == nil {
		panic("canopy: node data must not be nil")
	}
	if id == "" {
		id = nextNodeID()
	}
	return &Node{ID: id, data: data}
}

// NewGroup creates a grouping node.
func NewGroup(id string) *Node {
	return NewNode(id, &Group{})
}

// NewSceneNode creates a scene root bound to the given surface id.
func NewSceneNode(id, surfaceID string) *Node {
	return NewNode(id, &SceneRoot{SurfaceID: surfaceID})
}

// NewLibrary creates a library node.
func NewLibrary(id string) *Node {
	return NewNode(id, &Library{})
}

// NewInstance creates an instance of the node with id target.
func NewInstance(id, target string) *Node {
	return NewNode(id, &Instance{Target: target})
}

// Kind returns the node's kind.
func (n *Node) Kind() NodeKind {
	return n.data.Kind()
}

// Data returns the node's kind-specific configuration. Mutating it takes
// effect on the next traversal.
func (n *Node) Data() NodeData {
	return n.data
}

// As returns n's data as T when the node is of that kind.
//
//	if la, ok := canopy.As[*canopy.LookAt](n); ok {
//	    la.Rotate(15, canopy.RotateOptions{IgnoreY: true})
//	}
func As[T NodeData](n *Node) (T, bool) {
	t, ok := n.data.(T)
	return t, ok
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil, child is an ancestor of this node (cycle), or
// this node is a Geometry leaf.
func (n *Node) AddChild(child *Node) {
	n.checkAdd(child)
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// AddChildren appends each child in order.
func (n *Node) AddChildren(children ...*Node) {
	for _, c := range children {
		n.AddChild(c)
	}
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	n.checkAdd(child)
	if child.Parent == n {
		n.removeChildByPtr(child)
	}
	if index < 0 || index > len(n.children) {
		panic("canopy: child index out of range")
	}
	if child.Parent != nil && child.Parent != n {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
}

func (n *Node) checkAdd(child *Node) {
	if child == nil {
		panic("canopy: cannot add nil child")
	}
	if n.disposed || child.disposed {
		panic("canopy: node is disposed")
	}
	if n.data.Kind() == KindGeometry {
		panic("canopy: geometry nodes cannot have children")
	}
	if isAncestor(child, n) {
		panic("canopy: adding child would create a cycle")
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("canopy: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("canopy: child index out of range")
	}
	child := n.children[index]
	copy(n.children[index:], n.children[index+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	child.Parent = nil
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
func (n *Node) RemoveChildren() {
	for i, child := range n.children {
		child.Parent = nil
		n.children[i] = nil
	}
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node in this subtree (depth-first, pre-order,
// including n) whose ID is id, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Walk calls fn for n and each descendant in depth-first pre-order until fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
