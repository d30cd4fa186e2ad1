package canopy

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// traversal is the state of one render pass over one scene.
type traversal struct {
	e      *Engine
	scene  *Scene
	rs     *RenderState
	stats  *PassStats
	logger *slog.Logger

	// path holds the nodes being visited, outermost first. Instances add
	// their targets to it, so it also detects instance cycles.
	path []*Node
}

// run walks the scene from its root. Recoverable errors are collected in the
// pass statistics; the returned error is fatal.
func (t *traversal) run() error {
	start := time.Now()
	err := t.visit(t.scene.root)
	if err != nil && !isFatal(err) {
		err = t.recover(err, PhaseEntering)
	}
	t.stats.Elapsed = time.Since(start)
	t.stats.Balanced = t.rs.Balanced()
	return err
}

// visit renders n and its subtree. State pushed on entry is released by
// deferred calls, so every push is popped on all return paths.
func (t *traversal) visit(n *Node) (err error) {
	t.path = append(t.path, n)
	defer func() { t.path = t.path[:len(t.path)-1] }()
	t.stats.Nodes++
	t.stats.MaxPath = max(t.stats.MaxPath, len(t.path))

	children := n.children

	switch d := n.data.(type) {
	case *Group, *SceneRoot:

	case *Library:
		// Library content is only reachable through instances.
		return nil

	case *Instance:
		target := t.scene.Node(d.Target)
		if target == nil {
			return t.nodeErr(n, PhaseEntering, ErrInstanceTarget)
		}
		for _, p := range t.path {
			if p == target {
				return t.nodeErr(n, PhaseEntering, ErrInstanceCycle)
			}
		}
		children = append([]*Node{target}, n.children...)

	case *Translate, *Scale, *Rotate:
		local, merr := d.(modelling).Matrix()
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		rel, perr := pushState(t, n, CategoryModel, &t.rs.model,
			composeModel(t.rs.Model(), local), modelEvent)
		if perr != nil {
			return perr
		}
		defer t.release(&err, rel)

	case *LookAt:
		local, merr := d.Matrix()
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		rel, perr := pushState(t, n, CategoryView, &t.rs.view,
			composeView(t.rs.View(), local), viewEvent)
		if perr != nil {
			return perr
		}
		defer t.release(&err, rel)

	case *Camera:
		proj, merr := d.Matrix(t.aspect())
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		rel, perr := pushState(t, n, CategoryProjection, &t.rs.projection, proj, projectionEvent)
		if perr != nil {
			return perr
		}
		defer t.release(&err, rel)

	case *Material:
		mat, merr := d.apply(t.rs.Material())
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		rel, perr := pushState(t, n, CategoryMaterial, &t.rs.material, mat, materialEvent)
		if perr != nil {
			return perr
		}
		defer t.release(&err, rel)

	case *Renderer:
		st, merr := d.apply(t.rs.Renderer())
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		clearMask := d.Clear
		rel, perr := pushState(t, n, CategoryRenderer, &t.rs.renderer, st,
			func(s RendererState, entering bool) Event {
				ev := RendererStateUpdatedEvent{State: s}
				if entering {
					ev.Clear = clearMask
				}
				return ev
			})
		if perr != nil {
			return perr
		}
		defer t.release(&err, rel)

	case *Light:
		ls, merr := d.resolve(n.ID, t.rs.Model())
		if merr != nil {
			return t.nodeErr(n, PhaseEntering, merr)
		}
		lights := append(append([]LightState(nil), t.rs.Lights()...), ls)
		rel, perr := pushState(t, n, CategoryLights, &t.rs.lights, lights, lightsEvent)
		if perr != nil {
			return perr
		}
		if len(n.children) == 0 {
			// Lights the rest of the parent's scope; the parent pops it.
			return nil
		}
		defer t.release(&err, rel)

	case *Geometry:
		if derr := t.e.shading.draw(n.ID, d); derr != nil {
			if isFatal(derr) {
				return t.fatal(n, PhaseEntering, derr)
			}
			return t.nodeErr(n, PhaseEntering, derr)
		}
		t.stats.Draws++
		return nil
	}

	// Childless lights among the children push into this scope. Pop them
	// back to the mark before this node's own state is released.
	mark := t.rs.lights.depth()
	defer func() {
		if t.rs.lights.depth() > mark {
			t.release(&err, func() error { return t.popLightsTo(n, mark) })
		}
	}()

	for i, c := range children {
		var cerr error
		if len(t.path) >= t.e.maxDepth {
			cerr = &TraversalError{SceneID: t.scene.id, NodeID: n.ID, Kind: n.Kind(),
				Phase: PhaseVisitingChildren, Child: i, Err: ErrMaxDepth}
		} else {
			cerr = t.visit(c)
		}
		if cerr == nil {
			continue
		}
		if isFatal(cerr) {
			return cerr
		}
		if rerr := t.recover(cerr, PhaseVisitingChildren); rerr != nil {
			return rerr
		}
	}
	return nil
}

// pushState pushes v onto s and publishes the matching update event. The
// returned release pops the entry and publishes the restored top.
func pushState[T any](t *traversal, n *Node, c Category, s *stack[T], v T,
	event func(v T, entering bool) Event) (func() error, error) {
	s.push(v)
	t.stats.Pushes[c]++
	if err := t.e.bus.Publish(event(v, true)); err != nil {
		s.pop()
		t.stats.Pops[c]++
		return nil, t.fatal(n, PhaseEntering, err)
	}
	return func() error {
		s.pop()
		t.stats.Pops[c]++
		if err := t.e.bus.Publish(event(s.top(), false)); err != nil {
			return t.fatal(n, PhaseExiting, err)
		}
		return nil
	}, nil
}

// release runs a deferred pop, keeping the first error.
func (t *traversal) release(err *error, pop func() error) {
	if perr := pop(); perr != nil && *err == nil {
		*err = perr
	}
}

// popLightsTo pops the lights stack down to depth mark and publishes the
// restored light set once.
func (t *traversal) popLightsTo(n *Node, mark int) error {
	for t.rs.lights.depth() > mark {
		t.rs.lights.pop()
		t.stats.Pops[CategoryLights]++
	}
	if err := t.e.bus.Publish(LightsUpdatedEvent{Lights: t.rs.Lights()}); err != nil {
		return t.fatal(n, PhaseExiting, err)
	}
	return nil
}

// recover records a recoverable error: logged, published as NODE_ERROR and
// kept in the pass statistics. A failing NODE_ERROR listener is fatal; phase
// is where the traversal stood when it failed.
func (t *traversal) recover(err error, phase Phase) error {
	var te *TraversalError
	if !errors.As(err, &te) {
		te = &TraversalError{SceneID: t.scene.id, Phase: PhaseNotStarted, Err: err}
	}
	t.stats.Errors = append(t.stats.Errors, te)
	t.logger.Warn("node error",
		slog.String("scene", te.SceneID),
		slog.String("node", te.NodeID),
		slog.String("kind", te.Kind.String()),
		slog.String("phase", te.Phase.String()),
		slog.Any("error", te.Err))
	if perr := t.e.bus.Publish(NodeErrorEvent{Err: te}); perr != nil {
		return &FatalError{Op: "render", SceneID: t.scene.id, NodeID: te.NodeID, Kind: te.Kind, Phase: phase, Err: perr}
	}
	return nil
}

func (t *traversal) nodeErr(n *Node, phase Phase, err error) error {
	return &TraversalError{SceneID: t.scene.id, NodeID: n.ID, Kind: n.Kind(), Phase: phase, Err: err}
}

func (t *traversal) fatal(n *Node, phase Phase, err error) error {
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	t.logger.Error("fatal traversal error",
		slog.String("scene", t.scene.id),
		slog.String("node", n.ID),
		slog.String("phase", phase.String()),
		slog.Any("error", err))
	return &FatalError{Op: "render", SceneID: t.scene.id, NodeID: n.ID, Kind: n.Kind(), Phase: phase, Err: err}
}

// aspect returns the width/height ratio of the current viewport.
func (t *traversal) aspect() float32 {
	vp := t.rs.Renderer().Viewport
	if vp.Height <= 0 {
		return 1
	}
	return float32(vp.Width / vp.Height)
}

func modelEvent(m mgl32.Mat4, _ bool) Event      { return ModelTransformUpdatedEvent{Matrix: m} }
func viewEvent(m mgl32.Mat4, _ bool) Event       { return ViewTransformUpdatedEvent{Matrix: m} }
func projectionEvent(m mgl32.Mat4, _ bool) Event { return ProjectionTransformUpdatedEvent{Matrix: m} }
func materialEvent(m MaterialState, _ bool) Event {
	return MaterialUpdatedEvent{Material: m}
}
func lightsEvent(l []LightState, _ bool) Event { return LightsUpdatedEvent{Lights: l} }
