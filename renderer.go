package canopy

import (
	"fmt"
)

// RendererState is the resolved surface state in effect during traversal.
type RendererState struct {
	Viewport     Viewport
	ClearColor   Color
	ClearStencil int
	LineWidth    float64
	Blend        BlendState
	Depth        DepthState
}

// DefaultRendererState returns the state in effect outside every Renderer
// node: a full-surface viewport, black clear color, depth test on with
// lequal, blending off.
func DefaultRendererState(width, height int) RendererState {
	return RendererState{
		Viewport:   Viewport{Width: float64(width), Height: float64(height)},
		ClearColor: ColorBlack,
		LineWidth:  1,
		Blend: BlendState{
			SrcRGB:   BlendOne,
			DstRGB:   BlendZero,
			SrcAlpha: BlendOne,
			DstAlpha: BlendZero,
		},
		Depth: DepthState{
			Test:       true,
			Func:       DepthLEqual,
			Mask:       true,
			RangeNear:  0,
			RangeFar:   1,
			ClearDepth: 1,
		},
	}
}

// Renderer configures viewport, clearing, blending and depth testing for its
// subtree. Nil fields inherit the enclosing state. The enclosing state is
// restored when the subtree has been rendered.
type Renderer struct {
	// Clear is issued once on entry, after the new state is applied.
	Clear        ClearMask
	ClearColor   *Color
	ClearDepth   *float64
	ClearStencil *int

	Viewport  *Viewport
	LineWidth *float64

	EnableBlend        *bool
	BlendColor         *Color
	BlendEquationRGB   *BlendEquation
	BlendEquationAlpha *BlendEquation
	BlendSrcRGB        *BlendFactor
	BlendDstRGB        *BlendFactor
	BlendSrcAlpha      *BlendFactor
	BlendDstAlpha      *BlendFactor

	EnableDepthTest *bool
	DepthFunc       *DepthFunc
	DepthMask       *bool
	DepthRange      *[2]float64
}

// NewRenderer creates a renderer node.
func NewRenderer(id string, r Renderer) *Node {
	return NewNode(id, &r)
}

// Bool returns a pointer to v, for Renderer literals.
func Bool(v bool) *bool { return &v }

// apply returns parent with the fields set on r overridden.
func (r *Renderer) apply(parent RendererState) (RendererState, error) {
	out := parent
	if r.Viewport != nil {
		if r.Viewport.Width < 0 || r.Viewport.Height < 0 {
			return parent, fmt.Errorf("%w: negative viewport size", ErrBadConfig)
		}
		out.Viewport = *r.Viewport
	}
	if r.ClearColor != nil {
		out.ClearColor = *r.ClearColor
	}
	if r.ClearDepth != nil {
		out.Depth.ClearDepth = *r.ClearDepth
	}
	if r.ClearStencil != nil {
		out.ClearStencil = *r.ClearStencil
	}
	if r.LineWidth != nil {
		if *r.LineWidth <= 0 {
			return parent, fmt.Errorf("%w: line width %g must be positive", ErrBadConfig, *r.LineWidth)
		}
		out.LineWidth = *r.LineWidth
	}
	if r.EnableBlend != nil {
		out.Blend.Enabled = *r.EnableBlend
	}
	if r.BlendColor != nil {
		out.Blend.Color = *r.BlendColor
	}
	if r.BlendEquationRGB != nil {
		out.Blend.EquationRGB = *r.BlendEquationRGB
	}
	if r.BlendEquationAlpha != nil {
		out.Blend.EquationAlpha = *r.BlendEquationAlpha
	}
	if r.BlendSrcRGB != nil {
		out.Blend.SrcRGB = *r.BlendSrcRGB
	}
	if r.BlendDstRGB != nil {
		out.Blend.DstRGB = *r.BlendDstRGB
	}
	if r.BlendSrcAlpha != nil {
		out.Blend.SrcAlpha = *r.BlendSrcAlpha
	}
	if r.BlendDstAlpha != nil {
		out.Blend.DstAlpha = *r.BlendDstAlpha
	}
	if r.EnableDepthTest != nil {
		out.Depth.Test = *r.EnableDepthTest
	}
	if r.DepthFunc != nil {
		out.Depth.Func = *r.DepthFunc
	}
	if r.DepthMask != nil {
		out.Depth.Mask = *r.DepthMask
	}
	if r.DepthRange != nil {
		out.Depth.RangeNear = r.DepthRange[0]
		out.Depth.RangeFar = r.DepthRange[1]
	}
	return out, nil
}

// --- Renderer module ---

// RendererModule binds the active scene's surface, applies renderer state to
// it and records every surface operation of a render pass so the pass can be
// replayed by Engine.Redraw.
type RendererModule struct {
	surface Surface
	sceneID string
	state   RendererState

	recording  []SurfaceOp
	recordings map[string][]SurfaceOp
	replaying  bool
}

func newRendererModule() *RendererModule {
	return &RendererModule{recordings: make(map[string][]SurfaceOp)}
}

// Name implements Module.
func (m *RendererModule) Name() string { return "renderer" }

// Attach implements Module.
func (m *RendererModule) Attach(b *Bus) {
	Listen(b, func(ev SceneRenderingEvent) error {
		m.recording = nil
		return nil
	})
	Listen(b, func(ev CanvasActivatedEvent) error {
		m.surface = ev.Surface
		m.sceneID = ev.SceneID
		if m.replaying {
			return nil
		}
		w, h := ev.Surface.Size()
		return m.apply(DefaultRendererState(w, h), 0)
	})
	Listen(b, func(ev RendererStateUpdatedEvent) error {
		return m.apply(ev.State, ev.Clear)
	})
	Listen(b, func(ev CanvasDeactivatedEvent) error {
		m.surface = nil
		return nil
	})
	Listen(b, func(ev SceneRenderedEvent) error {
		if !m.replaying {
			m.recordings[ev.SceneID] = m.recording
			m.recording = nil
		}
		m.sceneID = ""
		return nil
	})
	Listen(b, func(ev SceneDestroyedEvent) error {
		delete(m.recordings, ev.SceneID)
		return nil
	})
	Listen(b, func(ResetEvent) error {
		m.surface = nil
		m.sceneID = ""
		m.state = RendererState{}
		m.recording = nil
		m.recordings = make(map[string][]SurfaceOp)
		return nil
	})
}

// Surface returns the surface bound for the pass in progress, or nil.
func (m *RendererModule) Surface() Surface { return m.surface }

// State returns the renderer state last applied.
func (m *RendererModule) State() RendererState { return m.state }

// Recorded returns the number of surface operations recorded for a scene's
// last render pass.
func (m *RendererModule) Recorded(sceneID string) int {
	return len(m.recordings[sceneID])
}

func (m *RendererModule) apply(s RendererState, clear ClearMask) error {
	m.state = s
	if err := m.exec(SurfaceOp{Op: OpViewport, Viewport: s.Viewport}); err != nil {
		return err
	}
	if err := m.exec(SurfaceOp{Op: OpBlend, Blend: s.Blend}); err != nil {
		return err
	}
	if err := m.exec(SurfaceOp{Op: OpDepth, Depth: s.Depth}); err != nil {
		return err
	}
	if clear != 0 {
		return m.exec(SurfaceOp{
			Op:           OpClear,
			Clear:        clear,
			Color:        s.ClearColor,
			ClearDepth:   s.Depth.ClearDepth,
			ClearStencil: s.ClearStencil,
		})
	}
	return nil
}

func (m *RendererModule) draw(dc *DrawCall) error {
	return m.exec(SurfaceOp{Op: OpDraw, Draw: dc})
}

func (m *RendererModule) exec(op SurfaceOp) error {
	if m.surface == nil {
		return fmt.Errorf("canopy: %s with no surface bound", op.Op)
	}
	m.recording = append(m.recording, op)
	return op.Apply(m.surface)
}

// replay re-issues a scene's recorded operations on the bound surface.
func (m *RendererModule) replay(sceneID string) (int, error) {
	ops := m.recordings[sceneID]
	if m.surface == nil {
		return 0, fmt.Errorf("canopy: redraw with no surface bound")
	}
	for i, op := range ops {
		if err := op.Apply(m.surface); err != nil {
			return i, err
		}
	}
	return len(ops), nil
}
