package canopy

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSurfaceID is the surface scenes fall back to when the id they name
// is not registered.
const DefaultSurfaceID = "_canopy_default_surface"

// Surface is a drawing target bound to a scene.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)
	// Clear clears the buffers selected by mask inside the current viewport.
	Clear(mask ClearMask, c Color, depth float64, stencil int) error
	SetViewport(v Viewport) error
	SetBlendState(b BlendState) error
	SetDepthState(d DepthState) error
	// DrawPrimitive draws one geometry leaf with the combined state.
	DrawPrimitive(dc *DrawCall) error
}

// Snapshotter is implemented by surfaces that can read back their pixels.
// The returned image is straight (non-premultiplied) alpha.
type Snapshotter interface {
	Snapshot() (*image.NRGBA, error)
}

// DrawCall is everything a surface needs to draw one geometry leaf.
type DrawCall struct {
	NodeID     string
	Primitive  string
	Mesh       *Mesh
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Material   MaterialState
	Lights     []LightState
	State      RendererState
}

// MVP returns projection * view * model.
func (dc *DrawCall) MVP() mgl32.Mat4 {
	return dc.Projection.Mul4(dc.View).Mul4(dc.Model)
}

// OpKind identifies a recorded surface operation.
type OpKind uint8

const (
	OpViewport OpKind = iota
	OpBlend
	OpDepth
	OpClear
	OpDraw
)

func (k OpKind) String() string {
	switch k {
	case OpViewport:
		return "viewport"
	case OpBlend:
		return "blend"
	case OpDepth:
		return "depth"
	case OpClear:
		return "clear"
	case OpDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// SurfaceOp is one call on a Surface, kept so passes can be replayed.
type SurfaceOp struct {
	Op OpKind

	Viewport Viewport
	Blend    BlendState
	Depth    DepthState

	Clear        ClearMask
	Color        Color
	ClearDepth   float64
	ClearStencil int

	Draw *DrawCall
}

// Apply issues the operation on s.
func (op SurfaceOp) Apply(s Surface) error {
	switch op.Op {
	case OpViewport:
		return s.SetViewport(op.Viewport)
	case OpBlend:
		return s.SetBlendState(op.Blend)
	case OpDepth:
		return s.SetDepthState(op.Depth)
	case OpClear:
		return s.Clear(op.Clear, op.Color, op.ClearDepth, op.ClearStencil)
	case OpDraw:
		return s.DrawPrimitive(op.Draw)
	default:
		return fmt.Errorf("canopy: unknown surface op %d", op.Op)
	}
}

// SurfaceNotFoundError is returned by Surfaces.Resolve. It unwraps to
// ErrSurfaceNotFound.
type SurfaceNotFoundError struct {
	ID string
}

func (e *SurfaceNotFoundError) Error() string {
	return fmt.Sprintf("canopy: surface %q not found and no default surface registered", e.ID)
}

func (e *SurfaceNotFoundError) Unwrap() error { return ErrSurfaceNotFound }

// Surfaces maps surface ids to surfaces. It is safe for concurrent use so a
// host can register surfaces from its window loop.
type Surfaces struct {
	mu      sync.RWMutex
	entries map[string]Surface
}

// NewSurfaces creates an empty surface registry.
func NewSurfaces() *Surfaces {
	return &Surfaces{entries: make(map[string]Surface)}
}

// Register adds a surface under id. Registering an existing id replaces it.
func (r *Surfaces) Register(id string, s Surface) {
	if s == nil {
		panic("canopy: cannot register nil surface")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]Surface)
	}
	r.entries[id] = s
}

// Unregister removes the surface registered under id.
func (r *Surfaces) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Get returns the surface registered under id.
func (r *Surfaces) Get(id string) (Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[id]
	return s, ok
}

// Resolve returns the surface for id, falling back to DefaultSurfaceID. The
// returned id is the one actually bound.
func (r *Surfaces) Resolve(id string) (Surface, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id != "" {
		if s, ok := r.entries[id]; ok {
			return s, id, nil
		}
	}
	if s, ok := r.entries[DefaultSurfaceID]; ok {
		return s, DefaultSurfaceID, nil
	}
	return nil, "", &SurfaceNotFoundError{ID: id}
}

// List returns the registered ids in sorted order.
func (r *Surfaces) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
