package canopy

import (
	"image"
	"image/color"
	"image/draw"
)

// RecordingSurface is a headless Surface that records every call. Clears are
// applied to an in-memory image so snapshots show viewport layout; geometry
// is recorded but not rasterized.
type RecordingSurface struct {
	Ops []SurfaceOp

	width, height int
	viewport      Viewport
	pixels        *image.NRGBA

	// FailDraw, when set, is returned by DrawPrimitive.
	FailDraw error
}

// NewRecordingSurface creates a recording surface of the given size.
func NewRecordingSurface(width, height int) *RecordingSurface {
	return &RecordingSurface{
		width:    width,
		height:   height,
		viewport: Viewport{Width: float64(width), Height: float64(height)},
		pixels:   image.NewNRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size implements Surface.
func (s *RecordingSurface) Size() (int, int) { return s.width, s.height }

// Clear implements Surface.
func (s *RecordingSurface) Clear(mask ClearMask, c Color, depth float64, stencil int) error {
	s.Ops = append(s.Ops, SurfaceOp{Op: OpClear, Clear: mask, Color: c, ClearDepth: depth, ClearStencil: stencil})
	if mask&ClearColor != 0 {
		nc := color.NRGBA{
			R: uint8(clamp01(c.R) * 255),
			G: uint8(clamp01(c.G) * 255),
			B: uint8(clamp01(c.B) * 255),
			A: uint8(clamp01(c.A) * 255),
		}
		draw.Draw(s.pixels, viewportRect(s.viewport, s.height), &image.Uniform{C: nc}, image.Point{}, draw.Src)
	}
	return nil
}

// SetViewport implements Surface.
func (s *RecordingSurface) SetViewport(v Viewport) error {
	s.Ops = append(s.Ops, SurfaceOp{Op: OpViewport, Viewport: v})
	s.viewport = v
	return nil
}

// SetBlendState implements Surface.
func (s *RecordingSurface) SetBlendState(b BlendState) error {
	s.Ops = append(s.Ops, SurfaceOp{Op: OpBlend, Blend: b})
	return nil
}

// SetDepthState implements Surface.
func (s *RecordingSurface) SetDepthState(d DepthState) error {
	s.Ops = append(s.Ops, SurfaceOp{Op: OpDepth, Depth: d})
	return nil
}

// DrawPrimitive implements Surface.
func (s *RecordingSurface) DrawPrimitive(dc *DrawCall) error {
	if s.FailDraw != nil {
		return s.FailDraw
	}
	s.Ops = append(s.Ops, SurfaceOp{Op: OpDraw, Draw: dc})
	return nil
}

// Snapshot implements Snapshotter.
func (s *RecordingSurface) Snapshot() (*image.NRGBA, error) {
	out := image.NewNRGBA(s.pixels.Rect)
	copy(out.Pix, s.pixels.Pix)
	return out, nil
}

// Draws returns the recorded draw calls in order.
func (s *RecordingSurface) Draws() []*DrawCall {
	var out []*DrawCall
	for _, op := range s.Ops {
		if op.Op == OpDraw {
			out = append(out, op.Draw)
		}
	}
	return out
}

// Count returns the number of recorded operations of kind k.
func (s *RecordingSurface) Count(k OpKind) int {
	n := 0
	for _, op := range s.Ops {
		if op.Op == k {
			n++
		}
	}
	return n
}

// Reset discards the recorded operations.
func (s *RecordingSurface) Reset() {
	s.Ops = s.Ops[:0]
}

// viewportRect converts a bottom-left origin viewport to an image rectangle
// with a top-left origin, clipped to the surface.
func viewportRect(v Viewport, surfaceHeight int) image.Rectangle {
	x0 := int(v.X)
	x1 := int(v.X + v.Width)
	y0 := surfaceHeight - int(v.Y+v.Height)
	y1 := surfaceHeight - int(v.Y)
	return image.Rect(x0, y0, x1, y1)
}
