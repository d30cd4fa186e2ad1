package canopy

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenSurface draws scenes onto an *ebiten.Image, usually the screen image
// handed to ebiten.Game.Draw. Geometry is projected on the CPU, lit per
// vertex and submitted with DrawTriangles32. With depth testing on,
// triangles are sorted back to front instead of using a depth buffer.
type EbitenSurface struct {
	target   *ebiten.Image
	viewport Viewport
	blend    BlendState
	depth    DepthState

	verts []ebiten.Vertex
	inds  []uint32
	tris  []sortTri
}

// NewEbitenSurface creates a surface drawing onto target.
func NewEbitenSurface(target *ebiten.Image) *EbitenSurface {
	s := &EbitenSurface{}
	s.SetTarget(target)
	return s
}

// SetTarget rebinds the surface, for example to the screen image of the
// current frame. The viewport is reset to the full target.
func (s *EbitenSurface) SetTarget(target *ebiten.Image) {
	s.target = target
	w, h := s.Size()
	s.viewport = Viewport{Width: float64(w), Height: float64(h)}
}

// Target returns the bound image.
func (s *EbitenSurface) Target() *ebiten.Image { return s.target }

// Size implements Surface.
func (s *EbitenSurface) Size() (int, int) {
	if s.target == nil {
		return 0, 0
	}
	b := s.target.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements Surface. Depth and stencil have no backing buffers and
// are ignored.
func (s *EbitenSurface) Clear(mask ClearMask, c Color, depth float64, stencil int) error {
	if mask&ClearColor == 0 || s.target == nil {
		return nil
	}
	s.viewportImage().Fill(c.toRGBA())
	return nil
}

// SetViewport implements Surface.
func (s *EbitenSurface) SetViewport(v Viewport) error {
	s.viewport = v
	return nil
}

// SetBlendState implements Surface.
func (s *EbitenSurface) SetBlendState(b BlendState) error {
	s.blend = b
	return nil
}

// SetDepthState implements Surface.
func (s *EbitenSurface) SetDepthState(d DepthState) error {
	s.depth = d
	return nil
}

// --- White pixel singleton (no sync.Once, ebiten draws on one goroutine) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image used
// as the source of untextured triangles.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

type sortTri struct {
	i0, i1, i2 uint32
	z          float32
}

// DrawPrimitive implements Surface.
func (s *EbitenSurface) DrawPrimitive(dc *DrawCall) error {
	if s.target == nil || dc.Mesh == nil || len(dc.Mesh.Indices) == 0 {
		return nil
	}
	m := dc.Mesh
	mvp := dc.MVP()
	_, h := s.Size()
	vp := s.viewport

	s.verts = s.verts[:0]
	s.inds = s.inds[:0]
	s.tris = s.tris[:0]

	depths := make([]float32, len(m.Positions))
	visible := make([]bool, len(m.Positions))
	for i, p := range m.Positions {
		clip := mvp.Mul4x1(p.Vec4(1))
		w := clip.W()
		var ndc mgl32.Vec3
		if w > 0 {
			ndc = clip.Vec3().Mul(1 / w)
			visible[i] = true
		}
		depths[i] = ndc.Z()

		// NDC to window coordinates, then flip to ebiten's top-left origin.
		wx := vp.X + (float64(ndc.X())+1)/2*vp.Width
		wy := vp.Y + (float64(ndc.Y())+1)/2*vp.Height
		c := shadeVertex(dc, m, i)
		s.verts = append(s.verts, ebiten.Vertex{
			DstX:   float32(wx),
			DstY:   float32(float64(h) - wy),
			SrcX:   0.5,
			SrcY:   0.5,
			ColorR: float32(c.R * c.A),
			ColorG: float32(c.G * c.A),
			ColorB: float32(c.B * c.A),
			ColorA: float32(c.A),
		})
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := uint32(m.Indices[t]), uint32(m.Indices[t+1]), uint32(m.Indices[t+2])
		if int(i2) >= len(m.Positions) || int(i1) >= len(m.Positions) || int(i0) >= len(m.Positions) {
			continue
		}
		if !visible[i0] || !visible[i1] || !visible[i2] {
			continue
		}
		z := (depths[i0] + depths[i1] + depths[i2]) / 3
		s.tris = append(s.tris, sortTri{i0: i0, i1: i1, i2: i2, z: z})
	}
	if s.depth.Test {
		// Painter's order: farthest first.
		sort.SliceStable(s.tris, func(a, b int) bool { return s.tris[a].z > s.tris[b].z })
	}
	for _, t := range s.tris {
		s.inds = append(s.inds, t.i0, t.i1, t.i2)
	}
	if len(s.inds) == 0 {
		return nil
	}

	var triOp ebiten.DrawTrianglesOptions
	triOp.Blend = s.blend.EbitenBlend()
	triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	s.viewportImage().DrawTriangles32(s.verts, s.inds, ensureWhitePixel(), &triOp)
	return nil
}

// Snapshot implements Snapshotter. It must be called from ebiten's Draw.
func (s *EbitenSurface) Snapshot() (*image.NRGBA, error) {
	if s.target == nil {
		return nil, fmt.Errorf("canopy: snapshot of unbound ebiten surface")
	}
	w, h := s.Size()
	pixels := make([]byte, 4*w*h)
	s.target.ReadPixels(pixels)
	return premultipliedToNRGBA(pixels, w, h), nil
}

// viewportImage returns the target clipped to the current viewport. Sub-images
// share coordinates with the target, so vertices stay in target space.
func (s *EbitenSurface) viewportImage() *ebiten.Image {
	_, h := s.Size()
	r := viewportRect(s.viewport, h).Intersect(s.target.Bounds())
	return s.target.SubImage(r).(*ebiten.Image)
}

// shadeVertex computes the lit color of vertex i with a Lambert diffuse term.
// Without lights in scope the base color is used unlit.
func shadeVertex(dc *DrawCall, m *Mesh, i int) Color {
	mat := dc.Material
	base := mat.BaseColor
	if len(dc.Lights) == 0 || i >= len(m.Normals) {
		return Color{base.R, base.G, base.B, base.A * mat.Alpha}
	}
	pos := mgl32.TransformCoordinate(m.Positions[i], dc.Model)
	n := mgl32.TransformNormal(m.Normals[i], dc.Model)
	if n.Len() > 0 {
		n = n.Normalize()
	}
	r, g, b := mat.Emit, mat.Emit, mat.Emit
	for _, l := range dc.Lights {
		lc := l.Light.Color
		switch l.Light.Mode {
		case LightAmbient:
			r += lc.R
			g += lc.G
			b += lc.B
			continue
		case LightDir:
			if !l.Light.Diffuse {
				continue
			}
			d := float64(max(0, n.Dot(l.WorldDir.Mul(-1))))
			r += lc.R * d
			g += lc.G * d
			b += lc.B * d
		case LightPoint:
			if !l.Light.Diffuse {
				continue
			}
			to := l.WorldPos.Sub(pos)
			dist := to.Len()
			if dist == 0 {
				continue
			}
			d := float64(max(0, n.Dot(to.Mul(1/dist))) * l.attenuation(dist))
			r += lc.R * d
			g += lc.G * d
			b += lc.B * d
		}
	}
	return Color{
		R: clamp01(base.R * r),
		G: clamp01(base.G * g),
		B: clamp01(base.B * b),
		A: base.A * mat.Alpha,
	}
}
