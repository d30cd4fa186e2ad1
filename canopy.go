package canopy

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at surface submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material base color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is the default clear color.
var ColorBlack = Color{0, 0, 0, 1}

// toRGBA converts to a premultiplied 8-bit color for image.Fill.
func (c Color) toRGBA() colorRGBA {
	return colorRGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// colorRGBA implements the color.Color interface for image.Fill.
type colorRGBA struct {
	R, G, B, A uint8
}

func (c colorRGBA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = uint32(c.A)
	a |= a << 8
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Viewport is a rectangle in surface pixels. As with GL viewports the origin
// is the bottom-left corner of the surface, Y increasing upward.
type Viewport struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the viewport.
// Points on the edge are considered inside.
func (v Viewport) Contains(x, y float64) bool {
	return x >= v.X && x <= v.X+v.Width &&
		y >= v.Y && y <= v.Y+v.Height
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// ClearMask selects which buffers a clear affects.
// Values can be combined with bitwise OR (e.g. ClearColor | ClearDepth).
type ClearMask uint8

const (
	ClearColor   ClearMask = 1 << iota // color buffer
	ClearDepth                         // depth buffer
	ClearStencil                       // stencil buffer
)

// BlendFactor selects a source or destination blend coefficient.
type BlendFactor uint8

const (
	BlendOne                   BlendFactor = iota // (1, 1, 1, 1)
	BlendZero                                     // (0, 0, 0, 0)
	BlendSrcColor                                 // source color
	BlendOneMinusSrcColor                         // 1 - source color
	BlendSrcAlpha                                 // source alpha
	BlendOneMinusSrcAlpha                         // 1 - source alpha
	BlendDstColor                                 // destination color
	BlendOneMinusDstColor                         // 1 - destination color
	BlendDstAlpha                                 // destination alpha
	BlendOneMinusDstAlpha                         // 1 - destination alpha
	BlendSrcAlphaSaturate                         // min(As, 1 - Ad)
	BlendConstantColor                            // blend color (no ebiten equivalent, maps to one)
	BlendOneMinusConstantColor                    // 1 - blend color (maps to zero)
)

var blendFactorNames = map[string]BlendFactor{
	"one":                   BlendOne,
	"zero":                  BlendZero,
	"srccolor":              BlendSrcColor,
	"oneminussrccolor":      BlendOneMinusSrcColor,
	"srcalpha":              BlendSrcAlpha,
	"oneminussrcalpha":      BlendOneMinusSrcAlpha,
	"dstcolor":              BlendDstColor,
	"dtscolor":              BlendDstColor, // legacy spelling
	"oneminusdstcolor":      BlendOneMinusDstColor,
	"dstalpha":              BlendDstAlpha,
	"oneminusdstalpha":      BlendOneMinusDstAlpha,
	"srcalphasaturate":      BlendSrcAlphaSaturate,
	"constantcolor":         BlendConstantColor,
	"oneminusconstantcolor": BlendOneMinusConstantColor,
	"constantalpha":         BlendConstantColor,
	"oneminusconstantalpha": BlendOneMinusConstantColor,
}

// ParseBlendFactor parses a blend factor name. Both camelCase ("oneMinusSrcAlpha")
// and snake_case ("one_minus_src_alpha") spellings are accepted.
func ParseBlendFactor(name string) (BlendFactor, error) {
	if f, ok := blendFactorNames[normalizeName(name)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: unknown blend factor %q", ErrBadConfig, name)
}

func (f BlendFactor) ebiten() ebiten.BlendFactor {
	switch f {
	case BlendZero, BlendOneMinusConstantColor:
		return ebiten.BlendFactorZero
	case BlendSrcColor:
		return ebiten.BlendFactorSourceColor
	case BlendOneMinusSrcColor:
		return ebiten.BlendFactorOneMinusSourceColor
	case BlendSrcAlpha:
		return ebiten.BlendFactorSourceAlpha
	case BlendOneMinusSrcAlpha:
		return ebiten.BlendFactorOneMinusSourceAlpha
	case BlendDstColor:
		return ebiten.BlendFactorDestinationColor
	case BlendOneMinusDstColor:
		return ebiten.BlendFactorOneMinusDestinationColor
	case BlendDstAlpha:
		return ebiten.BlendFactorDestinationAlpha
	case BlendOneMinusDstAlpha:
		return ebiten.BlendFactorOneMinusDestinationAlpha
	case BlendSrcAlphaSaturate:
		return ebiten.BlendFactorSourceAlphaSaturated
	default:
		return ebiten.BlendFactorOne
	}
}

// BlendEquation selects how weighted source and destination are combined.
type BlendEquation uint8

const (
	BlendFuncAdd             BlendEquation = iota // src + dst
	BlendFuncSubtract                             // src - dst
	BlendFuncReverseSubtract                      // dst - src
)

// ParseBlendEquation parses "funcAdd", "funcSubtract" or "funcReverseSubtract".
func ParseBlendEquation(name string) (BlendEquation, error) {
	switch normalizeName(name) {
	case "funcadd", "add":
		return BlendFuncAdd, nil
	case "funcsubtract", "subtract":
		return BlendFuncSubtract, nil
	case "funcreversesubtract", "reversesubtract":
		return BlendFuncReverseSubtract, nil
	}
	return 0, fmt.Errorf("%w: unknown blend equation %q", ErrBadConfig, name)
}

func (e BlendEquation) ebiten() ebiten.BlendOperation {
	switch e {
	case BlendFuncSubtract:
		return ebiten.BlendOperationSubtract
	case BlendFuncReverseSubtract:
		return ebiten.BlendOperationReverseSubtract
	default:
		return ebiten.BlendOperationAdd
	}
}

// BlendState is the blending part of the renderer state.
type BlendState struct {
	Enabled       bool
	Color         Color
	EquationRGB   BlendEquation
	EquationAlpha BlendEquation
	SrcRGB        BlendFactor
	DstRGB        BlendFactor
	SrcAlpha      BlendFactor
	DstAlpha      BlendFactor
}

// EbitenBlend returns the ebiten.Blend value corresponding to this state.
// A disabled state maps to an opaque copy.
func (b BlendState) EbitenBlend() ebiten.Blend {
	if !b.Enabled {
		return ebiten.BlendCopy
	}
	return ebiten.Blend{
		BlendFactorSourceRGB:        b.SrcRGB.ebiten(),
		BlendFactorSourceAlpha:      b.SrcAlpha.ebiten(),
		BlendFactorDestinationRGB:   b.DstRGB.ebiten(),
		BlendFactorDestinationAlpha: b.DstAlpha.ebiten(),
		BlendOperationRGB:           b.EquationRGB.ebiten(),
		BlendOperationAlpha:         b.EquationAlpha.ebiten(),
	}
}

// DepthFunc is the depth comparison function.
type DepthFunc uint8

const (
	DepthLEqual DepthFunc = iota // pass if incoming <= stored (default)
	DepthNever
	DepthLess
	DepthEqual
	DepthGreater
	DepthNotEqual
	DepthGEqual
	DepthAlways
)

// ParseDepthFunc parses a depth function name such as "lequal".
func ParseDepthFunc(name string) (DepthFunc, error) {
	switch normalizeName(name) {
	case "never":
		return DepthNever, nil
	case "less":
		return DepthLess, nil
	case "equal":
		return DepthEqual, nil
	case "lequal":
		return DepthLEqual, nil
	case "greater":
		return DepthGreater, nil
	case "notequal":
		return DepthNotEqual, nil
	case "gequal":
		return DepthGEqual, nil
	case "always":
		return DepthAlways, nil
	}
	return 0, fmt.Errorf("%w: unknown depth func %q", ErrBadConfig, name)
}

// DepthState is the depth-buffer part of the renderer state.
type DepthState struct {
	Test       bool
	Func       DepthFunc
	Mask       bool
	RangeNear  float64
	RangeFar   float64
	ClearDepth float64
}

// normalizeName lowercases and strips underscores so "one_minus_src_alpha"
// and "oneMinusSrcAlpha" compare equal.
func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// NodeKind distinguishes traversal behavior for a Node.
type NodeKind uint8

const (
	KindGroup     NodeKind = iota // plain grouping node with no effect
	KindScene                     // scene root, carries surface binding
	KindLibrary                   // holds instancing targets, never drawn directly
	KindInstance                  // renders another node's subtree by id
	KindLookAt                    // view transform from eye/look/up
	KindCamera                    // projection from optics
	KindLight                     // light source
	KindMaterial                  // surface material
	KindRenderer                  // viewport, clear, blend and depth state
	KindTranslate                 // modelling translation
	KindScale                     // modelling scale
	KindRotate                    // modelling rotation
	KindGeometry                  // drawable leaf
)

var kindNames = [...]string{
	KindGroup:     "node",
	KindScene:     "scene",
	KindLibrary:   "library",
	KindInstance:  "instance",
	KindLookAt:    "lookAt",
	KindCamera:    "camera",
	KindLight:     "light",
	KindMaterial:  "material",
	KindRenderer:  "renderer",
	KindTranslate: "translate",
	KindScale:     "scale",
	KindRotate:    "rotate",
	KindGeometry:  "geometry",
}

// String returns the scene-description type name of the kind.
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
