package canopy

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Get returns the value of a named attribute. Scalars are returned as
// float64, vectors as mgl32.Vec3 and colors as Color.
func (n *Node) Get(name string) (any, error) {
	v, err := getAttr(n.data, name)
	if err != nil {
		return nil, fmt.Errorf("get %s.%s on %q: %w", n.Kind(), name, n.ID, err)
	}
	return v, nil
}

// Set assigns a named attribute. Values are coerced: any numeric type for
// scalars, {x, y, z} maps for vectors (missing components are 0), {r, g, b, a}
// maps for colors (missing alpha is 1), and names for enumerations. The change
// is seen by the next render pass.
func (n *Node) Set(name string, value any) error {
	if err := setAttr(n.data, name, value); err != nil {
		return fmt.Errorf("set %s.%s on %q: %w", n.Kind(), name, n.ID, err)
	}
	return nil
}

// Attributes returns the attribute names a node kind supports, sorted.
func Attributes(k NodeKind) []string {
	names := append([]string(nil), attrNames[k]...)
	sort.Strings(names)
	return names
}

var attrNames = map[NodeKind][]string{
	KindScene:     {"canvasId", "loggingElementId"},
	KindInstance:  {"target"},
	KindLookAt:    {"eye", "look", "up"},
	KindCamera:    {"optics", "fovy", "aspect", "near", "far"},
	KindLight:     {"mode", "color", "diffuse", "specular", "pos", "dir", "constantAttenuation", "linearAttenuation", "quadraticAttenuation"},
	KindMaterial:  {"baseColor", "specularColor", "specular", "shine", "emit", "alpha"},
	KindRenderer:  {"clear", "clearColor", "clearDepth", "clearStencil", "viewport", "lineWidth", "enableBlend", "blendColor", "blendEquation", "blendEquationSeparate", "blendFunc", "blendFuncSeparate", "enableDepthTest", "depthFunc", "depthMask", "depthRange"},
	KindTranslate: {"x", "y", "z"},
	KindScale:     {"x", "y", "z"},
	KindRotate:    {"angle", "x", "y", "z"},
	KindGeometry:  {"primitive"},
}

func unknownAttr(name string) error {
	return fmt.Errorf("%w: unknown attribute %q", ErrBadConfig, name)
}

func getAttr(d NodeData, name string) (any, error) {
	switch d := d.(type) {
	case *SceneRoot:
		switch name {
		case "canvasId", "surfaceId":
			return d.SurfaceID, nil
		case "loggingElementId", "logSinkId":
			return d.LogSinkID, nil
		}
	case *Instance:
		if name == "target" {
			return d.Target, nil
		}
	case *Translate:
		return getXYZ(name, d.X, d.Y, d.Z)
	case *Scale:
		return getXYZ(name, d.X, d.Y, d.Z)
	case *Rotate:
		if name == "angle" {
			return float64(d.Angle), nil
		}
		return getXYZ(name, d.X, d.Y, d.Z)
	case *LookAt:
		switch name {
		case "eye":
			return d.Eye, nil
		case "look":
			return d.Look, nil
		case "up":
			return d.Up, nil
		}
	case *Camera:
		o := d.Optics
		switch name {
		case "optics":
			return o, nil
		case "fovy":
			return float64(o.FovY), nil
		case "aspect":
			return float64(o.Aspect), nil
		case "near":
			return float64(o.Near), nil
		case "far":
			return float64(o.Far), nil
		}
	case *Light:
		switch name {
		case "mode":
			return d.Mode.String(), nil
		case "color":
			return d.Color, nil
		case "diffuse":
			return d.Diffuse, nil
		case "specular":
			return d.Specular, nil
		case "pos":
			return d.Pos, nil
		case "dir":
			return d.Dir, nil
		case "constantAttenuation":
			return float64(d.ConstantAttenuation), nil
		case "linearAttenuation":
			return float64(d.LinearAttenuation), nil
		case "quadraticAttenuation":
			return float64(d.QuadraticAttenuation), nil
		}
	case *Material:
		switch name {
		case "baseColor":
			return derefOr(d.BaseColor, DefaultMaterial.BaseColor), nil
		case "specularColor":
			return derefOr(d.SpecularColor, DefaultMaterial.SpecularColor), nil
		case "specular":
			return derefOr(d.Specular, DefaultMaterial.Specular), nil
		case "shine":
			return derefOr(d.Shine, DefaultMaterial.Shine), nil
		case "emit":
			return derefOr(d.Emit, DefaultMaterial.Emit), nil
		case "alpha":
			return derefOr(d.Alpha, DefaultMaterial.Alpha), nil
		}
	case *Renderer:
		return getRendererAttr(d, name)
	case *Geometry:
		if name == "primitive" || name == "type" {
			return d.Primitive, nil
		}
	}
	return nil, unknownAttr(name)
}

func getXYZ(name string, x, y, z float32) (any, error) {
	switch name {
	case "x":
		return float64(x), nil
	case "y":
		return float64(y), nil
	case "z":
		return float64(z), nil
	case "xyz":
		return mgl32.Vec3{x, y, z}, nil
	}
	return nil, unknownAttr(name)
}

func derefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// optional returns *p, or nil when p is nil.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// getRendererAttr returns nil for attributes the node leaves unset.
func getRendererAttr(r *Renderer, name string) (any, error) {
	switch name {
	case "clear":
		return map[string]any{
			"color":   r.Clear&ClearColor != 0,
			"depth":   r.Clear&ClearDepth != 0,
			"stencil": r.Clear&ClearStencil != 0,
		}, nil
	case "clearColor":
		return optional(r.ClearColor), nil
	case "clearDepth":
		return optional(r.ClearDepth), nil
	case "clearStencil":
		return optional(r.ClearStencil), nil
	case "viewport":
		return optional(r.Viewport), nil
	case "lineWidth":
		return optional(r.LineWidth), nil
	case "enableBlend":
		return optional(r.EnableBlend), nil
	case "blendColor":
		return optional(r.BlendColor), nil
	case "enableDepthTest":
		return optional(r.EnableDepthTest), nil
	case "depthFunc":
		return optional(r.DepthFunc), nil
	case "depthMask":
		return optional(r.DepthMask), nil
	case "depthRange":
		return optional(r.DepthRange), nil
	case "blendEquation", "blendEquationSeparate", "blendEquationSeperate":
		return map[string]any{"rgb": optional(r.BlendEquationRGB), "alpha": optional(r.BlendEquationAlpha)}, nil
	case "blendFunc", "blendFuncSeparate", "blendFuncSeperate":
		return map[string]any{
			"srcRGB": optional(r.BlendSrcRGB), "dstRGB": optional(r.BlendDstRGB),
			"srcAlpha": optional(r.BlendSrcAlpha), "dstAlpha": optional(r.BlendDstAlpha),
		}, nil
	}
	return nil, unknownAttr(name)
}

func setAttr(d NodeData, name string, v any) error {
	switch d := d.(type) {
	case *SceneRoot:
		switch name {
		case "canvasId", "surfaceId":
			return setString(&d.SurfaceID, v)
		case "loggingElementId", "logSinkId":
			return setString(&d.LogSinkID, v)
		}
	case *Instance:
		if name == "target" {
			return setString(&d.Target, v)
		}
	case *Translate:
		return setXYZ(name, v, &d.X, &d.Y, &d.Z)
	case *Scale:
		return setXYZ(name, v, &d.X, &d.Y, &d.Z)
	case *Rotate:
		if name == "angle" {
			return setFloat32(&d.Angle, v)
		}
		return setXYZ(name, v, &d.X, &d.Y, &d.Z)
	case *LookAt:
		switch name {
		case "eye":
			return setVec3(&d.Eye, v)
		case "look":
			return setVec3(&d.Look, v)
		case "up":
			return setVec3(&d.Up, v)
		}
	case *Camera:
		switch name {
		case "optics":
			return setOptics(&d.Optics, v)
		case "fovy":
			return setFloat32(&d.Optics.FovY, v)
		case "aspect":
			return setFloat32(&d.Optics.Aspect, v)
		case "near":
			return setFloat32(&d.Optics.Near, v)
		case "far":
			return setFloat32(&d.Optics.Far, v)
		}
	case *Light:
		return setLightAttr(d, name, v)
	case *Material:
		switch name {
		case "baseColor":
			return setColorPtr(&d.BaseColor, v)
		case "specularColor":
			return setColorPtr(&d.SpecularColor, v)
		case "specular":
			return setFloatPtr(&d.Specular, v)
		case "shine":
			return setFloatPtr(&d.Shine, v)
		case "emit":
			return setFloatPtr(&d.Emit, v)
		case "alpha":
			return setFloatPtr(&d.Alpha, v)
		}
	case *Renderer:
		return setRendererAttr(d, name, v)
	case *Geometry:
		if name == "primitive" {
			return setString(&d.Primitive, v)
		}
	}
	return unknownAttr(name)
}

func setLightAttr(l *Light, name string, v any) error {
	switch name {
	case "mode":
		s, err := toString(v)
		if err != nil {
			return err
		}
		m, err := ParseLightMode(s)
		if err != nil {
			return err
		}
		l.Mode = m
		return nil
	case "color":
		return setColor(&l.Color, v)
	case "diffuse":
		return setBool(&l.Diffuse, v)
	case "specular":
		return setBool(&l.Specular, v)
	case "pos":
		return setVec3(&l.Pos, v)
	case "dir":
		return setVec3(&l.Dir, v)
	case "constantAttenuation":
		return setFloat32(&l.ConstantAttenuation, v)
	case "linearAttenuation":
		return setFloat32(&l.LinearAttenuation, v)
	case "quadraticAttenuation":
		return setFloat32(&l.QuadraticAttenuation, v)
	}
	return unknownAttr(name)
}

func setRendererAttr(r *Renderer, name string, v any) error {
	switch name {
	case "clear":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		var mask ClearMask
		for key, bit := range map[string]ClearMask{"color": ClearColor, "depth": ClearDepth, "stencil": ClearStencil} {
			if raw, ok := m[key]; ok {
				on, err := toBool(raw)
				if err != nil {
					return fmt.Errorf("clear.%s: %w", key, err)
				}
				if on {
					mask |= bit
				}
			}
		}
		r.Clear = mask
		return nil
	case "clearColor":
		return setColorPtr(&r.ClearColor, v)
	case "clearDepth":
		return setFloatPtr(&r.ClearDepth, v)
	case "clearStencil":
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		i := int(f)
		r.ClearStencil = &i
		return nil
	case "viewport":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		var vp Viewport
		for key, dst := range map[string]*float64{"x": &vp.X, "y": &vp.Y, "width": &vp.Width, "height": &vp.Height} {
			if raw, ok := m[key]; ok {
				if *dst, err = toFloat(raw); err != nil {
					return fmt.Errorf("viewport.%s: %w", key, err)
				}
			}
		}
		r.Viewport = &vp
		return nil
	case "lineWidth":
		return setFloatPtr(&r.LineWidth, v)
	case "enableBlend":
		return setBoolPtr(&r.EnableBlend, v)
	case "blendColor":
		return setColorPtr(&r.BlendColor, v)
	case "blendEquation":
		eq, err := parseNamed(v, ParseBlendEquation)
		if err != nil {
			return err
		}
		r.BlendEquationRGB, r.BlendEquationAlpha = &eq, &eq
		return nil
	case "blendEquationSeparate", "blendEquationSeperate":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		if r.BlendEquationRGB, err = namedField(m, "rgb", ParseBlendEquation); err != nil {
			return err
		}
		r.BlendEquationAlpha, err = namedField(m, "alpha", ParseBlendEquation)
		return err
	case "blendFunc":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		src, err := namedField(m, "sfactor", ParseBlendFactor)
		if err != nil {
			return err
		}
		dst, err := namedField(m, "dfactor", ParseBlendFactor)
		if err != nil {
			return err
		}
		r.BlendSrcRGB, r.BlendSrcAlpha = src, src
		r.BlendDstRGB, r.BlendDstAlpha = dst, dst
		return nil
	case "blendFuncSeparate", "blendFuncSeperate":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		if r.BlendSrcRGB, err = namedField(m, "srcRGB", ParseBlendFactor); err != nil {
			return err
		}
		if r.BlendDstRGB, err = namedField(m, "dstRGB", ParseBlendFactor); err != nil {
			return err
		}
		if r.BlendSrcAlpha, err = namedField(m, "srcAlpha", ParseBlendFactor); err != nil {
			return err
		}
		r.BlendDstAlpha, err = namedField(m, "dstAlpha", ParseBlendFactor)
		return err
	case "enableDepthTest":
		return setBoolPtr(&r.EnableDepthTest, v)
	case "depthFunc":
		f, err := parseNamed(v, ParseDepthFunc)
		if err != nil {
			return err
		}
		r.DepthFunc = &f
		return nil
	case "depthMask":
		return setBoolPtr(&r.DepthMask, v)
	case "depthRange":
		m, err := toMap(v)
		if err != nil {
			return err
		}
		rng := [2]float64{0, 1}
		if raw, ok := m["zNear"]; ok {
			if rng[0], err = toFloat(raw); err != nil {
				return err
			}
		}
		if raw, ok := m["zFar"]; ok {
			if rng[1], err = toFloat(raw); err != nil {
				return err
			}
		}
		r.DepthRange = &rng
		return nil
	}
	return unknownAttr(name)
}

func setOptics(o *Optics, v any) error {
	if ov, ok := v.(Optics); ok {
		*o = ov
		return nil
	}
	m, err := toMap(v)
	if err != nil {
		return err
	}
	out := *o
	if raw, ok := m["type"]; ok {
		s, err := toString(raw)
		if err != nil {
			return err
		}
		if out.Type, err = ParseOpticsType(s); err != nil {
			return err
		}
	}
	fields := map[string]*float32{
		"fovy": &out.FovY, "aspect": &out.Aspect, "near": &out.Near, "far": &out.Far,
		"left": &out.Left, "right": &out.Right, "bottom": &out.Bottom, "top": &out.Top,
	}
	for key, dst := range fields {
		if raw, ok := m[key]; ok {
			if err := setFloat32(dst, raw); err != nil {
				return fmt.Errorf("optics.%s: %w", key, err)
			}
		}
	}
	*o = out
	return nil
}

func setXYZ(name string, v any, x, y, z *float32) error {
	switch name {
	case "x":
		return setFloat32(x, v)
	case "y":
		return setFloat32(y, v)
	case "z":
		return setFloat32(z, v)
	case "xyz":
		vec, err := toVec3(v)
		if err != nil {
			return err
		}
		*x, *y, *z = vec[0], vec[1], vec[2]
		return nil
	}
	return unknownAttr(name)
}

// --- Coercion ---

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrBadConfig, v)
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("%w: expected bool, got %T", ErrBadConfig, v)
}

func toString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: expected string, got %T", ErrBadConfig, v)
}

func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: expected object, got %T", ErrBadConfig, v)
}

// toVec3 accepts mgl32.Vec3, a 3-element array or slice of numbers, or an
// {x, y, z} map with missing components taken as 0.
func toVec3(v any) (mgl32.Vec3, error) {
	switch t := v.(type) {
	case mgl32.Vec3:
		return t, nil
	case [3]float32:
		return mgl32.Vec3(t), nil
	case []float32:
		if len(t) == 3 {
			return mgl32.Vec3{t[0], t[1], t[2]}, nil
		}
	case []float64:
		if len(t) == 3 {
			return mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}, nil
		}
	case []any:
		if len(t) == 3 {
			var out mgl32.Vec3
			for i, raw := range t {
				f, err := toFloat(raw)
				if err != nil {
					return mgl32.Vec3{}, err
				}
				out[i] = float32(f)
			}
			return out, nil
		}
	case map[string]any:
		var out mgl32.Vec3
		for i, key := range [3]string{"x", "y", "z"} {
			if raw, ok := t[key]; ok {
				f, err := toFloat(raw)
				if err != nil {
					return mgl32.Vec3{}, fmt.Errorf("%s: %w", key, err)
				}
				out[i] = float32(f)
			}
		}
		return out, nil
	}
	return mgl32.Vec3{}, fmt.Errorf("%w: expected vector, got %T", ErrBadConfig, v)
}

// toColor accepts Color or an {r, g, b, a} map with missing alpha taken as 1.
func toColor(v any) (Color, error) {
	switch t := v.(type) {
	case Color:
		return t, nil
	case map[string]any:
		out := Color{A: 1}
		for key, dst := range map[string]*float64{"r": &out.R, "g": &out.G, "b": &out.B, "a": &out.A} {
			if raw, ok := t[key]; ok {
				f, err := toFloat(raw)
				if err != nil {
					return Color{}, fmt.Errorf("%s: %w", key, err)
				}
				*dst = f
			}
		}
		return out, nil
	}
	return Color{}, fmt.Errorf("%w: expected color, got %T", ErrBadConfig, v)
}

func setFloat32(dst *float32, v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	*dst = float32(f)
	return nil
}

func setFloatPtr(dst **float64, v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

func setBool(dst *bool, v any) error {
	b, err := toBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setBoolPtr(dst **bool, v any) error {
	b, err := toBool(v)
	if err != nil {
		return err
	}
	*dst = &b
	return nil
}

func setString(dst *string, v any) error {
	s, err := toString(v)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func setVec3(dst *mgl32.Vec3, v any) error {
	vec, err := toVec3(v)
	if err != nil {
		return err
	}
	*dst = vec
	return nil
}

func setColor(dst *Color, v any) error {
	c, err := toColor(v)
	if err != nil {
		return err
	}
	*dst = c
	return nil
}

func setColorPtr(dst **Color, v any) error {
	c, err := toColor(v)
	if err != nil {
		return err
	}
	*dst = &c
	return nil
}

// parseNamed accepts either an already-typed enum value or a name.
func parseNamed[T any](v any, parse func(string) (T, error)) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	s, err := toString(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(s)
}

func namedField[T any](m map[string]any, key string, parse func(string) (T, error)) (*T, error) {
	raw, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrBadConfig, key)
	}
	t, err := parseNamed(raw, parse)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}
