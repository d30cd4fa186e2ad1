package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 float32 attributes of a Node simultaneously.
// Create one via TweenAngle or TweenVec3 and call Update(dt) each frame.
// If the target node is disposed, the group stops immediately.
//
// There is no global animation manager; callers drive Update themselves.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	fields [3]*float32
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target attributes. If the target node has been disposed, Done is set to
// true and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenAngle animates the angle of a rotate node.
func TweenAngle(node *Node, to, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	r, ok := As[*Rotate](node)
	if !ok {
		return nil, fmt.Errorf("%w: TweenAngle on %s node %q", ErrBadConfig, node.Kind(), node.ID)
	}
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(r.Angle, to, duration, fn)
	g.fields[0] = &r.Angle
	return g, nil
}

// TweenVec3 animates a vector attribute: "xyz" of translate and scale nodes,
// or "eye", "look" and "up" of lookAt nodes.
func TweenVec3(node *Node, attr string, to mgl32.Vec3, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	var x, y, z *float32
	switch d := node.Data().(type) {
	case *Translate:
		if attr == "xyz" {
			x, y, z = &d.X, &d.Y, &d.Z
		}
	case *Scale:
		if attr == "xyz" {
			x, y, z = &d.X, &d.Y, &d.Z
		}
	case *LookAt:
		var v *mgl32.Vec3
		switch attr {
		case "eye":
			v = &d.Eye
		case "look":
			v = &d.Look
		case "up":
			v = &d.Up
		}
		if v != nil {
			x, y, z = &v[0], &v[1], &v[2]
		}
	}
	if x == nil {
		return nil, fmt.Errorf("%w: cannot tween %q on %s node %q", ErrBadConfig, attr, node.Kind(), node.ID)
	}
	g := &TweenGroup{count: 3, target: node}
	for i, f := range [3]*float32{x, y, z} {
		g.tweens[i] = gween.New(*f, to[i], duration, fn)
		g.fields[i] = f
	}
	return g, nil
}

// OrbitTween turns a lookAt node's look point about its eye by a total angle
// over time, using LookAt.Rotate for each step.
type OrbitTween struct {
	tween  *gween.Tween
	target *Node
	lookAt *LookAt
	opts   RotateOptions
	last   float32
	Done   bool
}

// TweenOrbit creates an OrbitTween turning node by degrees over duration.
func TweenOrbit(node *Node, degrees, duration float32, opts RotateOptions, fn ease.TweenFunc) (*OrbitTween, error) {
	la, ok := As[*LookAt](node)
	if !ok {
		return nil, fmt.Errorf("%w: TweenOrbit on %s node %q", ErrBadConfig, node.Kind(), node.ID)
	}
	return &OrbitTween{
		tween:  gween.New(0, degrees, duration, fn),
		target: node,
		lookAt: la,
		opts:   opts,
	}, nil
}

// Update advances the orbit by dt seconds.
func (o *OrbitTween) Update(dt float32) error {
	if o.Done {
		return nil
	}
	if o.target.IsDisposed() {
		o.Done = true
		return nil
	}
	val, finished := o.tween.Update(dt)
	delta := val - o.last
	o.last = val
	o.Done = finished
	if delta == 0 {
		return nil
	}
	return o.lookAt.Rotate(delta, o.opts)
}
