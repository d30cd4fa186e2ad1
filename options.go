package canopy

import "log/slog"

// Option configures an Engine during creation.
//
// Example:
//
//	surfaces := canopy.NewSurfaces()
//	surfaces.Register(canopy.DefaultSurfaceID, canopy.NewRecordingSurface(640, 480))
//	e := canopy.NewEngine(
//	    canopy.WithSurfaces(surfaces),
//	    canopy.WithLogger(slog.Default()),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	logger     *slog.Logger
	surfaces   *Surfaces
	debug      bool
	maxDepth   int
	primitives map[string]PrimitiveFunc
}

// defaultMaxDepth bounds node nesting, instance expansion included.
const defaultMaxDepth = 256

func defaultOptions() engineOptions {
	return engineOptions{
		maxDepth: defaultMaxDepth,
	}
}

// WithLogger sets the engine logger. A nil logger disables logging, which is
// also the default.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithSurfaces sets the surface registry scenes bind to. Without it the
// engine starts with an empty registry, available through Engine.Surfaces.
func WithSurfaces(s *Surfaces) Option {
	return func(o *engineOptions) {
		o.surfaces = s
	}
}

// WithDebug enables per-pass statistics logging at debug level.
func WithDebug(enabled bool) Option {
	return func(o *engineOptions) {
		o.debug = enabled
	}
}

// WithMaxDepth sets the maximum traversal depth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithPrimitive registers an additional geometry primitive, or replaces a
// built-in one of the same name.
func WithPrimitive(name string, fn PrimitiveFunc) Option {
	return func(o *engineOptions) {
		if o.primitives == nil {
			o.primitives = make(map[string]PrimitiveFunc)
		}
		o.primitives[name] = fn
	}
}
