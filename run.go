package canopy

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool

	// SurfaceID names the EbitenSurface the window draws into. Scenes bound
	// to it must be created before Run. Defaults to DefaultSurfaceID.
	SurfaceID string

	// Scenes lists the scene ids rendered each frame, in order. Empty means
	// every scene.
	Scenes []string

	// Update is called once per tick with the elapsed seconds.
	Update func(dt float32) error
}

// Run opens a window and renders the engine's scenes every frame until the
// window closes or Update returns an error. Register an EbitenSurface under
// cfg.SurfaceID before creating the scenes:
//
//	surfaces := canopy.NewSurfaces()
//	surfaces.Register(canopy.DefaultSurfaceID, canopy.NewEbitenSurface(nil))
//	e := canopy.NewEngine(canopy.WithSurfaces(surfaces))
//	e.CreateScene(root)
//	canopy.Run(e, canopy.RunConfig{Title: "Demo", Width: 640, Height: 480})
func Run(e *Engine, cfg RunConfig) error {
	if cfg.SurfaceID == "" {
		cfg.SurfaceID = DefaultSurfaceID
	}
	s, ok := e.surfaces.Get(cfg.SurfaceID)
	if !ok {
		return &SurfaceNotFoundError{ID: cfg.SurfaceID}
	}
	surface, ok := s.(*EbitenSurface)
	if !ok {
		return fmt.Errorf("%w: surface %q is not an EbitenSurface", ErrBadConfig, cfg.SurfaceID)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrBadConfig, cfg.Width, cfg.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(newGame(e, surface, cfg))
}

type game struct {
	engine  *Engine
	surface *EbitenSurface
	cfg     RunConfig
	err     error
}

func newGame(e *Engine, surface *EbitenSurface, cfg RunConfig) *game {
	return &game{engine: e, surface: surface, cfg: cfg}
}

func (g *game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.cfg.Update == nil {
		return nil
	}
	return g.cfg.Update(1 / float32(ebiten.TPS()))
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.SetTarget(screen)
	if err := g.render(); err != nil {
		// Surfaced from the next Update; Draw cannot return errors.
		g.err = err
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.0f  TPS: %.0f",
			ebiten.ActualFPS(), ebiten.ActualTPS()), 4, 4)
	}
}

func (g *game) render() error {
	if len(g.cfg.Scenes) == 0 {
		return g.engine.RenderAll()
	}
	var errs []error
	for _, id := range g.cfg.Scenes {
		if err := g.engine.Render(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
