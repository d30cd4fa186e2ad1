package canopy

import (
	"fmt"
	"slices"
)

// ShadingModule mirrors the current material and turns geometry leaves into
// DrawCalls using the other modules' current values. Primitive meshes are
// built once per engine and cached until reset.
type ShadingModule struct {
	transform *TransformModule
	lighting  *LightingModule
	renderer  *RendererModule

	material   MaterialState
	primitives map[string]PrimitiveFunc
	meshes     map[string]*Mesh
	draws      int
}

func newShadingModule(t *TransformModule, l *LightingModule, r *RendererModule, primitives map[string]PrimitiveFunc) *ShadingModule {
	return &ShadingModule{
		transform:  t,
		lighting:   l,
		renderer:   r,
		material:   DefaultMaterial,
		primitives: primitives,
		meshes:     make(map[string]*Mesh),
	}
}

// Name implements Module.
func (m *ShadingModule) Name() string { return "shading" }

// Attach implements Module.
func (m *ShadingModule) Attach(b *Bus) {
	Listen(b, func(ev MaterialUpdatedEvent) error {
		m.material = ev.Material
		return nil
	})
	Listen(b, func(SceneRenderingEvent) error {
		m.material = DefaultMaterial
		m.draws = 0
		return nil
	})
	Listen(b, func(ResetEvent) error {
		m.material = DefaultMaterial
		m.draws = 0
		clear(m.meshes)
		return nil
	})
}

// Material returns the current material.
func (m *ShadingModule) Material() MaterialState { return m.material }

// Draws returns the number of draw calls issued since the current pass
// started.
func (m *ShadingModule) Draws() int { return m.draws }

// CachedMeshes returns the number of primitive meshes built and cached.
func (m *ShadingModule) CachedMeshes() int { return len(m.meshes) }

// mesh returns the mesh for g, building and caching named primitives.
func (m *ShadingModule) mesh(g *Geometry) (*Mesh, error) {
	if g.Mesh != nil {
		return g.Mesh, nil
	}
	if mesh, ok := m.meshes[g.Primitive]; ok {
		return mesh, nil
	}
	build, ok := m.primitives[g.Primitive]
	if !ok {
		return nil, fmt.Errorf("%w: unknown primitive %q", ErrBadConfig, g.Primitive)
	}
	mesh := build()
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("primitive %q: %w", g.Primitive, err)
	}
	m.meshes[g.Primitive] = mesh
	return mesh, nil
}

// draw assembles the DrawCall for a geometry leaf and submits it through the
// renderer module.
func (m *ShadingModule) draw(nodeID string, g *Geometry) error {
	mesh, err := m.mesh(g)
	if err != nil {
		return err
	}
	dc := &DrawCall{
		NodeID:     nodeID,
		Primitive:  g.Primitive,
		Mesh:       mesh,
		Model:      m.transform.Model(),
		View:       m.transform.View(),
		Projection: m.transform.Projection(),
		Material:   m.material,
		Lights:     slices.Clone(m.lighting.Lights()),
		State:      m.renderer.State(),
	}
	m.draws++
	return m.renderer.draw(dc)
}
