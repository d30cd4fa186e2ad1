package canopy

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func debugEngine(t *testing.T, debug bool) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, _ := newTestEngine(t, WithLogger(logger), WithDebug(debug))
	return e, &buf
}

func TestDebugLogsPassStats(t *testing.T) {
	e, buf := debugEngine(t, true)
	root := NewSceneNode("scene", "")
	root.AddChild(NewGeometry("box", "cube"))
	renderScene(t, e, root)

	out := buf.String()
	for _, want := range []string{"render pass", "draws=1", "balanced=true", "state stacks", "model.push="} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "deep traversal") {
		t.Errorf("unexpected deep traversal warning:\n%s", out)
	}
}

func TestDebugOffIsSilent(t *testing.T) {
	e, buf := debugEngine(t, false)
	root := NewSceneNode("scene", "")
	root.AddChild(NewGeometry("box", "cube"))
	renderScene(t, e, root)

	if strings.Contains(buf.String(), "render pass") {
		t.Errorf("pass stats logged without debug:\n%s", buf.String())
	}
}

func TestDebugWarnsOnDeepTraversal(t *testing.T) {
	e, buf := debugEngine(t, true)
	root := NewSceneNode("scene", "")
	parent := root
	for range debugMaxPath + 1 {
		g := NewGroup("")
		parent.AddChild(g)
		parent = g
	}
	renderScene(t, e, root)

	if !strings.Contains(buf.String(), "deep traversal") {
		t.Errorf("missing deep traversal warning:\n%s", buf.String())
	}
}
