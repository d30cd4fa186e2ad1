package canopy

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action  string   `json:"action"`
	Scene   string   `json:"scene,omitempty"`
	Label   string   `json:"label,omitempty"`
	Command *Command `json:"command,omitempty"`
	Repeat  int      `json:"repeat,omitempty"`
}

// scriptFile is the top-level JSON structure for a script.
type scriptFile struct {
	ScreenshotDir string       `json:"screenshotDir,omitempty"`
	Steps         []scriptStep `json:"steps"`
}

// Script is a parsed sequence of engine actions for automated rendering and
// visual testing:
//
//	{"steps": [
//	    {"action": "render", "scene": "s0"},
//	    {"action": "command", "command": {"command": "lookAt.rotate", "target": "cam", "angle": -15}},
//	    {"action": "render", "scene": "s0"},
//	    {"action": "screenshot", "scene": "s0", "label": "rotated"}
//	]}
//
// Actions are command, render, renderAll, redraw and screenshot. Repeat runs
// a step that many times.
type Script struct {
	// ScreenshotDir is where screenshot steps write. Defaults to
	// DefaultScreenshotDir.
	ScreenshotDir string

	steps []scriptStep
}

// LoadScript parses a JSON script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "command":
			if st.Command == nil {
				return nil, fmt.Errorf("parse script: step %d: command action without command", i)
			}
		case "render", "redraw", "screenshot":
			if st.Scene == "" {
				return nil, fmt.Errorf("parse script: step %d: %s action without scene", i, st.Action)
			}
		case "renderAll":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{ScreenshotDir: f.ScreenshotDir, steps: f.Steps}, nil
}

// Len returns the number of steps.
func (s *Script) Len() int { return len(s.steps) }

// RunScript executes every step in order and stops at the first error.
// It returns the paths of the screenshots written.
func (e *Engine) RunScript(s *Script) ([]string, error) {
	var shots []string
	for i, st := range s.steps {
		for range max(st.Repeat, 1) {
			path, err := e.runStep(s, st)
			if err != nil {
				return shots, fmt.Errorf("script step %d (%s): %w", i, st.Action, err)
			}
			if path != "" {
				shots = append(shots, path)
			}
		}
	}
	return shots, nil
}

func (e *Engine) runStep(s *Script, st scriptStep) (string, error) {
	switch st.Action {
	case "command":
		return "", e.Send(*st.Command)
	case "render":
		return "", e.Render(st.Scene)
	case "renderAll":
		return "", e.RenderAll()
	case "redraw":
		return "", e.Redraw(st.Scene)
	case "screenshot":
		return e.Screenshot(st.Scene, s.ScreenshotDir, st.Label)
	}
	return "", fmt.Errorf("unknown action %q", st.Action)
}
