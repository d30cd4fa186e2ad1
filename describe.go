package canopy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// newNodeData returns the default configuration for a scene-description
// type name. Names that are not node kinds are taken as geometry primitives.
func newNodeData(typ string) NodeData {
	switch typ {
	case "", "node":
		return &Group{}
	case "scene":
		return &SceneRoot{}
	case "library":
		return &Library{}
	case "instance":
		return &Instance{}
	case "lookAt":
		return &LookAt{Up: worldUp}
	case "camera":
		return &Camera{Optics: DefaultOptics}
	case "light":
		l := DefaultLight()
		return &l
	case "material":
		return &Material{}
	case "renderer":
		return &Renderer{}
	case "translate":
		return &Translate{}
	case "scale":
		return &Scale{X: 1, Y: 1, Z: 1}
	case "rotate":
		return &Rotate{}
	case "geometry":
		return &Geometry{}
	default:
		return &Geometry{Primitive: typ}
	}
}

// reservedKeys are description keys that are not attributes.
var reservedKeys = map[string]bool{"type": true, "id": true, "nodes": true}

// ParseNode decodes a JSON scene description:
//
//	{
//	    "type": "scene", "id": "my-scene", "canvasId": "main",
//	    "nodes": [
//	        {"type": "lookAt", "eye": {"z": -5}, "look": {}, "up": {"y": 1},
//	         "nodes": [{"type": "cube"}]}
//	    ]
//	}
//
// Every key other than type, id and nodes is applied with Node.Set.
func ParseNode(data []byte) (*Node, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse scene description: %w", err)
	}
	return DecodeNode(m)
}

// DecodeNode builds a node tree from an already-decoded description.
func DecodeNode(m map[string]any) (*Node, error) {
	return decodeNode(m, "")
}

func decodeNode(m map[string]any, path string) (*Node, error) {
	typ := ""
	if raw, ok := m["type"]; ok {
		s, err := toString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: type: %w", pathOrRoot(path), err)
		}
		typ = s
	}
	id := ""
	if raw, ok := m["id"]; ok {
		s, err := toString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: id: %w", pathOrRoot(path), err)
		}
		id = s
	}
	n := NewNode(id, newNodeData(typ))
	here := path + "/" + n.ID

	keys := make([]string, 0, len(m))
	for k := range m {
		if !reservedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := n.Set(k, m[k]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", here, err)
		}
	}

	raw, ok := m["nodes"]
	if !ok {
		return n, nil
	}
	children, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("decode %s: %w: nodes must be an array", here, ErrBadConfig)
	}
	if len(children) > 0 && n.Kind() == KindGeometry {
		return nil, fmt.Errorf("decode %s: %w: geometry nodes cannot have children", here, ErrBadConfig)
	}
	for i, c := range children {
		cm, err := toMap(c)
		if err != nil {
			return nil, fmt.Errorf("decode %s/nodes[%d]: %w", here, i, err)
		}
		child, err := decodeNode(cm, here)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
