package canopy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Command is a named request addressed to a node, as sent by hosts and
// scripts. On the wire it is a flat JSON object:
//
//	{"command": "lookAt.rotate", "target": "camera", "angle": -15, "ignoreY": true}
type Command struct {
	Name   string
	Target string
	Args   Args
}

// MarshalJSON implements json.Marshaler.
func (c Command) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Args)+2)
	for k, v := range c.Args {
		m[k] = v
	}
	m["command"] = c.Name
	if c.Target != "" {
		m["target"] = c.Target
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Command) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	name, ok := m["command"].(string)
	if !ok || name == "" {
		return fmt.Errorf("%w: command name missing", ErrBadConfig)
	}
	c.Name = name
	c.Target, _ = m["target"].(string)
	delete(m, "command")
	delete(m, "target")
	c.Args = Args(m)
	return nil
}

// Args are the arguments of a command.
type Args map[string]any

// Float returns the named argument as a number, or def when absent.
func (a Args) Float(name string, def float64) (float64, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	return f, nil
}

// Bool returns the named argument as a bool, or def when absent.
func (a Args) Bool(name string, def bool) (bool, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("argument %s: %w", name, err)
	}
	return b, nil
}

// String returns the named argument as a string, or def when absent.
func (a Args) String(name, def string) (string, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("argument %s: %w", name, err)
	}
	return s, nil
}

// CommandHandler executes a command. target is nil when the command names
// no target.
type CommandHandler func(e *Engine, target *Node, args Args) error

// RegisterCommand adds or replaces a command handler.
func (e *Engine) RegisterCommand(name string, h CommandHandler) {
	if h == nil {
		panic("canopy: cannot register nil command handler")
	}
	e.commands[name] = h
}

// Commands returns the registered command names, sorted.
func (e *Engine) Commands() []string {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send dispatches a command to its handler. The target is looked up across
// all scenes; an unknown target yields ErrNodeNotFound.
func (e *Engine) Send(c Command) error {
	h, ok := e.commands[c.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Name)
	}
	var target *Node
	if c.Target != "" {
		n, err := e.Node(c.Target)
		if err != nil {
			return fmt.Errorf("command %s: %w", c.Name, err)
		}
		target = n
	}
	if err := h(e, target, c.Args); err != nil {
		return fmt.Errorf("command %s: %w", c.Name, err)
	}
	return nil
}

func registerBuiltinCommands(e *Engine) {
	e.RegisterCommand("lookAt.rotate", lookAtRotateCommand)
	e.RegisterCommand("node.set", nodeSetCommand)
}

// lookAtRotateCommand turns a LookAt node. Args: angle (degrees), ignoreY
// (bool), axis ("up" or "right").
func lookAtRotateCommand(_ *Engine, target *Node, args Args) error {
	if target == nil {
		return fmt.Errorf("%w: lookAt.rotate needs a target", ErrBadConfig)
	}
	la, ok := As[*LookAt](target)
	if !ok {
		return fmt.Errorf("%w: target %q is a %s node, not lookAt", ErrBadConfig, target.ID, target.Kind())
	}
	angle, err := args.Float("angle", 0)
	if err != nil {
		return err
	}
	ignoreY, err := args.Bool("ignoreY", false)
	if err != nil {
		return err
	}
	axisName, err := args.String("axis", "up")
	if err != nil {
		return err
	}
	axis, err := ParseRotateAxis(axisName)
	if err != nil {
		return err
	}
	return la.Rotate(float32(angle), RotateOptions{Axis: axis, IgnoreY: ignoreY})
}

// nodeSetCommand assigns every argument as an attribute of the target, in
// sorted key order.
func nodeSetCommand(_ *Engine, target *Node, args Args) error {
	if target == nil {
		return fmt.Errorf("%w: node.set needs a target", ErrBadConfig)
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := target.Set(k, args[k]); err != nil {
			return err
		}
	}
	return nil
}
