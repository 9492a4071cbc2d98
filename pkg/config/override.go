package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverrideSource applies "dotted.key=value" assignments, typically from a
// repeated --set command-line flag. Values are resolved like YAML scalars,
// so "9090" sets an integer field and "true" a boolean one. Unknown keys
// are rejected.
type OverrideSource[C any] struct {
	assignments []string
}

// Overrides returns a source for the given assignments. Later assignments
// to the same key win.
func Overrides[C any](assignments ...string) *OverrideSource[C] {
	return &OverrideSource[C]{assignments: append([]string(nil), assignments...)}
}

// Name returns "overrides".
func (s *OverrideSource[C]) Name() string { return "overrides" }

// Load builds a layer holding only the assigned fields.
func (s *OverrideSource[C]) Load(_ context.Context) (C, error) {
	var v C
	if len(s.assignments) == 0 {
		return v, nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, a := range s.assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return v, &LoadError{
				Source: s.Name(),
				Reason: ReasonParse,
				Field:  a,
				Err:    errors.New("expected key=value"),
			}
		}
		setNode(root, strings.Split(key, "."), value)
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return v, &LoadError{Source: s.Name(), Reason: ReasonParse, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && !strings.Contains(err.Error(), "not found in type") {
			return v, &LoadError{Source: s.Name(), Reason: ReasonTypeMismatch, Err: err}
		}
		return v, &LoadError{Source: s.Name(), Reason: ReasonParse, Err: fmt.Errorf("unknown key: %w", err)}
	}
	return v, nil
}

// setNode assigns value at path below a mapping node, creating
// intermediate mappings and replacing earlier assignments to the same key.
func setNode(m *yaml.Node, path []string, value string) {
	key := path[0]

	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		if len(path) == 1 {
			m.Content[i+1] = scalarNode(value)
			return
		}
		child := m.Content[i+1]
		if child.Kind != yaml.MappingNode {
			child = &yaml.Node{Kind: yaml.MappingNode}
			m.Content[i+1] = child
		}
		setNode(child, path[1:], value)
		return
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	if len(path) == 1 {
		m.Content = append(m.Content, keyNode, scalarNode(value))
		return
	}
	child := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, keyNode, child)
	setNode(child, path[1:], value)
}

// scalarNode leaves the tag empty so the decoder resolves the value's type
// against the destination field.
func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}
