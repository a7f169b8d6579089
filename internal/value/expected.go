package value

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrPlaceholderNotFound is returned when an expected value contains a string of
// placeholder shape whose predicate name is not registered. It is a
// configuration error: comparing the string literally could pass by accident.
var ErrPlaceholderNotFound = errors.New("placeholder not registered")

var placeholderPattern = regexp.MustCompile(`^\\([A-Za-z_][A-Za-z0-9_]*)\(\)$`)

// PlaceholderString renders the sentinel string for a predicate, e.g. \assertUUID().
func PlaceholderString(name string) string {
	return `\` + name + `()`
}

// ParsePlaceholder reports whether s has the shape \name() and returns name.
func ParsePlaceholder(s string) (string, bool) {
	m := placeholderPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Node is an expected value after placeholder resolution.
type Node interface {
	node()
}

// Literal is a scalar compared by equality.
type Literal struct {
	Value any
}

// Placeholder defers to the named predicate instead of literal equality.
type Placeholder struct {
	Name string
}

// Object is an expected mapping.
type Object struct {
	Fields map[string]Node
}

// Array is an expected sequence.
type Array struct {
	Items []Node
}

func (Literal) node()     {}
func (Placeholder) node() {}
func (Object) node()      {}
func (Array) node()       {}

// ParseExpected converts an expected structured value into a Node tree. Strings
// of placeholder shape become Placeholder nodes when known reports the name as
// registered; an unknown name fails with ErrPlaceholderNotFound. Mapping keys
// are never treated as placeholders.
func ParseExpected(v any, known func(name string) bool) (Node, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	return parse(normalized, known, nil)
}

func parse(v any, known func(string) bool, path Path) (Node, error) {
	switch t := v.(type) {
	case string:
		if name, ok := ParsePlaceholder(t); ok {
			if known == nil || !known(name) {
				return nil, fmt.Errorf("%w: %q at %s", ErrPlaceholderNotFound, name, path)
			}
			return Placeholder{Name: name}, nil
		}
		return Literal{Value: t}, nil
	case map[string]any:
		fields := make(map[string]Node, len(t))
		for k, item := range t {
			child, err := parse(item, known, path.Key(k))
			if err != nil {
				return nil, err
			}
			fields[k] = child
		}
		return Object{Fields: fields}, nil
	case []any:
		items := make([]Node, len(t))
		for i, item := range t {
			child, err := parse(item, known, path.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = child
		}
		return Array{Items: items}, nil
	default:
		return Literal{Value: t}, nil
	}
}
