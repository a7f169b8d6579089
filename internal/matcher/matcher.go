// Package matcher compares an expected fixture against an actual structured
// value, deferring to placeholder predicates where the fixture asks for them.
package matcher

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/theroutercompany/goldenapi/internal/placeholder"
	"github.com/theroutercompany/goldenapi/internal/value"
)

// Resolver looks up placeholder predicates. *placeholder.Registry satisfies it.
type Resolver interface {
	Has(name string) bool
	Resolve(name string) (placeholder.Predicate, error)
}

// Mismatch locates the first difference between expected and actual.
type Mismatch struct {
	Path     value.Path
	Reason   string
	Expected any
	Actual   any
	// Diff is a whole-document rendering, set when the Matcher was built WithDiff.
	Diff string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("%s: %s", m.Path, m.Reason)
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithDiff attaches a go-cmp rendering of the full expected and actual
// documents to every mismatch.
func WithDiff() Option {
	return func(m *Matcher) {
		m.diff = true
	}
}

// Matcher compares expected and actual structured values. It holds no state
// besides its resolver and is safe for concurrent use.
type Matcher struct {
	resolver Resolver
	diff     bool
}

// New creates a Matcher consulting resolver for placeholders.
func New(resolver Resolver, opts ...Option) *Matcher {
	m := &Matcher{resolver: resolver}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Compare reports the first difference between expected and actual, or nil when
// they match. An expected placeholder naming an unregistered predicate is
// returned as an error wrapping value.ErrPlaceholderNotFound.
func (m *Matcher) Compare(expected, actual any) (*Mismatch, error) {
	expected, err := value.Normalize(expected)
	if err != nil {
		return nil, err
	}
	node, err := value.ParseExpected(expected, m.resolver.Has)
	if err != nil {
		return nil, err
	}
	normalized, err := value.Normalize(actual)
	if err != nil {
		return nil, err
	}

	mismatch := m.CompareNode(node, normalized)
	if mismatch != nil && m.diff {
		mismatch.Diff = cmp.Diff(expected, normalized)
	}
	return mismatch, nil
}

// CompareNode compares a parsed expected tree against a canonical actual value.
func (m *Matcher) CompareNode(expected value.Node, actual any) *Mismatch {
	return m.compare(expected, actual, nil)
}

func (m *Matcher) compare(expected value.Node, actual any, path value.Path) *Mismatch {
	switch exp := expected.(type) {
	case value.Placeholder:
		return m.comparePlaceholder(exp, actual, path)
	case value.Object:
		return m.compareObject(exp, actual, path)
	case value.Array:
		return m.compareArray(exp, actual, path)
	case value.Literal:
		return compareScalar(exp.Value, actual, path)
	default:
		return &Mismatch{Path: path, Reason: fmt.Sprintf("unsupported expected node %T", expected), Actual: actual}
	}
}

func (m *Matcher) comparePlaceholder(exp value.Placeholder, actual any, path value.Path) *Mismatch {
	predicate, err := m.resolver.Resolve(exp.Name)
	if err != nil {
		return &Mismatch{Path: path, Reason: err.Error(), Expected: value.PlaceholderString(exp.Name), Actual: actual}
	}
	if err := predicate(actual); err != nil {
		return &Mismatch{
			Path:     path,
			Reason:   fmt.Sprintf("%s: %v", exp.Name, err),
			Expected: value.PlaceholderString(exp.Name),
			Actual:   actual,
		}
	}
	return nil
}

func (m *Matcher) compareObject(exp value.Object, actual any, path value.Path) *Mismatch {
	if len(exp.Fields) == 0 && value.IsEmptyContainer(actual) {
		return nil
	}

	act, ok := actual.(map[string]any)
	if !ok {
		return kindMismatch(value.KindObject, actual, path)
	}

	keys := sortedKeys(exp.Fields)
	for _, k := range keys {
		if _, present := act[k]; !present {
			return &Mismatch{Path: path.Key(k), Reason: "missing key"}
		}
	}
	actualKeys := make([]string, 0, len(act))
	for k := range act {
		actualKeys = append(actualKeys, k)
	}
	sort.Strings(actualKeys)
	for _, k := range actualKeys {
		if _, present := exp.Fields[k]; !present {
			return &Mismatch{Path: path.Key(k), Reason: "unexpected key", Actual: act[k]}
		}
	}

	for _, k := range keys {
		if mismatch := m.compare(exp.Fields[k], act[k], path.Key(k)); mismatch != nil {
			return mismatch
		}
	}
	return nil
}

func (m *Matcher) compareArray(exp value.Array, actual any, path value.Path) *Mismatch {
	if len(exp.Items) == 0 && value.IsEmptyContainer(actual) {
		return nil
	}

	act, ok := actual.([]any)
	if !ok {
		return kindMismatch(value.KindArray, actual, path)
	}
	if len(act) != len(exp.Items) {
		return &Mismatch{
			Path:   path,
			Reason: fmt.Sprintf("expected %d elements, got %d", len(exp.Items), len(act)),
		}
	}

	for i, item := range exp.Items {
		if mismatch := m.compare(item, act[i], path.Index(i)); mismatch != nil {
			return mismatch
		}
	}
	return nil
}

func compareScalar(expected, actual any, path value.Path) *Mismatch {
	expKind, actKind := value.KindOf(expected), value.KindOf(actual)
	if expKind != actKind {
		return kindMismatch(expKind, actual, path)
	}

	var equal bool
	switch expKind {
	case value.KindNull:
		equal = true
	case value.KindNumber:
		equal, _ = value.NumbersEqual(expected, actual)
	case value.KindBool, value.KindString:
		equal = expected == actual
	}

	if !equal {
		return &Mismatch{
			Path:     path,
			Reason:   fmt.Sprintf("expected %s, got %s", render(expected), render(actual)),
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

func kindMismatch(expected value.Kind, actual any, path value.Path) *Mismatch {
	return &Mismatch{
		Path:   path,
		Reason: fmt.Sprintf("expected %s, got %s", expected, value.KindOf(actual)),
		Actual: actual,
	}
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys(fields map[string]value.Node) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
