package fixture

import (
	"sort"

	"github.com/theroutercompany/goldenapi/internal/placeholder"
	"github.com/theroutercompany/goldenapi/internal/value"
)

// Blinding maps top-level field names to the placeholder predicate that
// replaces their value when a fixture is first captured.
type Blinding map[string]string

// volatility lists the predicate used for well-known volatile fields.
var volatility = map[string]string{
	"createdAt": placeholder.DateTime,
	"updatedAt": placeholder.DateTime,
	"deletedAt": placeholder.DateTime,
	"uuid":      placeholder.UUID,
}

// DateProtection blinds createdAt and updatedAt for scenarios that write an
// entity (Create, Update, Clone). Other scenarios get no blinding.
func DateProtection(scenario Scenario) Blinding {
	switch scenario {
	case Create, Update, Clone:
		return Blinding{
			"createdAt": placeholder.DateTime,
			"updatedAt": placeholder.DateTime,
		}
	default:
		return nil
	}
}

// BlindFields builds a Blinding from field names using the known volatility of
// each field. Names without a known kind are treated as date-times.
func BlindFields(names ...string) Blinding {
	b := make(Blinding, len(names))
	for _, name := range names {
		if predicate, ok := volatility[name]; ok {
			b[name] = predicate
			continue
		}
		b[name] = placeholder.DateTime
	}
	return b
}

// Merge returns a Blinding holding the fields of b and other; other wins on conflict.
func (b Blinding) Merge(other Blinding) Blinding {
	out := make(Blinding, len(b)+len(other))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Fields returns the blinded field names, sorted.
func (b Blinding) Fields() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply replaces the blinded top-level fields present in v with their
// placeholder strings. Null fields stay literal so the captured fixture still
// matches the response it came from. Non-mapping values are returned
// unchanged; v itself is never modified.
func (b Blinding) Apply(v any) any {
	obj, ok := v.(map[string]any)
	if !ok || len(b) == 0 {
		return v
	}

	out := make(map[string]any, len(obj))
	for k, item := range obj {
		if predicate, blinded := b[k]; blinded && item != nil {
			out[k] = value.PlaceholderString(predicate)
			continue
		}
		out[k] = item
	}
	return out
}
