// Package synth builds default request payloads from field descriptors. The
// output is a starting point meant to be reviewed and edited by hand before it
// is committed as a data-sent fixture, so the rules stay deliberately simple.
package synth

import (
	"math/rand/v2"
	"time"

	"github.com/theroutercompany/goldenapi/internal/schema"
	pkglog "github.com/theroutercompany/goldenapi/pkg/log"
	"github.com/theroutercompany/goldenapi/pkg/metrics"
)

// LoremIpsum is the value generated for text fields.
const LoremIpsum = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt"

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 03:04:05"

	maxInteger = 5000
	maxTenths  = 50000
	fallbackID = 1
)

// Option customises a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the time source used for date fields.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIntN overrides the random source. intN(n) must return a value in [0, n).
func WithIntN(intN func(n int) int) Option {
	return func(s *Synthesizer) {
		if intN != nil {
			s.intN = intN
		}
	}
}

// WithMetrics counts fallbacks.
func WithMetrics(v *metrics.Verification) Option {
	return func(s *Synthesizer) {
		s.metrics = v
	}
}

// Synthesizer generates one value per field descriptor.
type Synthesizer struct {
	now     func() time.Time
	intN    func(int) int
	metrics *metrics.Verification
}

// New creates a Synthesizer backed by the process-wide random source.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		now:  time.Now,
		intN: rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Synthesize returns a payload mapping each field name to a generated value.
func (s *Synthesizer) Synthesize(fields []schema.FieldDescriptor) map[string]any {
	payload := make(map[string]any, len(fields))
	for _, field := range fields {
		payload[field.Name] = s.generate(field)
	}
	return payload
}

func (s *Synthesizer) generate(field schema.FieldDescriptor) any {
	switch field.Type {
	case schema.TypeString:
		switch field.Format {
		case schema.FormatDate:
			return s.now().Format(dateLayout)
		case schema.FormatDateTime:
			return s.now().Format(dateTimeLayout)
		default:
			return "string"
		}
	case schema.TypeText:
		return LoremIpsum
	case schema.TypeInteger:
		return s.intN(maxInteger + 1)
	case schema.TypeNumber:
		return float64(1+s.intN(maxTenths)) / 10
	case schema.TypeArray:
		return []any{}
	case schema.TypeBoolean, schema.TypeEntity:
		return s.pick(field)
	default:
		s.fallback(field, "unknown field type")
		return ""
	}
}

// pick draws candidate identifiers: two for array-formatted fields when
// available, otherwise the single candidate of a one-value field.
func (s *Synthesizer) pick(field schema.FieldDescriptor) any {
	if field.Format == schema.FormatArray {
		ids := make([]any, 0, 2)
		for _, c := range field.Values {
			if c.HasID() {
				ids = append(ids, c.ID)
			}
			if len(ids) == 2 {
				break
			}
		}
		if len(ids) == 0 {
			s.fallback(field, "no candidate identifiers")
			return []any{fallbackID}
		}
		return ids
	}

	if len(field.Values) == 1 && field.Values[0].HasID() {
		return field.Values[0].ID
	}
	s.fallback(field, "no single candidate")
	return fallbackID
}

func (s *Synthesizer) fallback(field schema.FieldDescriptor, reason string) {
	pkglog.Logger().Warnw("synthesized field fell back to default",
		"field", field.Name,
		"type", field.Type,
		"format", field.Format,
		"candidates", len(field.Values),
		"reason", reason,
	)
	fieldType := field.Type
	if fieldType == "" {
		fieldType = "unknown"
	}
	s.metrics.ObserveFallback(fieldType)
}

// Synthesize is a shorthand for New(opts...).Synthesize(fields).
func Synthesize(fields []schema.FieldDescriptor, opts ...Option) map[string]any {
	return New(opts...).Synthesize(fields)
}
