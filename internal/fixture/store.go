// Package fixture persists expected responses and request payloads. A fixture
// is written once, on the first run of a case, and read back unchanged on every
// later run so that behaviour changes surface as mismatches.
//
// The store does not lock keys. Suites running in parallel must not create the
// same (scenario, case) fixture concurrently; if they do, the last writer wins.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/theroutercompany/goldenapi/internal/storage"
	"github.com/theroutercompany/goldenapi/internal/value"
	pkglog "github.com/theroutercompany/goldenapi/pkg/log"
	"github.com/theroutercompany/goldenapi/pkg/metrics"
)

var (
	// ErrFixtureCorrupt reports stored bytes that do not parse. Corrupt
	// fixtures are never rewritten automatically.
	ErrFixtureCorrupt = errors.New("fixture corrupt")
	// ErrInvalidKey reports a scenario or case name that cannot form a key.
	ErrInvalidKey = errors.New("invalid fixture key")
)

// Scenario namespaces fixtures by the kind of operation under test.
type Scenario string

const (
	Create       Scenario = "Create"
	Update       Scenario = "Update"
	Clone        Scenario = "Clone"
	Get          Scenario = "Get"
	GetList      Scenario = "GetList"
	Download     Scenario = "Download"
	DescribeForm Scenario = "DescribeForm"
)

const (
	responsesDir = "Responses"
	dataSentDir  = "DataSent"
)

// ResponseKey returns the key holding the expected response of a case.
func ResponseKey(scenario Scenario, caseName string) (string, error) {
	return buildKey(responsesDir, scenario, caseName)
}

// DataSentKey returns the key holding the request payload of a case.
func DataSentKey(scenario Scenario, caseName string) (string, error) {
	return buildKey(dataSentDir, scenario, caseName)
}

func buildKey(dir string, scenario Scenario, caseName string) (string, error) {
	if scenario == "" || strings.ContainsAny(string(scenario), `/\`) {
		return "", fmt.Errorf("%w: scenario %q", ErrInvalidKey, scenario)
	}
	if caseName == "" || strings.Contains(caseName, `\`) || strings.HasPrefix(caseName, "/") {
		return "", fmt.Errorf("%w: case %q", ErrInvalidKey, caseName)
	}
	for _, segment := range strings.Split(caseName, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: case %q", ErrInvalidKey, caseName)
		}
	}
	return path.Join(dir, string(scenario), caseName), nil
}

// Option customises a Store.
type Option func(*Store)

// WithMetrics records fixture captures.
func WithMetrics(v *metrics.Verification) Option {
	return func(s *Store) {
		s.metrics = v
	}
}

// Store loads fixtures from a backend, creating them on first encounter.
type Store struct {
	backend storage.Backend
	metrics *metrics.Verification
}

// NewStore creates a Store over backend.
func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{backend: backend}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoadOrCreate returns the expected response for a case. An existing fixture is
// returned as stored and actual is ignored. Otherwise actual is blinded,
// persisted and the persisted form returned, so the first run passes by
// construction.
func (s *Store) LoadOrCreate(ctx context.Context, scenario Scenario, caseName string, actual any, blind Blinding) (any, error) {
	key, err := ResponseKey(scenario, caseName)
	if err != nil {
		return nil, err
	}

	data, err := s.backend.Get(ctx, key)
	switch {
	case err == nil:
		return decodeFixture(key, data)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load fixture %s: %w", key, err)
	}

	normalized, err := value.Normalize(actual)
	if err != nil {
		return nil, fmt.Errorf("capture fixture %s: %w", key, err)
	}
	data, err = value.Encode(blind.Apply(normalized))
	if err != nil {
		return nil, fmt.Errorf("capture fixture %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("persist fixture %s: %w", key, err)
	}

	pkglog.Logger().Infow("fixture captured", "key", key, "blinded", blind.Fields())
	s.metrics.ObserveCapture("response")

	return decodeFixture(key, data)
}

// LoadOrCreateDataSent returns the request payload for a case, generating it
// with defaults when no payload fixture exists yet. The generated file is
// meant to be reviewed and edited before it is committed.
func (s *Store) LoadOrCreateDataSent(ctx context.Context, scenario Scenario, caseName string, defaults func() (map[string]any, error)) (map[string]any, error) {
	key, err := DataSentKey(scenario, caseName)
	if err != nil {
		return nil, err
	}

	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load data sent %s: %w", key, err)
		}
		if defaults == nil {
			return nil, fmt.Errorf("data sent %s: %w", key, storage.ErrNotFound)
		}

		payload, err := defaults()
		if err != nil {
			return nil, fmt.Errorf("generate data sent %s: %w", key, err)
		}
		data, err = value.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("generate data sent %s: %w", key, err)
		}
		if err := s.backend.Put(ctx, key, data); err != nil {
			return nil, fmt.Errorf("persist data sent %s: %w", key, err)
		}

		pkglog.Logger().Infow("data sent fixture generated", "key", key, "fields", len(payload))
		s.metrics.ObserveCapture("data_sent")
	}

	decoded, err := decodeFixture(key, data)
	if err != nil {
		return nil, err
	}
	switch payload := decoded.(type) {
	case map[string]any:
		return payload, nil
	case []any:
		if len(payload) == 0 {
			return map[string]any{}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: data sent must be an object", ErrFixtureCorrupt, key)
}

// LoadOrCreateRaw returns the expected raw body of a case, storing actual
// verbatim on first encounter. Used for file downloads.
func (s *Store) LoadOrCreateRaw(ctx context.Context, scenario Scenario, caseName string, actual []byte) ([]byte, error) {
	key, err := ResponseKey(scenario, caseName)
	if err != nil {
		return nil, err
	}

	data, err := s.backend.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load fixture %s: %w", key, err)
	}

	if err := s.backend.Put(ctx, key, actual); err != nil {
		return nil, fmt.Errorf("persist fixture %s: %w", key, err)
	}
	pkglog.Logger().Infow("raw fixture captured", "key", key, "bytes", len(actual))
	s.metrics.ObserveCapture("raw")

	return actual, nil
}

func decodeFixture(key string, data []byte) (any, error) {
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFixtureCorrupt, key, err)
	}
	return v, nil
}
