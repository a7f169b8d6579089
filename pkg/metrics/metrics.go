package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const defaultNamespace = "goldenapi"

// Option configures behaviour of a Registry.
type Option func(*options)

type options struct {
	namespace                 string
	registerDefaultCollectors bool
}

// WithNamespace overrides the namespace applied to the verification collectors.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if ns := strings.TrimSpace(namespace); ns != "" {
			o.namespace = ns
		}
	}
}

// WithoutDefaultCollectors disables automatic registration of Go and process
// collectors. Useful for tests.
func WithoutDefaultCollectors() Option {
	return func(o *options) {
		o.registerDefaultCollectors = false
	}
}

// Registry wraps a Prometheus registry and exposes helpers for gathering and
// textfile export.
type Registry struct {
	namespace string
	registry  *prometheus.Registry
}

// NewRegistry creates a registry preloaded with default collectors.
func NewRegistry(opts ...Option) *Registry {
	settings := options{
		namespace:                 defaultNamespace,
		registerDefaultCollectors: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	reg := prometheus.NewRegistry()
	if settings.registerDefaultCollectors {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &Registry{namespace: settings.namespace, registry: reg}
}

// Namespace returns the namespace used for collectors created by this package.
func (r *Registry) Namespace() string {
	if r == nil {
		return defaultNamespace
	}
	return r.namespace
}

// Register allows callers to register custom collectors.
func (r *Registry) Register(c prometheus.Collector) {
	if r == nil || r.registry == nil || c == nil {
		return
	}
	r.registry.MustRegister(c)
}

// Gatherer exposes the underlying registry for testutil and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil || r.registry == nil {
		return prometheus.Gatherers{}
	}
	return r.registry
}

// WriteTextfile dumps every registered metric in the node-exporter textfile format.
// Verification runs are short-lived, so this replaces a scrape endpoint.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || r.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
