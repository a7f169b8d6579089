package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/theroutercompany/goldenapi/internal/config"
	"github.com/theroutercompany/goldenapi/internal/fixture"
	"github.com/theroutercompany/goldenapi/internal/matcher"
	"github.com/theroutercompany/goldenapi/internal/placeholder"
	"github.com/theroutercompany/goldenapi/internal/scenario"
	"github.com/theroutercompany/goldenapi/internal/schema"
	"github.com/theroutercompany/goldenapi/internal/storage"
	"github.com/theroutercompany/goldenapi/internal/synth"
	"github.com/theroutercompany/goldenapi/internal/value"
	pkglog "github.com/theroutercompany/goldenapi/pkg/log"
	"github.com/theroutercompany/goldenapi/pkg/metrics"
)

// errMismatch signals that verification ran but at least one case failed.
var errMismatch = errors.New("verification failed")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1], os.Args[2:], os.Stdout)
	_ = pkglog.Sync()

	switch {
	case err == nil:
	case errors.Is(err, errMismatch):
		os.Exit(1)
	case errors.Is(err, errUsage):
		usage()
		os.Exit(1)
	default:
		log.Fatalf("goldencheck %s: %v", os.Args[1], err)
	}
}

var errUsage = errors.New("unknown command")

func run(ctx context.Context, command string, args []string, stdout io.Writer) error {
	switch command {
	case "compare":
		return compareCommand(args, stdout)
	case "verify":
		return verifyCommand(ctx, args, stdout)
	case "synth":
		return synthCommand(ctx, args, stdout)
	case "placeholders":
		return placeholdersCommand(args, stdout)
	default:
		return errUsage
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: goldencheck <command> [options]\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  compare       Compare an actual JSON document with an expected one\n")
	fmt.Fprintf(os.Stderr, "  verify        Verify captured outputs against their fixtures\n")
	fmt.Fprintf(os.Stderr, "  synth         Generate a default request payload from a form schema\n")
	fmt.Fprintf(os.Stderr, "  placeholders  List the registered placeholder predicates\n")
}

// session holds the collaborators shared by commands that touch fixtures.
type session struct {
	cfg     config.Config
	metrics *metrics.Registry
	runner  *scenario.Runner
	closer  io.Closer
}

func openSession(ctx context.Context, configPath string) (*session, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := pkglog.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	backend, closer, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	registry := metrics.NewRegistry()
	counters := metrics.NewVerification(registry)

	store := fixture.NewStore(backend, fixture.WithMetrics(counters))
	m := matcher.New(placeholder.NewRegistry(placeholder.WithNowTolerance(cfg.NowTolerance)))
	runner := scenario.New(store, m,
		scenario.WithMetrics(counters),
		scenario.WithSynthesizer(synth.New(synth.WithMetrics(counters))),
		scenario.WithExtraBlindFields(cfg.ExtraBlindFields...),
	)

	return &session{cfg: cfg, metrics: registry, runner: runner, closer: closer}, nil
}

func (s *session) Close() error {
	var errs []error
	if s.cfg.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := s.closer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func compareCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to goldenapi YAML configuration")
	expectedPath := fs.String("expected", "", "Path to the expected JSON document")
	actualPath := fs.String("actual", "", "Path to the actual JSON document")
	showDiff := fs.Bool("diff", false, "Print a full document diff on mismatch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *expectedPath == "" || *actualPath == "" {
		return errors.New("--expected and --actual are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	expected, err := readJSON(*expectedPath)
	if err != nil {
		return err
	}
	actual, err := readJSON(*actualPath)
	if err != nil {
		return err
	}

	var opts []matcher.Option
	if *showDiff {
		opts = append(opts, matcher.WithDiff())
	}
	mismatch, err := matcher.New(placeholder.NewRegistry(placeholder.WithNowTolerance(cfg.NowTolerance)), opts...).Compare(expected, actual)
	if err != nil {
		return err
	}
	if mismatch != nil {
		fmt.Fprintf(stdout, "mismatch at %v\n", mismatch)
		if mismatch.Diff != "" {
			fmt.Fprintln(stdout, mismatch.Diff)
		}
		return errMismatch
	}

	fmt.Fprintln(stdout, "match")
	return nil
}

func verifyCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to goldenapi YAML configuration")
	manifestPath := fs.String("manifest", "", "Path to a YAML manifest of checks")
	scenarioName := fs.String("scenario", "", "Scenario type of a single check (Create, Get, ...)")
	caseName := fs.String("case", "", "Case name of a single check")
	actualPath := fs.String("actual", "", "Path to the actual response body of a single check")
	status := fs.Int("status", 0, "Actual status code of a single check")
	expectStatus := fs.Int("expect-status", 0, "Expected status code of a single check")
	concurrency := fs.Int("concurrency", 0, "Checks verified in parallel (overrides the manifest)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		checks []scenario.Check
		err    error
		limit  int
	)
	switch {
	case *manifestPath != "":
		var m *manifest
		m, err = loadManifest(*manifestPath)
		if err == nil {
			checks, err = m.checks()
			limit = m.Concurrency
		}
	case *scenarioName != "" && *caseName != "" && *actualPath != "":
		var body []byte
		body, err = os.ReadFile(*actualPath)
		checks = []scenario.Check{{
			Case:   scenario.Case{Scenario: scenario.Type(*scenarioName), Name: *caseName, ExpectedStatus: *expectStatus},
			Output: scenario.StaticOutput{Status: *status, Raw: body},
		}}
	default:
		return errors.New("either --manifest or --scenario, --case and --actual are required")
	}
	if err != nil {
		return err
	}
	if *concurrency > 0 {
		limit = *concurrency
	}

	s, err := openSession(ctx, *configPath)
	if err != nil {
		return err
	}

	results := s.runner.VerifyAll(ctx, checks, limit)

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stdout, "[%s/%s] %v\n", res.Case.Scenario, res.Case.Name, res.Err)
		}
	}
	fmt.Fprintf(stdout, "Verified %d cases, %d failed\n", len(results), failed)

	if err := s.Close(); err != nil {
		return err
	}
	if failed > 0 {
		return errMismatch
	}
	return nil
}

func synthCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to goldenapi YAML configuration")
	describePath := fs.String("describe", "", "Path to a describe-form JSON document")
	openapiPath := fs.String("openapi", "", "Path to an OpenAPI document")
	operationID := fs.String("operation", "", "OpenAPI operation ID whose request body is synthesized")
	scenarioName := fs.String("scenario", "Create", "Scenario type used when persisting")
	caseName := fs.String("case", "", "Persist the payload as the data-sent fixture of this case")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		provider schema.Provider
		err      error
	)
	switch {
	case *describePath != "":
		provider, err = schema.LoadDescribeForm(*describePath)
	case *openapiPath != "" && *operationID != "":
		provider, err = schema.LoadOpenAPI(*openapiPath, *operationID)
	default:
		return errors.New("either --describe or --openapi with --operation is required")
	}
	if err != nil {
		return err
	}

	var payload map[string]any
	if *caseName == "" {
		fields, err := provider.Fields(ctx)
		if err != nil {
			return err
		}
		payload = synth.Synthesize(fields)
	} else {
		s, err := openSession(ctx, *configPath)
		if err != nil {
			return err
		}
		payload, err = s.runner.DataSent(ctx, scenario.Type(*scenarioName), *caseName, provider)
		if closeErr := s.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}

	data, err := value.Encode(payload)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func placeholdersCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("placeholders", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range placeholder.NewRegistry().Names() {
		fmt.Fprintln(stdout, value.PlaceholderString(name))
	}
	return nil
}

func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}
