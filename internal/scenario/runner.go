// Package scenario verifies one test exchange against its golden fixture. It
// checks the status code and expected headers, then loads or captures the body
// fixture and compares it with the actual body.
package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theroutercompany/goldenapi/internal/fixture"
	"github.com/theroutercompany/goldenapi/internal/matcher"
	"github.com/theroutercompany/goldenapi/internal/schema"
	"github.com/theroutercompany/goldenapi/internal/synth"
	"github.com/theroutercompany/goldenapi/internal/value"
	pkglog "github.com/theroutercompany/goldenapi/pkg/log"
	"github.com/theroutercompany/goldenapi/pkg/metrics"
)

// Type is the category of operation under test. It namespaces fixtures.
type Type = fixture.Scenario

const (
	Create       = fixture.Create
	Update       = fixture.Update
	Clone        = fixture.Clone
	Get          = fixture.Get
	GetList      = fixture.GetList
	Download     = fixture.Download
	DescribeForm = fixture.DescribeForm
)

// Stage names the check that failed.
type Stage string

const (
	StageStatus Stage = "status"
	StageHeader Stage = "header"
	StageBody   Stage = "body"
)

// Case identifies one verification.
type Case struct {
	Scenario Type
	Name     string
	// ExpectedStatus is skipped when zero.
	ExpectedStatus int
	// Blind overrides the default blinding when non-nil. An empty non-nil
	// Blinding disables blinding entirely.
	Blind   fixture.Blinding
	Headers map[string]string
}

// VerificationError reports the first failed check of a case.
type VerificationError struct {
	Case     Case
	Stage    Stage
	Mismatch *matcher.Mismatch
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s/%s: %s: %v", e.Case.Scenario, e.Case.Name, e.Stage, e.Mismatch)
}

func (e *VerificationError) Unwrap() error {
	return e.Mismatch
}

// Option customises a Runner.
type Option func(*Runner)

// WithMetrics counts comparison outcomes.
func WithMetrics(v *metrics.Verification) Option {
	return func(r *Runner) {
		r.metrics = v
	}
}

// WithSynthesizer sets the synthesizer used for missing data-sent fixtures.
func WithSynthesizer(s *synth.Synthesizer) Option {
	return func(r *Runner) {
		if s != nil {
			r.synth = s
		}
	}
}

// WithExtraBlindFields blinds additional top-level fields on every capture.
func WithExtraBlindFields(names ...string) Option {
	return func(r *Runner) {
		r.extraBlind = fixture.BlindFields(names...)
	}
}

// Runner ties the fixture store to the matcher.
type Runner struct {
	store      *fixture.Store
	matcher    *matcher.Matcher
	synth      *synth.Synthesizer
	metrics    *metrics.Verification
	extraBlind fixture.Blinding
}

// New creates a Runner.
func New(store *fixture.Store, m *matcher.Matcher, opts ...Option) *Runner {
	r := &Runner{store: store, matcher: m}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.synth == nil {
		r.synth = synth.New(synth.WithMetrics(r.metrics))
	}
	return r
}

func (r *Runner) blinding(c Case) fixture.Blinding {
	if c.Blind != nil {
		return c.Blind
	}
	return fixture.DateProtection(c.Scenario).Merge(r.extraBlind)
}

// Verify runs the status, header and body checks of c against out.
func (r *Runner) Verify(ctx context.Context, c Case, out Output) error {
	logger := r.logger(c)

	if err := r.checkEnvelope(c, out, c.Headers); err != nil {
		r.finish(logger, c, err)
		return err
	}

	actual, err := out.Body()
	if err != nil {
		r.finish(logger, c, err)
		return err
	}

	expected, err := r.store.LoadOrCreate(ctx, c.Scenario, c.Name, actual, r.blinding(c))
	if err != nil {
		r.finish(logger, c, err)
		return err
	}

	mismatch, err := r.matcher.Compare(expected, actual)
	if err != nil {
		err = fmt.Errorf("%s/%s: %w", c.Scenario, c.Name, err)
	} else if mismatch != nil {
		err = &VerificationError{Case: c, Stage: StageBody, Mismatch: mismatch}
	}
	r.finish(logger, c, err)
	return err
}

// VerifyDownload checks that out is a binary attachment named fileName. When
// c.Name is set the raw body is also compared with its fixture.
func (r *Runner) VerifyDownload(ctx context.Context, c Case, out Output, fileName string) error {
	logger := r.logger(c).With("file", fileName)

	headers := make(map[string]string, len(c.Headers)+2)
	for k, v := range c.Headers {
		headers[k] = v
	}
	headers["Content-Transfer-Encoding"] = "binary"
	headers["Content-Disposition"] = `attachment; filename="` + fileName + `"`

	if err := r.checkEnvelope(c, out, headers); err != nil {
		r.finish(logger, c, err)
		return err
	}
	if c.Name == "" {
		r.finish(logger, c, nil)
		return nil
	}

	actual := out.RawBody()
	expected, err := r.store.LoadOrCreateRaw(ctx, c.Scenario, c.Name, actual)
	if err == nil && !bytes.Equal(expected, actual) {
		err = &VerificationError{Case: c, Stage: StageBody, Mismatch: &matcher.Mismatch{
			Reason:   fmt.Sprintf("raw body differs: expected %d bytes, got %d", len(expected), len(actual)),
			Expected: len(expected),
			Actual:   len(actual),
		}}
	}
	r.finish(logger, c, err)
	return err
}

// DataSent returns the request payload for a case, synthesizing it from
// provider's fields when no data-sent fixture exists yet.
func (r *Runner) DataSent(ctx context.Context, scenario Type, caseName string, provider schema.Provider) (map[string]any, error) {
	return r.store.LoadOrCreateDataSent(ctx, scenario, caseName, func() (map[string]any, error) {
		if provider == nil {
			return nil, fmt.Errorf("no schema provider for %s/%s", scenario, caseName)
		}
		fields, err := provider.Fields(ctx)
		if err != nil {
			return nil, err
		}
		return r.synth.Synthesize(fields), nil
	})
}

func (r *Runner) checkEnvelope(c Case, out Output, headers map[string]string) error {
	if c.ExpectedStatus != 0 && out.StatusCode() != c.ExpectedStatus {
		return &VerificationError{Case: c, Stage: StageStatus, Mismatch: &matcher.Mismatch{
			Reason:   fmt.Sprintf("expected status %d, got %d", c.ExpectedStatus, out.StatusCode()),
			Expected: c.ExpectedStatus,
			Actual:   out.StatusCode(),
		}}
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want, got := headers[name], out.Header(name)
		if want != got {
			return &VerificationError{Case: c, Stage: StageHeader, Mismatch: &matcher.Mismatch{
				Path:     value.Path{name},
				Reason:   fmt.Sprintf("expected %q, got %q", want, got),
				Expected: want,
				Actual:   got,
			}}
		}
	}
	return nil
}

func (r *Runner) logger(c Case) *zap.SugaredLogger {
	return pkglog.Logger().With(
		"run_id", uuid.NewString(),
		"scenario", string(c.Scenario),
		"case", c.Name,
	)
}

func (r *Runner) finish(logger *zap.SugaredLogger, c Case, err error) {
	outcome := "match"
	switch {
	case err == nil:
		logger.Debugw("case verified")
	case isVerificationError(err):
		outcome = "mismatch"
		logger.Infow("case mismatch", "error", err)
	default:
		outcome = "error"
		logger.Warnw("case verification failed", "error", err)
	}
	r.metrics.ObserveComparison(string(c.Scenario), outcome)
}

func isVerificationError(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}
