package placeholder

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestBuiltinsRegistered(t *testing.T) {
	r := NewRegistry()

	want := []string{Date, DateTime, DateTimeNow, FileName, FileURL, UUID}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestWithoutBuiltins(t *testing.T) {
	r := NewRegistry(WithoutBuiltins())
	if len(r.Names()) != 0 {
		t.Fatalf("expected empty registry, got %v", r.Names())
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()

	isPositive := func(actual any) error {
		n, ok := actual.(json.Number)
		if !ok {
			return errors.New("expected number")
		}
		if f, _ := n.Float64(); f <= 0 {
			return errors.New("not positive")
		}
		return nil
	}

	if err := r.Register("assertPositive", isPositive); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("assertPositive", isPositive); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := r.Register(UUID, isPositive); err == nil {
		t.Fatalf("expected overriding a builtin to fail")
	}

	predicate, err := r.Resolve("assertPositive")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := predicate(json.Number("3")); err != nil {
		t.Fatalf("expected 3 to be positive: %v", err)
	}
	if !r.Has("assertPositive") {
		t.Fatalf("expected Has to report registered predicate")
	}

	if _, err := r.Resolve("assertColor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuiltinPredicates(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name   string
		actual any
		pass   bool
	}{
		{UUID, "3fa85f64-5717-4562-b3fc-2c963f66afa6", true},
		{UUID, "3FA85F64-5717-4562-B3FC-2C963F66AFA6", true},
		{UUID, uuid.NewString(), true},
		{UUID, "a-b-c-d-e", true},
		{UUID, "not-a-uuid", false},
		{UUID, json.Number("42"), false},
		{DateTime, "2024-03-01T10:20:30+00:00", true},
		{DateTime, "2024-03-01T10:20:30.123456Z", true},
		{DateTime, "2024-03-01T10:20:30+0100", true},
		{DateTime, "2024-03-01T10:20:30", true},
		{DateTime, "2024-03-01", false},
		{DateTime, "2024-13-01T10:20:30Z", false},
		{DateTime, "bad", false},
		{DateTime, nil, false},
		{Date, "2024-02-29", true},
		{Date, "2023-02-29", false},
		{Date, "2024-03-01T10:20:30Z", false},
		{FileURL, "https://cdn.example.com/uploads/2024/report.pdf", true},
		{FileURL, "http://localhost:8080/files/a1b2.png?sig=abc", true},
		{FileURL, "/uploads/report.pdf", false},
		{FileURL, "https://cdn.example.com/uploads/", false},
		{FileName, "report-2024_final.pdf", true},
		{FileName, "uploads/report.pdf", false},
		{FileName, "report", false},
	}

	for _, tc := range cases {
		predicate, err := r.Resolve(tc.name)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.name, err)
		}
		err = predicate(tc.actual)
		if tc.pass && err != nil {
			t.Fatalf("%s(%v): expected pass, got %v", tc.name, tc.actual, err)
		}
		if !tc.pass && err == nil {
			t.Fatalf("%s(%v): expected failure", tc.name, tc.actual)
		}
	}
}

func TestDateTimeNowTolerance(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return now }), WithNowTolerance(2*time.Second))

	predicate, err := r.Resolve(DateTimeNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := predicate("2024-03-01T10:20:31+00:00"); err != nil {
		t.Fatalf("expected value within tolerance, got %v", err)
	}
	if err := predicate("2024-03-01T11:20:29+01:00"); err != nil {
		t.Fatalf("expected offset value within tolerance, got %v", err)
	}
	if err := predicate("2024-03-01T10:20:35Z"); err == nil {
		t.Fatalf("expected value outside tolerance to fail")
	}
	if r.Tolerance() != 2*time.Second {
		t.Fatalf("unexpected tolerance %s", r.Tolerance())
	}
}

func TestConcurrentReads(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Resolve(UUID); err != nil {
					t.Errorf("resolve: %v", err)
					return
				}
				_ = r.Names()
			}
		}()
	}
	wg.Wait()
}
