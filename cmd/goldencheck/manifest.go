package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/theroutercompany/goldenapi/internal/fixture"
	"github.com/theroutercompany/goldenapi/internal/scenario"
)

// manifest lists captured exchanges to verify in one run.
type manifest struct {
	Concurrency int          `yaml:"concurrency"`
	Checks      []checkEntry `yaml:"checks"`

	baseDir string
}

// checkEntry describes one captured exchange. Body paths are relative to the
// manifest file.
type checkEntry struct {
	Scenario      string            `yaml:"scenario"`
	Case          string            `yaml:"case"`
	Status        int               `yaml:"status"`
	ExpectStatus  int               `yaml:"expectStatus"`
	Headers       map[string]string `yaml:"headers"`
	ExpectHeaders map[string]string `yaml:"expectHeaders"`
	Body          string            `yaml:"body"`
	Blind         []string          `yaml:"blind"`
	Download      string            `yaml:"download"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(m.Checks) == 0 {
		return nil, fmt.Errorf("manifest %s has no checks", path)
	}
	m.baseDir = filepath.Dir(path)
	return &m, nil
}

func (m *manifest) checks() ([]scenario.Check, error) {
	checks := make([]scenario.Check, 0, len(m.Checks))
	for i, entry := range m.Checks {
		if entry.Scenario == "" {
			return nil, fmt.Errorf("check %d: scenario is required", i)
		}

		var raw []byte
		if entry.Body != "" {
			path := entry.Body
			if !filepath.IsAbs(path) {
				path = filepath.Join(m.baseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("check %d: read body: %w", i, err)
			}
			raw = data
		}

		c := scenario.Case{
			Scenario:       scenario.Type(entry.Scenario),
			Name:           entry.Case,
			ExpectedStatus: entry.ExpectStatus,
			Headers:        entry.ExpectHeaders,
		}
		if entry.Blind != nil {
			c.Blind = fixture.BlindFields(entry.Blind...)
		}

		checks = append(checks, scenario.Check{
			Case:     c,
			Output:   scenario.StaticOutput{Status: entry.Status, Head: entry.Headers, Raw: raw},
			Download: entry.Download,
		})
	}
	return checks, nil
}
