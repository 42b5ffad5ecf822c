package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"tagaudit/internal/sentry"
)

type Config struct {
	// MAINTAINER NOTE: if you add/change/remove config fields, keep these in
	// sync:
	// - CLI flags in internal/cli/check.go
	// - the environment overlay in internal/config/env.go
	Backend Backend
	Sample  Sample
	Policy  Policy
	Output  Output
	Runtime Runtime
}

type Backend struct {
	// URL is the observability backend base URL (see --url / SENTRY_URL).
	// Defaults to the hosted service.
	URL string

	// Org is the organization slug that owns the project (see --org / SENTRY_ORG).
	Org string

	// Project is the project slug whose events are sampled (see --project / SENTRY_PROJECT).
	Project string
}

type Sample struct {
	// Environment selects which environment's events are sampled
	// (see --environment / TAGAUDIT_ENVIRONMENT). Required.
	Environment string

	// Size is how many recent events one run evaluates
	// (see --sample-size / TAGAUDIT_SAMPLE_SIZE). Allowed range: 1..100,
	// the backend's page limit.
	Size int
}

type Policy struct {
	// Threshold is the minimum compliant percentage, inclusive, for the run
	// to be VALIDATED (see --threshold / TAGAUDIT_THRESHOLD). Range: 0..100.
	Threshold int

	// RulesFile optionally replaces the built-in tag policy with a YAML
	// rule set (see --rules-file / TAGAUDIT_RULES_FILE).
	RulesFile string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes the report to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out
	// file extension.
	OutFormat string

	// Emit writes an additional machine-readable stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	// Use with --emit/--out for machine-readable output.
	NoConsole bool

	// Summary writes a Markdown run summary to this path (see --summary).
	// Under GitHub Actions it defaults to the job summary file.
	Summary string

	// CI selects where the percentage/status scalars are published (see --ci).
	// Allowed values: auto, github, azure, off.
	CI string

	// CommitStatus posts the outcome as a GitHub commit status (see --commit-status).
	CommitStatus bool
}

type Runtime struct {
	// Concurrency controls parallelism for event evaluation (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout bounds a single request to the backend (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables more detailed diagnostics, including one log line per
	// backend request.
	Verbose bool
}

func New() *Config {
	return &Config{
		Backend: Backend{
			URL: "https://sentry.io",
		},
		Sample: Sample{
			Size: 50,
		},
		Policy: Policy{
			Threshold: 95,
		},
		Output: Output{
			ConsoleFormat: "text",
			CI:            "auto",
		},
		Runtime: Runtime{
			Concurrency: 4,
			Timeout:     sentry.DefaultTimeout,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Backend validation
	c.Backend.URL = strings.TrimSpace(c.Backend.URL)
	if c.Backend.URL == "" {
		return errors.New("backend URL must not be empty")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid backend URL: %s", c.Backend.URL)
	}
	if c.Backend.Org == "" {
		return errors.New("organization is required (set --org or SENTRY_ORG)")
	}
	if c.Backend.Project == "" {
		return errors.New("project is required (set --project or SENTRY_PROJECT)")
	}

	// Sampling validation
	if c.Sample.Environment == "" {
		return errors.New("environment is required (set --environment or TAGAUDIT_ENVIRONMENT)")
	}
	if c.Sample.Size < 1 || c.Sample.Size > 100 {
		return fmt.Errorf("--sample-size must be between 1 and 100, got %d", c.Sample.Size)
	}
	if c.Policy.Threshold < 0 || c.Policy.Threshold > 100 {
		return fmt.Errorf("--threshold must be between 0 and 100, got %d", c.Policy.Threshold)
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	c.Output.CI = normalizeEnumValue(c.Output.CI)
	if c.Output.CI == "" {
		c.Output.CI = "auto"
	}
	switch c.Output.CI {
	case "auto", "github", "azure", "off":
	default:
		return fmt.Errorf("unsupported --ci mode: %s (must be one of: auto, github, azure, off)", c.Output.CI)
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
