package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// the environment-overlay plumbing. Keeping these as constants helps avoid
// drift between Cobra flag wiring and other code paths that need to
// reference flags by name (e.g. checking whether the user set one).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Backend.Org, flags.FlagOrg, "", "...")
//	changed := cmd.Flags().Changed(flags.FlagOrg)
const (
	// Backend
	FlagOrg     = "org"
	FlagProject = "project"
	FlagURL     = "url"

	// Sampling and policy
	FlagEnvironment = "environment"
	FlagSampleSize  = "sample-size"
	FlagThreshold   = "threshold"
	FlagRulesFile   = "rules-file"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"
	FlagSummary       = "summary"
	FlagCI            = "ci"
	FlagCommitStatus  = "commit-status"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)
