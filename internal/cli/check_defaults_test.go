package cli

import (
	"testing"

	"tagaudit/internal/config"
	"tagaudit/internal/flags"

	"github.com/spf13/cobra"
)

func newCheckFlagSet() *cobra.Command {
	cmd := &cobra.Command{Use: "check"}
	cmd.Flags().String(flags.FlagURL, "", "")
	cmd.Flags().String(flags.FlagOrg, "", "")
	cmd.Flags().String(flags.FlagProject, "", "")
	cmd.Flags().String(flags.FlagEnvironment, "", "")
	cmd.Flags().String(flags.FlagRulesFile, "", "")
	cmd.Flags().Int(flags.FlagSampleSize, 50, "")
	cmd.Flags().Int(flags.FlagThreshold, 95, "")
	return cmd
}

func clearCheckEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SENTRY_URL", "SENTRY_ORG", "SENTRY_PROJECT",
		"TAGAUDIT_ENVIRONMENT", "TAGAUDIT_SAMPLE_SIZE", "TAGAUDIT_THRESHOLD", "TAGAUDIT_RULES_FILE",
	} {
		t.Setenv(name, "")
	}
}

func TestApplyEnvDefaults_EnvFillsUnsetFlags(t *testing.T) {
	clearCheckEnv(t)
	t.Setenv("SENTRY_ORG", "env-org")
	t.Setenv("TAGAUDIT_ENVIRONMENT", "staging")
	t.Setenv("TAGAUDIT_SAMPLE_SIZE", "25")

	cfg := config.New()
	cmd := newCheckFlagSet()

	if err := applyEnvDefaults(cmd, cfg); err != nil {
		t.Fatalf("applyEnvDefaults failed: %v", err)
	}

	if cfg.Backend.Org != "env-org" {
		t.Fatalf("expected org from environment; got %q", cfg.Backend.Org)
	}
	if cfg.Sample.Environment != "staging" {
		t.Fatalf("expected environment from environment variable; got %q", cfg.Sample.Environment)
	}
	if cfg.Sample.Size != 25 {
		t.Fatalf("expected sample size from environment; got %d", cfg.Sample.Size)
	}
}

func TestApplyEnvDefaults_ExplicitFlagWins(t *testing.T) {
	clearCheckEnv(t)
	t.Setenv("SENTRY_ORG", "env-org")
	t.Setenv("TAGAUDIT_THRESHOLD", "80")

	cfg := config.New()
	cfg.Backend.Org = "flag-org"
	cfg.Policy.Threshold = 100

	cmd := newCheckFlagSet()
	if err := cmd.Flags().Set(flags.FlagOrg, "flag-org"); err != nil {
		t.Fatalf("failed to set org flag: %v", err)
	}
	if err := cmd.Flags().Set(flags.FlagThreshold, "100"); err != nil {
		t.Fatalf("failed to set threshold flag: %v", err)
	}

	if err := applyEnvDefaults(cmd, cfg); err != nil {
		t.Fatalf("applyEnvDefaults failed: %v", err)
	}

	if cfg.Backend.Org != "flag-org" {
		t.Fatalf("expected explicit --org to win over SENTRY_ORG; got %q", cfg.Backend.Org)
	}
	if cfg.Policy.Threshold != 100 {
		t.Fatalf("expected explicit --threshold to win over TAGAUDIT_THRESHOLD; got %d", cfg.Policy.Threshold)
	}
}

func TestApplyEnvDefaults_UnsetEnvLeavesDefaults(t *testing.T) {
	clearCheckEnv(t)

	cfg := config.New()
	cmd := newCheckFlagSet()

	if err := applyEnvDefaults(cmd, cfg); err != nil {
		t.Fatalf("applyEnvDefaults failed: %v", err)
	}

	if cfg.Sample.Size != 50 {
		t.Fatalf("expected default sample size 50; got %d", cfg.Sample.Size)
	}
	if cfg.Policy.Threshold != 95 {
		t.Fatalf("expected default threshold 95; got %d", cfg.Policy.Threshold)
	}
	if cfg.Backend.URL != "https://sentry.io" {
		t.Fatalf("expected default backend URL; got %q", cfg.Backend.URL)
	}
}

func TestApplyEnvDefaults_BadIntegerSurfacesError(t *testing.T) {
	clearCheckEnv(t)
	t.Setenv("TAGAUDIT_SAMPLE_SIZE", "a-lot")

	cfg := config.New()
	cmd := newCheckFlagSet()

	if err := applyEnvDefaults(cmd, cfg); err == nil {
		t.Fatal("expected an error for a non-numeric TAGAUDIT_SAMPLE_SIZE")
	}
}
