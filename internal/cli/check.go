package cli

import (
	"context"
	"fmt"
	"os"

	"tagaudit/internal/config"
	"tagaudit/internal/engine"
	"tagaudit/internal/flags"
	"tagaudit/internal/logging"
	"tagaudit/internal/sentry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg = config.New()

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	tagaudit authenticates to the backend using an auth token.

	Token sources (in order):
	1) SENTRY_AUTH_TOKEN environment variable
	2) SENTRY_TOKEN environment variable (legacy name)

	The token is never accepted as a flag and is never written to logs or
	reports. It needs read access to the project's events (on Sentry, the
	event:read scope).

	Scope and sampling can also be configured through the environment; an
	explicit flag always wins over its variable:
	  SENTRY_URL             backend base URL        (--url)
	  SENTRY_ORG             organization slug       (--org)
	  SENTRY_PROJECT         project slug            (--project)
	  TAGAUDIT_ENVIRONMENT   environment to sample   (--environment)
	  TAGAUDIT_SAMPLE_SIZE   events per run          (--sample-size)
	  TAGAUDIT_THRESHOLD     minimum compliant %     (--threshold)
	  TAGAUDIT_RULES_FILE    tag rule-set override   (--rules-file)

	Variables may also be placed in a .env file in the working directory.

  Examples:
    # macOS/Linux
    export SENTRY_AUTH_TOKEN="<your_token>"
    tagaudit check --org my-org --project my-service --environment production

    # Windows PowerShell
    $env:SENTRY_AUTH_TOKEN = "<your_token>"
    tagaudit check --org my-org --project my-service --environment production

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasHelpSubCommands}}Additional help topics:
{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a project's recent events against the tag contract",
	Long: `Sample recent events from one project environment and verify each carries
the mandated correlation tags.

Every event must carry the core tags (trace_id, project_id, environment,
release). The orchestration tags (job_id, execution_id, task_id,
repository_id, agent_type) are required as a complete set once any one of
them is present on an event. The run is VALIDATED when the compliant
percentage meets --threshold, REJECTED when it falls short, and SKIPPED when
the sample is empty.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write the report document (json) or a record stream (ndjson) to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --no-console: suppress the console sink (use with --emit/--out for machine output)
	- --summary: write a Markdown summary (under GitHub Actions, defaults to the job summary)

	NDJSON mode emits one JSON object per line: an "event.verdict" record per
	sampled event in fetch order, then a single "run.report" record.

CI integration:
	The final percentage and status are published as CI output variables
	(--ci auto|github|azure|off; auto detects GitHub Actions and Azure
	Pipelines). With --commit-status the outcome is also posted as a GitHub
	commit status under the context "telemetry/tag-compliance".

Exit codes:
	0 = VALIDATED (threshold met) or SKIPPED (no events sampled)
	1 = REJECTED, or a fatal error (fetch, config, or output failure)

Examples:
  # Gate a deploy on production tag compliance
  export SENTRY_AUTH_TOKEN="<your_token>"
  tagaudit check --org my-org --project my-service --environment production

  # Stricter gate on a smaller sample
  tagaudit check --org my-org --project my-service --environment staging \
    --sample-size 25 --threshold 100

	# AI Agent: stream machine-readable verdicts to stdout
	tagaudit check --org my-org --project my-service --environment production \
	  --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		// A .env file is a convenience for local runs; a missing one is fine.
		_ = godotenv.Load()

		if len(args) == 0 && cmd.Flags().NFlag() == 0 && !envConfigured() {
			_ = cmd.Help()
			return
		}

		if err := applyEnvDefaults(cmd, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		log := logging.Setup(logging.Config{Verbose: cfg.Runtime.Verbose})

		ctx := context.Background()
		token, source, err := sentry.ResolveAuthToken("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to resolve auth token: %v\n", err)
			os.Exit(1)
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: auth token is required (set SENTRY_AUTH_TOKEN)")
			os.Exit(1)
		}
		log.Debug().Str("source", string(source)).Msg("resolved auth token")

		client, err := sentry.NewClient(ctx, token, cfg.Backend.Org, cfg.Backend.Project,
			sentry.WithBaseURL(cfg.Backend.URL),
			sentry.WithTimeout(cfg.Runtime.Timeout),
			sentry.WithVerbose(cfg.Runtime.Verbose, nil),
			sentry.WithLogger(log),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create backend client: %v\n", err)
			os.Exit(1)
		}
		eng := engine.NewEngine(client, log)
		os.Exit(eng.Run(ctx, cfg))
	},
}

// envConfigured reports whether the check scope is provided through the
// environment. CI invocations commonly carry no flags at all, so a bare
// "tagaudit check" must still run when the variables are set.
func envConfigured() bool {
	for _, name := range []string{"SENTRY_ORG", "SENTRY_PROJECT", "TAGAUDIT_ENVIRONMENT"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// applyEnvDefaults overlays environment variables onto cfg. An explicit flag
// always wins over its variable, so only flags the user did not set are
// touched.
func applyEnvDefaults(cmd *cobra.Command, cfg *config.Config) error {
	overlay, err := config.FromEnv()
	if err != nil {
		return err
	}

	setString := func(flag string, dst *string, val string) {
		if val != "" && !cmd.Flags().Changed(flag) {
			*dst = val
		}
	}
	setString(flags.FlagURL, &cfg.Backend.URL, overlay.URL)
	setString(flags.FlagOrg, &cfg.Backend.Org, overlay.Org)
	setString(flags.FlagProject, &cfg.Backend.Project, overlay.Project)
	setString(flags.FlagEnvironment, &cfg.Sample.Environment, overlay.Environment)
	setString(flags.FlagRulesFile, &cfg.Policy.RulesFile, overlay.RulesFile)

	if overlay.SampleSize != nil && !cmd.Flags().Changed(flags.FlagSampleSize) {
		cfg.Sample.Size = *overlay.SampleSize
	}
	if overlay.Threshold != nil && !cmd.Flags().Changed(flags.FlagThreshold) {
		cfg.Policy.Threshold = *overlay.Threshold
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetHelpTemplate(checkHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any check-affecting flags here,
	// keep the environment overlay in sync:
	// internal/config/env.go and applyEnvDefaults above.
	//
	// The auth token is intentionally not a flag, so it can never end up in
	// shell history or CI logs.

	// Backend
	checkCmd.Flags().StringVar(&cfg.Backend.Org, flags.FlagOrg, "", "Organization slug that owns the project")
	checkCmd.Flags().StringVar(&cfg.Backend.Project, flags.FlagProject, "", "Project slug whose events are sampled")
	checkCmd.Flags().StringVar(&cfg.Backend.URL, flags.FlagURL, cfg.Backend.URL, "Backend base URL (default: https://sentry.io)")

	// Sampling and policy
	checkCmd.Flags().StringVar(&cfg.Sample.Environment, flags.FlagEnvironment, "", "Environment whose events are sampled (e.g. production)")
	checkCmd.Flags().IntVar(&cfg.Sample.Size, flags.FlagSampleSize, cfg.Sample.Size, "Events to sample per run, 1-100 (default: 50)")
	checkCmd.Flags().IntVar(&cfg.Policy.Threshold, flags.FlagThreshold, cfg.Policy.Threshold, "Minimum compliant percentage for VALIDATED, inclusive (default: 95)")
	checkCmd.Flags().StringVar(&cfg.Policy.RulesFile, flags.FlagRulesFile, "", "YAML rule set replacing the built-in tag contract")

	// Output
	checkCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	checkCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	checkCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	checkCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	checkCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
	checkCmd.Flags().StringVar(&cfg.Output.Summary, flags.FlagSummary, "", "Write a Markdown summary to this path (default: $GITHUB_STEP_SUMMARY when set)")
	checkCmd.Flags().StringVar(&cfg.Output.CI, flags.FlagCI, cfg.Output.CI, "Publish percentage/status as CI outputs: auto|github|azure|off (default: auto)")
	checkCmd.Flags().BoolVar(&cfg.Output.CommitStatus, flags.FlagCommitStatus, false, "Post the outcome as a GitHub commit status (needs GITHUB_TOKEN, GITHUB_REPOSITORY, GITHUB_SHA)")

	// Runtime
	checkCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent evaluation workers (default: 4)")
	checkCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Per-request timeout for backend calls (default: 30s)")
}
