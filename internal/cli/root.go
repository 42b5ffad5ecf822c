package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tagaudit",
	Short: "Check telemetry events for the mandated correlation tags",
	Long: `tagaudit samples recent telemetry events from an observability backend and
verifies each one carries the correlation tags the telemetry contract mandates.

tagaudit is check-only: it fetches events, renders a verdict, and exits.
Nothing in the backend is ever modified.

Examples:
	# Show available commands and global flags
	tagaudit --help

	# Check production events of one project
	tagaudit check --org my-org --project my-service --environment production

	# List the tags the built-in contract requires
	tagaudit tags list

	# Print build info
	tagaudit version

Output:
	By default, commands write human-readable output to stdout.
	Some commands support structured output via emitter flags (see each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every backend API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
