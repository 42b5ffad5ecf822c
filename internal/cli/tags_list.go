package cli

import (
	"fmt"
	"io"

	"tagaudit/internal/policy"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tagsListQuiet bool
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Inspect the telemetry tag contract",
	Long: `Inspect the telemetry tag contract.

This command group shows which tags the built-in contract requires and what
each one records. Events are checked against these tags during a run (see
"tagaudit check --help"). Note that --rules-file replaces the contract for a
check; this command always shows the built-in one.

Examples:
  # List all required tags
  tagaudit tags list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List required tags",
	Long: `List all tags the built-in contract requires.

Core tags come first, orchestration tags after.

Examples:
  tagaudit tags list

Output:
  A vertical list of tags:
    ----------------------------------------
    TAG: {NAME}
    ----------------------------------------
    {REQUIREMENT}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ti := range contractTags() {
			if tagsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), ti.name)
			} else {
				printTag(cmd.OutOrStdout(), ti)
			}
		}
		return nil
	},
}

var tagsShowCmd = &cobra.Command{
	Use:   "show [tag-name]",
	Short: "Show details of a specific tag",
	Long: `Show details of a specific tag by its name.

Examples:
  tagaudit tags show trace_id
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ti := range contractTags() {
			if ti.name == args[0] {
				printTag(cmd.OutOrStdout(), ti)
				return nil
			}
		}
		return fmt.Errorf("tag not part of the contract: %s", args[0])
	},
}

type tagInfo struct {
	name        string
	requirement string
	description string
}

var tagDescriptions = map[string]string{
	policy.TagTraceID:      "Identifier of the distributed trace the event belongs to.",
	policy.TagProjectID:    "Identifier of the project that produced the event.",
	policy.TagEnvironment:  "Deployment environment the event was produced in.",
	policy.TagRelease:      "Release version the producing service was running.",
	policy.TagJobID:        "Orchestration job the event was produced under.",
	policy.TagExecutionID:  "Concrete execution of the orchestration job.",
	policy.TagTaskID:       "Task within the execution.",
	policy.TagRepositoryID: "Repository the job was operating on.",
	policy.TagAgentType:    "Kind of agent that ran the task.",
}

func contractTags() []tagInfo {
	rs := policy.Default()
	out := make([]tagInfo, 0, len(rs.Core)+len(rs.Orchestration))
	for _, name := range rs.Core {
		out = append(out, tagInfo{
			name:        name,
			requirement: "Core: required on every event",
			description: tagDescriptions[name],
		})
	}
	for _, name := range rs.Orchestration {
		out = append(out, tagInfo{
			name:        name,
			requirement: "Orchestration: required as a complete set once any one is present",
			description: tagDescriptions[name],
		})
	}
	return out
}

func printTag(w io.Writer, ti tagInfo) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "TAG: %s\n", ti.name)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, ti.requirement)
	fmt.Fprintln(w, ti.description)
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsListCmd)
	tagsListCmd.Flags().BoolVarP(&tagsListQuiet, "quiet", "q", false, "Only print tag names")
	tagsCmd.AddCommand(tagsShowCmd)
}
