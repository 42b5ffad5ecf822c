// Package ci propagates run results into the surrounding CI system: step
// outputs for GitHub Actions, pipeline variables for Azure DevOps, and an
// optional commit status.
package ci

import (
	"errors"
	"fmt"
	"io"
	"os"

	"tagaudit/internal/report"
)

// Scalar output modes.
const (
	ModeAuto   = "auto"
	ModeGitHub = "github"
	ModeAzure  = "azure"
	ModeOff    = "off"
)

// WriteScalars publishes the two scalar outputs of a run, percentage and
// status, so downstream pipeline steps can branch on them without parsing
// the report document.
//
// GitHub Actions reads step outputs from the file named by GITHUB_OUTPUT;
// Azure DevOps reads task.setvariable logging commands from stdout. In auto
// mode every detected channel is written, and a run outside any known CI is
// a no-op. A write failure is fatal to the run.
func WriteScalars(mode string, r report.Report) error {
	return writeScalars(mode, r, os.Stdout)
}

func writeScalars(mode string, r report.Report, stdout io.Writer) error {
	switch mode {
	case ModeOff:
		return nil
	case ModeAuto, ModeGitHub, ModeAzure:
	default:
		return fmt.Errorf("unsupported ci mode: %s", mode)
	}

	githubPath := os.Getenv("GITHUB_OUTPUT")
	wantGitHub := mode == ModeGitHub || (mode == ModeAuto && githubPath != "")
	wantAzure := mode == ModeAzure || (mode == ModeAuto && os.Getenv("TF_BUILD") != "")

	if wantGitHub {
		if err := appendGitHubOutputs(githubPath, r); err != nil {
			return err
		}
	}
	if wantAzure {
		if _, err := fmt.Fprintf(stdout,
			"##vso[task.setvariable variable=percentage;isoutput=true]%d\n"+
				"##vso[task.setvariable variable=status;isoutput=true]%s\n",
			r.Percentage, r.Status); err != nil {
			return fmt.Errorf("writing azure pipeline variables: %w", err)
		}
	}
	return nil
}

func appendGitHubOutputs(path string, r report.Report) error {
	if path == "" {
		return errors.New("GITHUB_OUTPUT is not set; cannot write github step outputs")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_OUTPUT: %w", err)
	}

	_, writeErr := fmt.Fprintf(f, "percentage=%d\nstatus=%s\n", r.Percentage, r.Status)
	if closeErr := f.Close(); closeErr != nil && writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("writing github step outputs: %w", writeErr)
	}
	return nil
}

// StepSummaryPath returns the GitHub Actions job-summary file, or "" when
// not running under Actions.
func StepSummaryPath() string {
	return os.Getenv("GITHUB_STEP_SUMMARY")
}
