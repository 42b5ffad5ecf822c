package ci

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tagaudit/internal/report"
)

func rejectedReport() report.Report {
	return report.Report{
		Status:     report.StatusRejected,
		Percentage: 80,
		Threshold:  95,
		Compliant:  4,
		Total:      5,
	}
}

// clearCIEnv isolates tests from the CI environment the test run itself may
// be executing in.
func clearCIEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_OUTPUT", "")
	t.Setenv("TF_BUILD", "")
}

func TestWriteScalars_GitHubAppendsToOutputFile(t *testing.T) {
	clearCIEnv(t)
	path := filepath.Join(t.TempDir(), "github_output")
	if err := os.WriteFile(path, []byte("earlier=1\n"), 0o644); err != nil {
		t.Fatalf("seeding output file: %v", err)
	}
	t.Setenv("GITHUB_OUTPUT", path)

	var stdout bytes.Buffer
	if err := writeScalars(ModeGitHub, rejectedReport(), &stdout); err != nil {
		t.Fatalf("writeScalars returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	want := "earlier=1\npercentage=80\nstatus=REJECTED\n"
	if string(raw) != want {
		t.Errorf("GITHUB_OUTPUT = %q, want %q", raw, want)
	}
	if stdout.Len() != 0 {
		t.Errorf("github mode wrote to stdout: %q", stdout.String())
	}
}

func TestWriteScalars_AzureWritesLoggingCommands(t *testing.T) {
	clearCIEnv(t)

	var stdout bytes.Buffer
	if err := writeScalars(ModeAzure, rejectedReport(), &stdout); err != nil {
		t.Fatalf("writeScalars returned error: %v", err)
	}

	want := "##vso[task.setvariable variable=percentage;isoutput=true]80\n" +
		"##vso[task.setvariable variable=status;isoutput=true]REJECTED\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestWriteScalars_AutoDetection(t *testing.T) {
	tests := []struct {
		name       string
		githubPath bool
		tfBuild    string
		wantFile   bool
		wantStdout bool
	}{
		{name: "github actions", githubPath: true, wantFile: true},
		{name: "azure devops", tfBuild: "True", wantStdout: true},
		{name: "both systems", githubPath: true, tfBuild: "True", wantFile: true, wantStdout: true},
		{name: "outside any ci"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCIEnv(t)
			path := filepath.Join(t.TempDir(), "github_output")
			if tt.githubPath {
				t.Setenv("GITHUB_OUTPUT", path)
			}
			t.Setenv("TF_BUILD", tt.tfBuild)

			var stdout bytes.Buffer
			if err := writeScalars(ModeAuto, rejectedReport(), &stdout); err != nil {
				t.Fatalf("writeScalars returned error: %v", err)
			}

			_, statErr := os.Stat(path)
			if gotFile := statErr == nil; gotFile != tt.wantFile {
				t.Errorf("output file written = %v, want %v", gotFile, tt.wantFile)
			}
			if gotStdout := stdout.Len() > 0; gotStdout != tt.wantStdout {
				t.Errorf("stdout written = %v (%q), want %v", gotStdout, stdout.String(), tt.wantStdout)
			}
		})
	}
}

func TestWriteScalars_Off(t *testing.T) {
	clearCIEnv(t)
	path := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("GITHUB_OUTPUT", path)
	t.Setenv("TF_BUILD", "True")

	var stdout bytes.Buffer
	if err := writeScalars(ModeOff, rejectedReport(), &stdout); err != nil {
		t.Fatalf("writeScalars returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("off mode wrote the github output file")
	}
	if stdout.Len() != 0 {
		t.Errorf("off mode wrote to stdout: %q", stdout.String())
	}
}

func TestWriteScalars_GitHubModeRequiresOutputFile(t *testing.T) {
	clearCIEnv(t)

	err := writeScalars(ModeGitHub, rejectedReport(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("writeScalars succeeded without GITHUB_OUTPUT, want error")
	}
	if !strings.Contains(err.Error(), "GITHUB_OUTPUT") {
		t.Errorf("error = %q, want it to mention GITHUB_OUTPUT", err)
	}
}

func TestWriteScalars_UnsupportedMode(t *testing.T) {
	clearCIEnv(t)
	if err := writeScalars("jenkins", rejectedReport(), &bytes.Buffer{}); err == nil {
		t.Error("writeScalars accepted an unsupported mode")
	}
}
