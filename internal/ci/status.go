package ci

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"

	"tagaudit/internal/report"
)

// StatusContext names the commit status this tool reports, so repeated runs
// update one status instead of stacking new ones.
const StatusContext = "telemetry/tag-compliance"

const statusRequestTimeout = 15 * time.Second

// PostCommitStatus posts the run outcome as a commit status on the commit
// being built. It needs the standard GitHub Actions environment: GITHUB_TOKEN,
// GITHUB_REPOSITORY (OWNER/REPO), and GITHUB_SHA. GITHUB_API_URL is honored
// for GitHub Enterprise.
func PostCommitStatus(ctx context.Context, r report.Report) error {
	token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	if token == "" {
		return errors.New("GITHUB_TOKEN is required to post a commit status")
	}
	owner, repo, ok := strings.Cut(os.Getenv("GITHUB_REPOSITORY"), "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("GITHUB_REPOSITORY must be OWNER/REPO, got %q", os.Getenv("GITHUB_REPOSITORY"))
	}
	sha := os.Getenv("GITHUB_SHA")
	if sha == "" {
		return errors.New("GITHUB_SHA is required to post a commit status")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: src},
		Timeout:   statusRequestTimeout,
	}
	client, err := newStatusClient(httpClient)
	if err != nil {
		return fmt.Errorf("building github client: %w", err)
	}

	state := "success"
	description := fmt.Sprintf("%d/%d events compliant (%d%%, threshold %d%%)",
		r.Compliant, r.Total, r.Percentage, r.Threshold)
	switch r.Status {
	case report.StatusRejected:
		state = "failure"
	case report.StatusSkipped:
		description = "no events sampled; compliance check skipped"
	}

	status := github.RepoStatus{
		State:       github.Ptr(state),
		Context:     github.Ptr(StatusContext),
		Description: github.Ptr(description),
	}
	if _, _, err := client.Repositories.CreateStatus(ctx, owner, repo, sha, status); err != nil {
		return fmt.Errorf("creating commit status: %w", err)
	}
	return nil
}

func newStatusClient(httpClient *http.Client) (*github.Client, error) {
	client := github.NewClient(httpClient)
	if apiURL := os.Getenv("GITHUB_API_URL"); apiURL != "" && apiURL != "https://api.github.com" {
		return client.WithEnterpriseURLs(apiURL, apiURL)
	}
	return client, nil
}
