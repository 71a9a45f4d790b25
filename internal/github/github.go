package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/scornlab/scorn/internal/scan"
)

const defaultAPIURL = "https://api.github.com"

// Client talks to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a GitHub client. Requires GITHUB_TOKEN.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// PRDiff fetches the unified diff for a pull request.
func (c *Client) PRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, prNumber)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3.diff")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching PR diff: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == 404:
		return "", fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return "", fmt.Errorf("authentication failed: %s", string(body))
	case resp.StatusCode != 200:
		return "", fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

type prFile struct {
	Filename string `json:"filename"`
}

// PRFiles fetches the list of files changed in a pull request.
func (c *Client) PRFiles(ctx context.Context, owner, repo string, prNumber int) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files", c.apiURL, owner, repo, prNumber)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching PR files: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}

	var files []prFile
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return names, nil
}

// ReviewComment is an inline comment on a PR review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// ReviewRequest is a PR review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, review ReviewRequest) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.apiURL, owner, repo, prNumber)

	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == 422 {
		return fmt.Errorf("GitHub rejected review (422): %s", string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// FileReport pairs one changed file with its scan report.
type FileReport struct {
	Path   string
	Report *scan.Report
}

// BuildReview converts per-file scan reports into a GitHub PR review.
// Findings in files that are part of the diff become inline comments at
// the finding's line; everything else lands in the summary body.
func BuildReview(reports []FileReport, diffFiles map[string]bool) ReviewRequest {
	var minor, moderate, critical int
	var bodyNotes []string
	var comments []ReviewComment

	worst := 0
	for _, fr := range reports {
		if fr.Report == nil {
			continue
		}
		if fr.Report.Result.OverallScore > worst {
			worst = fr.Report.Result.OverallScore
		}
		for _, f := range fr.Report.Result.Findings {
			switch f.Severity {
			case scan.SeverityCritical:
				critical++
			case scan.SeverityModerate:
				moderate++
			case scan.SeverityMinor:
				minor++
			}
			if diffFiles[fr.Path] && f.Line > 0 {
				comments = append(comments, ReviewComment{
					Path: fr.Path,
					Line: f.Line,
					Body: formatInline(f),
				})
			} else {
				bodyNotes = append(bodyNotes, formatNote(fr.Path, f))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("## Scorn Review\n\n")
	fmt.Fprintf(&sb, "Worst curse score: **%d/100**\n\n", worst)
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Critical | %d |\n", critical)
	fmt.Fprintf(&sb, "| Moderate | %d |\n", moderate)
	fmt.Fprintf(&sb, "| Minor | %d |\n\n", minor)

	if len(bodyNotes) > 0 {
		sb.WriteString("### Findings outside the diff\n\n")
		for _, n := range bodyNotes {
			sb.WriteString(n)
			sb.WriteString("\n")
		}
	}

	return ReviewRequest{
		Body:     sb.String(),
		Event:    "COMMENT",
		Comments: comments,
	}
}

func formatInline(f scan.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s)\n\n%s", f.RuleID, f.Severity, f.Message)
	if f.Context != "" {
		fmt.Fprintf(&sb, "\n\n```\n%s\n```", f.Context)
	}
	return sb.String()
}

func formatNote(path string, f scan.Finding) string {
	return fmt.Sprintf("- `%s:%d` **%s** (%s): %s", path, f.Line, f.RuleID, f.Severity, f.Message)
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")
	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
