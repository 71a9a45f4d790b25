package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scornlab/scorn/internal/config"
	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/diff"
	"github.com/scornlab/scorn/internal/github"
	"github.com/scornlab/scorn/internal/gitctx"
	"github.com/scornlab/scorn/internal/output"
	"github.com/scornlab/scorn/internal/redact"
	"github.com/scornlab/scorn/internal/scan"
)

var (
	flagPROwner       string
	flagPRRepo        string
	flagPRPost        bool
	flagPRConcurrency int
)

var prCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Scan the changed files of a GitHub pull request",
	Long:  "Fetch a pull request diff, scan each changed file's hunks concurrently, and print per-file reports. With --post the combined result is posted back as a PR review.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		p, err := buildPipeline(cfg)
		if err != nil {
			reportError(err)
			return nil
		}
		defer p.log.Sync()

		runPRScan(p, prNumber)
		return nil
	},
}

func runPRScan(p *pipeline, prNumber int) {
	owner, repo := flagPROwner, flagPRRepo
	if owner == "" || repo == "" {
		o, r, err := github.DetectRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (use --owner and --repo)\n", err)
			exitCode = ExitUsageError
			return
		}
		if owner == "" {
			owner = o
		}
		if repo == "" {
			repo = r
		}
	}

	client, err := github.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitAuthError
		return
	}

	ctx := context.Background()
	unified, err := client.PRDiff(ctx, owner, repo, prNumber)
	if err != nil {
		reportError(err)
		return
	}

	files, err := diff.ChangedLines(unified)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing diff: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	exclude := splitComma(flagExclude)
	var scannable []diff.ChangedFile
	for _, f := range files {
		if redact.ShouldRedactPath(f.Path, p.cfg.Privacy.RedactPaths) {
			fmt.Fprintf(os.Stderr, "Skipping %s: path matches privacy policy\n", f.Path)
			continue
		}
		if len(exclude) > 0 && gitctx.MatchesAny(f.Path, exclude) {
			continue
		}
		scannable = append(scannable, f)
	}
	if len(scannable) == 0 {
		fmt.Fprintln(os.Stderr, "No scannable files in PR diff.")
		return
	}

	minSev := scan.ParseSeverity(p.cfg.MinSeverity)
	reports := make([]github.FileReport, len(scannable))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flagPRConcurrency)
	for i, f := range scannable {
		i, f := i, f
		g.Go(func() error {
			snippet := f.Snippet()
			rep, err := p.engine.Analyze(gctx, snippet, detect.Detect(snippet, f.Path), minSev)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			trimFindings(rep, p.cfg.MaxFindings)
			reports[i] = github.FileReport{Path: f.Path, Report: rep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		reportError(err)
		return
	}

	failed := false
	for _, fr := range reports {
		fmt.Fprintf(os.Stdout, "== %s ==\n", fr.Path)
		if err := output.WriteReport(fr.Report, nil, p.cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		saveHistory(ctx, p.cfg, p.log, fr.Report, fmt.Sprintf("pr#%d:%s", prNumber, fr.Path))
		if failOnTriggered(fr.Report, p.cfg.FailOn) {
			failed = true
		}
	}

	if flagPRPost {
		diffFiles := make(map[string]bool, len(scannable))
		for _, f := range scannable {
			diffFiles[f.Path] = true
		}
		review := github.BuildReview(reports, diffFiles)
		if err := client.PostReview(ctx, owner, repo, prNumber, review); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting review: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprintln(os.Stderr, "Review posted.")
	}

	if failed {
		exitCode = ExitFindings
	}
}

func init() {
	addScanFlags(prCmd)
	prCmd.Flags().StringVar(&flagPROwner, "owner", "", "Repository owner (default: detect from origin remote)")
	prCmd.Flags().StringVar(&flagPRRepo, "repo", "", "Repository name (default: detect from origin remote)")
	prCmd.Flags().BoolVar(&flagPRPost, "post", false, "Post results back as a PR review")
	prCmd.Flags().IntVar(&flagPRConcurrency, "concurrency", 4, "Concurrent file scans")
}
