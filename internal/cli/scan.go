package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scornlab/scorn/internal/config"
	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/diff"
	"github.com/scornlab/scorn/internal/gitctx"
	"github.com/scornlab/scorn/internal/output"
	"github.com/scornlab/scorn/internal/providers"
	"github.com/scornlab/scorn/internal/redact"
	"github.com/scornlab/scorn/internal/scan"
)

var (
	flagScanStaged   bool
	flagScanUnstaged bool
	flagScanPath     string
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Analyze code and score how cursed it is",
	Long:  "Analyze a file, stdin, or pending git changes. The model produces findings; when it fails, deterministic rules take over and the report is marked degraded.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		switch {
		case flagScanStaged || flagScanUnstaged:
			runChangeScan(p)
		case len(args) == 1:
			runFileScan(p, args[0])
		default:
			runStdinScan(p)
		}
		return nil
	},
}

func runFileScan(p *pipeline, path string) {
	if redact.ShouldRedactPath(path, p.cfg.Privacy.RedactPaths) {
		fmt.Fprintf(os.Stderr, "Refusing to scan %s: path matches privacy policy\n", path)
		exitCode = ExitUsageError
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		exitCode = ExitRuntimeError
		return
	}
	scanOne(p, string(data), path, path)
}

func runStdinScan(p *pipeline) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	scanOne(p, string(data), flagScanPath, "stdin")
}

// scanOne runs the full pipeline on one piece of code and renders the
// report. filename feeds language detection; source labels the history
// entry.
func scanOne(p *pipeline, code, filename, source string) {
	ctx := context.Background()
	lang := detect.Detect(code, filename)
	minSev := scan.ParseSeverity(p.cfg.MinSeverity)

	rep, err := p.engine.Analyze(ctx, code, lang, minSev)
	if err != nil {
		reportError(err)
		return
	}
	trimFindings(rep, p.cfg.MaxFindings)

	if err := output.WriteReport(rep, nil, p.cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	saveHistory(ctx, p.cfg, p.log, rep, source)

	if failOnTriggered(rep, p.cfg.FailOn) {
		exitCode = ExitFindings
	}
}

// runChangeScan analyzes each file touched by the staged or unstaged
// diff, using only the changed hunks as input.
func runChangeScan(p *pipeline) {
	opts := gitctx.Options{Exclude: splitComma(flagExclude)}

	var (
		d   gitctx.Diff
		err error
	)
	if flagScanStaged {
		d, err = gitctx.Staged(opts)
	} else {
		d, err = gitctx.Unstaged(opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	files, err := diff.ChangedLines(d.Unified)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing diff: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No changes to scan.")
		return
	}

	ctx := context.Background()
	minSev := scan.ParseSeverity(p.cfg.MinSeverity)
	failed := false

	for _, f := range files {
		if redact.ShouldRedactPath(f.Path, p.cfg.Privacy.RedactPaths) {
			fmt.Fprintf(os.Stderr, "Skipping %s: path matches privacy policy\n", f.Path)
			continue
		}
		snippet := f.Snippet()
		lang := detect.Detect(snippet, f.Path)
		rep, err := p.engine.Analyze(ctx, snippet, lang, minSev)
		if err != nil {
			reportError(err)
			return
		}
		trimFindings(rep, p.cfg.MaxFindings)

		fmt.Fprintf(os.Stdout, "== %s ==\n", f.Path)
		if err := output.WriteReport(rep, nil, p.cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		saveHistory(ctx, p.cfg, p.log, rep, d.Mode+":"+f.Path)

		if failOnTriggered(rep, p.cfg.FailOn) {
			failed = true
		}
	}
	if failed {
		exitCode = ExitFindings
	}
}

func reportError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if providers.IsAuthError(err) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

func init() {
	addScanFlags(scanCmd)
	scanCmd.Flags().BoolVar(&flagScanStaged, "staged", false, "Scan staged changes (index vs HEAD)")
	scanCmd.Flags().BoolVar(&flagScanUnstaged, "unstaged", false, "Scan unstaged changes (working tree vs index)")
	scanCmd.Flags().StringVar(&flagScanPath, "path", "", "File path hint for stdin input (language detection)")
}
