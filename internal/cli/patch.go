package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scornlab/scorn/internal/config"
	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/output"
	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/redact"
	"github.com/scornlab/scorn/internal/scan"
	"github.com/scornlab/scorn/internal/store"
)

var flagMaxPatches int

var patchCmd = &cobra.Command{
	Use:   "patch [file]",
	Short: "Analyze code and synthesize validated fixes",
	Long:  "Run a scan, then ask the model to propose a fix for each finding. Fixes that fail validation are dropped rather than emitted broken.",
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

		var (
			code   string
			source string
		)
		if len(args) == 1 {
			if redact.ShouldRedactPath(args[0], cfg.Privacy.RedactPaths) {
				fmt.Fprintf(os.Stderr, "Refusing to scan %s: path matches privacy policy\n", args[0])
				exitCode = ExitUsageError
				return nil
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
				exitCode = ExitRuntimeError
				return nil
			}
			code, source = string(data), args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			code, source = string(data), "stdin"
		}

		runPatch(p, code, source)
		return nil
	},
}

func runPatch(p *pipeline, code, source string) {
	if p.gen == nil {
		fmt.Fprintln(os.Stderr, "Error: patch synthesis needs a model; configure a provider or drop --no-llm")
		exitCode = ExitUsageError
		return
	}

	ctx := context.Background()
	lang := detect.Detect(code, source)
	minSev := scan.ParseSeverity(p.cfg.MinSeverity)

	rep, err := p.engine.Analyze(ctx, code, lang, minSev)
	if err != nil {
		reportError(err)
		return
	}
	trimFindings(rep, p.cfg.MaxFindings)

	synth := patch.NewSynthesizer(p.gen, p.inv, p.log)
	var patches []patch.Patch
	for _, f := range rep.Result.Findings {
		if flagMaxPatches > 0 && len(patches) >= flagMaxPatches {
			break
		}
		pt, err := synth.Synthesize(ctx, f, code)
		if err != nil {
			reportError(err)
			return
		}
		if pt != nil {
			patches = append(patches, *pt)
		}
	}

	if err := output.WriteReport(rep, patches, p.cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	savePatchHistory(ctx, p, rep, patches, source)

	if failOnTriggered(rep, p.cfg.FailOn) {
		exitCode = ExitFindings
	}
}

func savePatchHistory(ctx context.Context, p *pipeline, rep *scan.Report, patches []patch.Patch, source string) {
	if !p.cfg.History.Enabled {
		return
	}
	path := p.cfg.History.Path
	if path == "" {
		dp, err := store.DefaultPath()
		if err != nil {
			p.log.Warn("history path unavailable", zap.Error(err))
			return
		}
		path = dp
	}
	st, err := store.Open(path)
	if err != nil {
		p.log.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer st.Close()
	if err := st.SaveScan(ctx, rep, source); err != nil {
		p.log.Warn("saving scan history failed", zap.Error(err))
		return
	}
	for i := range patches {
		if err := st.SavePatch(ctx, rep.ScanID, &patches[i]); err != nil {
			p.log.Warn("saving patch history failed", zap.Error(err))
		}
	}
}

func init() {
	addScanFlags(patchCmd)
	patchCmd.Flags().IntVar(&flagMaxPatches, "max-patches", 5, "Maximum number of patches to synthesize")
}
