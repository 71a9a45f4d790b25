package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scornlab/scorn/internal/cache"
	"github.com/scornlab/scorn/internal/config"
	"github.com/scornlab/scorn/internal/invoke"
	"github.com/scornlab/scorn/internal/logging"
	"github.com/scornlab/scorn/internal/providers"
	"github.com/scornlab/scorn/internal/scan"
	"github.com/scornlab/scorn/internal/store"
)

// Shared scan flags
var (
	flagProvider    string
	flagModel       string
	flagMinSeverity string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagMaxFindings int
	flagExclude     string
	flagNoRedact    bool
	flagNoLLM       bool
	flagDebug       bool
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "Minimum severity to report (minor, moderate, critical)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, minor, moderate, critical)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoLLM, "no-llm", false, "Skip the model and run deterministic rules only")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagMinSeverity != "" {
		m["minSeverity"] = flagMinSeverity
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = fmt.Sprintf("%d", flagMaxFindings)
	}
	return m
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// pipeline bundles everything a scan-flavored command needs.
type pipeline struct {
	cfg    config.Config
	engine *scan.Engine
	gen    providers.Generator
	inv    *invoke.Invoker
	log    *zap.Logger
}

func policyFromConfig(cfg config.Config) invoke.Policy {
	p := invoke.DefaultPolicy()
	if cfg.MaxRetries > 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.TimeoutSeconds > 0 {
		p.Deadline = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return p
}

// buildPipeline assembles the analysis engine. With --no-llm (or when no
// provider is configured) the generator stays nil and the engine runs
// fallback rules only.
func buildPipeline(cfg config.Config) (*pipeline, error) {
	log, err := logging.New(flagDebug)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	var gen providers.Generator
	if !flagNoLLM && cfg.Provider != "" {
		gen, err = providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			return nil, err
		}
		if cfg.Cache.Enabled {
			c, cacheErr := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
			if cacheErr != nil {
				log.Warn("cache unavailable, continuing without it", zap.Error(cacheErr))
			} else {
				gen = &cachedGenerator{inner: gen, cache: c, provider: cfg.Provider, model: cfg.Model}
			}
		}
	}

	inv := invoke.New(policyFromConfig(cfg), log)

	var opts []scan.Option
	if flagNoRedact || !cfg.Privacy.RedactSecrets {
		opts = append(opts, scan.WithoutRedaction())
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	return &pipeline{
		cfg:    cfg,
		engine: scan.NewEngine(gen, inv, log, opts...),
		gen:    gen,
		inv:    inv,
		log:    log,
	}, nil
}

// cachedGenerator serves model responses from the response cache when
// the same provider, model, and prompt have been seen before.
type cachedGenerator struct {
	inner    providers.Generator
	cache    *cache.Cache
	provider string
	model    string
}

func (g *cachedGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	key := cache.BuildKey(g.provider, g.model, req.System+"\x00"+req.Prompt)
	if text, ok := g.cache.Get(key); ok {
		return providers.GenerateResponse{Text: text}, nil
	}
	resp, err := g.inner.Generate(ctx, req)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	// cache write failures never fail the scan
	_ = g.cache.Put(key, resp.Text)
	return resp, nil
}

func (g *cachedGenerator) Name() string { return g.inner.Name() }

// trimFindings enforces the configured findings cap on a report and
// recomputes the score over what remains.
func trimFindings(rep *scan.Report, max int) {
	if max <= 0 || len(rep.Result.Findings) <= max {
		return
	}
	rep.Result.Findings = rep.Result.Findings[:max]
	rep.Result.OverallScore = scan.CurseScore(rep.Result.Findings)
}

// failOnTriggered reports whether any finding meets the fail-on
// threshold.
func failOnTriggered(rep *scan.Report, failOn string) bool {
	if failOn == "" || failOn == "none" {
		return false
	}
	threshold := scan.ParseSeverity(failOn)
	for _, f := range rep.Result.Findings {
		if scan.MeetsThreshold(f.Severity, threshold) {
			return true
		}
	}
	return false
}

// saveHistory persists a report, best-effort. History failures are
// reported to the log and never change the exit code.
func saveHistory(ctx context.Context, cfg config.Config, log *zap.Logger, rep *scan.Report, source string) {
	if !cfg.History.Enabled {
		return
	}
	path := cfg.History.Path
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			log.Warn("history path unavailable", zap.Error(err))
			return
		}
		path = p
	}
	st, err := store.Open(path)
	if err != nil {
		log.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer st.Close()
	if err := st.SaveScan(ctx, rep, source); err != nil {
		log.Warn("saving scan history failed", zap.Error(err))
	}
}
