package engine

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tagaudit/internal/ci"
	"tagaudit/internal/config"
	"tagaudit/internal/event"
	"tagaudit/internal/output"
	"tagaudit/internal/policy"
	"tagaudit/internal/report"
)

// Exit code contract:
// 0 = VALIDATED or SKIPPED (an empty sample is not a violation)
// 1 = REJECTED, or a fatal error before a decision was reached
const exitFatal = 1

// EventSource lists a bounded sample of recent events for one environment.
// *sentry.Client is the production implementation.
type EventSource interface {
	ListEvents(ctx context.Context, environment string, limit int) ([]event.Event, error)
}

// Engine runs one compliance check end to end: fetch a sample, evaluate it,
// aggregate the verdicts, and publish the outcome.
type Engine struct {
	Source EventSource
	Log    zerolog.Logger

	// writeScalars and postStatus are test seams for the CI integrations.
	writeScalars func(mode string, r report.Report) error
	postStatus   func(ctx context.Context, r report.Report) error
}

func NewEngine(source EventSource, log zerolog.Logger) *Engine {
	return &Engine{
		Source:       source,
		Log:          log,
		writeScalars: ci.WriteScalars,
		postStatus:   ci.PostCommitStatus,
	}
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat)); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional machine-readable streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// Summary Sink. Under GitHub Actions the job summary is written even
	// without an explicit --summary path, unless CI integration is off.
	summaryPath := cfg.Output.Summary
	if summaryPath == "" && (cfg.Output.CI == ci.ModeAuto || cfg.Output.CI == ci.ModeGitHub) {
		summaryPath = ci.StepSummaryPath()
	}
	if summaryPath != "" {
		ss, err := output.NewSummarySink(summaryPath)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ss); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// evaluateSample checks every event against the rule set in parallel. Each
// verdict lands at the index of its event, so output order always matches
// fetch order regardless of scheduling.
func evaluateSample(rs policy.RuleSet, events []event.Event, concurrency int) []policy.Verdict {
	if concurrency < 1 {
		concurrency = 1
	}

	verdicts := make([]policy.Verdict, len(events))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ev := range events {
		g.Go(func() error {
			verdicts[i] = rs.Evaluate(ev.ID, ev.Tags)
			return nil
		})
	}
	// Evaluation is pure; no goroutine returns an error.
	_ = g.Wait()

	return verdicts
}

func (e *Engine) resolveRuleSet(cfg *config.Config) (policy.RuleSet, bool) {
	if cfg.Policy.RulesFile == "" {
		return policy.Default(), true
	}

	rs, err := policy.LoadFile(cfg.Policy.RulesFile)
	if err != nil {
		e.Log.Error().Err(err).Str("path", cfg.Policy.RulesFile).Msg("loading rule set failed")
		return policy.RuleSet{}, false
	}
	e.Log.Debug().
		Str("path", cfg.Policy.RulesFile).
		Int("core", len(rs.Core)).
		Int("orchestration", len(rs.Orchestration)).
		Msg("using rule-set override")
	return rs, true
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	ruleset, ok := e.resolveRuleSet(cfg)
	if !ok {
		return exitFatal
	}

	e.Log.Info().
		Str("project", cfg.Backend.Project).
		Str("environment", cfg.Sample.Environment).
		Int("sample_size", cfg.Sample.Size).
		Msg("fetching events")

	events, err := e.Source.ListEvents(ctx, cfg.Sample.Environment, cfg.Sample.Size)
	if err != nil {
		e.Log.Error().Err(err).Msg("event fetch failed; no report produced")
		return exitFatal
	}
	e.Log.Debug().Int("events", len(events)).Msg("sample fetched")

	verdicts := evaluateSample(ruleset, events, cfg.Runtime.Concurrency)
	rep := report.Build(cfg.Backend.Project, cfg.Sample.Environment, cfg.Policy.Threshold, len(events), verdicts)

	// Sinks are created only after a successful fetch, so a fatal run never
	// leaves a partial report behind.
	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		e.Log.Error().Err(err).Msg("creating output sinks failed")
		return exitFatal
	}

	writeFailed := false
	for _, v := range verdicts {
		if err := outMgr.Write(v); err != nil {
			e.Log.Error().Err(err).Msg("writing verdict failed")
			writeFailed = true
		}
	}
	if err := outMgr.Write(rep); err != nil {
		e.Log.Error().Err(err).Msg("writing report failed")
		writeFailed = true
	}
	if err := outMgr.Close(); err != nil {
		e.Log.Error().Err(err).Msg("closing output sinks failed")
		writeFailed = true
	}
	if writeFailed {
		return exitFatal
	}

	if err := e.writeScalars(cfg.Output.CI, rep); err != nil {
		e.Log.Error().Err(err).Msg("publishing ci outputs failed")
		return exitFatal
	}
	if cfg.Output.CommitStatus {
		if err := e.postStatus(ctx, rep); err != nil {
			e.Log.Error().Err(err).Msg("posting commit status failed")
			return exitFatal
		}
	}

	e.Log.Info().
		Str("status", string(rep.Status)).
		Int("compliant", rep.Compliant).
		Int("total", rep.Total).
		Int("percentage", rep.Percentage).
		Msg("run complete")
	return rep.ExitCode()
}
