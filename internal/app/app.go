package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reviewsentiment/internal/analyzer"
	"reviewsentiment/internal/config"
	"reviewsentiment/internal/domain"
	"reviewsentiment/internal/httpx"
	"reviewsentiment/internal/integrations/llm"
	slackbot "reviewsentiment/internal/integrations/slack"
	"reviewsentiment/internal/observability"
	"reviewsentiment/internal/report"
	"reviewsentiment/internal/reviewfile"
	"reviewsentiment/internal/schedule"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130

	notifyTimeout = 30 * time.Second
)

var errInterrupted = errors.New("run interrupted")

func Main() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes one command-line invocation and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	observability.InstallLogger(observability.NewLogger(cfg.LogEnv, stderr))
	appliedHTTPTimeout := httpx.SetTimeout(cfg.ExternalHTTPTimeoutSeconds)
	log.Info().
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.LLMModel).
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputPath).
		Dur("delay", cfg.Delay()).
		Int("max_retries", cfg.LLMMaxRetries).
		Dur("http_timeout", appliedHTTPTimeout).
		Str("schedule", cfg.Schedule).
		Bool("slack", cfg.SlackConfigured()).
		Msg("config loaded")

	completer, err := llm.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pipeline{cfg: cfg, llm: completer, stdout: stdout}
	if cfg.SlackConfigured() {
		p.notifier = slackbot.NewNotifier(cfg.SlackBotToken, cfg.ReportChannelID, "", httpx.ExternalHTTPClient())
	}

	err = serve(ctx, cfg, func(ctx context.Context) error {
		if cfg.Schedule == "" {
			return p.runOnce(ctx)
		}
		return p.runScheduled(ctx)
	})
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInterrupted):
		fmt.Fprintln(stderr, "Interrupted: partial results saved.")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

// serve runs job, with the metrics server beside it when configured. The
// server is stopped once job returns.
func serve(ctx context.Context, cfg config.Config, job func(context.Context) error) error {
	if cfg.MetricsAddr == "" {
		return job(ctx)
	}
	reg := observability.InitRegistry()
	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	g.Go(func() error {
		return observability.Serve(srvCtx, cfg.MetricsAddr, reg)
	})
	g.Go(func() error {
		defer stopServer()
		return job(gctx)
	})
	return g.Wait()
}

type pipeline struct {
	cfg      config.Config
	llm      llm.Completer
	notifier *slackbot.Notifier
	stdout   io.Writer
}

// runOnce loads the input, analyses it and writes the report. Input and
// output failures are returned; an interrupted batch is still saved.
func (p *pipeline) runOnce(ctx context.Context) error {
	reviews, err := reviewfile.Load(p.cfg.InputPath)
	if err != nil {
		return err
	}

	a := analyzer.New(p.llm, analyzer.Options{
		MaxRetries: p.cfg.LLMMaxRetries,
		Delay:      p.cfg.Delay(),
		Provider:   p.cfg.LLMProvider,
		Model:      p.cfg.LLMModel,
	})
	rep := a.RunBatch(ctx, reviews)

	if err := reviewfile.Save(p.cfg.OutputPath, rep); err != nil {
		return err
	}
	fmt.Fprint(p.stdout, report.FormatSummary(rep, p.cfg.OutputPath))
	p.notify(ctx, rep)

	if rep.Metadata.Interrupted {
		return fmt.Errorf("%w after %d of %d reviews", errInterrupted, rep.Metadata.TotalReviews, rep.Metadata.InputReviews)
	}
	return nil
}

// runScheduled runs once immediately, then at every cron activation until ctx
// is done. Any failure of the first run is fatal. Later failed runs are logged
// and the schedule continues; an interrupted run always ends it.
func (p *pipeline) runScheduled(ctx context.Context) error {
	runner, err := schedule.New(p.cfg.Schedule)
	if err != nil {
		return err
	}
	if err := p.runOnce(ctx); err != nil {
		return err
	}
	return runner.Run(ctx, func(ctx context.Context) error {
		err := p.runOnce(ctx)
		if err == nil || errors.Is(err, errInterrupted) {
			return err
		}
		log.Error().Err(err).Msg("scheduled run failed")
		return nil
	})
}

// notify posts the digest when Slack is configured. It still runs after an
// interrupt so the channel hears about partial runs.
func (p *pipeline) notify(ctx context.Context, rep domain.Report) {
	if p.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if _, err := p.notifier.PostSummary(ctx, rep); err != nil {
		log.Error().Err(err).Msg("slack notification failed")
	}
}
