// Package schedule re-runs a job on a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 9 * * 1-5".
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse validates spec.
func Parse(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule '%s': %w", spec, err)
	}
	return sched, nil
}

type Runner struct {
	spec  string
	sched cron.Schedule
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(spec string) (*Runner, error) {
	sched, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	return &Runner{spec: spec, sched: sched, now: time.Now, after: time.After}, nil
}

// Next is the first activation strictly after from.
func (r *Runner) Next(from time.Time) time.Time {
	return r.sched.Next(from)
}

// Run blocks, calling job at every activation, until ctx is done or job
// returns an error. Runs never overlap: the next activation is computed after
// job returns.
func (r *Runner) Run(ctx context.Context, job func(context.Context) error) error {
	log.Info().Str("cron", r.spec).Msg("scheduled runs enabled")
	for ctx.Err() == nil {
		now := r.now()
		next := r.Next(now)
		wait := next.Sub(now)
		log.Info().Time("next_run", next).Dur("in", wait.Round(time.Second)).Msg("waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return nil
		case <-r.after(wait):
		}
		if err := job(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduler stopped by job error")
			return err
		}
	}
	log.Info().Msg("scheduler stopped")
	return nil
}
