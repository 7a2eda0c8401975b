// Package schedule triggers jobs on a cron expression or on file changes.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one scheduled unit of work. Errors are logged; they do not stop the
// schedule.
type Job func(ctx context.Context) error

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSpec parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 7 * * 1-5".
func ParseSpec(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty cron schedule")
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", spec, err)
	}
	return sched, nil
}

var timeAfter = time.After

// RunCron calls job at every activation of spec, evaluated in loc, until ctx
// is cancelled.
func RunCron(ctx context.Context, spec string, loc *time.Location, job Job) error {
	sched, err := ParseSpec(spec)
	if err != nil {
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	log.Info().Str("cron", spec).Msg("scheduled run enabled")

	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Info().Str("next", next.Format("Mon Jan 2 15:04")).Dur("in", wait.Round(time.Second)).Msg("next scheduled run")

		select {
		case <-ctx.Done():
			return nil
		case <-timeAfter(wait):
		}

		if err := job(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	}
}

// Serialize returns a Job that never runs job concurrently with itself.
// Callers arriving while a run is in flight wait for it, or give up with
// ctx.Err() when ctx ends first.
func Serialize(job Job) Job {
	sem := make(chan struct{}, 1)
	return func(ctx context.Context) error {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer func() { <-sem }()
		return job(ctx)
	}
}
