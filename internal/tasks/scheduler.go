package tasks

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs the daily generate-then-assign cycle on a cron expression.
type Scheduler struct {
	cron       *cron.Cron
	expr       string
	job        func(context.Context)
	runOnStart bool
	log        *logrus.Logger
}

// SchedulerOpts configures a Scheduler. Expr and Job are required.
type SchedulerOpts struct {
	Expr       string
	RunOnStart bool
	Job        func(context.Context)
	Log        *logrus.Logger
}

// NewScheduler creates a Scheduler for the given cron expression.
func NewScheduler(o SchedulerOpts) (*Scheduler, error) {
	if o.Job == nil {
		return nil, fmt.Errorf("tasks: Job is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if _, err := cronParser.Parse(o.Expr); err != nil {
		return nil, fmt.Errorf("tasks: invalid cron expression %q: %w", o.Expr, err)
	}
	return &Scheduler{
		cron:       cron.New(cron.WithParser(cronParser)),
		expr:       o.Expr,
		job:        o.Job,
		runOnStart: o.RunOnStart,
		log:        o.Log,
	}, nil
}

// Start schedules the job and optionally fires it immediately. The job stops
// being scheduled when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.expr, func() {
		s.log.Info("ciclo diário de manutenção iniciado")
		s.job(ctx)
	})
	if err != nil {
		return fmt.Errorf("tasks: schedule job: %w", err)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()

	if s.runOnStart {
		s.log.Info("execução imediata do ciclo de manutenção")
		s.job(ctx)
	}
	return nil
}
