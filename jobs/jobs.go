// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"messmate/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 2 * time.Minute

type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func NewScheduler(log *logrus.Logger) *Scheduler {
	adapter := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		log: log,
	}
}

// Add schedules job. Jobs with an empty spec are skipped.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		s.log.WithField("job", job.Name).Info("job disabled")
		return nil
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.runOnce(job, timeout)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	return nil
}

func (s *Scheduler) runOnce(job Job, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	metrics.RecordJobRun(job.Name, err)
	entry := s.log.WithFields(logrus.Fields{"job": job.Name, "took": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.Debug("job finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
