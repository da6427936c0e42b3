package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inferno-tracker-bot/config"
	"inferno-tracker-bot/guard"
	"inferno-tracker-bot/model"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobEveningReminder = "evening-reminder"
	JobNightlyProcess  = "nightly-process"
	JobDailyReset      = "daily-reset"
)

// JobNames lists the clock jobs in the order they fire during a day.
var JobNames = []string{JobEveningReminder, JobNightlyProcess, JobDailyReset}

var ErrUnknownJob = errors.New("unknown job")

// Jobs is the set of callbacks the clock drives.
type Jobs interface {
	EveningReminder(ctx context.Context) error
	NightlyProcess(ctx context.Context) error
	DailyReset(ctx context.Context) error
}

// Times holds the HH:MM wall-clock time of each job.
type Times struct {
	Reminder string
	Nightly  string
	Reset    string
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]func(context.Context) error
	entries map[string]cron.EntryID
	guard   guard.Guard
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(jobs Jobs, times Times, loc *time.Location, g guard.Guard, log *zap.Logger) (*Scheduler, error) {
	log = log.Named("scheduler")
	cl := cronLogger{log: log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs: map[string]func(context.Context) error{
			JobEveningReminder: jobs.EveningReminder,
			JobNightlyProcess:  jobs.NightlyProcess,
			JobDailyReset:      jobs.DailyReset,
		},
		entries: make(map[string]cron.EntryID),
		guard:   g,
		loc:     loc,
		log:     log,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}

	at := map[string]string{
		JobEveningReminder: times.Reminder,
		JobNightlyProcess:  times.Nightly,
		JobDailyReset:      times.Reset,
	}
	for _, name := range JobNames {
		spec, err := cronSpec(at[name])
		if err != nil {
			cancel()
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		id, err := s.cron.AddFunc(spec, func() {
			_ = s.run(s.ctx, name, true)
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		s.entries[name] = id
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, name := range JobNames {
		s.log.Info("job scheduled",
			zap.String("job", name),
			zap.Time("next", s.NextAfter(name, s.now())),
		)
	}
}

// Stop halts the clock and waits for running jobs until ctx expires, then
// cancels them.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("jobs still running at shutdown, cancelling")
	}
	s.cancel()
}

// Trigger runs one job immediately, bypassing the once-per-day guard.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	if _, ok := s.jobs[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownJob, name)
	}
	return s.run(ctx, name, false)
}

// NextAfter reports when job name fires next after ref.
func (s *Scheduler) NextAfter(name string, ref time.Time) time.Time {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Schedule.Next(ref)
}

func (s *Scheduler) run(ctx context.Context, name string, guarded bool) error {
	log := s.log.With(zap.String("job", name), zap.String("run_id", uuid.NewString()))

	if guarded {
		day := model.DateIn(s.now(), s.loc)
		ok, err := s.guard.Acquire(ctx, name, day)
		switch {
		case err != nil:
			log.Warn("job guard unavailable, running anyway", zap.Error(err))
		case !ok:
			log.Info("job already ran today, skipping", zap.String("day", day.String()))
			return nil
		}
	}

	start := time.Now()
	log.Info("job started")
	if err := s.jobs[name](ctx); err != nil {
		log.Error("job failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return err
	}
	log.Info("job finished", zap.Duration("took", time.Since(start)))
	return nil
}

func cronSpec(at string) (string, error) {
	hour, minute, err := config.ParseClock(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// cronLogger routes robfig/cron logging to zap. cron reports every wakeup at
// info, which is debug noise here.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
