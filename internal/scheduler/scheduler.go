package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs tickFn on a cron schedule. Runs never overlap, and the
// context passed to tickFn is cancelled by Stop.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	tickFn   func(context.Context)
	log      logrus.FieldLogger

	running atomic.Bool

	mu      sync.Mutex
	engine  *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc
	inline  sync.WaitGroup
}

func New(spec string, loc *time.Location, tickFn func(context.Context), log logrus.FieldLogger) (*Scheduler, error) {
	if spec == "" {
		return nil, errors.New("cron spec must not be empty")
	}
	if tickFn == nil {
		return nil, errors.New("tickFn must not be nil")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		tickFn:   tickFn,
		log:      log,
	}, nil
}

// Start begins scheduling and triggers one run right away.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	cronLog := cron.PrintfLogger(s.log)
	job := cron.NewChain(cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(func() {
		s.safeTick(ctx)
	}))

	s.engine = cron.New(cron.WithLocation(s.loc), cron.WithLogger(cronLog))
	s.entryID = s.engine.Schedule(s.schedule, job)
	s.engine.Start()
	s.running.Store(true)

	s.inline.Add(1)
	go func() {
		defer s.inline.Done()
		job.Run()
	}()

	s.log.WithFields(logrus.Fields{"spec": s.spec, "location": s.loc.String()}).Info("scheduler started")
	return true
}

func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.engine.Stop().Done()
	s.inline.Wait()
	s.running.Store(false)

	s.log.Info("scheduler stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) Spec() string {
	return s.spec
}

// NextRun reports the next scheduled run, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return time.Time{}
	}
	return s.engine.Entry(s.entryID).Next
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("scheduler tick panic recovered")
		}
	}()

	start := time.Now()
	s.tickFn(ctx)
	s.log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("scheduler tick completed")
}
