package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/weather"
)

// Scheduler periodically prefetches daily weather series for the registered
// fields so planning requests hit warm data in the series store.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	service      *weather.Service
	interval     time.Duration
	lookbackDays int
	forecastDays int
	log          *logrus.Logger
}

// New creates a new Scheduler. Each run fetches [today-lookbackDays,
// today+forecastDays] for every field.
func New(service *weather.Service, interval time.Duration, lookbackDays, forecastDays int, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		service:      service,
		interval:     interval,
		lookbackDays: lookbackDays,
		forecastDays: forecastDays,
		log:          log,
	}
}

// Start schedules the periodic prefetch job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	fields := s.service.Fields()
	if len(fields) == 0 {
		s.log.Info("scheduler: no fields configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.log.Info("scheduler: running weather prefetch job")

		today := agro.Day(time.Now())
		from := today.AddDate(0, 0, -s.lookbackDays)
		to := today.AddDate(0, 0, s.forecastDays)

		var wg sync.WaitGroup
		for _, field := range s.service.Fields() {
			field := field
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := s.service.FetchAndStore(ctx, field, from, to); err != nil {
					s.log.WithField("field", field.FieldID).WithError(err).Warn("scheduler: prefetch failed")
				}
			}()
		}
		wg.Wait()
		s.log.Info("scheduler: completed weather prefetch job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
