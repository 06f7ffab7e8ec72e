// Package rollover schedules the daily job that moves unfinished tasks
// from today to tomorrow, for all users at once.
package rollover

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// lockTTL keeps the per-day lock alive long enough that a second instance
// firing at the same wall-clock minute skips the run.
const lockTTL = 23 * time.Hour

// Roller is the one operation the job needs from the task service.
type Roller interface {
	RolloverAll(ctx context.Context) (int64, error)
}

// Service fires the rollover once per day at a fixed UTC time. The job is
// best-effort: failures are logged and the run ends, with no retry and no
// partial-completion bookkeeping. Store-level bulk atomicity is all the
// consistency it gets.
type Service struct {
	roller Roller
	rdb    *redis.Client
	cron   *cron.Cron
	logger *zap.Logger

	now func() time.Time
}

func NewService(roller Roller, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		roller: roller,
		rdb:    rdb,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the daily trigger at the given UTC "HH:MM" and starts
// the scheduler.
func (s *Service) Start(at string) error {
	spec, err := dailySpec(at)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Rollover job scheduled", zap.String("at_utc", at))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	day := s.now().UTC().Format("2006-01-02")
	if !s.acquireDayLock(ctx, day) {
		s.logger.Info("Rollover already ran today, skipping", zap.String("day", day))
		return
	}

	moved, err := s.roller.RolloverAll(ctx)
	if err != nil {
		// Best-effort: log and end. Whatever the bulk update committed
		// stands; a later manual run picks up the rest.
		s.logger.Error("Rollover run failed", zap.String("day", day), zap.Error(err))
		return
	}
	s.logger.Info("Rollover run finished",
		zap.String("day", day),
		zap.Int64("tasks_moved", moved),
	)
}

// acquireDayLock takes a redis SETNX lock keyed by calendar day so that
// multiple API instances run the job once between them. When redis is
// down the run proceeds anyway: a duplicate run finds zero matches, losing
// the lock entirely would silently skip the day.
func (s *Service) acquireDayLock(ctx context.Context, day string) bool {
	key := fmt.Sprintf("rollover:%s", day)
	ok, err := s.rdb.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		s.logger.Warn("Redis rollover lock unavailable, running anyway",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// dailySpec builds a cron spec from an "HH:MM" wall-clock time.
func dailySpec(at string) (string, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
