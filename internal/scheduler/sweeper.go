// Package scheduler runs the background sweep that settles finished mining
// sessions for users who never claim by hand.
package scheduler

import (
	"context"
	"errors"
	"time"

	"mining_rewards/internal/ledger"
	"mining_rewards/internal/metrics"
	"mining_rewards/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sweep outcomes, also used as metric labels
const (
	resultCredited = "credited"
	resultClosed   = "closed"
	resultSkipped  = "skipped"
	resultFailed   = "failed"
	resultDiscard  = "discarded"
)

// SweepResult counts what one sweep did
type SweepResult struct {
	Processed int // Sessions picked up
	Credited  int // Sessions that paid a cycle
	Closed    int // Sessions closed with zero earnings
	Skipped   int // Sessions settled by someone else in the meantime
	Failed    int // Sessions that returned an error
	Discarded int // Failed sessions closed because they can never settle
}

// Sweeper settles due sessions on a fixed interval
type Sweeper struct {
	ledger   *ledger.Service
	rdb      *redis.Client // Optional, admin caches are dropped after credits
	interval time.Duration
	batch    int
}

// NewSweeper builds a sweeper. A non-positive batch means no limit.
func NewSweeper(svc *ledger.Service, rdb *redis.Client, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{ledger: svc, rdb: rdb, interval: interval, batch: batch}
}

// Run sweeps once right away and then on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"interval": s.interval.String(),
		"batch":    s.batch,
	}).Info("Session sweeper started")

	s.Sweep(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Session sweeper stopped")
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep settles one batch of due sessions. A failing session is logged and
// the rest of the batch still runs. Transient failures are retried by the
// next sweep; sessions whose machine or owner is gone are discarded so they
// do not hold the head of every later batch.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	var res SweepResult
	sessions, err := s.ledger.DueSessions(ctx, s.batch)
	if err != nil {
		logrus.WithError(err).Error("Failed to list due sessions")
		return res
	}

	for _, sess := range sessions {
		if ctx.Err() != nil {
			break
		}
		res.Processed++
		settled, err := s.ledger.SettleSession(ctx, sess.ID)
		switch {
		case errors.Is(err, ledger.ErrSessionSettled), errors.Is(err, ledger.ErrSessionNotDue):
			res.Skipped++
			metrics.SweptSessions.WithLabelValues(resultSkipped).Inc()
		case err != nil:
			res.Failed++
			metrics.SweptSessions.WithLabelValues(resultFailed).Inc()
			fields := logrus.Fields{"session_id": sess.ID, "user_id": sess.UserID}
			logrus.WithFields(fields).WithError(err).Error("Failed to settle mining session")
			if ledger.Unsettleable(err) {
				s.discard(ctx, sess.ID, fields, &res)
			}
		case settled.Claim != nil:
			res.Credited++
			metrics.SweptSessions.WithLabelValues(resultCredited).Inc()
		default:
			res.Closed++
			metrics.SweptSessions.WithLabelValues(resultClosed).Inc()
		}
	}

	if res.Credited > 0 {
		_ = utils.DeleteCache(ctx, s.rdb, utils.AdminStatsKey)
		_ = utils.DeleteCachePrefix(ctx, s.rdb, utils.AdminUsersPrefix)
	}
	if res.Processed > 0 {
		logrus.WithFields(logrus.Fields{
			"processed": res.Processed,
			"credited":  res.Credited,
			"closed":    res.Closed,
			"skipped":   res.Skipped,
			"failed":    res.Failed,
			"discarded": res.Discarded,
		}).Info("Session sweep finished")
	}
	return res
}

func (s *Sweeper) discard(ctx context.Context, sessionID string, fields logrus.Fields, res *SweepResult) {
	if err := s.ledger.DiscardSession(ctx, sessionID); err != nil {
		logrus.WithFields(fields).WithError(err).Error("Failed to discard mining session")
		return
	}
	res.Discarded++
	metrics.SweptSessions.WithLabelValues(resultDiscard).Inc()
	logrus.WithFields(fields).Warn("Discarded unsettleable mining session")
}
