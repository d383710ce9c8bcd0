package services

import (
	"context"
	"fmt"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/storage"
)

// RolloverService freezes each user's rules into a snapshot when their month
// changes. Rollover is lazy (checked on every command) with a cron sweep as
// backstop for users who go quiet across a month boundary.
type RolloverService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger

	now func() time.Time
}

func NewRolloverService(st *storage.SQLiteRepository, logger *log.Logger) *RolloverService {
	return &RolloverService{
		storage: st,
		logger:  logger.WithComponent(log.ComponentRollover),
		now:     time.Now,
	}
}

// EnsureMonth records the current month for the user, snapshotting rules for
// the previous month on the first contact after a month boundary.
func (s *RolloverService) EnsureMonth(ctx context.Context, userID int64) error {
	current := core.MonthKey(s.now())

	last, err := s.storage.LastSeenMonth(ctx, userID)
	if err != nil {
		return fmt.Errorf("last seen month: %w", err)
	}
	if last == current {
		return nil
	}

	if last != "" {
		n, err := s.storage.SnapshotRules(ctx, userID, last)
		if err != nil {
			return fmt.Errorf("snapshot rules: %w", err)
		}
		s.logger.InfoContext(ctx, "month rolled over",
			log.FieldUserID, userID,
			"from", last,
			"to", current,
			"snapshotted_rules", n)
	}

	return s.storage.SetLastSeenMonth(ctx, userID, current)
}

// SweepAll runs EnsureMonth for every known user. Wired to the cron schedule
// so snapshots happen even for users who never message after the boundary.
func (s *RolloverService) SweepAll(ctx context.Context) error {
	users, err := s.storage.ListKnownUsers(ctx)
	if err != nil {
		return fmt.Errorf("list known users: %w", err)
	}

	for _, userID := range users {
		if err := s.EnsureMonth(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "rollover sweep failed for user",
				log.FieldUserID, userID, log.FieldError, err)
		}
	}
	return nil
}
