package store

import (
	"context"
	"errors"
	"time"

	"inferno-tracker-bot/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scoring rules
const (
	CompletionPoints = 10
	StreakBonus      = 5
	MissPenalty      = 5
)

// unknownUsername is stored when a completion arrives before the member was ever seen.
const unknownUsername = "Unknown"

// Completion describes the outcome of AwardCompletion.
type Completion struct {
	Member  model.Member
	Awarded int  // points added by this call
	Repeat  bool // the member had already completed today
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:  db,
		log: log.Named("store"),
		now: time.Now,
	}
}

// Ensure inserts a Pending member or refreshes the username of an existing one.
func (s *Store) Ensure(ctx context.Context, userID int64, username string) error {
	m := model.Member{
		UserID:           userID,
		Username:         username,
		SubmissionStatus: model.StatusPending,
		LastUpdated:      s.now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "last_updated"}),
	}).Create(&m).Error
	if err != nil {
		return unavailable("ensure", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID int64) (*model.Member, error) {
	var m model.Member
	err := s.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return &m, nil
}

// SetStatus overwrites the status without touching points or streak.
func (s *Store) SetStatus(ctx context.Context, userID int64, status model.Status) error {
	res := s.db.WithContext(ctx).Model(&model.Member{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"submission_status": status,
			"last_updated":      s.now(),
		})
	if res.Error != nil {
		return unavailable("set status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AwardCompletion records today's completion for userID. The read and the write of
// the member row happen inside one transaction holding the row lock.
func (s *Store) AwardCompletion(ctx context.Context, userID int64, today model.Date) (*Completion, error) {
	var out Completion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		// An absent member starts from a blank row, which the rules below turn
		// into target_count=1, points=10, streak=1.
		blank := model.Member{
			UserID:           userID,
			Username:         unknownUsername,
			SubmissionStatus: model.StatusPending,
			LastUpdated:      now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&blank).Error; err != nil {
			return err
		}

		var m model.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "user_id = ?", userID).Error; err != nil {
			return err
		}

		out.Awarded, out.Repeat = applyCompletion(&m, today)
		m.LastUpdated = now
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		out.Member = m
		return nil
	})
	if err != nil {
		return nil, unavailable("award completion", err)
	}

	s.log.Debug("completion recorded",
		zap.Int64("user_id", userID),
		zap.String("day", today.String()),
		zap.Int("awarded", out.Awarded),
		zap.Bool("repeat", out.Repeat),
		zap.Int("points", out.Member.Points),
		zap.Int("streak", out.Member.Streak),
	)
	return &out, nil
}

func applyCompletion(m *model.Member, today model.Date) (awarded int, repeat bool) {
	m.SubmissionStatus = model.StatusCompleted
	if m.LastCompletedDate == today {
		return 0, true
	}

	awarded = CompletionPoints
	if !m.LastCompletedDate.IsZero() && m.LastCompletedDate == today.AddDays(-1) {
		m.Streak++
		awarded += StreakBonus
	} else {
		m.Streak = 1
	}
	m.Points += awarded
	m.TargetCount++
	m.LastCompletedDate = today
	return awarded, false
}

// ListAll returns every member ordered by points, then streak, both descending.
// Ties fall back to username and then user id so the order is stable.
func (s *Store) ListAll(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := s.db.WithContext(ctx).
		Order("points DESC").
		Order("streak DESC").
		Order("username ASC").
		Order("user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, unavailable("list members", err)
	}
	return members, nil
}

// SweepMissed penalizes every member who has not completed today. Rows are swept one
// transaction at a time; a failing row is logged and skipped.
func (s *Store) SweepMissed(ctx context.Context, today model.Date) ([]string, int, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Member{}).Order("user_id").Pluck("user_id", &ids).Error; err != nil {
		return nil, 0, unavailable("sweep missed", err)
	}

	var missed []string
	for _, id := range ids {
		name, swept, err := s.sweepOne(ctx, id, today)
		if err != nil {
			s.log.Warn("sweep failed for member", zap.Int64("user_id", id), zap.Error(err))
			continue
		}
		if swept {
			missed = append(missed, name)
		}
	}
	return missed, len(missed), nil
}

func (s *Store) sweepOne(ctx context.Context, userID int64, today model.Date) (name string, swept bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "user_id = ?", userID).Error; err != nil {
			return err
		}
		if m.LastCompletedDate == today {
			return nil
		}

		applyMiss(&m)
		m.LastUpdated = s.now()
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		name, swept = m.DisplayName(), true
		return nil
	})
	return name, swept, err
}

func applyMiss(m *model.Member) {
	m.Points = max(0, m.Points-MissPenalty)
	m.Streak = 0
	m.SubmissionStatus = model.StatusMissed
}

// ResetAllToPending starts a new day for every member.
func (s *Store) ResetAllToPending(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&model.Member{}).
		Updates(map[string]any{
			"submission_status": model.StatusPending,
			"last_updated":      s.now(),
		}).Error
	if err != nil {
		return unavailable("reset statuses", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
