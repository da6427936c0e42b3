package tracker

import (
	"context"
	"errors"
	"time"

	"inferno-tracker-bot/model"

	"go.uber.org/zap"
)

// EveningReminder names everyone who has not completed today.
func (t *Tracker) EveningReminder(ctx context.Context) error {
	members, err := t.store.ListAll(ctx)
	if err != nil {
		return err
	}

	var pending []string
	for _, m := range members {
		if m.SubmissionStatus != model.StatusCompleted {
			pending = append(pending, m.DisplayName())
		}
	}
	if len(pending) == 0 {
		t.log.Info("evening reminder skipped, everyone completed")
		return nil
	}

	t.notify("evening reminder", reminderMessage(pending))
	return nil
}

// NightlyProcess sweeps members who missed today and then posts the leaderboard,
// so the leaderboard already reflects the penalties. A failed sweep still posts
// the leaderboard; the sweep error is returned afterwards.
func (t *Tracker) NightlyProcess(ctx context.Context) error {
	missed, count, sweepErr := t.store.SweepMissed(ctx, t.today())
	if sweepErr != nil {
		t.log.Error("missed sweep failed, posting leaderboard anyway", zap.Error(sweepErr))
	} else {
		t.log.Info("missed sweep finished", zap.Int("missed", count))
		if count > 0 {
			t.notify("missed notice", missedMessage(missed))
		}
	}

	if err := sleep(ctx, t.cfg.LeaderboardDelay); err != nil {
		return errors.Join(sweepErr, err)
	}
	return errors.Join(sweepErr, t.SendLeaderboard(ctx))
}

func (t *Tracker) SendLeaderboard(ctx context.Context) error {
	members, err := t.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		t.notify("leaderboard", emptyLeaderboardMessage())
		return nil
	}
	t.notify("leaderboard", RenderLeaderboard(members, t.now().In(t.cfg.Location)))
	return nil
}

// DailyReset moves every member back to Pending for the new day.
func (t *Tracker) DailyReset(ctx context.Context) error {
	if err := t.store.ResetAllToPending(ctx); err != nil {
		return err
	}
	t.notify("daily reset", resetMessage())
	return nil
}

// notify sends to the group. Delivery failures are logged only; the store
// mutation that preceded them stands.
func (t *Tracker) notify(what, text string) {
	if err := t.notifier.Send(t.cfg.GroupChatID, t.cfg.ThreadID, text); err != nil {
		t.log.Error("delivery failed",
			zap.String("message", what),
			zap.Int64("chat_id", t.cfg.GroupChatID),
			zap.Int("thread_id", t.cfg.ThreadID),
			zap.Error(err),
		)
		return
	}
	t.log.Info("message sent", zap.String("message", what))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
