package tracker

import (
	"context"
	"errors"
	"time"

	"inferno-tracker-bot/model"
	"inferno-tracker-bot/store"

	"go.uber.org/zap"
)

// Store is the member persistence the tracker drives.
type Store interface {
	Ensure(ctx context.Context, userID int64, username string) error
	SetStatus(ctx context.Context, userID int64, status model.Status) error
	AwardCompletion(ctx context.Context, userID int64, today model.Date) (*store.Completion, error)
	ListAll(ctx context.Context) ([]model.Member, error)
	SweepMissed(ctx context.Context, today model.Date) ([]string, int, error)
	ResetAllToPending(ctx context.Context) error
}

// Notifier delivers MarkdownV2 text to a chat, optionally inside a forum thread.
type Notifier interface {
	Send(chatID int64, threadID int, text string) error
}

type Kind int

const (
	KindStart Kind = iota
	KindStatus
	KindDone
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStatus:
		return "status"
	case KindDone:
		return "done"
	case KindPhoto:
		return "photo"
	}
	return "unknown"
}

// Event is one inbound chat message.
type Event struct {
	Kind     Kind
	UserID   int64
	Username string
	ChatID   int64
	Caption  string
	Time     time.Time
}

type Config struct {
	GroupChatID      int64
	ThreadID         int
	Location         *time.Location
	LeaderboardDelay time.Duration
}

type Tracker struct {
	store    Store
	notifier Notifier
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

func New(s Store, n Notifier, cfg Config, log *zap.Logger) *Tracker {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Tracker{
		store:    s,
		notifier: n,
		cfg:      cfg,
		log:      log.Named("tracker"),
		now:      time.Now,
	}
}

// Handle applies ev and returns the text to reply with. An empty reply means the
// event is ignored.
func (t *Tracker) Handle(ctx context.Context, ev Event) string {
	if ev.Time.IsZero() {
		ev.Time = t.now()
	}
	switch ev.Kind {
	case KindStart:
		return t.handleStart(ctx, ev)
	case KindStatus:
		return t.handleStatus(ctx)
	case KindDone:
		return t.handleDone(ctx, ev)
	case KindPhoto:
		return t.handlePhoto(ctx, ev)
	}
	return ""
}

func (t *Tracker) handleStart(ctx context.Context, ev Event) string {
	if err := t.store.Ensure(ctx, ev.UserID, ev.Username); err != nil {
		t.logStoreError("start", ev, err)
		return msgSomethingWrong
	}
	return startMessage(ev.Username)
}

func (t *Tracker) handleStatus(ctx context.Context) string {
	members, err := t.store.ListAll(ctx)
	if err != nil {
		t.log.Error("list members failed", zap.Error(err))
		return msgSomethingWrong
	}
	if len(members) == 0 {
		return msgNoMembers
	}
	return statusMessage(members)
}

// handleDone completes today's target regardless of the time of day.
func (t *Tracker) handleDone(ctx context.Context, ev Event) string {
	if err := t.store.Ensure(ctx, ev.UserID, ev.Username); err != nil {
		t.logStoreError("done", ev, err)
		return msgSomethingWrong
	}
	c, err := t.store.AwardCompletion(ctx, ev.UserID, model.DateIn(ev.Time, t.cfg.Location))
	if err != nil {
		t.logStoreError("done", ev, err)
		return msgSomethingWrong
	}
	return doneMessage(ev.Username, c)
}

func (t *Tracker) handlePhoto(ctx context.Context, ev Event) string {
	if ev.ChatID != t.cfg.GroupChatID {
		return ""
	}

	// Every group photo registers its sender; only an open window changes state.
	inPlan := planWindow.contains(ev.Time, t.cfg.Location)
	inProof := proofWindow.contains(ev.Time, t.cfg.Location)
	if err := t.store.Ensure(ctx, ev.UserID, ev.Username); err != nil {
		t.logStoreError("photo", ev, err)
		if inProof {
			return msgProofFailed
		}
		return msgSomethingWrong
	}

	switch {
	case inPlan:
		if err := t.store.SetStatus(ctx, ev.UserID, model.StatusPlanned); err != nil {
			t.logStoreError("plan", ev, err)
			return msgSomethingWrong
		}
		return msgPlanReceived

	case inProof:
		if !isProofCaption(ev.Caption) {
			return msgAskCaption
		}
		c, err := t.store.AwardCompletion(ctx, ev.UserID, model.DateIn(ev.Time, t.cfg.Location))
		if err != nil {
			t.logStoreError("proof", ev, err)
			return msgProofFailed
		}
		return proofMessage(ev.Username, c.Member)
	}

	return windowClosedMessage(ev.Username)
}

func (t *Tracker) logStoreError(op string, ev Event, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int64("user_id", ev.UserID),
		zap.Int64("chat_id", ev.ChatID),
		zap.Error(err),
	}
	if errors.Is(err, store.ErrUnavailable) {
		t.log.Error("store unavailable, event dropped", fields...)
		return
	}
	t.log.Warn("store operation failed", fields...)
}

func (t *Tracker) today() model.Date {
	return model.DateIn(t.now(), t.cfg.Location)
}
