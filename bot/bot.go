package bot

import (
	"context"
	"time"

	"inferno-tracker-bot/tracker"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

// handlerTimeout bounds the store work done for a single chat message.
const handlerTimeout = 15 * time.Second

type Bot struct {
	B       *telebot.Bot
	tracker *tracker.Tracker
	log     *zap.Logger
}

func NewBot(token string, log *zap.Logger) (*Bot, error) {
	log = log.Named("bot")
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, zap.Int64("user_id", c.Sender().ID))
			}
			log.Error("telegram handler failed", fields...)
		},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}
	return &Bot{B: b, log: log}, nil
}

// Attach routes chat events into t. It must be called before Start.
func (bot *Bot) Attach(t *tracker.Tracker) {
	bot.tracker = t
	bot.B.Use(middleware.Recover(func(err error) {
		bot.log.Error("handler panic recovered", zap.Error(err))
	}))

	bot.B.Handle("/start", bot.handle(tracker.KindStart))
	bot.B.Handle("/status", bot.handle(tracker.KindStatus))
	bot.B.Handle("/done", bot.handle(tracker.KindDone))
	bot.B.Handle(telebot.OnPhoto, bot.handle(tracker.KindPhoto))
}

func (bot *Bot) Start() {
	bot.B.Start()
}

func (bot *Bot) Stop() {
	bot.B.Stop()
}

func (bot *Bot) handle(kind tracker.Kind) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ev, ok := eventFromMessage(kind, c.Message())
		if !ok {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		reply := bot.tracker.Handle(ctx, ev)
		if reply == "" {
			return nil
		}
		return c.Reply(reply)
	}
}

// Send posts MarkdownV2 text to chatID, inside threadID when it is non-zero.
func (bot *Bot) Send(chatID int64, threadID int, text string) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeMarkdownV2,
		ThreadID:  threadID,
	}
	_, err := bot.B.Send(telebot.ChatID(chatID), text, opts)
	return err
}
