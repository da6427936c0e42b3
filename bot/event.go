package bot

import (
	"inferno-tracker-bot/tracker"

	"gopkg.in/telebot.v3"
)

func eventFromMessage(kind tracker.Kind, m *telebot.Message) (tracker.Event, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return tracker.Event{}, false
	}
	return tracker.Event{
		Kind:     kind,
		UserID:   m.Sender.ID,
		Username: displayName(m.Sender),
		ChatID:   m.Chat.ID,
		Caption:  m.Caption,
		Time:     m.Time(),
	}, true
}

// displayName prefers the @username and falls back to the first name.
func displayName(u *telebot.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
