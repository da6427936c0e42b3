package tracker

import (
	"fmt"
	"strings"
	"time"

	"inferno-tracker-bot/model"
	"inferno-tracker-bot/store"
)

// Replies to chat events are plain text.
const (
	msgSomethingWrong = "Something went wrong. Please try again."
	msgProofFailed    = "Something went wrong while marking completion. Try /done."
	msgNoMembers      = "No members have registered yet."
	msgPlanReceived   = "✅ Target plan received! Status updated to 'Planned'."
	msgAskCaption     = "⚠ For proof, add the caption 'today target completed' (or use /done)."
)

func startMessage(name string) string {
	return fmt.Sprintf("Hello %s!\n\n"+
		"I'm your daily target tracker.\n"+
		"Morning 5-9 AM: send your plan (photo, caption optional).\n"+
		"Night 9-11 PM: send proof with the caption 'today target completed' or use /done.\n"+
		"Use /status to view the leaderboard and /done to mark completion.", name)
}

func windowClosedMessage(username string) string {
	return fmt.Sprintf("@%s, submission window closed. Morning: 5-9 AM, Night: 9-11 PM.", username)
}

func doneMessage(username string, c *store.Completion) string {
	m := c.Member
	if c.Repeat {
		return fmt.Sprintf("✅ @%s, today's target is already recorded.\nTotal: %d pts | 🔥 Streak: %d days",
			username, m.Points, m.Streak)
	}
	bonus := ""
	if c.Awarded > store.CompletionPoints {
		bonus = fmt.Sprintf(" +%d streak bonus", store.StreakBonus)
	}
	return fmt.Sprintf("🔥 Nice! @%s marked as Completed. +%d pts%s\nTotal: %d pts | 🔥 Streak: %d days",
		username, store.CompletionPoints, bonus, m.Points, m.Streak)
}

func proofMessage(username string, m model.Member) string {
	return fmt.Sprintf("🔥 Target proof received, @%s! Status set to Completed. Total: %d pts | 🔥 Streak: %d days",
		username, m.Points, m.Streak)
}

func statusMessage(members []model.Member) string {
	var b strings.Builder
	b.WriteString("🎯 Target Tracking Status (Live) 🎯\n\n")
	for i, m := range members {
		status := m.SubmissionStatus
		if status == "" {
			status = model.StatusPending
		}
		fmt.Fprintf(&b, "%d. @%s · %d pts | 🔥 Streak: %d | %s\n", i+1, m.DisplayName(), m.Points, m.Streak, status)
	}
	return b.String()
}

// Group notifications are MarkdownV2.

func reminderMessage(pending []string) string {
	return "🔔 " + bold("Target Reminder!") + " 🔔\n" +
		escapeMarkdownV2("Don't forget to send tonight's proof!\nPending: "+mentions(pending))
}

func missedMessage(missed []string) string {
	return escapeMarkdownV2(fmt.Sprintf(
		"❌ Missed submissions detected for %d members: -%d pts and streak reset applied.\nMissed: %s",
		len(missed), store.MissPenalty, mentions(missed)))
}

func resetMessage() string {
	return "⏰ " + bold("Daily Reset!") + " " +
		escapeMarkdownV2("Everyone is back to 'Pending'. Start sending today's targets! 🎯")
}

func emptyLeaderboardMessage() string {
	return escapeMarkdownV2("Leaderboard: no members found.")
}

// RenderLeaderboard formats the nightly leaderboard as MarkdownV2. members must
// already be in leaderboard order.
func RenderLeaderboard(members []model.Member, day time.Time) string {
	var b strings.Builder
	b.WriteString("🔥 " + bold(fmt.Sprintf("Inferno Tracker Leaderboard (%s)", day.Format("2 Jan 2006"))) + " 🔥\n\n")
	for i, m := range members {
		b.WriteString(escapeMarkdownV2(leaderboardLine(i+1, m)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(escapeMarkdownV2("🏁 Keep pushing, full energy again tomorrow! 💪\n(Leaderboard updates every night after the sweep)"))
	return b.String()
}

func leaderboardLine(rank int, m model.Member) string {
	name := m.DisplayName()
	switch m.SubmissionStatus {
	case model.StatusCompleted:
		return fmt.Sprintf("#%d 🏆 @%s · %d pts | 🔥 Streak: %d days · Target done today ✅", rank, name, m.Points, m.Streak)
	case model.StatusMissed:
		return fmt.Sprintf("#%d ❌ @%s · %d pts | 🔻 Streak reset · Missed today. Back at it tomorrow!", rank, name, m.Points)
	case model.StatusPlanned:
		return fmt.Sprintf("#%d 🔜 @%s · %d pts | 🔁 Planned · Send your proof soon!", rank, name, m.Points)
	default:
		return fmt.Sprintf("#%d ⏳ @%s · %d pts | Streak: %d · Still pending.", rank, name, m.Points, m.Streak)
	}
}

func mentions(names []string) string {
	tagged := make([]string, len(names))
	for i, n := range names {
		tagged[i] = "@" + n
	}
	return strings.Join(tagged, ", ")
}
