package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/reflectbot/pkg/models"
)

const (
	welcomeText = "🌟 Welcome! I'll send you a reflection prompt once a week (Mondays at 09:00 by default).\n\n" +
		"• /prompt — get a prompt right now\n" +
		"• /schedule — view or change your weekly slot\n" +
		"• /history — your recent journal entries\n\n" +
		"Reply to any prompt with plain text and I'll save it to your journal."

	helpText = "Commands:\n" +
		"/prompt — get a new reflection prompt\n" +
		"/schedule — show your weekly delivery slot\n" +
		"/schedule <day> <HH:MM> — change it, e.g. /schedule wed 20:30\n" +
		"/pause — stop weekly prompts\n" +
		"/resume — start them again\n" +
		"/history — your last journal entries\n\n" +
		"Any plain message is saved as a journal entry for your last prompt."

	scheduleUsageText  = "Usage: /schedule <day> <HH:MM>, e.g. /schedule mon 09:00"
	noScheduleText     = "You have no schedule yet — send /start first."
	pausedText         = "⏸ Weekly prompts paused. /resume turns them back on."
	resumedText        = "▶️ Weekly prompts resumed."
	entrySavedText     = "📓 Saved to your journal."
	noPromptYetText    = "Get a prompt first with /prompt — then reply to it and I'll save your answer."
	storeErrorText     = "Something went wrong on my side. Please try again in a moment."
	unknownCommandText = "I don't know that command. Try /help."
)

var weekdayLabels = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func categoryLabel(c models.Category) string {
	switch c {
	case models.CategorySelfAwareness:
		return "🧠 Self-Awareness"
	case models.CategoryConnections:
		return "🤝 Connections"
	default:
		return string(c)
	}
}

func weeklyPromptText(p models.Prompt) string {
	return fmt.Sprintf("🌟 Reflection Time! %s\n\n%s\n\nTake a moment to pause and reflect on this question.",
		categoryLabel(p.Category), p.Text)
}

func scheduleStatusText(pref models.SchedulePreference) string {
	state := "enabled"
	if !pref.Enabled {
		state = "paused"
	}
	return fmt.Sprintf("🗓 Your weekly prompt: %s at %02d:%02d (%s)",
		weekdayLabels[pref.DayOfWeek], pref.Hour, pref.Minute, state)
}

func scheduleUpdatedText(pref models.SchedulePreference) string {
	return fmt.Sprintf("✅ Updated! You'll get your prompt on %s at %02d:%02d.",
		weekdayLabels[pref.DayOfWeek], pref.Hour, pref.Minute)
}

func historyText(entries []models.JournalEntry) string {
	if len(entries) == 0 {
		return "📓 Your journal is empty so far. Answer a prompt to start it."
	}
	var sb strings.Builder
	sb.WriteString("📓 Your recent entries:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n• %s — %s\n%s\n",
			e.CreatedAt.Format(time.DateOnly), categoryLabel(e.PromptCategory), snippet(e.Response, 120)))
	}
	return sb.String()
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
