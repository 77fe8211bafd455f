package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/rotation"
	"github.com/example/reflectbot/pkg/models"
)

const historyLimit = 5

var dayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(chatID, 10)
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		b.handleStart(ctx, chatID, userID)
	case strings.HasPrefix(text, "/prompt"):
		b.handlePrompt(ctx, chatID, userID)
	case strings.HasPrefix(text, "/schedule"):
		b.handleSchedule(ctx, chatID, userID, strings.TrimSpace(strings.TrimPrefix(text, "/schedule")))
	case strings.HasPrefix(text, "/pause"):
		b.handleSetEnabled(ctx, chatID, userID, false)
	case strings.HasPrefix(text, "/resume"):
		b.handleSetEnabled(ctx, chatID, userID, true)
	case strings.HasPrefix(text, "/history"):
		b.handleHistory(ctx, chatID, userID)
	case strings.HasPrefix(text, "/help"):
		b.sendText(chatID, helpText)
	case strings.HasPrefix(text, "/"):
		b.sendText(chatID, unknownCommandText)
	default:
		b.handleResponse(ctx, chatID, userID, text)
	}
}

// handleStart registers the user with the default Monday 09:00 schedule.
// An existing schedule is left untouched.
func (b *Bot) handleStart(ctx context.Context, chatID int64, userID string) {
	pref, err := b.schedules.Get(ctx, userID)
	if err != nil {
		b.log.Error("get schedule failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	if pref == nil {
		defaults := models.DefaultSchedule(userID)
		if err := b.schedules.Upsert(ctx, defaults); err != nil {
			b.log.Error("create schedule failed", zap.String("user_id", userID), zap.Error(err))
			b.sendText(chatID, storeErrorText)
			return
		}
	}
	b.sendText(chatID, welcomeText)
}

// handlePrompt is the "give me a prompt now" path. It shares the rotation
// contract with weekly delivery, so an immediate prompt advances the same
// cycle the dispatcher uses.
func (b *Bot) handlePrompt(ctx context.Context, chatID int64, userID string) {
	prompt, err := b.engine.NextPromptFor(ctx, userID, rotation.Alternate)
	if err != nil {
		b.log.Error("next prompt failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	b.sendText(chatID, weeklyPromptText(prompt))
}

// handleSchedule shows the current slot with no arguments, or sets it from
// "<day> <HH:MM>", e.g. "/schedule wed 20:30".
func (b *Bot) handleSchedule(ctx context.Context, chatID int64, userID, args string) {
	pref, err := b.schedules.Get(ctx, userID)
	if err != nil {
		b.log.Error("get schedule failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}

	if args == "" {
		if pref == nil {
			b.sendText(chatID, noScheduleText)
			return
		}
		b.sendText(chatID, scheduleStatusText(*pref))
		return
	}

	day, hour, minute, err := parseScheduleArgs(args)
	if err != nil {
		b.sendText(chatID, scheduleUsageText)
		return
	}

	updated := models.DefaultSchedule(userID)
	if pref != nil {
		updated = *pref
	}
	updated.DayOfWeek = day
	updated.Hour = hour
	updated.Minute = minute
	updated.Enabled = true

	if err := b.schedules.Upsert(ctx, updated); err != nil {
		b.log.Error("upsert schedule failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	b.sendText(chatID, scheduleUpdatedText(updated))
}

func (b *Bot) handleSetEnabled(ctx context.Context, chatID int64, userID string, enabled bool) {
	pref, err := b.schedules.Get(ctx, userID)
	if err != nil {
		b.log.Error("get schedule failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	if pref == nil {
		b.sendText(chatID, noScheduleText)
		return
	}
	if err := b.schedules.SetEnabled(ctx, userID, enabled); err != nil {
		b.log.Error("set enabled failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	if enabled {
		b.sendText(chatID, resumedText)
	} else {
		b.sendText(chatID, pausedText)
	}
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, userID string) {
	entries, err := b.entries.RecentForUser(ctx, userID, historyLimit)
	if err != nil {
		b.log.Error("list entries failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	b.sendText(chatID, historyText(entries))
}

// handleResponse stores free-form text as a journal entry against the
// user's last shown prompt.
func (b *Bot) handleResponse(ctx context.Context, chatID int64, userID, text string) {
	if text == "" {
		return
	}
	progress, err := b.progress.Get(ctx, userID)
	if err != nil {
		b.log.Error("get progress failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	if progress == nil || progress.LastPromptText == "" {
		b.sendText(chatID, noPromptYetText)
		return
	}

	_, err = b.entries.Create(ctx, models.JournalEntry{
		UserID:         userID,
		PromptCategory: progress.LastPromptCategory,
		PromptText:     progress.LastPromptText,
		Response:       text,
	})
	if err != nil {
		b.log.Error("create entry failed", zap.String("user_id", userID), zap.Error(err))
		b.sendText(chatID, storeErrorText)
		return
	}
	b.sendText(chatID, entrySavedText)
}

// parseScheduleArgs parses "<day> <HH:MM>" with an optional minute part.
func parseScheduleArgs(args string) (day, hour, minute int, err error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) != 2 {
		return 0, 0, 0, fmt.Errorf("expected day and time")
	}

	day, ok := dayNames[fields[0][:min(3, len(fields[0]))]]
	if !ok {
		return 0, 0, 0, fmt.Errorf("unknown day %q", fields[0])
	}

	parts := strings.SplitN(fields[1], ":", 2)
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	if len(parts) == 2 {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, 0, fmt.Errorf("invalid minute %q", parts[1])
		}
	}
	return day, hour, minute, nil
}
