// Package bot is the Telegram surface of the journaling companion. It
// exposes the schedule configuration commands, the "prompt now" path, and
// implements the dispatcher's Messenger for weekly delivery.
package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/database"
	"github.com/example/reflectbot/internal/rotation"
	"github.com/example/reflectbot/pkg/models"
)

// Bot wires Telegram updates to the rotation engine and the stores.
type Bot struct {
	api       *tgbotapi.BotAPI
	log       *zap.Logger
	engine    *rotation.Engine
	schedules *database.ScheduleRepository
	progress  *database.UserProgressRepository
	entries   *database.EntryRepository
}

// New creates the bot.
func New(token string, engine *rotation.Engine, schedules *database.ScheduleRepository, progress *database.UserProgressRepository, entries *database.EntryRepository, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = false

	return &Bot{
		api:       api,
		log:       log,
		engine:    engine,
		schedules: schedules,
		progress:  progress,
		entries:   entries,
	}, nil
}

// Start runs the long-polling loop until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("bot started", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return ctx.Err()
		case upd := <-updates:
			b.handleUpdate(ctx, upd)
		}
	}
}

// Send delivers a prompt to a user. This makes Bot satisfy
// dispatcher.Messenger.
func (b *Bot) Send(ctx context.Context, userID string, prompt models.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	msg := tgbotapi.NewMessage(chatID, weeklyPromptText(prompt))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("delivery to %s failed: %w", userID, err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
