package publish

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botSender is the slice of the bot API we use; mocked in tests.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts the clip to channels. Target ids are either numeric chat
// ids or @channelname handles. Telegram fetches the video itself from the
// public URL.
type Telegram struct {
	bot botSender
}

func NewTelegram(botToken string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Publish(ctx context.Context, targetID string, artifact Artifact, caption string) (*Result, error) {
	video := tgbotapi.NewVideo(0, tgbotapi.FileURL(artifact.PublicURL))
	video.Caption = caption

	if strings.HasPrefix(targetID, "@") {
		video.ChannelUsername = targetID
	} else {
		chatID, err := strconv.ParseInt(targetID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram target id %q: %w", targetID, err)
		}
		video.ChatID = chatID
	}

	msg, err := t.bot.Send(video)
	if err != nil {
		return nil, fmt.Errorf("telegram send failed: %w", err)
	}
	return &Result{PostID: strconv.Itoa(msg.MessageID)}, nil
}

func (t *Telegram) Moderated() bool { return false }
