// Package telegram adapts telebot to the reminder transport capability.
// Send-only: the conversational command surface lives elsewhere.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"finbot/internal/reminder"
)

// Telegram throttles bots around 30 messages/s globally; stay under it.
const (
	sendRatePerSec = 25
	sendBurst      = 5
)

type Adapter struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	log     zerolog.Logger
}

func New(token string, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Adapter{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(sendRatePerSec), sendBurst),
		log:     log,
	}, nil
}

// SendText implements reminder.Transport.
func (a *Adapter) SendText(ctx context.Context, target reminder.DeliveryTarget, text string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := a.bot.Send(tele.ChatID(target.ChatID), text); err != nil {
		return fmt.Errorf("telegram send text to chat %d: %w", target.ChatID, err)
	}
	return nil
}

// SendDocument implements reminder.Transport.
func (a *Adapter) SendDocument(ctx context.Context, target reminder.DeliveryTarget, doc reminder.Document) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	d := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(doc.Bytes)),
		FileName: doc.Filename,
	}
	if _, err := a.bot.Send(tele.ChatID(target.ChatID), d); err != nil {
		return fmt.Errorf("telegram send document to chat %d: %w", target.ChatID, err)
	}
	a.log.Debug().
		Int64("chat_id", target.ChatID).
		Str("filename", doc.Filename).
		Msg("document sent")
	return nil
}
