package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implements Adapter over the Telegram Bot API. The Bot API client
// is synchronous, so the context is honored only between calls.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram creates a Telegram adapter authenticated with the given bot
// token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate bot: %w", err)
	}
	return &Telegram{api: api}, nil
}

// SetWebhook registers the public URL Telegram should deliver updates to.
func (t *Telegram) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram: build webhook config: %w", err)
	}
	if _, err := t.api.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	return nil
}

// SendText delivers a plain text message.
func (t *Telegram) SendText(ctx context.Context, chatID, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// SendContactRequest delivers a message with a one-time keyboard carrying a
// share-contact button.
func (t *Telegram) SendContactRequest(ctx context.Context, chatID, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("Compartilhar contato"),
		),
	)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send contact request: %w", err)
	}
	return nil
}

// SendDocument delivers a file attachment.
func (t *Telegram) SendDocument(ctx context.Context, chatID, name string, data []byte) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(id, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := t.api.Send(doc); err != nil {
		return fmt.Errorf("telegram: send document: %w", err)
	}
	return nil
}

// SendVoice delivers an audio clip.
func (t *Telegram) SendVoice(ctx context.Context, chatID string, data []byte) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	voice := tgbotapi.NewVoice(id, tgbotapi.FileBytes{Name: "checklist.mp3", Bytes: data})
	if _, err := t.api.Send(voice); err != nil {
		return fmt.Errorf("telegram: send voice: %w", err)
	}
	return nil
}

// FromUpdate converts a Telegram update into the platform-neutral Inbound
// form. Updates without a message payload return ok=false.
func FromUpdate(u tgbotapi.Update) (Inbound, bool) {
	if u.Message == nil {
		return Inbound{}, false
	}
	in := Inbound{
		ChatID: strconv.FormatInt(u.Message.Chat.ID, 10),
		Text:   u.Message.Text,
	}
	if u.Message.Contact != nil {
		in.Contact = &Contact{
			PhoneNumber: u.Message.Contact.PhoneNumber,
			FirstName:   u.Message.Contact.FirstName,
		}
	}
	return in, true
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}
