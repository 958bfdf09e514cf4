package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService sends plain notifications; a nil service is a no-op.
type TelegramService struct {
	api *tgbotapi.BotAPI
}

func NewTelegramService(token string) (*TelegramService, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("[tg] authorized as @%s", api.Self.UserName)
	return &TelegramService{api: api}, nil
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.api == nil || chatID == 0 {
		log.Printf("[tg][skip] bot disabled or chatID empty (chatID=%d)", chatID)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", chatID, err)
		return fmt.Errorf("telegram send: %w", err)
	}
	log.Printf("[tg][send][ok] chatID=%d", chatID)
	return nil
}
