package telegram

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"klyroBot/telegram-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Handler struct {
	bot       *tgbotapi.BotAPI
	service   *service.Service
	webAppURL string
}

func NewHandler(botToken string, webAppURL string, svc *service.Service) (*Handler, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Handler{
		bot:       bot,
		service:   svc,
		webAppURL: strings.TrimRight(webAppURL, "/"),
	}, nil
}

// Start запускает обработку сообщений от Telegram
func (h *Handler) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", h.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.sendMessage(message.Chat.ID, "Используйте /start, чтобы открыть Klyro.")
}

// handleCommand обрабатывает команды бота
func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		h.handleStart(ctx, message)
	default:
		h.sendMessage(message.Chat.ID, "Неизвестная команда. Используйте /start для начала.")
	}
}

// handleStart обрабатывает команду /start: выпускает сессию и отправляет
// кнопку для открытия мини-аппы. Каждый /start отзывает прежнюю сессию
// пользователя.
func (h *Handler) handleStart(ctx context.Context, message *tgbotapi.Message) {
	token, err := h.service.IssueSession(ctx, message.From.ID)
	if err != nil {
		log.Printf("Error issuing session for user %d: %v", message.From.ID, err)
		h.sendMessage(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	welcomeText := "Теперь ты можешь открывать Klyro из меню или списка чатов\n\n" +
		"Нажми кнопку ниже, чтобы открыть:"

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ReplyMarkup = webAppKeyboard(h.webAppURL, token)

	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Error sending /start reply to user %d: %v", message.From.ID, err)
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// webAppKeyboard собирает inline-клавиатуру с WebApp-кнопкой. Токен сессии
// передается в URL — WebApp прокидывает его на каждый вызов API.
func webAppKeyboard(webAppURL string, token string) tgbotapi.InlineKeyboardMarkup {
	appURL := webAppURL + "?session_token=" + url.QueryEscape(token)

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:   "🚀 ОТКРЫТЬ KLYRO",
				WebApp: &tgbotapi.WebAppInfo{URL: appURL},
			},
		),
	)
}
