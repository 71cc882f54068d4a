package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"klyroBot/telegram-bot/internal/repository"

	"github.com/google/uuid"
)

type Service struct {
	repo       repository.Repository
	sessionTTL time.Duration
}

func NewService(repo repository.Repository, sessionTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
	}
}

// IssueSession выпускает новую сессию для пользователя Telegram.
// Бот — единственный доверенный источник telegram_user_id: сюда id попадает
// из апдейта Telegram, а не от клиента. Токен — случайный UUID (crypto/rand).
func (s *Service) IssueSession(ctx context.Context, tgUserID int64) (string, error) {
	token := uuid.NewString()
	telegramUserID := strconv.FormatInt(tgUserID, 10)

	session, err := s.repo.CreateSession(ctx, telegramUserID, token, s.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return session.Token, nil
}
