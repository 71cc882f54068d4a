package repository

import (
	"context"
	"time"

	"klyroBot/telegram-bot/internal/domain/models"
)

// Repository интерфейс для работы с базой данных
type Repository interface {
	// CreateSession атомарно заводит пользователя (если его нет), удаляет
	// его прежние сессии и вставляет новую с заданным временем жизни.
	CreateSession(ctx context.Context, telegramUserID string, token string, ttl time.Duration) (*models.Session, error)
}
