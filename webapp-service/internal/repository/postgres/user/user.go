package postgresUser

import (
	"context"
	"fmt"

	"klyroBot/webapp-service/internal/repository/postgres"
)

type Storage struct {
	db postgres.DB
}

func New(db postgres.DB) (*Storage, error) {
	return &Storage{db: db}, nil
}

// SaveUser создает пользователя при первом появлении его telegram_user_id.
// Повторные вызовы ничего не меняют: строка users append-only.
func (s *Storage) SaveUser(ctx context.Context, telegramUserID string, username string) error {
	query := `INSERT INTO users(telegram_user_id, username, created_at)
		VALUES($1, NULLIF($2, ''), now())
		ON CONFLICT (telegram_user_id) DO NOTHING`

	_, err := s.db.Exec(ctx, query, telegramUserID, username)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}

// UpdateUsername обновляет username, если он изменился. Единственное
// разрешенное изменение строки users.
func (s *Storage) UpdateUsername(ctx context.Context, telegramUserID string, username string) error {
	if username == "" {
		return nil
	}

	query := `UPDATE users SET username = $2
		WHERE telegram_user_id::text = $1 AND username IS DISTINCT FROM $2`

	_, err := s.db.Exec(ctx, query, telegramUserID, username)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}
