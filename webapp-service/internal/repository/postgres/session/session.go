package postgresSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	repo "klyroBot/webapp-service/internal/repository"
	"klyroBot/webapp-service/internal/repository/postgres"
)

type Storage struct {
	db postgres.DB
}

func New(db postgres.DB) (*Storage, error) {
	return &Storage{db: db}, nil
}

// Resolve находит telegram_user_id по токену сессии и отмечает факт
// использования. last_used_at обновляется как побочный эффект; expires_at
// не продлевается — TTL фиксированный с момента создания. Просроченный или
// неизвестный токен дает repo.ErrSessionNotFound, даже если строка еще
// не удалена сборщиком.
func (s *Storage) Resolve(ctx context.Context, token string) (string, error) {
	query := `UPDATE sessions
		SET last_used_at = now()
		WHERE session_token = $1 AND expires_at > now()
		RETURNING telegram_user_id`

	var telegramUserID string

	err := s.db.QueryRow(ctx, query, token).Scan(&telegramUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repo.ErrSessionNotFound
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	return telegramUserID, nil
}

// DeleteExpired удаляет просроченные сессии. Вызывается только фоновым
// планировщиком; корректность Resolve от этой очистки не зависит.
func (s *Storage) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}

	return tag.RowsAffected(), nil
}
