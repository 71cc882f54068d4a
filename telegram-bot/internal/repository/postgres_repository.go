package repository

import (
	"context"
	"fmt"
	"time"

	"klyroBot/telegram-bot/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// CreateSession создает новую сессию пользователя. Политика single-session:
// старые сессии удаляются в той же транзакции, поэтому при гонке двух
// /start выживает ровно одна сессия — последняя закоммиченная.
func (r *PostgresRepository) CreateSession(ctx context.Context, telegramUserID string, token string, ttl time.Duration) (*models.Session, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (telegram_user_id, created_at) VALUES ($1, NOW())
		ON CONFLICT (telegram_user_id) DO NOTHING`,
		telegramUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE telegram_user_id = $1`,
		telegramUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old sessions: %w", err)
	}

	var session models.Session
	err = tx.GetContext(ctx, &session,
		`INSERT INTO sessions (session_token, telegram_user_id, created_at, last_used_at, expires_at)
		VALUES ($1, $2, NOW(), NOW(), $3)
		RETURNING session_token, telegram_user_id, created_at, last_used_at, expires_at`,
		token,
		telegramUserID,
		time.Now().Add(ttl),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &session, nil
}
