package models

import "time"

// Session — сессия Mini App, выпущенная ботом. Токен непрозрачный,
// telegram_user_id после создания не меняется.
type Session struct {
	Token          string    `db:"session_token"`
	TelegramUserID string    `db:"telegram_user_id"`
	CreatedAt      time.Time `db:"created_at"`
	LastUsedAt     time.Time `db:"last_used_at"`
	ExpiresAt      time.Time `db:"expires_at"`
}
