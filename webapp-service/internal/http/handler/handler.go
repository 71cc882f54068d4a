package handler

import (
	"context"
	"errors"
	"net/http"

	"klyroBot/webapp-service/internal/auth"
	postgresProfile "klyroBot/webapp-service/internal/repository/postgres/profile"
	"klyroBot/webapp-service/internal/telegram"
)

// Authenticator — единая точка "кто делает запрос" для всех хендлеров.
// GET и POST профиля используют ее одинаково.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (telegram.Identity, error)
}

type ProfileRepository interface {
	Profile(ctx context.Context, telegramUserID string) (*postgresProfile.Profile, error)
	Exists(ctx context.Context, telegramUserID string) (bool, error)
	SaveProfile(ctx context.Context, p *postgresProfile.Profile) error
}

type UserRepository interface {
	SaveUser(ctx context.Context, telegramUserID string, username string) error
	UpdateUsername(ctx context.Context, telegramUserID string, username string) error
}

// authErrorStatus переводит ошибку аутентификации в HTTP-статус.
// Ошибки хранилища — 503, а не 401: клиент должен отличать "не авторизован"
// от "сервис недоступен".
func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, auth.ErrNotConfigured):
		return http.StatusInternalServerError, "Server configuration error"
	default:
		return http.StatusServiceUnavailable, "Service unavailable"
	}
}
