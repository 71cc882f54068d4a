package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"klyroBot/webapp-service/internal/pkg/logger/sl"
	repo "klyroBot/webapp-service/internal/repository"
	"klyroBot/webapp-service/internal/telegram"
)

var (
	ErrMissingCredential = errors.New("no credential supplied")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotConfigured     = errors.New("bot token is not configured")
)

// Credentials — учетные данные запроса. Сессионный токен и initData
// взаимоисключающими не являются, но приоритет всегда у токена.
type Credentials struct {
	SessionToken string
	InitData     string
}

// CredentialsFromRequest извлекает учетные данные из запроса.
// Токен сессии приходит в заголовке X-Session-Token или query-параметре
// session_token (WebApp открывается по ссылке с токеном и дальше
// прокидывает его на каждый вызов API). initData — в X-Telegram-Init-Data.
func CredentialsFromRequest(r *http.Request) Credentials {
	token := strings.TrimSpace(r.Header.Get("X-Session-Token"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("session_token"))
	}

	return Credentials{
		SessionToken: token,
		InitData:     r.Header.Get("X-Telegram-Init-Data"),
	}
}

// SessionResolver разрешает токен сессии в telegram_user_id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Resolver — единственное место, где решается, от чьего имени пришел
// запрос. Никакой другой компонент не принимает user id от клиента:
// идентификатор либо прошел проверку подписи, либо найден по сессии.
type Resolver struct {
	log      *slog.Logger
	botToken string
	sessions SessionResolver
}

func New(log *slog.Logger, botToken string, sessions SessionResolver) *Resolver {
	return &Resolver{
		log:      log,
		botToken: botToken,
		sessions: sessions,
	}
}

// Authenticate возвращает проверенную личность пользователя или
// типизированную ошибку. Для сессионного пути username неизвестен и
// остается пустым. Ошибки хранилища не схлопываются в ErrUnauthorized:
// «запрос не аутентифицирован» и «система сломана» — разные исходы.
func (r *Resolver) Authenticate(ctx context.Context, creds Credentials) (telegram.Identity, error) {
	const op = "auth.Authenticate"

	log := r.log.With(slog.String("op", op))

	if creds.SessionToken != "" {
		telegramUserID, err := r.sessions.Resolve(ctx, creds.SessionToken)
		if err != nil {
			if errors.Is(err, repo.ErrSessionNotFound) {
				return telegram.Identity{}, ErrUnauthorized
			}
			return telegram.Identity{}, fmt.Errorf("%s: %w", op, err)
		}
		return telegram.Identity{TelegramUserID: telegramUserID}, nil
	}

	if creds.InitData != "" {
		if r.botToken == "" {
			return telegram.Identity{}, ErrNotConfigured
		}

		fields, err := telegram.Verify(creds.InitData, r.botToken)
		if err != nil {
			log.Warn("init data verification failed, possible forgery attempt", sl.Err(err))
			return telegram.Identity{}, ErrInvalidSignature
		}

		identity, err := telegram.ExtractIdentity(fields)
		if err != nil {
			// Подпись сошлась, но payload нечитаем — для вызывающего
			// это та же невалидная подпись.
			log.Warn("verified payload has no usable identity", sl.Err(err))
			return telegram.Identity{}, ErrInvalidSignature
		}

		return identity, nil
	}

	return telegram.Identity{}, ErrMissingCredential
}
