package telegram

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrMalformedIdentity = errors.New("malformed user identity")

// Identity — подтверждённая личность пользователя Telegram.
// Создаётся только из проверенных полей initData, никогда из сырого ввода.
type Identity struct {
	TelegramUserID string
	Username       string
}

// ExtractIdentity извлекает идентификатор пользователя из проверенных полей
// initData. Поле user URL-декодируется и парсится как JSON; id приводится к
// каноничной десятичной строке независимо от того, пришёл он числом или
// строкой.
func ExtractIdentity(fields map[string]string) (Identity, error) {
	raw, ok := fields["user"]
	if !ok || raw == "" {
		return Identity{}, ErrMalformedIdentity
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return Identity{}, ErrMalformedIdentity
	}

	var user struct {
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
	}
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return Identity{}, ErrMalformedIdentity
	}

	idStr := strings.Trim(string(user.ID), `"`)
	if idStr == "" {
		return Identity{}, ErrMalformedIdentity
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Identity{}, ErrMalformedIdentity
	}

	return Identity{
		TelegramUserID: strconv.FormatInt(id, 10),
		Username:       user.Username,
	}, nil
}
