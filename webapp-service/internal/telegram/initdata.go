package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid init data signature")

// Verify проверяет подпись Telegram initData (HMAC-SHA256, схема WebAppData).
// Возвращает поля initData без пары hash. Значения остаются в исходном виде,
// как пришли в строке запроса — декодирование выполняется только при
// извлечении пользователя (см. ExtractIdentity).
func Verify(initData string, botToken string) (map[string]string, error) {
	if initData == "" || botToken == "" {
		return nil, ErrInvalidSignature
	}

	fields := make(map[string]string)
	claimedHash := ""

	for _, pair := range strings.Split(initData, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if key == "hash" {
			claimedHash = value
			continue
		}
		fields[key] = value
	}

	if claimedHash == "" {
		return nil, ErrInvalidSignature
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	dataCheckString := strings.Join(pairs, "\n")

	// secret_key = HMAC-SHA256(key="WebAppData", msg=bot_token)
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	expected := mac.Sum(nil)

	claimed, err := hex.DecodeString(claimedHash)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	// hmac.Equal — сравнение за константное время
	if !hmac.Equal(expected, claimed) {
		return nil, ErrInvalidSignature
	}

	return fields, nil
}
