package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"klyroBot/webapp-service/internal/auth"
	repo "klyroBot/webapp-service/internal/repository"
	postgresProfile "klyroBot/webapp-service/internal/repository/postgres/profile"
	"klyroBot/webapp-service/internal/telegram"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuth struct {
	identity telegram.Identity
	err      error
}

func (f *fakeAuth) Authenticate(ctx context.Context, creds auth.Credentials) (telegram.Identity, error) {
	if f.err != nil {
		return telegram.Identity{}, f.err
	}
	return f.identity, nil
}

type fakeProfileRepo struct {
	profiles map[string]*postgresProfile.Profile
	err      error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*postgresProfile.Profile)}
}

func (f *fakeProfileRepo) Profile(ctx context.Context, telegramUserID string) (*postgresProfile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[telegramUserID]
	if !ok {
		return nil, repo.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) Exists(ctx context.Context, telegramUserID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.profiles[telegramUserID]
	return ok, nil
}

func (f *fakeProfileRepo) SaveProfile(ctx context.Context, p *postgresProfile.Profile) error {
	if f.err != nil {
		return f.err
	}
	f.profiles[p.TelegramUserID] = p
	return nil
}

type fakeUserRepo struct {
	saved     []string
	usernames map[string]string
	err       error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{usernames: make(map[string]string)}
}

func (f *fakeUserRepo) SaveUser(ctx context.Context, telegramUserID string, username string) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, telegramUserID)
	return nil
}

func (f *fakeUserRepo) UpdateUsername(ctx context.Context, telegramUserID string, username string) error {
	if f.err != nil {
		return f.err
	}
	f.usernames[telegramUserID] = username
	return nil
}

type sessionResolverFunc func(ctx context.Context, token string) (string, error)

func (f sessionResolverFunc) Resolve(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// signInitData собирает initData с корректной подписью для botToken.
func signInitData(botToken string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	checkString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(checkString))

	return strings.Join(pairs, "&") + "&hash=" + hex.EncodeToString(mac.Sum(nil))
}

func testProfile(userID string) *postgresProfile.Profile {
	return &postgresProfile.Profile{
		TelegramUserID: userID,
		BirthDate:      time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Gender:         "male",
		HeightCm:       180,
		WeightKg:       75,
	}
}

func TestGetProfile_WithSessionToken(t *testing.T) {
	resolver := auth.New(discardLogger(), "12345:token", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			if token == "tok-abc" {
				return "42", nil
			}
			return "", repo.ErrSessionNotFound
		},
	))

	profiles := newFakeProfileRepo()
	profiles.profiles["42"] = testProfile("42")

	handler := GetProfileHandler(discardLogger(), resolver, profiles)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Session-Token", "tok-abc")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TelegramUserID != "42" {
		t.Errorf("want telegram_user_id %q, got %q", "42", resp.TelegramUserID)
	}
	if resp.BirthDate != "1990-05-17" {
		t.Errorf("want birth_date 1990-05-17, got %q", resp.BirthDate)
	}
	if resp.HeightCm != 180 || resp.WeightKg != 75 {
		t.Errorf("unexpected metrics: %+v", resp)
	}
}

func TestGetProfile_WithSignedInitData(t *testing.T) {
	const botToken = "12345:ABC-secret"

	resolver := auth.New(discardLogger(), botToken, sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			return "", repo.ErrSessionNotFound
		},
	))

	profiles := newFakeProfileRepo()
	profiles.profiles["99"] = testProfile("99")

	handler := GetProfileHandler(discardLogger(), resolver, profiles)

	initData := signInitData(botToken, map[string]string{
		"auth_date": "1700000000",
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      url.QueryEscape(`{"id":99,"first_name":"Bob","username":"bob"}`),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Telegram-Init-Data", initData)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TelegramUserID != "99" {
		t.Errorf("want telegram_user_id %q, got %q", "99", resp.TelegramUserID)
	}
}

func TestGetProfile_NoCredentials(t *testing.T) {
	resolver := auth.New(discardLogger(), "12345:token", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			t.Fatal("session store must not be called without a token")
			return "", nil
		},
	))

	handler := GetProfileHandler(discardLogger(), resolver, newFakeProfileRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestGetProfile_UnknownToken(t *testing.T) {
	resolver := auth.New(discardLogger(), "12345:token", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			return "", repo.ErrSessionNotFound
		},
	))

	handler := GetProfileHandler(discardLogger(), resolver, newFakeProfileRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Session-Token", "expired-or-unknown")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestGetProfile_ForgedInitData(t *testing.T) {
	resolver := auth.New(discardLogger(), "12345:token", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			return "", repo.ErrSessionNotFound
		},
	))

	handler := GetProfileHandler(discardLogger(), resolver, newFakeProfileRepo())

	// Подпись посчитана другим токеном бота.
	initData := signInitData("99999:other-bot", map[string]string{
		"auth_date": "1700000000",
		"user":      url.QueryEscape(`{"id":99,"first_name":"Mallory"}`),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Telegram-Init-Data", initData)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestGetProfile_SessionStoreUnavailable(t *testing.T) {
	resolver := auth.New(discardLogger(), "12345:token", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			return "", errors.New("connection refused")
		},
	))

	handler := GetProfileHandler(discardLogger(), resolver, newFakeProfileRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Session-Token", "tok")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	handler := GetProfileHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "42"}},
		newFakeProfileRepo(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestGetProfile_MisconfiguredBotToken(t *testing.T) {
	resolver := auth.New(discardLogger(), "", sessionResolverFunc(
		func(ctx context.Context, token string) (string, error) {
			return "", repo.ErrSessionNotFound
		},
	))

	handler := GetProfileHandler(discardLogger(), resolver, newFakeProfileRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Telegram-Init-Data", "user=x&hash=deadbeef")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestSaveProfile_CanonicalFields(t *testing.T) {
	profiles := newFakeProfileRepo()
	users := newFakeUserRepo()

	handler := SaveProfileHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "42", Username: "alice"}},
		profiles,
		users,
	)

	body := `{"birth_date":"1990-05-17","gender":"male","height_cm":180,"weight_kg":75}`
	req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	saved, ok := profiles.profiles["42"]
	if !ok {
		t.Fatal("profile was not saved")
	}
	if saved.HeightCm != 180 || saved.WeightKg != 75 || saved.Gender != "male" {
		t.Errorf("unexpected saved profile: %+v", saved)
	}
	if len(users.saved) != 1 || users.saved[0] != "42" {
		t.Errorf("want user 42 saved once, got %v", users.saved)
	}

	var resp ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.BirthDate != "1990-05-17" {
		t.Errorf("want birth_date 1990-05-17, got %q", resp.BirthDate)
	}
}

func TestSaveProfile_LegacyFieldNames(t *testing.T) {
	profiles := newFakeProfileRepo()

	handler := SaveProfileHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "42"}},
		profiles,
		newFakeUserRepo(),
	)

	body := `{"dateOfBirth":"1985-12-01","gender":"FEMALE","height":165,"weight":58}`
	req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	saved := profiles.profiles["42"]
	if saved == nil {
		t.Fatal("profile was not saved")
	}
	if saved.Gender != "female" {
		t.Errorf("want gender normalized to female, got %q", saved.Gender)
	}
	if saved.HeightCm != 165 || saved.WeightKg != 58 {
		t.Errorf("unexpected metrics: %+v", saved)
	}
}

func TestSaveProfile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"gender":"male"}`},
		{"unknown gender", `{"birth_date":"1990-05-17","gender":"other","height_cm":180,"weight_kg":75}`},
		{"bad date format", `{"birth_date":"17.05.1990","gender":"male","height_cm":180,"weight_kg":75}`},
		{"invalid json", `{"birth_date":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SaveProfileHandler(
				discardLogger(),
				&fakeAuth{identity: telegram.Identity{TelegramUserID: "42"}},
				newFakeProfileRepo(),
				newFakeUserRepo(),
			)

			req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSaveProfile_Unauthenticated(t *testing.T) {
	handler := SaveProfileHandler(
		discardLogger(),
		&fakeAuth{err: auth.ErrMissingCredential},
		newFakeProfileRepo(),
		newFakeUserRepo(),
	)

	body := `{"birth_date":"1990-05-17","gender":"male","height_cm":180,"weight_kg":75}`
	req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestSaveProfile_RepoError(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.err = errors.New("db down")

	handler := SaveProfileHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "42"}},
		profiles,
		newFakeUserRepo(),
	)

	body := `{"birth_date":"1990-05-17","gender":"male","height_cm":180,"weight_kg":75}`
	req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}

func TestInitUser(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["42"] = testProfile("42")
	users := newFakeUserRepo()

	handler := InitUserHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "42", Username: "alice"}},
		users,
		profiles,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/init", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp InitUserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "42" {
		t.Errorf("want user_id %q, got %q", "42", resp.UserID)
	}
	if !resp.HasProfile {
		t.Error("want has_profile=true")
	}
	if users.usernames["42"] != "alice" {
		t.Errorf("want username alice recorded, got %q", users.usernames["42"])
	}
}

func TestInitUser_NoProfileYet(t *testing.T) {
	handler := InitUserHandler(
		discardLogger(),
		&fakeAuth{identity: telegram.Identity{TelegramUserID: "7"}},
		newFakeUserRepo(),
		newFakeProfileRepo(),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/init", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp InitUserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.HasProfile {
		t.Error("want has_profile=false for a new user")
	}
}

func TestHealth(t *testing.T) {
	handler := HealthHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", got)
	}
}
