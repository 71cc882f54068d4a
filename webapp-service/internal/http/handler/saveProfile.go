package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"klyroBot/webapp-service/internal/auth"
	"klyroBot/webapp-service/internal/pkg/logger/sl"
	postgresProfile "klyroBot/webapp-service/internal/repository/postgres/profile"
)

// SaveProfileRequest принимает и канонические, и старые имена полей —
// фронтенд разных версий шлет их по-разному. Лишние поля игнорируются.
type SaveProfileRequest struct {
	BirthDate   string `json:"birth_date"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	HeightCm    *int   `json:"height_cm"`
	Height      *int   `json:"height"`
	WeightKg    *int   `json:"weight_kg"`
	Weight      *int   `json:"weight"`
}

func SaveProfileHandler(
	log *slog.Logger,
	authResolver Authenticator,
	profileRepo ProfileRepository,
	userRepo UserRepository,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.SaveProfileHandler"

		log := log.With(slog.String("op", op))

		identity, err := authResolver.Authenticate(r.Context(), auth.CredentialsFromRequest(r))
		if err != nil {
			log.Info("authentication failed", sl.Err(err))
			status, msg := authErrorStatus(err)
			http.Error(w, msg, status)
			return
		}

		var req SaveProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("failed to decode request", sl.Err(err))
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		birthDateStr := req.BirthDate
		if birthDateStr == "" {
			birthDateStr = req.DateOfBirth
		}

		heightCm := req.HeightCm
		if heightCm == nil {
			heightCm = req.Height
		}

		weightKg := req.WeightKg
		if weightKg == nil {
			weightKg = req.Weight
		}

		gender := strings.ToLower(strings.TrimSpace(req.Gender))

		if birthDateStr == "" || gender == "" || heightCm == nil || weightKg == nil {
			http.Error(w, "birth_date, gender, height_cm and weight_kg are required", http.StatusBadRequest)
			return
		}

		if gender != "male" && gender != "female" {
			http.Error(w, "gender must be male or female", http.StatusBadRequest)
			return
		}

		birthDate, err := time.Parse("2006-01-02", birthDateStr)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		// Пользователь мог прийти по initData до того, как бот завел его
		// строку — создаем лениво.
		if err := userRepo.SaveUser(r.Context(), identity.TelegramUserID, identity.Username); err != nil {
			log.Error("failed to save user", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		profile := &postgresProfile.Profile{
			TelegramUserID: identity.TelegramUserID,
			BirthDate:      birthDate,
			Gender:         gender,
			HeightCm:       *heightCm,
			WeightKg:       *weightKg,
		}

		if err := profileRepo.SaveProfile(r.Context(), profile); err != nil {
			log.Error("failed to save profile", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		// Отдаем профиль, перечитанный из базы — она источник истины.
		saved, err := profileRepo.Profile(r.Context(), identity.TelegramUserID)
		if err != nil {
			log.Error("failed to reload profile", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ProfileResponse{
			TelegramUserID: saved.TelegramUserID,
			BirthDate:      saved.BirthDate.Format("2006-01-02"),
			Gender:         saved.Gender,
			HeightCm:       saved.HeightCm,
			WeightKg:       saved.WeightKg,
		})

		log.Info("profile saved", slog.String("telegram_user_id", identity.TelegramUserID))
	}
}
