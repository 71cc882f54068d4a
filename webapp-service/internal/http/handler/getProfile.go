package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"klyroBot/webapp-service/internal/auth"
	"klyroBot/webapp-service/internal/pkg/logger/sl"
	repo "klyroBot/webapp-service/internal/repository"
)

type ProfileResponse struct {
	TelegramUserID string `json:"telegram_user_id"`
	BirthDate      string `json:"birth_date"`
	Gender         string `json:"gender"`
	HeightCm       int    `json:"height_cm"`
	WeightKg       int    `json:"weight_kg"`
}

func GetProfileHandler(
	log *slog.Logger,
	authResolver Authenticator,
	profileRepo ProfileRepository,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.GetProfileHandler"

		log := log.With(slog.String("op", op))

		identity, err := authResolver.Authenticate(r.Context(), auth.CredentialsFromRequest(r))
		if err != nil {
			log.Info("authentication failed", sl.Err(err))
			status, msg := authErrorStatus(err)
			http.Error(w, msg, status)
			return
		}

		profile, err := profileRepo.Profile(r.Context(), identity.TelegramUserID)
		if err != nil {
			if errors.Is(err, repo.ErrProfileNotFound) {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load profile", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ProfileResponse{
			TelegramUserID: profile.TelegramUserID,
			BirthDate:      profile.BirthDate.Format("2006-01-02"),
			Gender:         profile.Gender,
			HeightCm:       profile.HeightCm,
			WeightKg:       profile.WeightKg,
		})
	}
}
