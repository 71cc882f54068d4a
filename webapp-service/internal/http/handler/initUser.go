package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"klyroBot/webapp-service/internal/auth"
	"klyroBot/webapp-service/internal/pkg/logger/sl"
)

type InitUserResponse struct {
	UserID     string `json:"user_id"`
	HasProfile bool   `json:"has_profile"`
}

// InitUserHandler — первый вызов Mini App после открытия: проверяет
// учетные данные, лениво заводит пользователя и сообщает, есть ли профиль.
func InitUserHandler(
	log *slog.Logger,
	authResolver Authenticator,
	userRepo UserRepository,
	profileRepo ProfileRepository,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.InitUserHandler"

		log := log.With(slog.String("op", op))

		identity, err := authResolver.Authenticate(r.Context(), auth.CredentialsFromRequest(r))
		if err != nil {
			log.Info("authentication failed", sl.Err(err))
			status, msg := authErrorStatus(err)
			http.Error(w, msg, status)
			return
		}

		if err := userRepo.SaveUser(r.Context(), identity.TelegramUserID, identity.Username); err != nil {
			log.Error("failed to save user", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		if identity.Username != "" {
			if err := userRepo.UpdateUsername(r.Context(), identity.TelegramUserID, identity.Username); err != nil {
				log.Error("failed to update username", sl.Err(err))
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		hasProfile, err := profileRepo.Exists(r.Context(), identity.TelegramUserID)
		if err != nil {
			log.Error("failed to check profile", sl.Err(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(InitUserResponse{
			UserID:     identity.TelegramUserID,
			HasProfile: hasProfile,
		})

		log.Info("user initialized", slog.String("telegram_user_id", identity.TelegramUserID))
	}
}
