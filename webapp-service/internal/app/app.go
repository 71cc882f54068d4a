package app

import (
	"context"
	"log/slog"

	httpapp "klyroBot/webapp-service/internal/app/http"
	"klyroBot/webapp-service/internal/auth"
	"klyroBot/webapp-service/internal/config"
	cronapp "klyroBot/webapp-service/internal/cron"
	"klyroBot/webapp-service/internal/repository/postgres"
	postgresProfile "klyroBot/webapp-service/internal/repository/postgres/profile"
	"klyroBot/webapp-service/internal/repository/postgres/schema"
	postgresSession "klyroBot/webapp-service/internal/repository/postgres/session"
	postgresUser "klyroBot/webapp-service/internal/repository/postgres/user"
)

type App struct {
	HTTPServer *httpapp.App
	Scheduler  *cronapp.Scheduler
}

func New(
	log *slog.Logger,
	cfg *config.Config,
) *App {
	pool, err := postgres.NewConnPool(&cfg.Postgres)
	if err != nil {
		panic(err)
	}

	if err := postgres.Bootstrap(context.Background(), pool); err != nil {
		panic(err)
	}

	// Карта колонок profiles разрешается один раз на старте.
	cols, err := schema.Resolve(context.Background(), pool)
	if err != nil {
		panic(err)
	}

	sessionRepo, err := postgresSession.New(pool)
	if err != nil {
		panic(err)
	}

	userRepo, err := postgresUser.New(pool)
	if err != nil {
		panic(err)
	}

	profileRepo, err := postgresProfile.New(pool, cols)
	if err != nil {
		panic(err)
	}

	authResolver := auth.New(log, cfg.TelegramBotToken, sessionRepo)

	scheduler := cronapp.New(log, sessionRepo)

	httpApp := httpapp.New(log, &cfg.HTTP, authResolver, userRepo, profileRepo)

	return &App{
		HTTPServer: httpApp,
		Scheduler:  scheduler,
	}
}
