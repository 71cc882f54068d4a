package app

import (
	"context"
	"fmt"
	"log"

	"klyroBot/telegram-bot/config"
	"klyroBot/telegram-bot/internal/repository"
	"klyroBot/telegram-bot/internal/service"
	"klyroBot/telegram-bot/internal/telegram"
	"klyroBot/telegram-bot/pkg/database"
)

type App struct {
	config  *config.Config
	handler *telegram.Handler
}

func New(cfg *config.Config) (*App, error) {
	// Подключаемся к PostgreSQL
	db, err := database.NewPostgresConnection(database.PostgresConfig{
		Host:           cfg.Postgres.Host,
		Port:           cfg.Postgres.Port,
		DatabaseName:   cfg.Postgres.DatabaseName,
		Username:       cfg.Postgres.Username,
		Password:       cfg.Postgres.Password,
		MaxConnections: cfg.Postgres.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to PostgreSQL")

	// Создаем repository
	repo := repository.NewPostgresRepository(db)

	// Создаем service
	svc := service.NewService(repo, cfg.Session.TTL)

	// Создаем Telegram handler
	handler, err := telegram.NewHandler(cfg.Telegram.BotToken, cfg.Telegram.WebAppURL, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram handler: %w", err)
	}

	return &App{
		config:  cfg,
		handler: handler,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	log.Println("Starting Telegram bot...")
	return a.handler.Start(ctx)
}
