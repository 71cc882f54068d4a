package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"klyroBot/webapp-service/internal/pkg/logger/sl"
)

// SessionPurger интерфейс для очистки просроченных сессий
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler управляет крон-джобами
type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	purger SessionPurger
}

// New создает новый планировщик
func New(log *slog.Logger, purger SessionPurger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		log:    log,
		purger: purger,
	}
}

// Start запускает планировщик. Просроченные сессии и так отвергаются при
// резолве; джоба лишь убирает мертвые строки из таблицы.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		s.log.Info("starting expired sessions purge job")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deleted, err := s.purger.DeleteExpired(ctx)
		if err != nil {
			s.log.Error("failed to purge expired sessions", sl.Err(err))
			return
		}

		s.log.Info("expired sessions purge completed", slog.Int64("deleted", deleted))
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("cron scheduler started")

	return nil
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cron scheduler stopped")
}
