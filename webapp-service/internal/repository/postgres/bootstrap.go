package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Имя блокировки фиксированное: одна на весь кластер.
const initLockName = "klyro_init_db_v2"

var initTables = []string{
	`CREATE TABLE IF NOT EXISTS public.users (
		telegram_user_id TEXT PRIMARY KEY,
		username TEXT,
		created_at TIMESTAMP DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS public.sessions (
		session_token TEXT PRIMARY KEY,
		telegram_user_id TEXT NOT NULL REFERENCES public.users(telegram_user_id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT now(),
		last_used_at TIMESTAMP DEFAULT now(),
		expires_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS public.profiles (
		telegram_user_id TEXT PRIMARY KEY,
		birth_date DATE NOT NULL,
		gender TEXT CHECK (gender IN ('male','female')) NOT NULL,
		height_cm INTEGER NOT NULL,
		weight_kg INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now()
	)`,
}

// Bootstrap создает таблицы users/sessions/profiles, если их еще нет.
// Воркеры стартуют конкурентно, поэтому создание выполняется строго
// одиночно — под advisory lock на одном соединении.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, initLockName); err != nil {
		return fmt.Errorf("failed to take init lock: %w", err)
	}
	defer conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, initLockName)

	for _, stmt := range initTables {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, table := range []string{"public.users", "public.sessions", "public.profiles"} {
		var reg *string
		if err := conn.QueryRow(ctx, `SELECT to_regclass($1)::text`, table).Scan(&reg); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if reg == nil {
			return fmt.Errorf("table %s is not visible after bootstrap", table)
		}
	}

	return nil
}
