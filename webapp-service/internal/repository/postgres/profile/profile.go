package postgresProfile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	repo "klyroBot/webapp-service/internal/repository"
	"klyroBot/webapp-service/internal/repository/postgres"
	"klyroBot/webapp-service/internal/repository/postgres/schema"
)

type Profile struct {
	TelegramUserID string
	BirthDate      time.Time
	Gender         string
	HeightCm       int
	WeightKg       int
}

type Storage struct {
	db   postgres.DB
	cols schema.ColumnMap
}

func New(db postgres.DB, cols schema.ColumnMap) (*Storage, error) {
	return &Storage{db: db, cols: cols}, nil
}

// Profile читает профиль пользователя. Сравнение идет по
// telegram_user_id::text, чтобы работать и с bigint-, и с text-колонкой.
func (s *Storage) Profile(ctx context.Context, telegramUserID string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT telegram_user_id::text, birth_date, gender, %s, %s
		FROM profiles WHERE telegram_user_id::text = $1`,
		s.cols.HeightColumn, s.cols.WeightColumn)

	var p Profile

	err := s.db.QueryRow(ctx, query, telegramUserID).Scan(
		&p.TelegramUserID,
		&p.BirthDate,
		&p.Gender,
		&p.HeightCm,
		&p.WeightKg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrProfileNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &p, nil
}

// Exists проверяет наличие профиля без чтения данных.
func (s *Storage) Exists(ctx context.Context, telegramUserID string) (bool, error) {
	var exists bool

	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE telegram_user_id::text = $1)`,
		telegramUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}

	return exists, nil
}

// SaveProfile выполняет идемпотентный upsert. updated_at трогаем только
// если колонка есть в текущей схеме.
func (s *Storage) SaveProfile(ctx context.Context, p *Profile) error {
	insertCols := []string{"telegram_user_id", "birth_date", "gender", s.cols.HeightColumn, s.cols.WeightColumn}
	insertVals := []string{"$1", "$2", "$3", "$4", "$5"}

	updateSets := []string{
		"birth_date = EXCLUDED.birth_date",
		"gender = EXCLUDED.gender",
		fmt.Sprintf("%s = EXCLUDED.%s", s.cols.HeightColumn, s.cols.HeightColumn),
		fmt.Sprintf("%s = EXCLUDED.%s", s.cols.WeightColumn, s.cols.WeightColumn),
	}

	if s.cols.HasUpdatedAt {
		insertCols = append(insertCols, "updated_at")
		insertVals = append(insertVals, "now()")
		updateSets = append(updateSets, "updated_at = now()")
	}

	query := fmt.Sprintf(`INSERT INTO profiles (%s) VALUES (%s)
		ON CONFLICT (telegram_user_id) DO UPDATE SET %s`,
		strings.Join(insertCols, ", "),
		strings.Join(insertVals, ", "),
		strings.Join(updateSets, ", "),
	)

	userID, err := s.normalizeUserID(p.TelegramUserID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query,
		userID,
		p.BirthDate,
		p.Gender,
		p.HeightCm,
		p.WeightKg,
	)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}

// normalizeUserID приводит идентификатор к нативному типу колонки:
// в старых базах telegram_user_id — bigint, в новых — text.
func (s *Storage) normalizeUserID(telegramUserID string) (any, error) {
	if s.cols.UserIDType == "bigint" {
		id, err := strconv.ParseInt(telegramUserID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram_user_id %q: %w", telegramUserID, err)
		}
		return id, nil
	}
	return telegramUserID, nil
}
