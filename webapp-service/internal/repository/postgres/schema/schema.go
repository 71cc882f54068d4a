package schema

import (
	"context"
	"fmt"

	"klyroBot/webapp-service/internal/repository/postgres"
)

// ColumnMap — реально существующие имена колонок в public.profiles.
// Схему существующей базы мы не меняем, а подстраиваемся:
//   - height_cm может называться height
//   - weight_kg может называться weight
//   - telegram_user_id может быть bigint или text
//
// Карта разрешается один раз при старте и дальше передается как
// неизменяемое значение.
type ColumnMap struct {
	HeightColumn string
	WeightColumn string
	UserIDType   string
	HasCreatedAt bool
	HasUpdatedAt bool
}

func Resolve(ctx context.Context, db postgres.DB) (ColumnMap, error) {
	rows, err := db.Query(ctx, `SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = 'profiles'`)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return ColumnMap{}, fmt.Errorf("database error: %w", err)
		}
		cols[name] = dataType
	}
	if err := rows.Err(); err != nil {
		return ColumnMap{}, fmt.Errorf("database error: %w", err)
	}

	userIDType, ok := cols["telegram_user_id"]
	if !ok {
		return ColumnMap{}, fmt.Errorf("profiles.telegram_user_id column not found")
	}

	cm := ColumnMap{
		UserIDType:   userIDType,
		HasCreatedAt: hasColumn(cols, "created_at"),
		HasUpdatedAt: hasColumn(cols, "updated_at"),
	}

	switch {
	case hasColumn(cols, "height_cm"):
		cm.HeightColumn = "height_cm"
	case hasColumn(cols, "height"):
		cm.HeightColumn = "height"
	}

	switch {
	case hasColumn(cols, "weight_kg"):
		cm.WeightColumn = "weight_kg"
	case hasColumn(cols, "weight"):
		cm.WeightColumn = "weight"
	}

	if cm.HeightColumn == "" || cm.WeightColumn == "" {
		return ColumnMap{}, fmt.Errorf("profiles is missing required columns, found: %v", columnNames(cols))
	}

	return cm, nil
}

func hasColumn(cols map[string]string, name string) bool {
	_, ok := cols[name]
	return ok
}

func columnNames(cols map[string]string) []string {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	return names
}
