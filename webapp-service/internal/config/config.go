package config

import (
	httpapp "klyroBot/webapp-service/internal/app/http"
	"klyroBot/webapp-service/internal/repository/postgres"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env string `env:"ENV" env-default:"local"`

	// Токен бота — общий секрет для проверки initData. Без него сервис
	// не имеет права обслуживать трафик, поэтому env-required.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" env-required:"true"`

	HTTP     httpapp.Config  `env-prefix:"HTTP_"`
	Postgres postgres.Config `env-prefix:"POSTGRES_"`
}

// MustLoad читает конфигурацию из переменных окружения
func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}

	return &cfg
}
