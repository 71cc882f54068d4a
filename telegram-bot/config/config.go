package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Telegram TelegramConfig `yaml:"telegram"`
	Postgres PostgresConfig `yaml:"postgres"`
	Session  SessionConfig  `yaml:"session"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	WebAppURL string `yaml:"web_app_url" env:"WEB_APP_URL" env-required:"true"`
}

type PostgresConfig struct {
	Host           string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port           string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	DatabaseName   string `yaml:"database_name" env:"POSTGRES_DB" env-default:"klyro"`
	Username       string `yaml:"username" env:"POSTGRES_USER" env-default:"postgres"`
	Password       string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"postgres"`
	MaxConnections int    `yaml:"max_connections" env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

type SessionConfig struct {
	// TTL фиксированный: считается один раз при создании сессии и при
	// использовании не продлевается.
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"720h"`
}

// MustLoad загружает конфигурацию из файла и/или переменных окружения
func MustLoad() *Config {
	configPath := fetchConfigPath()

	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}

		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			panic("cannot read config: " + err.Error())
		}

		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath получает путь к конфигурационному файлу из флага или переменной окружения
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
