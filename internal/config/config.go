package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"whiteboard_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"whiteboard_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"whiteboard_db"`

	// Idle room state is evicted after RoomIdleTTL with no joined sessions;
	// the sweep runs every RoomSweepInterval.
	RoomSweepInterval time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"5m"  validate:"min=1s"`
	RoomIdleTTL       time.Duration `env:"ROOM_IDLE_TTL"       envDefault:"30m" validate:"min=1m"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
