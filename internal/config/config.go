package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() zerolog.Level
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type SessionConfig interface {
	GetSessionFile() string
	GetSessionPassphrase() string
	GetValidateOnRestore() bool
	GetCheckTokenExpiry() bool
	GetLoginRoute() string
	GetGuardFallbackRoute() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Cors
}

// New loads a .env file from the working directory, if present, and returns
// a Config reading the environment.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
