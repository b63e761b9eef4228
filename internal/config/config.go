// Package config содержит логику чтения конфигурации сервиса дашборда.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса дашборда.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	BlingAPIAddress string `env:"BLING_API_ADDRESS"`
	ClientID        string `env:"CLIENT_ID"`
	ClientSecret    string `env:"CLIENT_SECRET"`
	AuthSecret      string `env:"AUTH_SECRET"`
	// ForceTokenRefresh принудительно обновляет токен даже при неистёкшем
	// сроке действия. Используется на стендах для проверки обмена.
	ForceTokenRefresh bool `env:"FORCE_TOKEN_REFRESH"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envBlingAddress := cfg.BlingAPIAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.BlingAPIAddress, "b", "https://bling.com.br/Api/v3", "bling API base address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envBlingAddress != "" {
		cfg.BlingAPIAddress = envBlingAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.BlingAPIAddress == "" {
		cfg.BlingAPIAddress = "https://bling.com.br/Api/v3"
	}

	return cfg, nil
}
