package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ConvertersDir   string `validate:"required"`
	VocabulariesDir string `validate:"required"`
	SchemaPath      string
	LogLevel        string `validate:"oneof=notset debug info warn warning error critical"`
	Halt            bool
	Pretty          bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ConvertersDir:   getEnv("NABONASSAR_CONVERTERS_DIR", filepath.Join(cwd, "data", "converters")),
		VocabulariesDir: getEnv("NABONASSAR_VOCABULARIES_DIR", filepath.Join(cwd, "data", "vocabularies")),
		SchemaPath:      getEnv("NABONASSAR_SCHEMA", ""),
		LogLevel:        strings.ToLower(getEnv("NABONASSAR_LOG_LEVEL", "warning")),
		Halt:            getEnvBool("NABONASSAR_HALT", false),
		Pretty:          getEnvBool("NABONASSAR_PRETTY", false),
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (got %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value()))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
