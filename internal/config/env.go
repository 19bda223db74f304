package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "BOURSE_LOG_LEVEL"
	EnvLogPretty  = "BOURSE_LOG_PRETTY"
	EnvQueueSize  = "BOURSE_QUEUE_SIZE"
	EnvSecurities = "BOURSE_SECURITIES"
)

type Config struct {
	LogLevel   zerolog.Level
	LogPretty  bool
	QueueSize  int
	Securities []string
}

func Default() Config {
	return Config{
		LogLevel:   zerolog.InfoLevel,
		QueueSize:  128,
		Securities: []string{"DEFAULT"},
	}
}

// LoadEnv reads the given .env files, or ./.env when none is given. Missing
// files are not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no .env file found, using environment variables")
	}
}

func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// FromEnv builds a Config from the process environment over Default.
func FromEnv() (Config, error) {
	cfg := Default()

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v, ok := os.LookupEnv(EnvLogPretty); ok {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogPretty, err)
		}
		cfg.LogPretty = pretty
	}
	if v, ok := os.LookupEnv(EnvQueueSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive integer, got %q", EnvQueueSize, v)
		}
		cfg.QueueSize = n
	}
	if securities := SplitList(GetEnv(EnvSecurities, "")); len(securities) > 0 {
		cfg.Securities = securities
	}
	return cfg, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SetupLogging configures the global zerolog logger.
func (c Config) SetupLogging() {
	zerolog.SetGlobalLevel(c.LogLevel)
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
