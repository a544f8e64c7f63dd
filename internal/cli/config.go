package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mcoot/numberguess/internal/chat"
	"github.com/mcoot/numberguess/internal/factory"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/server"
	"github.com/mcoot/numberguess/internal/services/game"
	redisstorage "github.com/mcoot/numberguess/internal/storage/redis"
)

// Config holds CLI configuration
type Config struct {
	// Server settings
	Host        string
	Port        int
	Min         int
	Max         int
	HTTPPort    int
	ChatPort    int
	StorageType string
	RedisURL    string
	LogLevel    string
	NoBanner    bool

	// Client settings
	APIURL string
	Output string

	// envErr holds malformed numeric environment values, reported by FactoryConfig
	envErr error
}

// DefaultConfig returns a Config with default values, overridden by the environment
func DefaultConfig() *Config {
	rng := model.DefaultRange()
	var errs []error
	c := &Config{
		Host:        getEnvOrDefault("GUESS_HOST", ""),
		Port:        getEnvIntOrDefault("GUESS_PORT", server.DefaultConfig().Port, &errs),
		Min:         getEnvIntOrDefault("GUESS_MIN", rng.Min, &errs),
		Max:         getEnvIntOrDefault("GUESS_MAX", rng.Max, &errs),
		HTTPPort:    getEnvIntOrDefault("GUESS_HTTP_PORT", 8080, &errs),
		ChatPort:    getEnvIntOrDefault("GUESS_CHAT_PORT", chat.DefaultConfig().Port, &errs),
		StorageType: getEnvOrDefault("STORAGE_TYPE", factory.StorageTypeMemory),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogLevel:    getEnvOrDefault("GUESS_LOG_LEVEL", "info"),
		APIURL:      getEnvOrDefault("GUESS_API", "http://localhost:8080"),
		Output:      "text",
	}
	c.envErr = errors.Join(errs...)
	return c
}

// FactoryConfig builds the application factory settings
func (c *Config) FactoryConfig(logger *slog.Logger) (factory.Config, error) {
	if c.envErr != nil {
		return factory.Config{}, c.envErr
	}

	rng := model.Range{Min: c.Min, Max: c.Max}
	if err := rng.Validate(); err != nil {
		return factory.Config{}, err
	}

	gameCfg := game.DefaultConfig()
	gameCfg.Range = rng

	serverCfg := server.DefaultConfig()
	serverCfg.Host = c.Host
	serverCfg.Port = c.Port

	chatCfg := chat.DefaultConfig()
	chatCfg.Host = c.Host
	chatCfg.Port = c.ChatPort

	cfg := factory.Config{
		Logger:      logger,
		StorageType: c.StorageType,
		Game:        gameCfg,
		Server:      serverCfg,
		Chat:        chatCfg,
	}

	if c.StorageType == factory.StorageTypeRedis {
		if c.RedisURL == "" {
			return factory.Config{}, errors.New("REDIS_URL required when storage type is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}

	return cfg, nil
}

// SlogLevel parses LogLevel, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvIntOrDefault falls back to defaultVal when key is unset or malformed,
// appending the parse failure to errs in the latter case
func getEnvIntOrDefault(key string, defaultVal int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: must be an integer", key, val))
		return defaultVal
	}
	return n
}
