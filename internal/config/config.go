// Пакет config — загрузка и валидация конфигурации tnkp-admin
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Режимы проверки аутентификации.
const (
	// AuthModeStrict — сессия обязательна для всех CRUD-маршрутов и дашбордов.
	AuthModeStrict = "strict"
	// AuthModeLegacy — сессия проверяется только для списков и дашбордов.
	AuthModeLegacy = "legacy"
)

// Config содержит все параметры конфигурации tnkp-admin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Применять миграции при старте
	DBMigrate bool

	// --- Сессии и доступ ---

	// Ключ шифрования cookie сессии (пустой — случайный при каждом старте)
	SessionSecret string
	// Выставлять Secure у cookie сессии (HTTPS)
	SessionSecure bool
	// Режим проверки аутентификации: strict или legacy
	AuthMode string

	// --- Описания отношений и шаблоны ---

	// Каталог с models/ и pages/ (пустой — встроенная конфигурация)
	ConfigDir string
	// Каталог с шаблонами страниц (пустой — встроенные шаблоны)
	TemplatesDir string
	// Размер страницы списка по умолчанию
	DefaultPerPage int
	// Максимальный размер страницы списка
	MaxPerPage int

	// --- topologymetrics ---

	// Группа сервиса в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// TNKP_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("TNKP_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("TNKP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("TNKP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// TNKP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TNKP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TNKP_LOG_LEVEL: %w", err)
	}

	// TNKP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TNKP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TNKP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// TNKP_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("TNKP_DB_HOST")
	if err != nil {
		return nil, err
	}

	// TNKP_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("TNKP_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("TNKP_DB_PORT: %w", err)
	}

	// TNKP_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("TNKP_DB_NAME")
	if err != nil {
		return nil, err
	}

	// TNKP_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("TNKP_DB_USER")
	if err != nil {
		return nil, err
	}

	// TNKP_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("TNKP_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// TNKP_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("TNKP_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("TNKP_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// TNKP_DB_MIGRATE — применять миграции при старте (по умолчанию true)
	cfg.DBMigrate, err = getEnvBool("TNKP_DB_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("TNKP_DB_MIGRATE: %w", err)
	}

	// --- Сессии и доступ ---

	// TNKP_SESSION_SECRET — ключ сессий (опционально)
	cfg.SessionSecret = getEnvDefault("TNKP_SESSION_SECRET", "")

	// TNKP_SESSION_SECURE — Secure cookie (по умолчанию false)
	cfg.SessionSecure, err = getEnvBool("TNKP_SESSION_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("TNKP_SESSION_SECURE: %w", err)
	}

	// TNKP_AUTH_MODE — strict или legacy (по умолчанию strict)
	cfg.AuthMode = strings.ToLower(getEnvDefault("TNKP_AUTH_MODE", AuthModeStrict))
	if cfg.AuthMode != AuthModeStrict && cfg.AuthMode != AuthModeLegacy {
		return nil, fmt.Errorf("TNKP_AUTH_MODE: недопустимое значение %q, допустимые: strict, legacy", cfg.AuthMode)
	}

	// --- Описания отношений и шаблоны ---

	// TNKP_CONFIG_DIR — каталог models/ и pages/ (опционально)
	cfg.ConfigDir = getEnvDefault("TNKP_CONFIG_DIR", "")

	// TNKP_TEMPLATES_DIR — каталог шаблонов (опционально)
	cfg.TemplatesDir = getEnvDefault("TNKP_TEMPLATES_DIR", "")

	// TNKP_DEFAULT_PER_PAGE — размер страницы по умолчанию (10)
	cfg.DefaultPerPage, err = getEnvInt("TNKP_DEFAULT_PER_PAGE", 10)
	if err != nil {
		return nil, fmt.Errorf("TNKP_DEFAULT_PER_PAGE: %w", err)
	}

	// TNKP_MAX_PER_PAGE — максимальный размер страницы (100)
	cfg.MaxPerPage, err = getEnvInt("TNKP_MAX_PER_PAGE", 100)
	if err != nil {
		return nil, fmt.Errorf("TNKP_MAX_PER_PAGE: %w", err)
	}
	if cfg.DefaultPerPage < 1 || cfg.MaxPerPage < cfg.DefaultPerPage {
		return nil, fmt.Errorf("TNKP_DEFAULT_PER_PAGE/TNKP_MAX_PER_PAGE: требуется 1 <= %d <= %d",
			cfg.DefaultPerPage, cfg.MaxPerPage)
	}

	// --- topologymetrics ---

	// TNKP_DEPHEALTH_GROUP — группа сервиса (по умолчанию tnkp)
	cfg.DephealthGroup = getEnvDefault("TNKP_DEPHEALTH_GROUP", "tnkp")

	// TNKP_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("TNKP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TNKP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// TNKP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("TNKP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TNKP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// StrictAuth — сессия обязательна для всех CRUD-маршрутов.
func (c *Config) StrictAuth() bool {
	return c.AuthMode != AuthModeLegacy
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения (формат postgres://) для dephealth.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
