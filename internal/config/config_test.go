package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"TNKP_DB_HOST":     "localhost",
		"TNKP_DB_NAME":     "tnkp",
		"TNKP_DB_USER":     "tnkp",
		"TNKP_DB_PASSWORD": "secret",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, ожидается 8000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if !cfg.DBMigrate {
		t.Error("DBMigrate = false, ожидается true")
	}
	if cfg.AuthMode != AuthModeStrict || !cfg.StrictAuth() {
		t.Errorf("AuthMode = %q, ожидается strict", cfg.AuthMode)
	}
	if cfg.SessionSecure {
		t.Error("SessionSecure = true, ожидается false")
	}
	if cfg.ConfigDir != "" || cfg.TemplatesDir != "" {
		t.Errorf("ConfigDir/TemplatesDir должны быть пустыми: %q, %q", cfg.ConfigDir, cfg.TemplatesDir)
	}
	if cfg.DefaultPerPage != 10 || cfg.MaxPerPage != 100 {
		t.Errorf("DefaultPerPage/MaxPerPage = %d/%d, ожидается 10/100", cfg.DefaultPerPage, cfg.MaxPerPage)
	}
	if cfg.DephealthGroup != "tnkp" {
		t.Errorf("DephealthGroup = %q, ожидается tnkp", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["TNKP_PORT"] = "9090"
	envs["TNKP_LOG_LEVEL"] = "debug"
	envs["TNKP_LOG_FORMAT"] = "text"
	envs["TNKP_DB_PORT"] = "5433"
	envs["TNKP_DB_SSL_MODE"] = "require"
	envs["TNKP_DB_MIGRATE"] = "false"
	envs["TNKP_SESSION_SECRET"] = "s3cr3t"
	envs["TNKP_SESSION_SECURE"] = "true"
	envs["TNKP_AUTH_MODE"] = "Legacy"
	envs["TNKP_CONFIG_DIR"] = "/etc/tnkp"
	envs["TNKP_TEMPLATES_DIR"] = "/srv/templates"
	envs["TNKP_DEFAULT_PER_PAGE"] = "25"
	envs["TNKP_MAX_PER_PAGE"] = "50"
	envs["TNKP_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.DBMigrate {
		t.Error("DBMigrate = true, ожидается false")
	}
	if cfg.SessionSecret != "s3cr3t" || !cfg.SessionSecure {
		t.Errorf("SessionSecret/SessionSecure = %q/%v", cfg.SessionSecret, cfg.SessionSecure)
	}
	if cfg.AuthMode != AuthModeLegacy || cfg.StrictAuth() {
		t.Errorf("AuthMode = %q, ожидается legacy", cfg.AuthMode)
	}
	if cfg.ConfigDir != "/etc/tnkp" || cfg.TemplatesDir != "/srv/templates" {
		t.Errorf("ConfigDir/TemplatesDir = %q, %q", cfg.ConfigDir, cfg.TemplatesDir)
	}
	if cfg.DefaultPerPage != 25 || cfg.MaxPerPage != 50 {
		t.Errorf("DefaultPerPage/MaxPerPage = %d/%d, ожидается 25/50", cfg.DefaultPerPage, cfg.MaxPerPage)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for missing := range minimalEnvs() {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			envs[missing] = ""
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт не число", "TNKP_PORT", "abc"},
		{"порт вне диапазона", "TNKP_PORT", "70000"},
		{"уровень логирования", "TNKP_LOG_LEVEL", "verbose"},
		{"формат логов", "TNKP_LOG_FORMAT", "xml"},
		{"режим SSL", "TNKP_DB_SSL_MODE", "prefer"},
		{"флаг миграций", "TNKP_DB_MIGRATE", "maybe"},
		{"Secure cookie", "TNKP_SESSION_SECURE", "yes please"},
		{"режим аутентификации", "TNKP_AUTH_MODE", "open"},
		{"размер страницы", "TNKP_DEFAULT_PER_PAGE", "0"},
		{"максимум меньше умолчания", "TNKP_MAX_PER_PAGE", "5"},
		{"длительность", "TNKP_SHUTDOWN_TIMEOUT", "abc"},
		{"интервал dephealth", "TNKP_DEPHEALTH_CHECK_INTERVAL", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "tnkp",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=tnkp user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
	if u := cfg.DatabaseURL(); u != "postgres://db.example.com:5432/tnkp" {
		t.Errorf("DatabaseURL() = %q", u)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}
