// Точка входа tnkp-admin — админ-панель CRUD по описаниям отношений.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// читает описания отношений, создаёт сервисы и обработчики страниц,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	apihandlers "github.com/bigkaa/tnkp-admin/internal/api/handlers"
	"github.com/bigkaa/tnkp-admin/internal/config"
	"github.com/bigkaa/tnkp-admin/internal/database"
	"github.com/bigkaa/tnkp-admin/internal/fieldmeta"
	"github.com/bigkaa/tnkp-admin/internal/records"
	"github.com/bigkaa/tnkp-admin/internal/repository"
	"github.com/bigkaa/tnkp-admin/internal/server"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/auth"
	uihandlers "github.com/bigkaa/tnkp-admin/internal/ui/handlers"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tnkp-admin/internal/ui/middleware"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("tnkp-admin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("auth_mode", cfg.AuthMode),
	)

	// 3. Применение миграций БД
	if cfg.DBMigrate {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Описания отношений
	loader := fieldmeta.NewLoader(fieldmeta.SourceFS(cfg.ConfigDir))
	reg, err := loader.LoadRegistry(records.All())
	if err != nil {
		logger.Error("Ошибка загрузки описаний отношений", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Описания отношений загружены",
		slog.Int("relations", reg.Len()),
		slog.String("config_dir", cfg.ConfigDir),
	)

	// 6. Repositories
	store := repository.NewRecordStore(pool)
	userRepo := repository.NewUserRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	// 7. Services
	proxies, err := service.ViewProxies(reg)
	if err != nil {
		logger.Error("Ошибка создания прокси view", slog.String("error", err.Error()))
		os.Exit(1)
	}
	paging := service.Paging{DefaultPerPage: cfg.DefaultPerPage, MaxPerPage: cfg.MaxPerPage}
	recordSvcs, err := service.NewRecordServices(reg, store, proxies, paging, logger)
	if err != nil {
		logger.Error("Ошибка создания сервисов отношений", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authSvc := service.NewAuthService(userRepo, logger)
	dashboardSvc := service.NewDashboardService(reg, store, activityRepo, logger)

	// 8. Переводы и шаблоны страниц
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	renderer, err := pages.NewRenderer(reg, pages.OverridesFS(cfg.TemplatesDir), logger)
	if err != nil {
		logger.Error("Ошибка загрузки шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Сессии (AES-256-GCM cookie)
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionSecure)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("TNKP_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 10. Обработчики
	components := &server.Components{
		Health:         apihandlers.NewHealthHandler(database.NewReadinessChecker(pool)),
		Auth:           uihandlers.NewAuthHandler(authSvc, sessionMgr, renderer, logger),
		Dashboard:      uihandlers.NewDashboardHandler(loader, dashboardSvc, renderer, logger),
		SessionManager: sessionMgr,
		RequireUser: uimiddleware.NewRequireUser(authSvc,
			uihandlers.NewErrorWriter(renderer, logger), logger),
	}
	for _, svc := range recordSvcs {
		components.Records = append(components.Records, uihandlers.NewRecordsHandler(svc, renderer, logger))
	}

	// 11. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		apihandlers.ServiceName,
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("tnkp-admin остановлен")
}
