// Пакет server — HTTP-сервер tnkp-admin с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/bigkaa/tnkp-admin/internal/api/handlers"
	"github.com/bigkaa/tnkp-admin/internal/api/middleware"
	"github.com/bigkaa/tnkp-admin/internal/config"
	"github.com/bigkaa/tnkp-admin/internal/ui/auth"
	uihandlers "github.com/bigkaa/tnkp-admin/internal/ui/handlers"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tnkp-admin/internal/ui/middleware"
	"github.com/bigkaa/tnkp-admin/internal/ui/static"
)

// Components — обработчики и middleware, из которых собирается роутер.
type Components struct {
	Health         *apihandlers.HealthHandler
	Auth           *uihandlers.AuthHandler
	Dashboard      *uihandlers.DashboardHandler
	Records        []*uihandlers.RecordsHandler
	SessionManager *auth.SessionManager
	RequireUser    *uimiddleware.RequireUser
}

// Server — HTTP-сервер tnkp-admin.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, c *Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает роутер.
// В режиме strict сессия проверяется на всех маршрутах записей, дашбордах и /api;
// в режиме legacy — только на списках и дашбордах.
func NewRouter(cfg *config.Config, logger *slog.Logger, c *Components) chi.Router {
	router := chi.NewRouter()
	routeLog := logger.With(slog.String("component", "router"))

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware())
	router.Use(uimiddleware.Session(c.SessionManager, logger))

	// Служебные endpoints без сессии
	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get(uimiddleware.LoginPath, c.Auth.HandleLoginPage)
	router.Post(uimiddleware.LoginPath, c.Auth.HandleLogin)
	router.Get("/logout", c.Auth.HandleLogout)
	router.Get("/lang/{lang}", uihandlers.HandleSetLanguage)

	gate := c.RequireUser.Middleware()
	recordGate := gate
	if !cfg.StrictAuth() {
		recordGate = nil
	}

	router.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/", c.Dashboard.Dashboard(uihandlers.DashboardMain))
		r.Get("/master", c.Dashboard.Dashboard(uihandlers.DashboardMaster))
		r.Get("/view", c.Dashboard.Dashboard(uihandlers.DashboardView))
	})

	router.Group(func(r chi.Router) {
		if recordGate != nil {
			r.Use(recordGate)
		}
		r.Get("/api/stats/{name}", c.Dashboard.HandleStat)
		r.Get("/api/activities/recent", c.Dashboard.HandleRecentActivities)
		r.Get("/api/charts/data", c.Dashboard.HandleCharts)
	})

	for _, h := range c.Records {
		prefix := h.Prefix()
		router.Mount(prefix, h.Routes(gate, recordGate))
		routeLog.Info("Маршруты отношения зарегистрированы",
			slog.String("prefix", prefix),
			slog.String("auth_mode", cfg.AuthMode),
		)
	}

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
