// dashboard.go — дашборды (/, /master, /view) и их фрагменты (/api/*).
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/tnkp-admin/internal/fieldmeta"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

// PageLoader — источник конфигурации дашбордов.
type PageLoader interface {
	LoadPage(name string) (*fieldmeta.PageConfig, error)
}

// Дашборды: имя YAML-файла в pages/ и ключ заголовка.
const (
	DashboardMain   = "dashboard"
	DashboardMaster = "master"
	DashboardView   = "view"
)

// DashboardHandler — обработчик дашбордов и их фрагментов.
type DashboardHandler struct {
	base
	pages     PageLoader
	dashboard *service.DashboardService
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(
	loader PageLoader,
	dashboard *service.DashboardService,
	renderer *pages.Renderer,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		base: base{
			renderer: renderer,
			logger:   logger.With(slog.String("component", "ui.dashboard")),
		},
		pages:     loader,
		dashboard: dashboard,
	}
}

// Dashboard возвращает обработчик дашборда name (pages/<name>.yaml).
// Лента активности и графики показываются только на главном дашборде.
func (h *DashboardHandler) Dashboard(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := h.pages.LoadPage(name)
		if err != nil {
			if errors.Is(err, fieldmeta.ErrConfigNotFound) {
				h.writeServiceError(w, r, errors.Join(service.ErrNotFound, err))
				return
			}
			h.writeServiceError(w, r, err)
			return
		}

		lang := i18n.LangFromContext(r.Context())
		title := cfg.Title
		if title == "" {
			title = i18n.Lookup(lang, "dashboard."+dashboardKey(name))
		}

		crumbs := pages.PageBreadcrumbs(lang, title)
		active := "/" + name
		if name == DashboardMain {
			crumbs = crumbs[:1]
			active = "/"
		}

		h.render(w, r, http.StatusOK, h.renderer.Dashboard(pages.DashboardData{
			Page:         h.page(r, title, crumbs, active),
			Config:       cfg,
			ShowActivity: name == DashboardMain,
		}))
	}
}

func dashboardKey(name string) string {
	if name == DashboardMain {
		return "title"
	}
	return name
}

// HandleStat — GET /api/stats/{name}. Отвечает числом в text/plain.
func (h *DashboardHandler) HandleStat(w http.ResponseWriter, r *http.Request) {
	n, err := h.dashboard.Stat(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strconv.FormatInt(n, 10)))
}

// HandleRecentActivities — GET /api/activities/recent. HTML-фрагмент.
func (h *DashboardHandler) HandleRecentActivities(w http.ResponseWriter, r *http.Request) {
	logs, err := h.dashboard.RecentActivities(r.Context())
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.renderer.Activities(pages.ActivitiesData{
		Lang: i18n.LangFromContext(r.Context()),
		Logs: logs,
	}))
}

// HandleCharts — GET /api/charts/data. JSON с рядами графиков.
func (h *DashboardHandler) HandleCharts(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.Charts(r.Context())
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
