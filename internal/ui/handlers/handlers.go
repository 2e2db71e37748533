// Пакет handlers — HTTP-обработчики страниц tnkp-admin.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	apierrors "github.com/bigkaa/tnkp-admin/internal/api/errors"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tnkp-admin/internal/ui/middleware"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

// base — общее для обработчиков страниц: рендеринг и ответы с ошибками.
type base struct {
	renderer *pages.Renderer
	logger   *slog.Logger
}

// page собирает общие данные страницы.
func (b *base) page(r *http.Request, title string, crumbs []pages.Breadcrumb, activeHref string) pages.Page {
	return pages.Page{
		Lang:        i18n.LangFromContext(r.Context()),
		Title:       title,
		User:        uimiddleware.UserFromContext(r.Context()),
		Breadcrumbs: crumbs,
		Nav:         b.renderer.Nav(),
		ActiveHref:  activeHref,
	}
}

// render отдаёт HTML-страницу со статусом status.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		b.logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// WriteError отвечает страницей ошибки. Сигнатура совпадает с uimiddleware.ErrorWriter.
func (b *base) WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	lang := i18n.LangFromContext(r.Context())
	title := i18n.Lookup(lang, "error.title")
	b.render(w, r, status, b.renderer.Error(pages.ErrorData{
		Page:    b.page(r, title, pages.PageBreadcrumbs(lang, title), ""),
		Status:  status,
		Message: message,
	}))
}

// writeServiceError переводит ошибку сервисного слоя в ответ страницы.
func (b *base) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lang := i18n.LangFromContext(r.Context())
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		http.Redirect(w, r, uimiddleware.LoginPath, http.StatusFound)
	case errors.Is(err, service.ErrNotFound):
		b.WriteError(w, r, http.StatusNotFound, i18n.Lookup(lang, "error.not_found"))
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, service.ErrValidation):
		b.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		b.logger.Error("Внутренняя ошибка",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		b.WriteError(w, r, http.StatusInternalServerError, i18n.Lookup(lang, "error.internal"))
	}
}

// writeAPIError — JSON-вариант writeServiceError для fetch-запросов.
func (b *base) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrBadRequest):
		apierrors.BadRequest(w, err.Error())
	default:
		b.logger.Error("Внутренняя ошибка",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, i18n.Lookup(i18n.LangFromContext(r.Context()), "error.internal"))
	}
}

// NewErrorWriter возвращает функцию ответа страницей ошибки для middleware.
func NewErrorWriter(renderer *pages.Renderer, logger *slog.Logger) uimiddleware.ErrorWriter {
	b := &base{renderer: renderer, logger: logger.With(slog.String("component", "ui.errors"))}
	return b.WriteError
}
