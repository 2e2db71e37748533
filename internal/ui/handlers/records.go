// records.go — CRUD-страницы одного отношения.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

// RecordsHandler — обработчики маршрутов /{category}/{table}.
type RecordsHandler struct {
	base
	svc *service.RecordService
	def *record.Definition
}

// NewRecordsHandler создаёт обработчик для сервиса отношения.
func NewRecordsHandler(svc *service.RecordService, renderer *pages.Renderer, logger *slog.Logger) *RecordsHandler {
	def := svc.Definition()
	return &RecordsHandler{
		base: base{
			renderer: renderer,
			logger: logger.With(
				slog.String("component", "ui.records"),
				slog.String("table", def.TableName),
			),
		},
		svc: svc,
		def: def,
	}
}

// Routes возвращает маршруты отношения для монтирования по def.Prefix().
// listGate защищает список, gate — остальные маршруты; nil — без проверки.
func (h *RecordsHandler) Routes(listGate, gate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if listGate != nil {
			r.Use(listGate)
		}
		r.Get("/", h.HandleList)
	})
	r.Group(func(r chi.Router) {
		if gate != nil {
			r.Use(gate)
		}
		r.Get("/new", h.HandleNew)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleDetail)
		r.Get("/{id}/edit", h.HandleEdit)
		r.Post("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
	return r
}

// Prefix — URL-префикс маршрутов отношения.
func (h *RecordsHandler) Prefix() string {
	return h.def.Prefix()
}

// listURL — адрес списка, куда ведут redirect после записи.
func (h *RecordsHandler) listURL() string {
	return h.def.Prefix() + "/"
}

// HandleList — GET /{cat}/{table}/?page=&per_page=&q=
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.ListParams{
		Page:    queryInt(q.Get("page")),
		PerPage: queryInt(q.Get("per_page")),
		Query:   q.Get("q"),
	}

	list, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lang := i18n.LangFromContext(r.Context())
	h.render(w, r, http.StatusOK, h.renderer.List(pages.ListData{
		Page: h.page(r, pages.RecordTitle(lang, h.def, pages.ActionList),
			pages.RecordBreadcrumbs(lang, h.def, pages.ActionList), h.listURL()),
		Def:  h.def,
		List: list,
	}))
}

// HandleNew — GET /{cat}/{table}/new
func (h *RecordsHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, true, "")
}

// HandleCreate — POST /{cat}/{table}/
func (h *RecordsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	row, err := h.svc.Create(r.Context(), in)
	if err != nil {
		if isInputError(err) {
			h.renderForm(w, r, http.StatusBadRequest, inputRow(in), true, err.Error())
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("Запись создана", slog.String("id", row.ID(h.def.PK())))
	http.Redirect(w, r, h.listURL(), http.StatusSeeOther)
}

// HandleDetail — GET /{cat}/{table}/{id}
func (h *RecordsHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Read(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lang := i18n.LangFromContext(r.Context())
	h.render(w, r, http.StatusOK, h.renderer.Detail(pages.DetailData{
		Page: h.page(r, pages.RecordTitle(lang, h.def, pages.ActionDetail),
			pages.RecordBreadcrumbs(lang, h.def, pages.ActionDetail), h.listURL()),
		Def:  h.def,
		Item: item,
	}))
}

// HandleEdit — GET /{cat}/{table}/{id}/edit
func (h *RecordsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.EditForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, item.Row, false, "")
}

// HandleUpdate — POST /{cat}/{table}/{id}
func (h *RecordsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.svc.Update(r.Context(), id, in); err != nil {
		if isInputError(err) {
			row := inputRow(in)
			row[h.def.PK()] = id
			h.renderForm(w, r, http.StatusBadRequest, row, false, err.Error())
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("Запись обновлена", slog.String("id", id))
	http.Redirect(w, r, h.listURL(), http.StatusSeeOther)
}

// HandleDelete — DELETE /{cat}/{table}/{id}. Отвечает JSON для fetch-запроса.
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeAPIError(w, r, err)
		return
	}

	h.logger.Info("Запись удалена", slog.String("id", id))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": i18n.Lookup(i18n.LangFromContext(r.Context()), "message.deleted"),
	})
}

// renderForm отдаёт форму создания (isNew) или редактирования row.
func (h *RecordsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, row record.Row, isNew bool, errMsg string) {
	lang := i18n.LangFromContext(r.Context())
	action, fields := h.listURL(), h.svc.NewForm()
	crumb := pages.ActionNew
	if !isNew {
		crumb = pages.ActionEdit
		action = h.def.Prefix() + "/" + row.ID(h.def.PK())
	}

	h.render(w, r, status, h.renderer.Form(pages.FormData{
		Page: h.page(r, pages.RecordTitle(lang, h.def, crumb),
			pages.RecordBreadcrumbs(lang, h.def, crumb), h.listURL()),
		Def:    h.def,
		Fields: fields,
		Row:    row,
		IsNew:  isNew,
		Action: action,
		Error:  errMsg,
	}))
}

func (h *RecordsHandler) parseForm(w http.ResponseWriter, r *http.Request) (service.Input, bool) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, http.StatusBadRequest, err.Error())
		return service.Input{}, false
	}
	return service.InputFromForm(r.PostForm), true
}

// isInputError — ошибка, которую пользователь исправляет в форме.
func isInputError(err error) bool {
	return errors.Is(err, service.ErrBadRequest) || errors.Is(err, service.ErrValidation)
}

// inputRow — введённые значения для повторного показа формы.
func inputRow(in service.Input) record.Row {
	row := make(record.Row, in.Len())
	for _, k := range in.Keys() {
		v, _ := in.Get(k)
		row[k] = v
	}
	return row
}

// queryInt разбирает параметр запроса; некорректное значение — 0.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
