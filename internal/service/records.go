// records.go — обобщённый CRUD-сервис для одного отношения.
// Все операции строятся по record.Definition: список с поиском и пагинацией,
// формы, создание, чтение, обновление, удаление.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// recordOperationsTotal — количество операций над записями по таблице, операции и результату.
var recordOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tnkp_record_operations_total",
		Help: "Total number of record operations.",
	},
	[]string{"table", "op", "result"},
)

// Paging — ограничения размера страницы списка.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

// normalize приводит номер страницы и размер к допустимым значениям.
func (p Paging) normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	def := p.DefaultPerPage
	if def < 1 {
		def = 10
	}
	if perPage < 1 {
		perPage = def
	}
	if p.MaxPerPage > 0 && perPage > p.MaxPerPage {
		perPage = p.MaxPerPage
	}
	// (page-1)*perPage не должно переполнять int.
	if page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}
	return page, perPage
}

// ListParams — параметры запроса списка.
type ListParams struct {
	Page    int
	PerPage int
	Query   string
}

// ListResult — страница списка.
type ListResult struct {
	Rows       []record.Row
	Fields     []record.Field
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
	Query      string
}

// HasPrev — есть ли предыдущая страница.
func (r *ListResult) HasPrev() bool { return r.Page > 1 }

// HasNext — есть ли следующая страница.
func (r *ListResult) HasNext() bool { return r.Page < r.TotalPages }

// Item — одна запись вместе с описанием полей для формы или детальной страницы.
type Item struct {
	Row    record.Row
	Fields []record.Field
}

// RecordService — CRUD-операции над одним отношением.
type RecordService struct {
	def        *record.Definition
	listFields []record.Field
	store      repository.RecordStore
	proxy      ViewWriter
	paging     Paging
	logger     *slog.Logger
}

// NewRecordService создаёт сервис для отношения def.
// Для view обязателен proxy, для таблицы proxy недопустим.
func NewRecordService(
	def *record.Definition,
	store repository.RecordStore,
	proxy ViewWriter,
	paging Paging,
	logger *slog.Logger,
) (*RecordService, error) {
	if def == nil {
		return nil, fmt.Errorf("описание отношения не задано")
	}
	if def.IsView && proxy == nil {
		return nil, fmt.Errorf("%s: для view не задана процедура записи", def.TableName)
	}
	if !def.IsView && proxy != nil {
		return nil, fmt.Errorf("%s: процедура записи допустима только для view", def.TableName)
	}

	var listFields []record.Field
	for _, f := range def.Fields {
		if f.ShownInList() {
			listFields = append(listFields, f)
		}
	}

	return &RecordService{
		def:        def,
		listFields: listFields,
		store:      store,
		proxy:      proxy,
		paging:     paging,
		logger: logger.With(
			slog.String("component", "record_service"),
			slog.String("table", def.TableName),
		),
	}, nil
}

// NewRecordServices создаёт сервисы для всех отношений реестра.
// View без процедуры записи в proxies — ошибка.
func NewRecordServices(
	reg *record.Registry,
	store repository.RecordStore,
	proxies map[string]ViewWriter,
	paging Paging,
	logger *slog.Logger,
) ([]*RecordService, error) {
	out := make([]*RecordService, 0, reg.Len())
	for _, def := range reg.All() {
		var proxy ViewWriter
		if def.IsView {
			proxy = proxies[def.TableName]
		}
		svc, err := NewRecordService(def, store, proxy, paging, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

// Definition возвращает описание отношения.
func (s *RecordService) Definition() *record.Definition {
	return s.def
}

// List возвращает страницу записей и общее количество с учётом поиска.
func (s *RecordService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page, perPage := s.paging.normalize(params.Page, params.PerPage)

	total, err := s.store.Count(ctx, s.def, params.Query)
	if err != nil {
		return nil, s.fail("list", err)
	}
	rows, err := s.store.List(ctx, s.def, repository.ListQuery{
		Offset: (page - 1) * perPage,
		Limit:  perPage,
		Search: params.Query,
	})
	if err != nil {
		return nil, s.fail("list", err)
	}
	s.observe("list", nil)

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	return &ListResult{
		Rows:       rows,
		Fields:     s.listFields,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		Query:      params.Query,
	}, nil
}

// NewForm возвращает упорядоченный список полей для пустой формы.
func (s *RecordService) NewForm() []record.Field {
	return s.def.FieldsCopy()
}

// EditForm возвращает запись для формы редактирования.
func (s *RecordService) EditForm(ctx context.Context, id string) (*Item, error) {
	row, err := s.store.Get(ctx, s.def, id)
	if err != nil {
		return nil, s.fail("edit_form", err)
	}
	s.observe("edit_form", nil)
	return &Item{Row: row, Fields: s.def.FieldsCopy()}, nil
}

// Read возвращает запись для детальной страницы; все поля помечены только для чтения.
func (s *RecordService) Read(ctx context.Context, id string) (*Item, error) {
	row, err := s.store.Get(ctx, s.def, id)
	if err != nil {
		return nil, s.fail("read", err)
	}
	fields := s.def.FieldsCopy()
	for i := range fields {
		fields[i].ReadOnly = true
	}
	s.observe("read", nil)
	return &Item{Row: row, Fields: fields}, nil
}

// Create создаёт запись. Для view запись передаётся процедуре записи,
// возвращаемая строка при этом nil.
// Пустые значения и первичный ключ отбрасываются, неизвестное поле — ErrBadRequest.
func (s *RecordService) Create(ctx context.Context, in Input) (record.Row, error) {
	if s.def.IsView {
		if err := s.proxy.SaveViaView(ctx, s.store, in); err != nil {
			return nil, s.fail("create", err)
		}
		s.observe("create", nil)
		return nil, nil
	}

	pk := s.def.PK()
	var values []repository.ColumnValue
	for _, name := range in.Keys() {
		v, _ := in.Get(name)
		if !s.def.HasField(name) {
			return nil, s.fail("create", fmt.Errorf("%w: неизвестное поле %q", ErrBadRequest, name))
		}
		if name == pk || v == "" {
			continue
		}
		values = append(values, repository.ColumnValue{Name: name, Value: &v})
	}

	var created record.Row
	err := s.store.InTx(ctx, func(repo repository.RecordRepository) error {
		var err error
		created, err = repo.Insert(ctx, s.def, values)
		return err
	})
	if err != nil {
		return nil, s.fail("create", err)
	}

	s.observe("create", nil)
	s.logger.Info("Запись создана", slog.String("id", created.ID(pk)))
	return created, nil
}

// Update обновляет запись id. Переданные известные поля перезаписываются,
// пустая строка записывается в текстовые колонки как есть, в остальные как NULL.
// Неизвестные поля игнорируются.
func (s *RecordService) Update(ctx context.Context, id string, in Input) (record.Row, error) {
	if _, err := s.store.Get(ctx, s.def, id); err != nil {
		return nil, s.fail("update", err)
	}

	if s.def.IsView {
		// Ключ из URL используется, если форма его не передала.
		if v, _ := in.Get(s.def.PK()); v == "" {
			in = in.with(s.def.PK(), id)
		}
		if err := s.proxy.SaveViaView(ctx, s.store, in); err != nil {
			return nil, s.fail("update", err)
		}
		s.observe("update", nil)
		return nil, nil
	}

	pk := s.def.PK()
	var values []repository.ColumnValue
	for _, name := range in.Keys() {
		f, ok := s.def.Field(name)
		if !ok || name == pk {
			continue
		}
		v, _ := in.Get(name)
		cv := repository.ColumnValue{Name: name, Value: &v}
		if v == "" && !f.Type.IsTextual() {
			cv.Value = nil
		}
		values = append(values, cv)
	}

	var updated record.Row
	err := s.store.InTx(ctx, func(repo repository.RecordRepository) error {
		var err error
		updated, err = repo.Update(ctx, s.def, id, values)
		return err
	})
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.observe("update", nil)
	s.logger.Info("Запись обновлена", slog.String("id", id), slog.Int("fields", len(values)))
	return updated, nil
}

// Delete удаляет запись id без проверки зависимых записей.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	if s.def.IsView {
		return s.fail("delete", fmt.Errorf("%w: удаление из view %s не поддерживается", ErrBadRequest, s.def.TableName))
	}

	err := s.store.InTx(ctx, func(repo repository.RecordRepository) error {
		return repo.Delete(ctx, s.def, id)
	})
	if err != nil {
		return s.fail("delete", err)
	}

	s.observe("delete", nil)
	s.logger.Info("Запись удалена", slog.String("id", id))
	return nil
}

// fail переводит ошибку хранилища в ошибку сервиса и учитывает её в метриках.
func (s *RecordService) fail(op string, err error) error {
	err = mapStoreError(err)
	s.observe(op, err)
	if resultLabel(err) == "error" {
		s.logger.Error("Ошибка операции над записью", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}

func (s *RecordService) observe(op string, err error) {
	recordOperationsTotal.WithLabelValues(s.def.TableName, op, resultLabel(err)).Inc()
}

// mapStoreError переводит ошибки repository в ошибки сервисного слоя.
// Ошибки данных и ограничений БД становятся ErrBadRequest с исходным сообщением.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, repository.ErrInvalidData), errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrBadRequest, err) //nolint:errorlint // намеренный двойной wrap
	default:
		return err
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return "bad_request"
	default:
		return "error"
	}
}
