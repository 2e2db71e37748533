package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/fieldmeta"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// memStore — RecordStore в памяти для unit-тестов.
// Integer-колонки хранятся как int64, остальные как string; NULL — nil.
type memStore struct {
	tables  map[string]map[int64]record.Row
	nextID  map[string]int64
	notNull map[string][]string
	// views — вычисление строк view по таблицам хранилища.
	views map[string]func(s *memStore) []record.Row
	// writes — журнал изменений: "<op> <table>".
	writes []string
}

func newMemStore() *memStore {
	return &memStore{
		tables:  make(map[string]map[int64]record.Row),
		nextID:  make(map[string]int64),
		notNull: make(map[string][]string),
		views:   make(map[string]func(s *memStore) []record.Row),
	}
}

func (s *memStore) rows(def *record.Definition) []record.Row {
	if fn, ok := s.views[def.TableName]; ok {
		return fn(s)
	}
	t := s.tables[def.TableName]
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]record.Row, 0, len(ids))
	for _, id := range ids {
		out = append(out, t[id])
	}
	return out
}

func (s *memStore) filter(def *record.Definition, search string) []record.Row {
	all := s.rows(def)
	if search == "" {
		return all
	}
	cols := def.SearchableColumns()
	if len(cols) == 0 {
		return all
	}
	needle := strings.ToLower(search)
	var out []record.Row
	for _, r := range all {
		for _, c := range cols {
			if strings.Contains(strings.ToLower(r.String(c)), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (s *memStore) List(_ context.Context, def *record.Definition, q repository.ListQuery) ([]record.Row, error) {
	rows := s.filter(def, q.Search)
	if q.Offset >= len(rows) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[q.Offset:end], nil
}

func (s *memStore) Count(_ context.Context, def *record.Definition, search string) (int64, error) {
	return int64(len(s.filter(def, search))), nil
}

func (s *memStore) find(def *record.Definition, id string) (record.Row, error) {
	for _, r := range s.rows(def) {
		if r.ID(def.PK()) == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Get(_ context.Context, def *record.Definition, id string) (record.Row, error) {
	r, err := s.find(def, id)
	if err != nil {
		return nil, err
	}
	out := make(record.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out, nil
}

func convert(def *record.Definition, cv repository.ColumnValue) (any, error) {
	f, ok := def.Field(cv.Name)
	if !ok {
		return nil, fmt.Errorf("%w: неизвестная колонка %q", repository.ErrInvalidData, cv.Name)
	}
	if cv.Value == nil {
		return nil, nil
	}
	if f.Type.Kind == record.KindInteger || f.Type.Kind == record.KindBigInteger {
		n, err := strconv.ParseInt(*cv.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid input syntax for type integer: %q", repository.ErrInvalidData, *cv.Value)
		}
		return n, nil
	}
	return *cv.Value, nil
}

func (s *memStore) checkNotNull(def *record.Definition, r record.Row) error {
	for _, c := range s.notNull[def.TableName] {
		if r[c] == nil {
			return fmt.Errorf("%w: null value in column %q violates not-null constraint", repository.ErrInvalidData, c)
		}
	}
	return nil
}

func (s *memStore) Insert(_ context.Context, def *record.Definition, values []repository.ColumnValue) (record.Row, error) {
	if _, ok := s.views[def.TableName]; ok {
		return nil, fmt.Errorf("запись во view %s", def.TableName)
	}
	r := make(record.Row, len(def.Fields))
	for _, f := range def.Fields {
		r[f.Name] = nil
	}
	for _, cv := range values {
		v, err := convert(def, cv)
		if err != nil {
			return nil, err
		}
		r[cv.Name] = v
	}
	if err := s.checkNotNull(def, r); err != nil {
		return nil, err
	}
	s.nextID[def.TableName]++
	id := s.nextID[def.TableName]
	r[def.PK()] = id
	if s.tables[def.TableName] == nil {
		s.tables[def.TableName] = make(map[int64]record.Row)
	}
	s.tables[def.TableName][id] = r
	s.writes = append(s.writes, "insert "+def.TableName)
	return r, nil
}

func (s *memStore) Update(ctx context.Context, def *record.Definition, id string, values []repository.ColumnValue) (record.Row, error) {
	if _, ok := s.views[def.TableName]; ok {
		return nil, fmt.Errorf("запись во view %s", def.TableName)
	}
	r, err := s.find(def, id)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return s.Get(ctx, def, id)
	}
	next := make(record.Row, len(r))
	for k, v := range r {
		next[k] = v
	}
	for _, cv := range values {
		v, err := convert(def, cv)
		if err != nil {
			return nil, err
		}
		next[cv.Name] = v
	}
	if err := s.checkNotNull(def, next); err != nil {
		return nil, err
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	s.tables[def.TableName][n] = next
	s.writes = append(s.writes, "update "+def.TableName)
	return next, nil
}

func (s *memStore) Delete(_ context.Context, def *record.Definition, id string) error {
	if _, err := s.find(def, id); err != nil {
		return err
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	delete(s.tables[def.TableName], n)
	s.writes = append(s.writes, "delete "+def.TableName)
	return nil
}

// InTx восстанавливает снимок таблиц, если fn вернула ошибку.
func (s *memStore) InTx(_ context.Context, fn func(repository.RecordRepository) error) error {
	snapshot := make(map[string]map[int64]record.Row, len(s.tables))
	for name, t := range s.tables {
		c := make(map[int64]record.Row, len(t))
		for id, r := range t {
			c[id] = r
		}
		snapshot[name] = c
	}
	writes := len(s.writes)
	if err := fn(s); err != nil {
		s.tables = snapshot
		s.writes = s.writes[:writes]
		return err
	}
	return nil
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDefinition(t *testing.T, table string) *record.Definition {
	t.Helper()
	def, err := fieldmeta.NewLoader(fieldmeta.EmbeddedFS()).GetDefinition(table)
	if err != nil {
		t.Fatalf("GetDefinition(%s): %v", table, err)
	}
	return def
}

func testPaging() Paging {
	return Paging{DefaultPerPage: 10, MaxPerPage: 100}
}

func newTestService(t *testing.T, store *memStore, table string) *RecordService {
	t.Helper()
	svc, err := NewRecordService(testDefinition(t, table), store, nil, testPaging(), testLogger())
	if err != nil {
		t.Fatalf("NewRecordService(%s): %v", table, err)
	}
	return svc
}
