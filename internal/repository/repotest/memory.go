// Пакет repotest — хранилища в памяти для тестов обработчиков и сервера.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// Store — RecordStore в памяти. Первичный ключ назначается последовательно (int64),
// остальные значения хранятся строками; NULL — nil.
type Store struct {
	mu     sync.Mutex
	tables map[string]map[int64]record.Row
	nextID map[string]int64
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]map[int64]record.Row),
		nextID: make(map[string]int64),
	}
}

// Rows возвращает строки таблицы в порядке вставки.
func (s *Store) Rows(table string) []record.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows(table)
}

func (s *Store) rows(table string) []record.Row {
	t := s.tables[table]
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

func (s *Store) filter(def *record.Definition, search string) []record.Row {
	all := s.rows(def.TableName)
	cols := def.SearchableColumns()
	if search == "" || len(cols) == 0 {
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

// List возвращает страницу строк.
func (s *Store) List(_ context.Context, def *record.Definition, q repository.ListQuery) ([]record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.filter(def, q.Search)
	if q.Offset >= len(rows) {
		return nil, nil
	}
	end := min(q.Offset+q.Limit, len(rows))
	return rows[q.Offset:end], nil
}

// Count возвращает число строк, удовлетворяющих поиску.
func (s *Store) Count(_ context.Context, def *record.Definition, search string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filter(def, search))), nil
}

func (s *Store) key(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, repository.ErrNotFound
	}
	return n, nil
}

// Get возвращает копию строки по ключу.
func (s *Store) Get(_ context.Context, def *record.Definition, id string) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.key(id)
	if err != nil {
		return nil, err
	}
	r, ok := s.tables[def.TableName][n]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRow(r), nil
}

// Insert добавляет строку; отсутствующие колонки — NULL.
func (s *Store) Insert(_ context.Context, def *record.Definition, values []repository.ColumnValue) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make(record.Row, len(def.Fields))
	for _, f := range def.Fields {
		r[f.Name] = nil
	}
	if err := apply(def, r, values); err != nil {
		return nil, err
	}
	s.nextID[def.TableName]++
	id := s.nextID[def.TableName]
	r[def.PK()] = id
	if s.tables[def.TableName] == nil {
		s.tables[def.TableName] = make(map[int64]record.Row)
	}
	s.tables[def.TableName][id] = r
	return copyRow(r), nil
}

// Update перезаписывает указанные колонки.
func (s *Store) Update(_ context.Context, def *record.Definition, id string, values []repository.ColumnValue) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.key(id)
	if err != nil {
		return nil, err
	}
	r, ok := s.tables[def.TableName][n]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := copyRow(r)
	if err := apply(def, next, values); err != nil {
		return nil, err
	}
	s.tables[def.TableName][n] = next
	return copyRow(next), nil
}

// Delete удаляет строку.
func (s *Store) Delete(_ context.Context, def *record.Definition, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.key(id)
	if err != nil {
		return err
	}
	if _, ok := s.tables[def.TableName][n]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tables[def.TableName], n)
	return nil
}

// InTx выполняет fn без изоляции: откат не поддерживается.
func (s *Store) InTx(_ context.Context, fn func(repository.RecordRepository) error) error {
	return fn(s)
}

func apply(def *record.Definition, r record.Row, values []repository.ColumnValue) error {
	for _, cv := range values {
		if !def.HasField(cv.Name) {
			return fmt.Errorf("%w: неизвестная колонка %q", repository.ErrInvalidData, cv.Name)
		}
		if cv.Value == nil {
			r[cv.Name] = nil
			continue
		}
		r[cv.Name] = *cv.Value
	}
	return nil
}

func copyRow(r record.Row) record.Row {
	out := make(record.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Users — UserRepository в памяти.
type Users struct {
	byID map[int64]*model.User
}

// NewUsers создаёт репозиторий с пользователями users.
func NewUsers(users ...*model.User) *Users {
	u := &Users{byID: make(map[int64]*model.User, len(users))}
	for _, user := range users {
		u.byID[user.ID] = user
	}
	return u
}

// GetByID возвращает пользователя по id.
func (u *Users) GetByID(_ context.Context, id int64) (*model.User, error) {
	user, ok := u.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *user
	return &c, nil
}

// GetByLoginID возвращает пользователя по логину.
func (u *Users) GetByLoginID(_ context.Context, loginID string) (*model.User, error) {
	for _, user := range u.byID {
		if user.LoginID == loginID {
			c := *user
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Activity — ActivityRepository с заранее заданными данными.
type Activity struct {
	Logs      []model.LogEntry
	WorkClass []model.LabelCount
	Monthly   [12]int64
	LastYear  int
}

// RecentLogs возвращает первые limit записей Logs.
func (a *Activity) RecentLogs(_ context.Context, limit int) ([]model.LogEntry, error) {
	if limit < len(a.Logs) {
		return a.Logs[:limit], nil
	}
	return a.Logs, nil
}

// WorkClassCounts возвращает WorkClass.
func (a *Activity) WorkClassCounts(_ context.Context) ([]model.LabelCount, error) {
	return a.WorkClass, nil
}

// MonthlyWorkCounts возвращает Monthly и запоминает запрошенный год.
func (a *Activity) MonthlyWorkCounts(_ context.Context, year int) ([12]int64, error) {
	a.LastYear = year
	return a.Monthly, nil
}
