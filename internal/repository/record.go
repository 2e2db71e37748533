package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
)

// ListQuery — параметры выборки страницы.
type ListQuery struct {
	Offset int
	Limit  int
	// Search — подстрока для поиска по колонкам String(n); пустая — без фильтра.
	Search string
}

// ColumnValue — значение колонки из формы. Value == nil записывается как NULL.
type ColumnValue struct {
	Name  string
	Value *string
}

// RecordRepository — операции над отношением, описанным record.Definition.
// Значения приходят строками и приводятся к типу колонки на стороне PostgreSQL.
type RecordRepository interface {
	// List возвращает страницу строк в естественном порядке хранилища.
	List(ctx context.Context, def *record.Definition, q ListQuery) ([]record.Row, error)
	// Count возвращает число строк, удовлетворяющих поиску.
	Count(ctx context.Context, def *record.Definition, search string) (int64, error)
	// Get возвращает строку по первичному ключу. Если не найдена — ErrNotFound.
	Get(ctx context.Context, def *record.Definition, id string) (record.Row, error)
	// Insert вставляет строку и возвращает её с заполненными значениями по умолчанию.
	Insert(ctx context.Context, def *record.Definition, values []ColumnValue) (record.Row, error)
	// Update перезаписывает указанные колонки. Если строка не найдена — ErrNotFound.
	Update(ctx context.Context, def *record.Definition, id string, values []ColumnValue) (record.Row, error)
	// Delete удаляет строку. Если строка не найдена — ErrNotFound.
	Delete(ctx context.Context, def *record.Definition, id string) error
}

// recordRepo — реализация RecordRepository на динамическом SQL.
type recordRepo struct {
	db DBTX
}

// NewRecordRepository создаёт репозиторий записей.
func NewRecordRepository(db DBTX) RecordRepository {
	return &recordRepo{db: db}
}

// List возвращает страницу строк.
func (r *recordRepo) List(ctx context.Context, def *record.Definition, q ListQuery) ([]record.Row, error) {
	query, args := buildSelect(def, q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка %s: %w", def.TableName, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования %s: %w", def.TableName, err)
	}
	out := make([]record.Row, len(maps))
	for i, m := range maps {
		out[i] = record.Row(m)
	}
	return out, nil
}

// Count возвращает число строк.
func (r *recordRepo) Count(ctx context.Context, def *record.Definition, search string) (int64, error) {
	query, args := buildCount(def, search)
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта %s: %w", def.TableName, err)
	}
	return n, nil
}

// Get возвращает строку по первичному ключу.
func (r *recordRepo) Get(ctx context.Context, def *record.Definition, id string) (record.Row, error) {
	if !validKey(def, id) {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		selectList(def), quoteIdent(def.TableName), keyCondition(def, 1))

	return r.one(ctx, def, query, id)
}

// Insert вставляет строку.
func (r *recordRepo) Insert(ctx context.Context, def *record.Definition, values []ColumnValue) (record.Row, error) {
	query, args, err := buildInsert(def, values)
	if err != nil {
		return nil, err
	}
	row, err := r.one(ctx, def, query, args...)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return row, nil
}

// Update перезаписывает колонки строки id.
func (r *recordRepo) Update(ctx context.Context, def *record.Definition, id string, values []ColumnValue) (record.Row, error) {
	if !validKey(def, id) {
		return nil, ErrNotFound
	}
	if len(values) == 0 {
		return r.Get(ctx, def, id)
	}
	query, args, err := buildUpdate(def, id, values)
	if err != nil {
		return nil, err
	}
	row, err := r.one(ctx, def, query, args...)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return row, nil
}

// Delete удаляет строку id.
func (r *recordRepo) Delete(ctx context.Context, def *record.Definition, id string) error {
	if !validKey(def, id) {
		return ErrNotFound
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(def.TableName), keyCondition(def, 1))

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления %s[%s]: %w", def.TableName, id, classifyWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// one выполняет запрос, возвращающий ровно одну строку.
func (r *recordRepo) one(ctx context.Context, def *record.Definition, query string, args ...any) (record.Row, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record.Row(m), nil
}

// --- построение SQL ---

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func selectList(def *record.Definition) string {
	cols := def.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// castParam — параметр $n, приведённый из text к типу поля.
func castParam(f record.Field, n int) string {
	return fmt.Sprintf("CAST($%d::text AS %s)", n, f.Type.SQLType())
}

func keyCondition(def *record.Definition, n int) string {
	pk, _ := def.Field(def.PK())
	return quoteIdent(pk.Name) + " = " + castParam(pk, n)
}

// validKey отсекает ключи, которые не приводятся к типу колонки ключа
// (integer — int4, bigint — int8).
func validKey(def *record.Definition, id string) bool {
	pk, ok := def.Field(def.PK())
	if !ok {
		return false
	}
	switch pk.Type.Kind {
	case record.KindInteger:
		_, err := strconv.ParseInt(id, 10, 32)
		return err == nil
	case record.KindBigInteger:
		_, err := strconv.ParseInt(id, 10, 64)
		return err == nil
	default:
		return id != ""
	}
}

// escapeLike экранирует метасимволы LIKE (экранирующий символ — обратная косая черта).
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// searchCondition строит условие поиска по колонкам String(n), объединённым через OR.
// Если искать не по чему, условие пустое.
func searchCondition(def *record.Definition, search string, n int) (string, []any) {
	cols := def.SearchableColumns()
	if search == "" || len(cols) == 0 {
		return "", nil
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", quoteIdent(c), n)
	}
	return "(" + strings.Join(parts, " OR ") + ")", []any{"%" + escapeLike(search) + "%"}
}

func buildSelect(def *record.Definition, q ListQuery) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList(def), quoteIdent(def.TableName))

	cond, args := searchCondition(def, q.Search, 1)
	if cond != "" {
		b.WriteString(" WHERE " + cond)
	}
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)
	return b.String(), args
}

func buildCount(def *record.Definition, search string) (string, []any) {
	query := "SELECT count(*) FROM " + quoteIdent(def.TableName)
	cond, args := searchCondition(def, search, 1)
	if cond != "" {
		query += " WHERE " + cond
	}
	return query, args
}

func buildInsert(def *record.Definition, values []ColumnValue) (string, []any, error) {
	table := quoteIdent(def.TableName)
	if len(values) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", table, selectList(def)), nil, nil
	}

	cols := make([]string, len(values))
	params := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		f, ok := def.Field(v.Name)
		if !ok {
			return "", nil, fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidData, v.Name)
		}
		cols[i] = quoteIdent(f.Name)
		params[i] = castParam(f, i+1)
		args[i] = v.Value
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(cols, ", "), strings.Join(params, ", "), selectList(def))
	return query, args, nil
}

func buildUpdate(def *record.Definition, id string, values []ColumnValue) (string, []any, error) {
	sets := make([]string, len(values))
	args := make([]any, 0, len(values)+1)
	for i, v := range values {
		f, ok := def.Field(v.Name)
		if !ok {
			return "", nil, fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidData, v.Name)
		}
		sets[i] = quoteIdent(f.Name) + " = " + castParam(f, i+1)
		args = append(args, v.Value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		quoteIdent(def.TableName), strings.Join(sets, ", "),
		keyCondition(def, len(values)+1), selectList(def))
	return query, args, nil
}
