package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
)

// ActivityRepository — агрегаты для дашборда.
type ActivityRepository interface {
	// RecentLogs возвращает limit последних записей t_logs (по created, NULL в конце).
	RecentLogs(ctx context.Context, limit int) ([]model.LogEntry, error)
	// WorkClassCounts возвращает число записей t_work_sub по каждому классу работ.
	WorkClassCounts(ctx context.Context) ([]model.LabelCount, error)
	// MonthlyWorkCounts возвращает число записей t_work_sub по месяцам года (по urtime).
	// Индекс 0 — январь.
	MonthlyWorkCounts(ctx context.Context, year int) ([12]int64, error)
}

type activityRepo struct {
	db DBTX
}

// NewActivityRepository создаёт репозиторий агрегатов.
func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepo{db: db}
}

// RecentLogs возвращает последние записи журнала.
func (r *activityRepo) RecentLogs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	query := `
		SELECT id, COALESCE(user_name, ''), COALESCE(folder_name, ''),
		       COALESCE(work_content, ''), COALESCE(result, ''), created
		FROM t_logs
		ORDER BY created DESC NULLS LAST, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.ID, &e.UserName, &e.FolderName, &e.WorkContent, &e.Result, &e.Created); err != nil {
			return nil, fmt.Errorf("ошибка сканирования t_logs: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WorkClassCounts возвращает распределение работ по классам.
func (r *activityRepo) WorkClassCounts(ctx context.Context) ([]model.LabelCount, error) {
	query := `
		SELECT COALESCE(wc.name, ''), count(s.id)
		FROM m_workclass wc
		LEFT JOIN t_work_sub s ON s.workclass_id = wc.id
		GROUP BY wc.id, wc.name
		ORDER BY wc.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации по классам работ: %w", err)
	}
	defer rows.Close()

	var out []model.LabelCount
	for rows.Next() {
		var lc model.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования агрегата: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// MonthlyWorkCounts возвращает помесячные счётчики за год.
func (r *activityRepo) MonthlyWorkCounts(ctx context.Context, year int) ([12]int64, error) {
	var out [12]int64
	query := `
		SELECT EXTRACT(MONTH FROM urtime)::int, count(*)
		FROM t_work_sub
		WHERE urtime IS NOT NULL AND EXTRACT(YEAR FROM urtime)::int = $1
		GROUP BY 1`

	rows, err := r.db.Query(ctx, query, year)
	if err != nil {
		return out, fmt.Errorf("ошибка помесячной агрегации: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var n int64
		if err := rows.Scan(&month, &n); err != nil {
			return out, fmt.Errorf("ошибка сканирования агрегата: %w", err)
		}
		if month >= 1 && month <= 12 {
			out[month-1] = n
		}
	}
	return out, rows.Err()
}
