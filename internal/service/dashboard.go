// dashboard.go — данные дашборда: счётчики, лента активности, графики.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// RecentActivitiesLimit — количество записей в ленте активности.
const RecentActivitiesLimit = 5

// statTables — счётчик дашборда → отношение.
var statTables = map[string]string{
	"users":      "m_users",
	"works":      "t_work",
	"folders":    "m_folder",
	"activities": "t_logs",
}

// Series — подписи и значения одного графика.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// ChartData — данные графиков дашборда.
type ChartData struct {
	WorkClass   Series `json:"workClass"`
	MonthlyWork Series `json:"monthlyWork"`
}

// DashboardService — агрегаты для страниц дашборда.
type DashboardService struct {
	reg      *record.Registry
	store    repository.RecordStore
	activity repository.ActivityRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewDashboardService создаёт сервис дашборда.
func NewDashboardService(
	reg *record.Registry,
	store repository.RecordStore,
	activity repository.ActivityRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		reg:      reg,
		store:    store,
		activity: activity,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// Stat возвращает количество строк отношения, соответствующего счётчику name.
// Неизвестный счётчик — ErrNotFound.
func (s *DashboardService) Stat(ctx context.Context, name string) (int64, error) {
	table, ok := statTables[name]
	if !ok {
		return 0, fmt.Errorf("%w: счётчик %q", ErrNotFound, name)
	}
	def, ok := s.reg.Get(table)
	if !ok {
		return 0, fmt.Errorf("%w: отношение %s не зарегистрировано", ErrNotFound, table)
	}
	n, err := s.store.Count(ctx, def, "")
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта %s: %w", table, err)
	}
	return n, nil
}

// RecentActivities возвращает последние записи журнала.
func (s *DashboardService) RecentActivities(ctx context.Context) ([]model.LogEntry, error) {
	logs, err := s.activity.RecentLogs(ctx, RecentActivitiesLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	return logs, nil
}

// Charts возвращает распределение подзадач по классам работ
// и по месяцам текущего года.
func (s *DashboardService) Charts(ctx context.Context) (*ChartData, error) {
	classes, err := s.activity.WorkClassCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта по классам работ: %w", err)
	}
	months, err := s.activity.MonthlyWorkCounts(ctx, s.now().Year())
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта по месяцам: %w", err)
	}

	data := &ChartData{
		WorkClass: Series{
			Labels: make([]string, 0, len(classes)),
			Data:   make([]int64, 0, len(classes)),
		},
		MonthlyWork: Series{
			Labels: make([]string, 0, len(months)),
			Data:   make([]int64, 0, len(months)),
		},
	}
	for _, c := range classes {
		data.WorkClass.Labels = append(data.WorkClass.Labels, c.Label)
		data.WorkClass.Data = append(data.WorkClass.Data, c.Count)
	}
	for i, n := range months {
		data.MonthlyWork.Labels = append(data.MonthlyWork.Labels, fmt.Sprintf("%d月", i+1))
		data.MonthlyWork.Data = append(data.MonthlyWork.Data, n)
	}
	return data, nil
}
