package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// ViewWriter — процедура записи через view: вместо самого view изменяет
// базовое отношение. Выбирается для каждого view при сборке сервисов.
type ViewWriter interface {
	SaveViaView(ctx context.Context, store repository.RecordStore, in Input) error
}

// FieldMapping — соответствие поля view колонке базового отношения.
type FieldMapping struct {
	From string
	To   string
}

// FieldCopyProxy копирует фиксированный набор полей view в строку
// базового отношения, найденную по ключевому полю.
type FieldCopyProxy struct {
	KeyField string
	Target   *record.Definition
	Mapping  []FieldMapping
}

// SaveViaView проверяет ключ, загружает целевую строку и копирует в неё
// переданные поля из Mapping в одной транзакции.
func (p *FieldCopyProxy) SaveViaView(ctx context.Context, store repository.RecordStore, in Input) error {
	key, _ := in.Get(p.KeyField)
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: поле %s обязательно", ErrValidation, p.KeyField)
	}

	var values []repository.ColumnValue
	for _, m := range p.Mapping {
		v, ok := in.Get(m.From)
		if !ok {
			continue
		}
		values = append(values, repository.ColumnValue{Name: m.To, Value: &v})
	}

	return store.InTx(ctx, func(repo repository.RecordRepository) error {
		if _, err := repo.Get(ctx, p.Target, key); err != nil {
			return fmt.Errorf("%s %s: %w", p.Target.TableName, key, err)
		}
		if len(values) == 0 {
			return nil
		}
		_, err := repo.Update(ctx, p.Target, key, values)
		return err
	})
}

// NewWorkSummaryProxy — запись через v_work_summary изменяет t_work.
func NewWorkSummaryProxy(tWork *record.Definition) *FieldCopyProxy {
	return &FieldCopyProxy{
		KeyField: "work_id",
		Target:   tWork,
		Mapping: []FieldMapping{
			{From: "title", To: "title"},
			{From: "slip_number", To: "slip_number"},
		},
	}
}

// NewUserActivitiesProxy — запись через v_user_activities изменяет m_users.
func NewUserActivitiesProxy(mUsers *record.Definition) *FieldCopyProxy {
	return &FieldCopyProxy{
		KeyField: "user_id",
		Target:   mUsers,
		Mapping: []FieldMapping{
			{From: "user_name", To: "lname"},
		},
	}
}

// viewProxyFactories — процедуры записи для известных view: имя view → (базовое отношение, конструктор).
var viewProxyFactories = map[string]struct {
	target string
	build  func(*record.Definition) *FieldCopyProxy
}{
	"v_work_summary":    {target: "t_work", build: NewWorkSummaryProxy},
	"v_user_activities": {target: "m_users", build: NewUserActivitiesProxy},
}

// ViewProxies строит процедуры записи для всех view реестра.
// Базовое отношение должно присутствовать в реестре.
func ViewProxies(reg *record.Registry) (map[string]ViewWriter, error) {
	out := make(map[string]ViewWriter)
	for _, def := range reg.All() {
		if !def.IsView {
			continue
		}
		f, ok := viewProxyFactories[def.TableName]
		if !ok {
			continue
		}
		target, ok := reg.Get(f.target)
		if !ok {
			return nil, fmt.Errorf("%s: базовое отношение %s отсутствует в реестре", def.TableName, f.target)
		}
		out[def.TableName] = f.build(target)
	}
	return out, nil
}
