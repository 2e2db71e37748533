// Пакет codegen — генерация описаний отношений, DDL, шаблонов-заглушек
// и файла маршрутов из декларативного каталога таблиц.
package codegen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
)

// Catalog — каталог таблиц и view.
type Catalog struct {
	Tables []TableSpec `yaml:"tables"`
	Views  []TableSpec `yaml:"views"`
}

// TableSpec — описание одной таблицы или view в каталоге.
type TableSpec struct {
	Name        string      `yaml:"name"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Category    string      `yaml:"category"`
	Fields      []FieldSpec `yaml:"fields"`

	// isView выставляется при загрузке: запись из секции views.
	isView bool
}

// IsView — запись из секции views.
func (t TableSpec) IsView() bool {
	return t.isView
}

// FieldSpec — описание поля в каталоге.
type FieldSpec struct {
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Label       string          `yaml:"label"`
	Required    *bool           `yaml:"required"`
	Default     any             `yaml:"default"`
	PrimaryKey  bool            `yaml:"primary_key"`
	WidgetType  string          `yaml:"widget_type"`
	Choices     []record.Choice `yaml:"choices"`
	Order       *int            `yaml:"order"`
	ListDisplay *bool           `yaml:"list_display"`
	// NotNull — ограничение NOT NULL в DDL (required само по себе его не добавляет).
	NotNull bool `yaml:"not_null"`
	// Unique — ограничение UNIQUE в DDL.
	Unique bool `yaml:"unique"`
	// SQLDefault — выражение DEFAULT в DDL (например now()).
	SQLDefault string `yaml:"sql_default"`
}

// IsRequired — поле обязательно; для таблиц по умолчанию true.
func (f FieldSpec) IsRequired(isView bool) bool {
	if isView {
		return false
	}
	if f.Required == nil {
		return true
	}
	return *f.Required
}

// LoadCatalog читает и валидирует каталог из YAML-файла.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog разбирает и валидирует каталог.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	for i := range cat.Views {
		cat.Views[i].isView = true
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// All возвращает таблицы, затем view.
func (c *Catalog) All() []TableSpec {
	out := make([]TableSpec, 0, len(c.Tables)+len(c.Views))
	out = append(out, c.Tables...)
	return append(out, c.Views...)
}

// Validate проверяет имена, типы и первичные ключи.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, t := range c.All() {
		if t.Name == "" {
			return fmt.Errorf("каталог: таблица без имени")
		}
		if seen[t.Name] {
			return fmt.Errorf("каталог: дублирующаяся таблица %q", t.Name)
		}
		seen[t.Name] = true

		if len(t.Fields) == 0 {
			return fmt.Errorf("каталог: %s: нет полей", t.Name)
		}

		pks := 0
		fieldSeen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if f.Name == "" {
				return fmt.Errorf("каталог: %s: поле без имени", t.Name)
			}
			if fieldSeen[f.Name] {
				return fmt.Errorf("каталог: %s: дублирующееся поле %q", t.Name, f.Name)
			}
			fieldSeen[f.Name] = true
			if _, err := record.ParseFieldType(f.Type); err != nil {
				return fmt.Errorf("каталог: %s.%s: %w", t.Name, f.Name, err)
			}
			if f.PrimaryKey {
				pks++
			}
		}
		if pks != 1 {
			return fmt.Errorf("каталог: %s: ожидался ровно один primary_key, найдено %d", t.Name, pks)
		}
	}
	return nil
}

// PrimaryKey возвращает имя поля первичного ключа.
func (t TableSpec) PrimaryKey() string {
	for _, f := range t.Fields {
		if f.PrimaryKey {
			return f.Name
		}
	}
	return record.DefaultPrimaryKey
}

// ModelName преобразует имя таблицы в имя модели: m_customers → MCustomers.
func ModelName(table string) string {
	var b strings.Builder
	for _, part := range strings.Split(table, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// HTMLType вычисляет HTML-виджет поля: widget_type, затем по типу хранения.
// DateTime проверяется раньше Date, иначе подстрока "Date" перехватывает DateTime.
func HTMLType(f FieldSpec) string {
	if f.WidgetType != "" {
		return f.WidgetType
	}
	switch {
	case strings.Contains(f.Type, "Integer"), strings.Contains(f.Type, "Float"):
		return "number"
	case strings.Contains(f.Type, "DateTime"):
		return "datetime-local"
	case strings.Contains(f.Type, "Date"):
		return "date"
	case strings.Contains(f.Type, "Boolean"):
		return "checkbox"
	case strings.Contains(f.Type, "Text"), len([]rune(f.Label)) > 100:
		return "textarea"
	default:
		return "text"
	}
}
