// Пакет record — статическое описание отношения (таблицы или view),
// по которому строятся CRUD-операции, формы и маршруты.
package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultOrder — порядок отображения поля, если order не задан в конфигурации.
const DefaultOrder = 100

// DefaultPrimaryKey — имя первичного ключа по соглашению.
const DefaultPrimaryKey = "id"

// Kind — базовый вид типа хранения.
type Kind string

// Поддерживаемые виды типов хранения.
const (
	KindString     Kind = "String"
	KindText       Kind = "Text"
	KindInteger    Kind = "Integer"
	KindBigInteger Kind = "BigInteger"
	KindBoolean    Kind = "Boolean"
	KindDate       Kind = "Date"
	KindDateTime   Kind = "DateTime"
	KindFloat      Kind = "Float"
)

// FieldType — разобранный тип хранения поля, например String(50) или DateTime.
type FieldType struct {
	Kind Kind
	// Length — длина для String(n), 0 если не задана.
	Length int
}

// ParseFieldType разбирает строку типа из декларативной конфигурации.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FieldType{}, fmt.Errorf("пустой тип поля")
	}

	name, arg, hasArg := strings.Cut(s, "(")
	var ft FieldType
	switch Kind(name) {
	case KindString, KindText, KindInteger, KindBigInteger,
		KindBoolean, KindDate, KindDateTime, KindFloat:
		ft.Kind = Kind(name)
	default:
		return FieldType{}, fmt.Errorf("неизвестный тип поля %q", s)
	}

	if hasArg {
		if ft.Kind != KindString || !strings.HasSuffix(arg, ")") {
			return FieldType{}, fmt.Errorf("некорректный тип поля %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(arg, ")"))
		if err != nil || n <= 0 {
			return FieldType{}, fmt.Errorf("некорректная длина в типе %q", s)
		}
		ft.Length = n
	}
	return ft, nil
}

// String возвращает тип в исходной нотации.
func (t FieldType) String() string {
	if t.Kind == KindString && t.Length > 0 {
		return fmt.Sprintf("String(%d)", t.Length)
	}
	return string(t.Kind)
}

// IsString — строковая колонка фиксированной длины.
// Только такие колонки участвуют в подстрочном поиске (Text — нет).
func (t FieldType) IsString() bool {
	return t.Kind == KindString
}

// IsTextual — колонка хранит текст (String или Text).
func (t FieldType) IsTextual() bool {
	return t.Kind == KindString || t.Kind == KindText
}

// SQLType возвращает тип PostgreSQL для приведения значений формы.
func (t FieldType) SQLType() string {
	switch t.Kind {
	case KindString:
		if t.Length > 0 {
			return fmt.Sprintf("varchar(%d)", t.Length)
		}
		return "varchar"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindBigInteger:
		return "bigint"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindDateTime:
		return "timestamp"
	case KindFloat:
		return "double precision"
	default:
		return "text"
	}
}

// DefaultWidget — HTML-виджет по типу хранения.
func (t FieldType) DefaultWidget() string {
	switch t.Kind {
	case KindInteger, KindBigInteger, KindFloat:
		return "number"
	case KindDateTime:
		return "datetime-local"
	case KindDate:
		return "date"
	case KindBoolean:
		return "checkbox"
	case KindText:
		return "textarea"
	default:
		return "text"
	}
}

// Choice — вариант значения для select-виджета.
type Choice struct {
	Label string `yaml:"label"`
	Value any    `yaml:"value"`
}

// Field — метаданные одного поля.
type Field struct {
	Name       string
	Label      string
	Type       FieldType
	Required   bool
	Default    any
	HTMLType   string
	WidgetType string
	Choices    []Choice
	Order      int
	// ListDisplay — nil означает «показывать в списке».
	ListDisplay *bool
	PrimaryKey  bool
	// ReadOnly — поле только для отображения (детальная страница).
	ReadOnly bool
}

// Widget возвращает HTML-виджет поля: widget_type → html_type → по типу.
func (f Field) Widget() string {
	if f.WidgetType != "" {
		return f.WidgetType
	}
	if f.HTMLType != "" {
		return f.HTMLType
	}
	return f.Type.DefaultWidget()
}

// ShownInList — отображается ли поле в списке.
func (f Field) ShownInList() bool {
	return f.ListDisplay == nil || *f.ListDisplay
}

// DisplayLabel возвращает подпись поля, при отсутствии — имя.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ChoiceLabel возвращает подпись варианта для значения v.
func (f Field) ChoiceLabel(v any) (string, bool) {
	s := fmt.Sprint(v)
	for _, c := range f.Choices {
		if fmt.Sprint(c.Value) == s {
			return c.Label, true
		}
	}
	return "", false
}

// SortFields упорядочивает поля по Order, при равенстве сохраняет исходный порядок.
func SortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})
}

// Definition — описание одного отношения.
type Definition struct {
	// Name — имя модели (MCustomers).
	Name string
	// TableName — имя таблицы или view в БД.
	TableName string
	// Title — заголовок для страниц и хлебных крошек; пустой — используется TableName.
	Title string
	// Category — группа маршрутов (master, view, work); может быть пустой.
	Category string
	// PrimaryKey — имя колонки первичного ключа.
	PrimaryKey string
	// Fields — все поля, упорядоченные по Order.
	Fields []Field
	// IsView — отношение является view и не записывается напрямую.
	IsView bool
}

// Prefix возвращает URL-префикс маршрутов: /{category}/{table} или /{table}.
func (d *Definition) Prefix() string {
	cat := strings.Trim(d.Category, "/")
	if cat == "" {
		return "/" + d.TableName
	}
	return "/" + cat + "/" + d.TableName
}

// DisplayTitle возвращает заголовок отношения.
func (d *Definition) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.TableName
}

// Clone возвращает глубокую копию описания (список полей копируется).
func (d *Definition) Clone() *Definition {
	c := *d
	c.Fields = d.FieldsCopy()
	return &c
}

// PK возвращает имя первичного ключа с учётом соглашения.
func (d *Definition) PK() string {
	if d.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return d.PrimaryKey
}

// Field возвращает поле по имени.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField — является ли name атрибутом отношения.
func (d *Definition) HasField(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Columns возвращает имена всех колонок в порядке полей.
func (d *Definition) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// SearchableColumns возвращает колонки типа String(n).
func (d *Definition) SearchableColumns() []string {
	var cols []string
	for _, f := range d.Fields {
		if f.Type.IsString() {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// FieldsCopy возвращает копию списка полей, безопасную для изменения.
func (d *Definition) FieldsCopy() []Field {
	out := make([]Field, len(d.Fields))
	copy(out, d.Fields)
	return out
}

// Validate проверяет целостность описания.
func (d *Definition) Validate() error {
	if d.TableName == "" {
		return fmt.Errorf("не задано имя таблицы")
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%s: поле без имени", d.TableName)
		}
		if seen[f.Name] {
			return fmt.Errorf("%s: дублирующееся поле %q", d.TableName, f.Name)
		}
		seen[f.Name] = true
	}
	if !seen[d.PK()] {
		return fmt.Errorf("%s: первичный ключ %q отсутствует среди полей", d.TableName, d.PK())
	}
	return nil
}

// Row — одна строка отношения: имя колонки → значение.
type Row map[string]any

// Get возвращает значение колонки.
func (r Row) Get(name string) any {
	return r[name]
}

// ID возвращает значение первичного ключа pk в виде строки для URL.
func (r Row) ID(pk string) string {
	return r.String(pk)
}

// String возвращает значение колонки как строку ("" для NULL).
func (r Row) String(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	return FormatValue(v)
}
