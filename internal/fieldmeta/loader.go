// Пакет fieldmeta — загрузка метаданных полей и описаний отношений
// из декларативных YAML-файлов (по одному файлу на таблицу/view),
// а также конфигураций страниц-дашбордов.
package fieldmeta

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
)

// ErrConfigNotFound — декларативная конфигурация для таблицы не найдена.
var ErrConfigNotFound = errors.New("конфигурация не найдена")

// validName — допустимые имена таблиц и страниц (защита от обхода путей).
var validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// modelFile — корень YAML-файла описания отношения.
type modelFile struct {
	Model modelConfig `yaml:"model"`
}

// modelConfig — описание отношения в YAML.
type modelConfig struct {
	Name       string `yaml:"name"`
	TableName  string `yaml:"table_name"`
	Title      string `yaml:"title"`
	Category   string `yaml:"category"`
	PrimaryKey string `yaml:"primary_key"`
	IsView     bool   `yaml:"is_view"`
	// Fields — упорядоченный mapping имя → метаданные; порядок объявления сохраняется.
	Fields yaml.Node `yaml:"fields"`
}

// fieldConfig — метаданные одного поля в YAML.
type fieldConfig struct {
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Label       string          `yaml:"label"`
	Required    bool            `yaml:"required"`
	Default     any             `yaml:"default"`
	HTMLType    string          `yaml:"html_type"`
	WidgetType  string          `yaml:"widget_type"`
	Choices     []record.Choice `yaml:"choices"`
	Order       *int            `yaml:"order"`
	ListDisplay *bool           `yaml:"list_display"`
	PrimaryKey  bool            `yaml:"primary_key"`
}

// Loader читает и кэширует описания отношений.
// Каждый файл разбирается один раз; наружу отдаются копии списков полей.
type Loader struct {
	fsys fs.FS

	mu    sync.Mutex
	defs  map[string]*record.Definition
	pages map[string]*PageConfig
}

// NewLoader создаёт загрузчик поверх файловой системы с каталогами models/ и pages/.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		defs:  make(map[string]*record.Definition),
		pages: make(map[string]*PageConfig),
	}
}

// GetDefinition возвращает описание отношения table.
// Экземпляр общий: вызывающий код не должен его изменять (см. Definition.Clone).
func (l *Loader) GetDefinition(table string) (*record.Definition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if def, ok := l.defs[table]; ok {
		return def, nil
	}

	def, err := l.parseModel(table)
	if err != nil {
		return nil, err
	}
	l.defs[table] = def
	return def, nil
}

// GetFields возвращает все поля таблицы, упорядоченные по order (по умолчанию 100).
func (l *Loader) GetFields(table string) ([]record.Field, error) {
	def, err := l.GetDefinition(table)
	if err != nil {
		return nil, err
	}
	return def.FieldsCopy(), nil
}

// GetListFields возвращает поля для таблицы списка:
// все, кроме явно помеченных list_display: false.
func (l *Loader) GetListFields(table string) ([]record.Field, error) {
	fields, err := l.GetFields(table)
	if err != nil {
		return nil, err
	}
	out := fields[:0]
	for _, f := range fields {
		if f.ShownInList() {
			out = append(out, f)
		}
	}
	return out, nil
}

// LoadRegistry загружает описания указанных таблиц в реестр.
func (l *Loader) LoadRegistry(tables []string) (*record.Registry, error) {
	reg := record.NewRegistry()
	for _, table := range tables {
		def, err := l.GetDefinition(table)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(def); err != nil {
			return nil, fmt.Errorf("регистрация %s: %w", table, err)
		}
	}
	return reg, nil
}

// parseModel читает models/<table>.yaml и строит Definition.
func (l *Loader) parseModel(table string) (*record.Definition, error) {
	if !validName.MatchString(table) {
		return nil, fmt.Errorf("%w: недопустимое имя таблицы %q", ErrConfigNotFound, table)
	}

	path := "models/" + table + ".yaml"
	data, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	cfg := mf.Model

	if cfg.TableName == "" {
		cfg.TableName = table
	}
	if cfg.TableName != table {
		return nil, fmt.Errorf("%s: table_name %q не совпадает с именем файла", path, cfg.TableName)
	}

	fields, pk, err := parseFields(&cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = pk
	}

	def := &record.Definition{
		Name:       cfg.Name,
		TableName:  cfg.TableName,
		Title:      cfg.Title,
		Category:   cfg.Category,
		PrimaryKey: cfg.PrimaryKey,
		Fields:     fields,
		IsView:     cfg.IsView,
	}
	for i := range def.Fields {
		if def.Fields[i].Name == def.PK() {
			def.Fields[i].PrimaryKey = true
		}
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// parseFields обходит mapping полей в порядке объявления.
// Возвращает поля, отсортированные по order, и имя поля с primary_key: true.
func parseFields(node *yaml.Node) ([]record.Field, string, error) {
	if node.Kind == 0 {
		return nil, "", errors.New("секция fields отсутствует")
	}
	if node.Kind != yaml.MappingNode {
		return nil, "", errors.New("секция fields должна быть mapping")
	}

	fields := make([]record.Field, 0, len(node.Content)/2)
	pk := ""
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value

		var fc fieldConfig
		if err := node.Content[i+1].Decode(&fc); err != nil {
			return nil, "", fmt.Errorf("поле %s: %w", key, err)
		}
		if fc.Name == "" {
			fc.Name = key
		}

		ft, err := record.ParseFieldType(fc.Type)
		if err != nil {
			return nil, "", fmt.Errorf("поле %s: %w", key, err)
		}

		order := record.DefaultOrder
		if fc.Order != nil {
			order = *fc.Order
		}
		if fc.PrimaryKey && pk == "" {
			pk = fc.Name
		}

		fields = append(fields, record.Field{
			Name:        fc.Name,
			Label:       fc.Label,
			Type:        ft,
			Required:    fc.Required,
			Default:     fc.Default,
			HTMLType:    fc.HTMLType,
			WidgetType:  fc.WidgetType,
			Choices:     fc.Choices,
			Order:       order,
			ListDisplay: fc.ListDisplay,
			PrimaryKey:  fc.PrimaryKey,
		})
	}

	record.SortFields(fields)
	return fields, pk, nil
}
