// Пакет pages — HTML-страницы админ-панели.
// Базовые шаблоны встроены в бинарник; для каждой таблицы шаблоны
// templates/tables/<table>/{list,form,detail}.html могут переопределять блоки
// (header_title, header_actions). Каждая страница отдаётся как templ.Component.
package pages

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/a-h/templ"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/fieldmeta"
	"github.com/bigkaa/tnkp-admin/internal/service"
)

//go:embed templates
var templatesFS embed.FS

// Страницы с базовыми шаблонами.
const (
	PageList      = "list"
	PageForm      = "form"
	PageDetail    = "detail"
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageError     = "error"
)

var basePages = []string{PageList, PageForm, PageDetail, PageLogin, PageDashboard, PageError}

// tablePages — страницы, которые таблица может переопределить.
var tablePages = []string{PageList, PageForm, PageDetail}

// DefaultOverrides возвращает встроенные шаблоны таблиц (templates/tables).
func DefaultOverrides() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates/tables")
	if err != nil {
		panic(err)
	}
	return sub
}

// OverridesFS возвращает шаблоны таблиц из каталога dir, при пустом dir — встроенные.
func OverridesFS(dir string) fs.FS {
	if dir == "" {
		return DefaultOverrides()
	}
	return os.DirFS(dir)
}

// Breadcrumb — элемент навигационной цепочки. Пустой Href — текущая страница.
type Breadcrumb struct {
	Title string
	Href  string
}

// NavItem — ссылка на список отношения в боковом меню.
type NavItem struct {
	Title string
	Href  string
}

// NavGroup — группа меню по категории.
type NavGroup struct {
	Category string
	Items    []NavItem
}

// Page — общие данные всех страниц.
type Page struct {
	Lang        string
	Title       string
	User        *model.User
	Breadcrumbs []Breadcrumb
	Nav         []NavGroup
	// ActiveHref — пункт меню, подсвечиваемый как текущий.
	ActiveHref string
}

// ListData — данные страницы списка.
type ListData struct {
	Page
	Def  *record.Definition
	List *service.ListResult
}

// FormData — данные формы создания или редактирования.
type FormData struct {
	Page
	Def    *record.Definition
	Fields []record.Field
	// Row — nil для новой записи.
	Row    record.Row
	IsNew  bool
	Action string
	Error  string
}

// DetailData — данные детальной страницы.
type DetailData struct {
	Page
	Def  *record.Definition
	Item *service.Item
}

// LoginData — данные страницы входа.
type LoginData struct {
	Page
	LoginID string
}

// DashboardData — данные дашборда из pages/<name>.yaml.
type DashboardData struct {
	Page
	Config *fieldmeta.PageConfig
	// ShowActivity — показывать ленту активности и графики.
	ShowActivity bool
}

// ErrorData — данные страницы ошибки.
type ErrorData struct {
	Page
	Status  int
	Message string
}

// ActivitiesData — данные фрагмента ленты активности.
type ActivitiesData struct {
	Lang string
	Logs []model.LogEntry
}

// Renderer — набор разобранных шаблонов.
// Все наборы строятся в NewRenderer до первого выполнения: Clone после Execute запрещён.
type Renderer struct {
	pages  map[string]*template.Template
	tables map[string]*template.Template
	nav    []NavGroup
	logger *slog.Logger
}

// NewRenderer разбирает базовые шаблоны и переопределения таблиц реестра из overrides.
// Отсутствующий файл переопределения не ошибка: используется базовый шаблон.
func NewRenderer(reg *record.Registry, overrides fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(basePages)),
		tables: make(map[string]*template.Template),
		nav:    buildNav(reg),
		logger: logger.With(slog.String("component", "ui.pages")),
	}

	for _, name := range basePages {
		t, err := template.New(name).Funcs(funcMap()).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("шаблон %s: %w", name, err)
		}
		r.pages[name] = t
	}

	if overrides == nil {
		overrides = DefaultOverrides()
	}
	for _, def := range reg.All() {
		for _, page := range tablePages {
			path := def.TableName + "/" + page + ".html"
			data, err := fs.ReadFile(overrides, path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("чтение %s: %w", path, err)
			}
			clone, err := r.pages[page].Clone()
			if err != nil {
				return nil, fmt.Errorf("копирование шаблона %s: %w", page, err)
			}
			if _, err := clone.New(path).Parse(string(data)); err != nil {
				return nil, fmt.Errorf("шаблон %s: %w", path, err)
			}
			r.tables[path] = clone
		}
	}

	r.logger.Info("Шаблоны загружены",
		slog.Int("pages", len(r.pages)),
		slog.Int("table_overrides", len(r.tables)),
	)
	return r, nil
}

// Nav возвращает боковое меню.
func (r *Renderer) Nav() []NavGroup {
	return r.nav
}

// List — страница списка.
func (r *Renderer) List(data ListData) templ.Component {
	return r.layout(r.lookup(data.Def.TableName, PageList), data)
}

// Form — форма создания или редактирования.
func (r *Renderer) Form(data FormData) templ.Component {
	return r.layout(r.lookup(data.Def.TableName, PageForm), data)
}

// Detail — детальная страница.
func (r *Renderer) Detail(data DetailData) templ.Component {
	return r.layout(r.lookup(data.Def.TableName, PageDetail), data)
}

// Login — страница входа.
func (r *Renderer) Login(data LoginData) templ.Component {
	return r.layout(r.pages[PageLogin], data)
}

// Dashboard — страница дашборда.
func (r *Renderer) Dashboard(data DashboardData) templ.Component {
	return r.layout(r.pages[PageDashboard], data)
}

// Error — страница ошибки.
func (r *Renderer) Error(data ErrorData) templ.Component {
	return r.layout(r.pages[PageError], data)
}

// Activities — HTML-фрагмент ленты активности.
func (r *Renderer) Activities(data ActivitiesData) templ.Component {
	t := r.pages[PageDashboard]
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "activities", data)
	})
}

func (r *Renderer) lookup(table, page string) *template.Template {
	if t, ok := r.tables[table+"/"+page+".html"]; ok {
		return t
	}
	return r.pages[page]
}

func (r *Renderer) layout(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", data)
	})
}

// buildNav группирует отношения реестра по категориям в порядке регистрации.
func buildNav(reg *record.Registry) []NavGroup {
	var groups []NavGroup
	index := make(map[string]int)
	for _, def := range reg.All() {
		i, ok := index[def.Category]
		if !ok {
			i = len(groups)
			index[def.Category] = i
			groups = append(groups, NavGroup{Category: def.Category})
		}
		groups[i].Items = append(groups[i].Items, NavItem{
			Title: def.DisplayTitle(),
			Href:  def.Prefix() + "/",
		})
	}
	return groups
}
