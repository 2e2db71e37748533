package pages

import (
	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
)

// Действия, завершающие цепочку навигации.
const (
	ActionList   = "action.list"
	ActionNew    = "action.new"
	ActionEdit   = "action.edit"
	ActionDetail = "action.detail"
)

// dashboardCategories — категории, у которых есть страница-дашборд.
var dashboardCategories = map[string]bool{
	"master": true,
	"view":   true,
}

// RecordBreadcrumbs строит цепочку Home → категория → отношение → действие.
func RecordBreadcrumbs(lang string, def *record.Definition, action string) []Breadcrumb {
	crumbs := []Breadcrumb{{Title: i18n.Lookup(lang, "nav.home"), Href: "/"}}

	if def.Category != "" {
		c := Breadcrumb{Title: i18n.Lookup(lang, "category."+def.Category)}
		if dashboardCategories[def.Category] {
			c.Href = "/" + def.Category
		}
		crumbs = append(crumbs, c)
	}
	crumbs = append(crumbs,
		Breadcrumb{Title: def.DisplayTitle(), Href: def.Prefix() + "/"},
		Breadcrumb{Title: i18n.Lookup(lang, action)},
	)
	return crumbs
}

// PageBreadcrumbs строит цепочку Home → заголовок страницы.
func PageBreadcrumbs(lang, title string) []Breadcrumb {
	return []Breadcrumb{
		{Title: i18n.Lookup(lang, "nav.home"), Href: "/"},
		{Title: title},
	}
}

// RecordTitle — заголовок страницы отношения: «<заголовок> <действие>».
func RecordTitle(lang string, def *record.Definition, action string) string {
	return def.DisplayTitle() + " " + i18n.Lookup(lang, action)
}
