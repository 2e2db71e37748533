package pages

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
)

// fieldContext — аргумент шаблона "field".
type fieldContext struct {
	Field record.Field
	Row   record.Row
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"t":          i18n.Lookup,
		"tf":         i18n.Lookupf,
		"cell":       cell,
		"inputValue": inputValue,
		"rowID":      rowID,
		"pageURL":    pageURL,
		"truthy":     truthy,
		"logTime":    logTime,
		"fieldCtx": func(f record.Field, row record.Row) fieldContext {
			return fieldContext{Field: f, Row: row}
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
}

// cell — значение колонки для таблицы и детальной страницы;
// для полей с вариантами выводится подпись варианта.
func cell(f record.Field, row record.Row) string {
	v := row.Get(f.Name)
	if v != nil && len(f.Choices) > 0 {
		if label, ok := f.ChoiceLabel(record.FormatValue(v)); ok {
			return label
		}
	}
	return row.String(f.Name)
}

// inputValue — значение атрибута value; для новой записи — значение по умолчанию.
func inputValue(f record.Field, row record.Row) string {
	if row == nil {
		if f.Default == nil {
			return ""
		}
		return fmt.Sprint(f.Default)
	}
	return record.FormatInput(f, row.Get(f.Name))
}

func rowID(row record.Row, def *record.Definition) string {
	return url.PathEscape(row.ID(def.PK()))
}

func pageURL(page, perPage int, q string) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	if q != "" {
		v.Set("q", q)
	}
	return "?" + v.Encode()
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func logTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006/01/02 15:04")
}
