package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/tnkp-admin/internal/domain/record"
)

const (
	generatedYAML = "# Code generated by crudgen. DO NOT EDIT.\n"
	generatedSQL  = "-- Code generated by crudgen. DO NOT EDIT.\n"
)

// RenderModel строит YAML-описание отношения для fieldmeta.Loader.
// Порядок полей совпадает с порядком в каталоге.
func RenderModel(t TableSpec) ([]byte, error) {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range t.Fields {
		fn, err := fieldNode(f, t.IsView())
		if err != nil {
			return nil, fmt.Errorf("поле %s: %w", f.Name, err)
		}
		fields.Content = append(fields.Content, strNode(f.Name), fn)
	}

	model := &yaml.Node{Kind: yaml.MappingNode}
	model.Content = append(model.Content,
		strNode("name"), strNode(ModelName(t.Name)),
		strNode("table_name"), strNode(t.Name),
		strNode("title"), strNode(t.Title),
		strNode("category"), strNode(t.Category),
		strNode("primary_key"), strNode(t.PrimaryKey()),
		strNode("is_view"), boolNode(t.IsView()),
		strNode("fields"), fields,
	)
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{strNode("model"), model}}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	buf.WriteString(generatedYAML)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("кодирование YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("кодирование YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func fieldNode(f FieldSpec, isView bool) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v *yaml.Node) {
		n.Content = append(n.Content, strNode(key), v)
	}

	add("type", strNode(f.Type))
	add("label", strNode(f.Label))
	add("required", boolNode(f.IsRequired(isView)))
	if f.Default != nil {
		dn := &yaml.Node{}
		if err := dn.Encode(f.Default); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		add("default", dn)
	}
	add("html_type", strNode(HTMLType(f)))
	if f.WidgetType != "" {
		add("widget_type", strNode(f.WidgetType))
	}
	if len(f.Choices) > 0 {
		cn := &yaml.Node{}
		if err := cn.Encode(f.Choices); err != nil {
			return nil, fmt.Errorf("choices: %w", err)
		}
		for _, item := range cn.Content {
			item.Style = yaml.FlowStyle
		}
		add("choices", cn)
	}
	if f.Order != nil {
		add("order", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(*f.Order)})
	}
	if f.ListDisplay != nil {
		add("list_display", boolNode(*f.ListDisplay))
	}
	if f.PrimaryKey {
		add("primary_key", boolNode(true))
	}
	return n, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// RenderDDL строит CREATE TABLE для таблицы каталога.
// Целочисленный первичный ключ становится SERIAL/BIGSERIAL.
func RenderDDL(t TableSpec) string {
	var b strings.Builder
	b.WriteString(generatedSQL)
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, f := range t.Fields {
		fmt.Fprintf(&b, "    %s %s", f.Name, columnDDL(f))
		if i < len(t.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");\n")
	return b.String()
}

func columnDDL(f FieldSpec) string {
	// Тип проверен Catalog.Validate.
	ft, _ := record.ParseFieldType(f.Type)

	if f.PrimaryKey {
		switch ft.Kind {
		case record.KindInteger:
			return "SERIAL PRIMARY KEY"
		case record.KindBigInteger:
			return "BIGSERIAL PRIMARY KEY"
		default:
			return strings.ToUpper(ft.SQLType()) + " PRIMARY KEY"
		}
	}

	parts := []string{strings.ToUpper(ft.SQLType())}
	if f.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if f.Unique {
		parts = append(parts, "UNIQUE")
	}
	switch {
	case f.SQLDefault != "":
		parts = append(parts, "DEFAULT "+f.SQLDefault)
	case f.Default != nil:
		parts = append(parts, "DEFAULT "+sqlLiteral(f.Default))
	}
	return strings.Join(parts, " ")
}

func sqlLiteral(v any) string {
	switch x := v.(type) {
	case bool:
		return strings.ToUpper(strconv.FormatBool(x))
	case int, int64, float64:
		return fmt.Sprint(x)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

// Шаблоны-заглушки используют разделители [[ ]], чтобы {{ }} попали в результат.
var stubTemplates = template.Must(template.New("stubs").Delims("[[", "]]").Parse(`
[[- define "list" -]]
{{/* [[.Name]]: список. Блоки header_title и header_actions можно переопределить. */}}
{{define "header_title"}}[[.Title]] 一覧{{end}}
[[end]]
[[- define "form" -]]
{{/* [[.Name]]: форма создания и редактирования. */}}
{{define "header_title"}}[[.Title]] {{if .IsNew}}新規作成{{else}}編集{{end}}{{end}}
[[end]]
[[- define "detail" -]]
{{/* [[.Name]]: детальная страница. */}}
{{define "header_title"}}[[.Title]] 詳細{{end}}
[[end]]
`))

// RenderStub строит шаблон-заглушку kind (list, form, detail) для отношения.
func RenderStub(t TableSpec, kind string) ([]byte, error) {
	data := struct{ Name, Title string }{Name: t.Name, Title: t.Title}
	if data.Title == "" {
		data.Title = t.Name
	}
	var buf bytes.Buffer
	if err := stubTemplates.ExecuteTemplate(&buf, kind, data); err != nil {
		return nil, fmt.Errorf("шаблон %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

var tablesTemplate = template.Must(template.New("tables").Parse(`// Code generated by crudgen. DO NOT EDIT.

package records

// Tables — таблицы, для которых монтируются CRUD-маршруты.
var Tables = []string{
{{- range .Tables}}
	{{printf "%q" .Name}},
{{- end}}
}

// Views — view; запись выполняется через прокси.
var Views = []string{
{{- range .Views}}
	{{printf "%q" .Name}},
{{- end}}
}
`))

// RenderTablesFile строит Go-файл со списком отношений.
func RenderTablesFile(cat *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := tablesTemplate.Execute(&buf, cat); err != nil {
		return nil, fmt.Errorf("файл маршрутов: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("форматирование файла маршрутов: %w", err)
	}
	return src, nil
}
