package codegen

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const testCatalog = `
delflg_choices: &delflg
  - {label: 有効, value: 0}
  - {label: 削除済み, value: 1}
tables:
  - name: m_customers
    title: 顧客マスタ
    category: master
    fields:
      - {name: id, type: Integer, primary_key: true, label: ID, order: 1}
      - {name: code, type: String(20), not_null: true, unique: true, label: 顧客コード, order: 10}
      - {name: name, type: String(100), label: 顧客名, order: 20}
      - {name: memo, type: Text, required: false, label: メモ, list_display: false}
      - {name: delflg, type: Integer, default: 0, widget_type: select, choices: *delflg, label: 削除フラグ, order: 30}
  - name: t_logs
    title: ログ
    category: work
    fields:
      - {name: id, type: Integer, primary_key: true, label: ID}
      - {name: started, type: DateTime, label: 開始}
      - {name: day, type: Date, label: 日付}
      - {name: created, type: DateTime, sql_default: now(), label: 作成日時}
views:
  - name: v_summary
    title: サマリー
    category: view
    fields:
      - {name: work_id, type: Integer, primary_key: true, label: 作業ID}
      - {name: title, type: String(200), label: タイトル}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog() вернул ошибку: %v", err)
	}
	return cat
}

func TestParseCatalog(t *testing.T) {
	cat := mustCatalog(t)

	if len(cat.Tables) != 2 || len(cat.Views) != 1 {
		t.Fatalf("таблиц %d, view %d; ожидается 2 и 1", len(cat.Tables), len(cat.Views))
	}
	if cat.Tables[0].IsView() {
		t.Error("m_customers помечена как view")
	}
	if !cat.Views[0].IsView() {
		t.Error("v_summary не помечена как view")
	}
	if got := cat.Tables[0].PrimaryKey(); got != "id" {
		t.Errorf("PrimaryKey() = %q, ожидается id", got)
	}
	if len(cat.Tables[0].Fields[4].Choices) != 2 {
		t.Errorf("choices через якорь YAML не развернулись: %+v", cat.Tables[0].Fields[4].Choices)
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"без первичного ключа", `
tables:
  - name: a
    fields:
      - {name: x, type: Integer}
`},
		{"два первичных ключа", `
tables:
  - name: a
    fields:
      - {name: x, type: Integer, primary_key: true}
      - {name: y, type: Integer, primary_key: true}
`},
		{"неизвестный тип", `
tables:
  - name: a
    fields:
      - {name: x, type: Money, primary_key: true}
`},
		{"дубликат таблицы", `
tables:
  - name: a
    fields:
      - {name: x, type: Integer, primary_key: true}
views:
  - name: a
    fields:
      - {name: x, type: Integer, primary_key: true}
`},
		{"нет полей", `
tables:
  - name: a
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Error("ожидалась ошибка валидации")
			}
		})
	}
}

func TestModelName(t *testing.T) {
	tests := map[string]string{
		"m_customers":       "MCustomers",
		"t_work_sub":        "TWorkSub",
		"v_user_activities": "VUserActivities",
		"logs":              "Logs",
	}
	for in, want := range tests {
		if got := ModelName(in); got != want {
			t.Errorf("ModelName(%q) = %q, ожидается %q", in, got, want)
		}
	}
}

func TestHTMLType(t *testing.T) {
	long := strings.Repeat("あ", 101)
	tests := []struct {
		name  string
		field FieldSpec
		want  string
	}{
		{"widget_type приоритетен", FieldSpec{Type: "Integer", WidgetType: "select"}, "select"},
		{"Integer", FieldSpec{Type: "Integer"}, "number"},
		{"BigInteger", FieldSpec{Type: "BigInteger"}, "number"},
		{"Float", FieldSpec{Type: "Float"}, "number"},
		{"DateTime", FieldSpec{Type: "DateTime"}, "datetime-local"},
		{"Date", FieldSpec{Type: "Date"}, "date"},
		{"Boolean", FieldSpec{Type: "Boolean"}, "checkbox"},
		{"Text", FieldSpec{Type: "Text"}, "textarea"},
		{"длинная подпись", FieldSpec{Type: "String(10)", Label: long}, "textarea"},
		{"String", FieldSpec{Type: "String(10)", Label: "名前"}, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLType(tt.field); got != tt.want {
				t.Errorf("HTMLType() = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestRenderModel(t *testing.T) {
	cat := mustCatalog(t)

	data, err := RenderModel(cat.Tables[0])
	if err != nil {
		t.Fatalf("RenderModel() вернул ошибку: %v", err)
	}
	if !strings.HasPrefix(string(data), generatedYAML) {
		t.Error("нет заголовка сгенерированного файла")
	}

	var doc struct {
		Model struct {
			Name       string    `yaml:"name"`
			TableName  string    `yaml:"table_name"`
			Title      string    `yaml:"title"`
			Category   string    `yaml:"category"`
			PrimaryKey string    `yaml:"primary_key"`
			IsView     bool      `yaml:"is_view"`
			Fields     yaml.Node `yaml:"fields"`
		} `yaml:"model"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("результат не разбирается: %v", err)
	}
	m := doc.Model
	if m.Name != "MCustomers" || m.TableName != "m_customers" || m.Category != "master" || m.PrimaryKey != "id" {
		t.Errorf("неверная шапка модели: %+v", m)
	}
	if m.Title != "顧客マスタ" {
		t.Errorf("Title = %q", m.Title)
	}

	var names []string
	for i := 0; i < len(m.Fields.Content); i += 2 {
		names = append(names, m.Fields.Content[i].Value)
	}
	if got := strings.Join(names, ","); got != "id,code,name,memo,delflg" {
		t.Errorf("порядок полей = %s", got)
	}

	var memo struct {
		Required    bool   `yaml:"required"`
		HTMLType    string `yaml:"html_type"`
		ListDisplay *bool  `yaml:"list_display"`
	}
	if err := m.Fields.Content[7].Decode(&memo); err != nil {
		t.Fatalf("decode memo: %v", err)
	}
	if memo.Required {
		t.Error("memo: required: false из каталога потерян")
	}
	if memo.HTMLType != "textarea" {
		t.Errorf("memo html_type = %q", memo.HTMLType)
	}
	if memo.ListDisplay == nil || *memo.ListDisplay {
		t.Error("memo: list_display: false потерян")
	}

	var code struct {
		Required bool `yaml:"required"`
	}
	if err := m.Fields.Content[3].Decode(&code); err != nil {
		t.Fatalf("decode code: %v", err)
	}
	if !code.Required {
		t.Error("поле таблицы без required должно быть обязательным")
	}
}

func TestRenderModel_ViewFieldsNotRequired(t *testing.T) {
	cat := mustCatalog(t)

	data, err := RenderModel(cat.Views[0])
	if err != nil {
		t.Fatalf("RenderModel() вернул ошибку: %v", err)
	}
	if !strings.Contains(string(data), "is_view: true") {
		t.Errorf("нет is_view: true:\n%s", data)
	}
	if strings.Contains(string(data), "required: true") {
		t.Errorf("поля view не должны быть обязательными:\n%s", data)
	}
}

func TestRenderDDL(t *testing.T) {
	cat := mustCatalog(t)

	ddl := RenderDDL(cat.Tables[0])
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS m_customers (",
		"id SERIAL PRIMARY KEY,",
		"code VARCHAR(20) NOT NULL UNIQUE,",
		"name VARCHAR(100),",
		"memo TEXT,",
		"delflg INTEGER DEFAULT 0\n",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL не содержит %q:\n%s", want, ddl)
		}
	}

	ddl = RenderDDL(cat.Tables[1])
	if !strings.Contains(ddl, "created TIMESTAMP DEFAULT now()") {
		t.Errorf("нет sql_default:\n%s", ddl)
	}
}

func TestSQLLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{0, "0"},
		{true, "TRUE"},
		{"O'Brien", "'O''Brien'"},
		{1.5, "1.5"},
	}
	for _, tt := range tests {
		if got := sqlLiteral(tt.in); got != tt.want {
			t.Errorf("sqlLiteral(%v) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderStub(t *testing.T) {
	cat := mustCatalog(t)

	form, err := RenderStub(cat.Tables[0], "form")
	if err != nil {
		t.Fatalf("RenderStub() вернул ошибку: %v", err)
	}
	want := `{{define "header_title"}}顧客マスタ {{if .IsNew}}新規作成{{else}}編集{{end}}{{end}}`
	if !strings.Contains(string(form), want) {
		t.Errorf("заглушка формы:\n%s", form)
	}

	if _, err := RenderStub(cat.Tables[0], "unknown"); err == nil {
		t.Error("ожидалась ошибка для неизвестного вида шаблона")
	}
}

func TestRenderTablesFile(t *testing.T) {
	cat := mustCatalog(t)

	src, err := RenderTablesFile(cat)
	if err != nil {
		t.Fatalf("RenderTablesFile() вернул ошибку: %v", err)
	}
	s := string(src)
	if !strings.HasPrefix(s, "// Code generated by crudgen. DO NOT EDIT.") {
		t.Error("нет заголовка сгенерированного файла")
	}
	for _, want := range []string{"package records", `"m_customers",`, `"t_logs",`, `"v_summary",`} {
		if !strings.Contains(s, want) {
			t.Errorf("файл маршрутов не содержит %q:\n%s", want, s)
		}
	}
}

func TestGenerate(t *testing.T) {
	cat := mustCatalog(t)
	dir := t.TempDir()

	res, err := NewGenerator(dir, false, discardLogger()).Generate(cat)
	if err != nil {
		t.Fatalf("Generate() вернул ошибку: %v", err)
	}

	// 3 модели + 2 DDL + 9 заглушек + файл маршрутов.
	if len(res.Written) != 15 {
		t.Errorf("записано %d файлов, ожидается 15: %v", len(res.Written), res.Written)
	}
	for _, rel := range []string{
		"internal/fieldmeta/models/v_summary.yaml",
		"internal/database/schema/t_logs.sql",
		"internal/ui/pages/templates/tables/m_customers/detail.html",
		"internal/records/tables_gen.go",
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("файл %s не создан: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, SchemaDir, "v_summary.sql")); err == nil {
		t.Error("DDL для view не должен генерироваться")
	}

	// Ручные правки шаблона сохраняются без --force.
	stub := filepath.Join(dir, TemplatesDir, "m_customers", "list.html")
	if err := os.WriteFile(stub, []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = NewGenerator(dir, false, discardLogger()).Generate(cat)
	if err != nil {
		t.Fatalf("повторный Generate() вернул ошибку: %v", err)
	}
	if len(res.Skipped) != 9 {
		t.Errorf("пропущено %d, ожидается 9", len(res.Skipped))
	}
	if data, _ := os.ReadFile(stub); string(data) != "custom" {
		t.Error("шаблон перезаписан без --force")
	}

	if _, err := NewGenerator(dir, true, discardLogger()).Generate(cat); err != nil {
		t.Fatalf("Generate(force) вернул ошибку: %v", err)
	}
	if data, _ := os.ReadFile(stub); string(data) == "custom" {
		t.Error("шаблон не перезаписан с --force")
	}
}
