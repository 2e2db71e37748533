package codegen

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Пути артефактов относительно корня модуля.
const (
	ModelsDir    = "internal/fieldmeta/models"
	SchemaDir    = "internal/database/schema"
	TemplatesDir = "internal/ui/pages/templates/tables"
	TablesFile   = "internal/records/tables_gen.go"
)

// stubKinds — шаблоны-заглушки, создаваемые для каждого отношения.
var stubKinds = []string{"list", "form", "detail"}

// Generator записывает артефакты каталога в дерево исходников.
type Generator struct {
	outDir string
	force  bool
	logger *slog.Logger
}

// Result — итог генерации.
type Result struct {
	// Written — записанные файлы (относительно outDir).
	Written []string
	// Skipped — существующие шаблоны, оставленные без изменений.
	Skipped []string
}

// NewGenerator создаёт генератор с корнем outDir.
// force разрешает перезапись существующих шаблонов-заглушек.
func NewGenerator(outDir string, force bool, logger *slog.Logger) *Generator {
	return &Generator{
		outDir: outDir,
		force:  force,
		logger: logger.With(slog.String("component", "crudgen")),
	}
}

// Generate записывает описания отношений, DDL таблиц, шаблоны-заглушки
// и файл маршрутов. Описания, DDL и файл маршрутов перезаписываются всегда.
func (g *Generator) Generate(cat *Catalog) (*Result, error) {
	res := &Result{}

	for _, t := range cat.All() {
		model, err := RenderModel(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		if err := g.write(res, filepath.Join(ModelsDir, t.Name+".yaml"), model, true); err != nil {
			return nil, err
		}

		if !t.IsView() {
			if err := g.write(res, filepath.Join(SchemaDir, t.Name+".sql"), []byte(RenderDDL(t)), true); err != nil {
				return nil, err
			}
		}

		for _, kind := range stubKinds {
			stub, err := RenderStub(t, kind)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", t.Name, kind, err)
			}
			path := filepath.Join(TemplatesDir, t.Name, kind+".html")
			if err := g.write(res, path, stub, g.force); err != nil {
				return nil, err
			}
		}
	}

	tables, err := RenderTablesFile(cat)
	if err != nil {
		return nil, err
	}
	if err := g.write(res, TablesFile, tables, true); err != nil {
		return nil, err
	}

	g.logger.Info("Генерация завершена",
		slog.Int("written", len(res.Written)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// write записывает файл rel; при overwrite=false существующий файл пропускается.
func (g *Generator) write(res *Result, rel string, data []byte, overwrite bool) error {
	path := filepath.Join(g.outDir, rel)

	if !overwrite {
		_, err := os.Stat(path)
		if err == nil {
			g.logger.Debug("Файл существует, пропуск", slog.String("path", rel))
			res.Skipped = append(res.Skipped, rel)
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("проверка %s: %w", rel, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("создание каталога для %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", rel, err)
	}
	g.logger.Debug("Файл записан", slog.String("path", rel))
	res.Written = append(res.Written, rel)
	return nil
}
