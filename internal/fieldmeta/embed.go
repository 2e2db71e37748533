package fieldmeta

import (
	"embed"
	"io/fs"
	"os"
)

// embedded — встроенные описания отношений и страниц.
// models/*.yaml генерируются crudgen из configs/catalog.yaml.
//
//go:embed models/*.yaml pages/*.yaml
var embedded embed.FS

// EmbeddedFS возвращает встроенную конфигурацию.
func EmbeddedFS() fs.FS {
	return embedded
}

// SourceFS возвращает каталог dir (если задан) или встроенную конфигурацию.
func SourceFS(dir string) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}
