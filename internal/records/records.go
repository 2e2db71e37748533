// Пакет records — перечень отношений, монтируемых сервером.
// Список формирует crudgen (tables_gen.go).
package records

//go:generate go run ../../cmd/crudgen generate --catalog ../../configs/catalog.yaml --out ../..

// All возвращает таблицы, затем view.
func All() []string {
	out := make([]string, 0, len(Tables)+len(Views))
	out = append(out, Tables...)
	return append(out, Views...)
}

// IsView — name входит в список view.
func IsView(name string) bool {
	for _, v := range Views {
		if v == name {
			return true
		}
	}
	return false
}
