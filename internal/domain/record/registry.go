package record

import "fmt"

// Registry — упорядоченный набор описаний отношений.
// Заполняется один раз при старте, далее только читается.
type Registry struct {
	order []string
	defs  map[string]*Definition
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Add добавляет описание. Повторная регистрация таблицы — ошибка.
func (r *Registry) Add(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, ok := r.defs[def.TableName]; ok {
		return fmt.Errorf("таблица %q уже зарегистрирована", def.TableName)
	}
	r.order = append(r.order, def.TableName)
	r.defs[def.TableName] = def
	return nil
}

// Get возвращает описание по имени таблицы.
func (r *Registry) Get(table string) (*Definition, bool) {
	def, ok := r.defs[table]
	return def, ok
}

// All возвращает описания в порядке регистрации.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// ByCategory возвращает описания указанной категории.
func (r *Registry) ByCategory(category string) []*Definition {
	var out []*Definition
	for _, name := range r.order {
		if def := r.defs[name]; def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// Len — количество описаний.
func (r *Registry) Len() int {
	return len(r.order)
}
