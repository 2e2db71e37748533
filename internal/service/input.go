package service

import (
	"net/url"
	"sort"
)

// Input — значения формы: имя поля → первое переданное значение.
// Порядок ключей детерминирован (по возрастанию имени) и не зависит от порядка в теле запроса.
type Input struct {
	keys   []string
	values map[string]string
}

// NewInput создаёт Input из пар ключ-значение.
func NewInput(values map[string]string) Input {
	in := Input{values: make(map[string]string, len(values))}
	for k, v := range values {
		in.values[k] = v
		in.keys = append(in.keys, k)
	}
	sort.Strings(in.keys)
	return in
}

// InputFromForm строит Input из разобранной формы; берётся первое значение каждого ключа.
func InputFromForm(form url.Values) Input {
	m := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			m[k] = vs[0]
		}
	}
	return NewInput(m)
}

// Get возвращает значение поля и признак его наличия.
func (in Input) Get(name string) (string, bool) {
	v, ok := in.values[name]
	return v, ok
}

// Keys возвращает имена переданных полей.
func (in Input) Keys() []string {
	out := make([]string, len(in.keys))
	copy(out, in.keys)
	return out
}

// Len — количество переданных полей.
func (in Input) Len() int {
	return len(in.keys)
}

// with возвращает копию Input с установленным значением name.
func (in Input) with(name, value string) Input {
	m := make(map[string]string, len(in.values)+1)
	for k, v := range in.values {
		m[k] = v
	}
	m[name] = value
	return NewInput(m)
}
