package fieldmeta

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// PageConfig — конфигурация страницы-дашборда (/, /master, /view).
type PageConfig struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
	Cards       []Card `yaml:"cards"`
}

// Card — карточка дашборда: ссылка на раздел и, опционально, счётчик.
type Card struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Href        string `yaml:"href"`
	// StatURL — endpoint с HTML-фрагментом счётчика (загружается через HTMX).
	StatURL     string `yaml:"stat_url"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// LoadPage читает pages/<name>.yaml. Корневой ключ файла совпадает с name.
func (l *Loader) LoadPage(name string) (*PageConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pc, ok := l.pages[name]; ok {
		return pc, nil
	}

	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: недопустимое имя страницы %q", ErrConfigNotFound, name)
	}

	path := "pages/" + name + ".yaml"
	data, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	var root map[string]PageConfig
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	pc, ok := root[name]
	if !ok {
		return nil, fmt.Errorf("%s: отсутствует корневой ключ %q", path, name)
	}

	l.pages[name] = &pc
	return &pc, nil
}
