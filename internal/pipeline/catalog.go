package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog — реестр описаний пайплайнов по имени.
// Потокобезопасен.
type Catalog struct {
	mu        sync.RWMutex
	pipelines map[string]*Definition
}

// NewCatalog создаёт пустой каталог.
func NewCatalog() *Catalog {
	return &Catalog{
		pipelines: make(map[string]*Definition),
	}
}

// Register валидирует описание и добавляет его в каталог.
// Описание с тем же именем перезаписывается.
func (c *Catalog) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipelines[def.Name] = def
	return nil
}

// Get возвращает описание по имени.
// Возвращает ErrPipelineNotFound, если описания нет.
func (c *Catalog) Get(name string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, exists := c.pipelines[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
	}
	return def, nil
}

// Has проверяет, есть ли описание в каталоге.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.pipelines[name]
	return exists
}

// Names возвращает имена пайплайнов по алфавиту.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.pipelines))
	for name := range c.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List возвращает описания, отсортированные по имени.
func (c *Catalog) List() []*Definition {
	names := c.Names()

	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]*Definition, 0, len(names))
	for _, name := range names {
		if def, ok := c.pipelines[name]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// Count возвращает количество описаний.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}
