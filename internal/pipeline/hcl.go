package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/shaiso/taskgraph/internal/domain"
)

// hclFile — верхний уровень HCL файла.
type hclFile struct {
	Pipelines []*hclPipeline `hcl:"pipeline,block"`
}

type hclPipeline struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Tasks       []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	ID      string   `hcl:"id,label"`
	Kind    string   `hcl:"kind"`
	Name    string   `hcl:"name,optional"`
	Outputs []string `hcl:"outputs,optional"`
	Entry   *bool    `hcl:"entry,optional"`
	Action  string   `hcl:"action,optional"`
	Message string   `hcl:"message,optional"`
	DelayMs int      `hcl:"delay_ms,optional"`
	URL     string   `hcl:"url,optional"`
	Method  string   `hcl:"method,optional"`
}

// Parse разбирает HCL содержимое. filename используется в диагностике.
func Parse(src []byte, filename string) ([]*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file, filename)
}

// LoadFile читает и разбирает один HCL файл.
func LoadFile(path string) ([]*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(file, path)
}

// LoadDir загружает все *.hcl файлы каталога в алфавитном порядке.
func LoadDir(dir string) ([]*Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return LoadFile(dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(paths)

	var defs []*Definition
	for _, path := range paths {
		fileDefs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// LoadInto загружает описания из path (файл или каталог) в каталог.
// Каталог меняется только если все описания валидны и имена не повторяются.
// Возвращает число зарегистрированных описаний.
func LoadInto(c *Catalog, path string) (int, error) {
	defs, err := LoadDir(path)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if seen[def.Name] {
			return 0, fmt.Errorf("%s: %w: %s", path, ErrDuplicatePipeline, def.Name)
		}
		seen[def.Name] = true
		if err := def.Validate(); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}

	for i, def := range defs {
		if err := c.Register(def); err != nil {
			return i, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(defs), nil
}

func decode(file *hcl.File, filename string) ([]*Definition, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	defs := make([]*Definition, 0, len(parsed.Pipelines))
	for _, p := range parsed.Pipelines {
		def := &Definition{
			Name:        p.Name,
			Description: p.Description,
			Tasks:       make([]TaskDef, 0, len(p.Tasks)),
		}
		for _, t := range p.Tasks {
			kind, err := domain.ParseTaskKind(t.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: pipeline %s: task %s: %w", filename, p.Name, t.ID, err)
			}
			def.Tasks = append(def.Tasks, TaskDef{
				ID:      t.ID,
				Name:    t.Name,
				Kind:    kind,
				Outputs: t.Outputs,
				Entry:   t.Entry,
				Action:  t.Action,
				Message: t.Message,
				DelayMs: t.DelayMs,
				URL:     t.URL,
				Method:  t.Method,
			})
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
