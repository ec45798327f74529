package pipeline

import "github.com/shaiso/taskgraph/internal/domain"

// Builtin создаёт каталог со встроенными пайплайнами.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, def := range builtinDefinitions() {
		// Встроенные описания валидны
		if err := c.Register(def); err != nil {
			panic(err)
		}
	}
	return c
}

func builtinDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "demo",
			Description: "prompt -> parse json + llm -> output",
			Tasks: []TaskDef{
				{ID: "prompt", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"parse", "llm"}},
				{ID: "output", Kind: domain.TaskKindOutputData},
				{ID: "llm", Kind: domain.TaskKindInvokeModel, Outputs: []string{"output"}},
				{ID: "parse", Kind: domain.TaskKindParseJSON, Outputs: []string{"output"}},
			},
		},
		{
			Name:        "chain",
			Description: "linear chain a -> b -> c -> d",
			Tasks: []TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"b"}},
				{ID: "b", Kind: domain.TaskKindInvokeModel, Outputs: []string{"c"}},
				{ID: "c", Kind: domain.TaskKindParseJSON, Outputs: []string{"d"}},
				{ID: "d", Kind: domain.TaskKindOutputData},
			},
		},
		{
			Name:        "diamond",
			Description: "a -> {b, c} -> d",
			Tasks: []TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"b", "c"}},
				{ID: "b", Kind: domain.TaskKindInvokeModel, Outputs: []string{"d"}, Action: ActionDelay, DelayMs: 10},
				{ID: "c", Kind: domain.TaskKindInvokeModel, Outputs: []string{"d"}, Action: ActionDelay, DelayMs: 10},
				{ID: "d", Kind: domain.TaskKindOutputData},
			},
		},
		{
			Name:        "shortcut",
			Description: "a -> b -> c with a -> c; bfs and kahn phases differ",
			Tasks: []TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"b", "c"}},
				{ID: "b", Kind: domain.TaskKindInvokeModel, Outputs: []string{"c"}},
				{ID: "c", Kind: domain.TaskKindOutputData},
			},
		},
	}
}
