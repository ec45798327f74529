// Package pipeline описывает графы задач декларативно и строит из них engine.Graph.
//
// Включает:
//   - definition.go — Definition и TaskDef, валидация описания
//   - actions.go    — встроенные действия задач (log, delay, fail, noop)
//   - http_action.go — действие http: вызов внешнего endpoint
//   - build.go      — построение графа в две фазы: задачи, затем рёбра
//   - catalog.go    — каталог описаний по имени
//   - builtin.go    — встроенные пайплайны (demo, chain, diamond, shortcut)
//   - hcl.go        — загрузка описаний из HCL файлов
//   - plan.go       — фазы стратегий без вызова callbacks
//
// Пример HCL:
//
//	pipeline "demo" {
//	  description = "prompt -> parse -> output"
//
//	  task "prompt" {
//	    kind    = "create_prompt"
//	    message = "Creating node with blah blah..."
//	    outputs = ["parse"]
//	  }
//
//	  task "parse" {
//	    kind    = "parse_json"
//	    outputs = ["output"]
//	  }
//
//	  task "output" {
//	    kind   = "output_data"
//	    action = "http"
//	    url    = "http://localhost:9000/hooks/done"
//	  }
//	}
package pipeline
