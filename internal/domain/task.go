package domain

import "fmt"

// TaskKind — тип задачи в графе.
//
// Набор типов закрыт. Тип влияет только на то, является ли задача
// точкой входа по умолчанию; на выполнение callback он не влияет.
type TaskKind string

const (
	// TaskKindCreatePrompt — построение промпта. Точка входа по умолчанию.
	TaskKindCreatePrompt TaskKind = "create_prompt"

	// TaskKindInvokeModel — вызов модели.
	TaskKindInvokeModel TaskKind = "invoke_model"

	// TaskKindParseJSON — разбор структурированных данных.
	TaskKindParseJSON TaskKind = "parse_json"

	// TaskKindOutputData — вывод результата.
	TaskKindOutputData TaskKind = "output_data"
)

// TaskKinds возвращает все типы задач в порядке объявления.
func TaskKinds() []TaskKind {
	return []TaskKind{
		TaskKindCreatePrompt,
		TaskKindInvokeModel,
		TaskKindParseJSON,
		TaskKindOutputData,
	}
}

// IsValid проверяет, что тип входит в закрытый набор.
func (k TaskKind) IsValid() bool {
	switch k {
	case TaskKindCreatePrompt, TaskKindInvokeModel, TaskKindParseJSON, TaskKindOutputData:
		return true
	default:
		return false
	}
}

// DefaultEntryPoint возвращает true для типов, которые по соглашению
// не имеют обязательных предшественников.
//
// Флаг задаётся структурно, а не по входящей степени: вызывающий код
// сам отвечает за согласованность флага с набором рёбер.
func (k TaskKind) DefaultEntryPoint() bool {
	return k == TaskKindCreatePrompt
}

// String реализует fmt.Stringer.
func (k TaskKind) String() string {
	return string(k)
}

// ParseTaskKind разбирает тип задачи.
func ParseTaskKind(s string) (TaskKind, error) {
	k := TaskKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown task kind %q", s)
	}
	return k, nil
}
