package engine

import "strings"

// Phase — задачи, разблокированные на одном шаге обхода.
type Phase []*Task

// Names возвращает имена задач фазы в порядке фазы.
func (p Phase) Names() []string {
	names := make([]string, len(p))
	for i, t := range p {
		names[i] = t.name
	}
	return names
}

// Phases — упорядоченная последовательность фаз.
type Phases []Phase

// Names возвращает фазы как последовательность последовательностей имён.
func (ps Phases) Names() [][]string {
	names := make([][]string, len(ps))
	for i, p := range ps {
		names[i] = p.Names()
	}
	return names
}

// TaskCount возвращает суммарное количество задач во всех фазах.
func (ps Phases) TaskCount() int {
	n := 0
	for _, p := range ps {
		n += len(p)
	}
	return n
}

// String выводит фазы в виде "[a b] [c]".
func (ps Phases) String() string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('[')
		sb.WriteString(strings.Join(p.Names(), " "))
		sb.WriteByte(']')
	}
	return sb.String()
}
