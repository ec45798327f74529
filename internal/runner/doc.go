// Package runner выполняет pipelines и ведёт учёт runs.
//
// Runner отвечает за:
//   - Построение графа по описанию из каталога
//   - Выполнение графа выбранной стратегией
//   - Сохранение run (статус, фазы, порядок вызовов) в хранилище
//   - Публикацию событий run.started, task.finished, run.finished
//   - Метрики runs и задач
//   - Потребление запросов из очереди runs.requested
//
// Граф живёт ровно один run и освобождается через Terminate
// независимо от результата.
package runner
