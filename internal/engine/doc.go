// Package engine содержит движок выполнения графа задач.
//
// Включает:
//   - task.go      — задача (узел графа) и её callback
//   - graph.go     — реестр задач: регистрация, точки входа, terminate
//   - plan.go      — вычисление фаз без выполнения callback (BFS и алгоритм Кана)
//   - bfs.go       — поэтапный обход в ширину с синтетическим корнем
//   - kahn.go      — выполнение по уровням входящей степени
//   - parallel.go  — параллельное выполнение уровней с барьером между ними
//   - strategy.go  — интерфейс стратегии и выбор по имени
//   - phases.go    — фазы и их текстовое представление
//   - executor.go  — запуск стратегии, наблюдатель, интроспекция фаз
//   - validate.go  — необязательная проверка графа (дубликаты, циклы)
//
// Фаза — набор задач, разблокированных на одном шаге обхода.
//
// Две семантики назначения фаз:
//
//	bfs  — задача попадает в фазу того предшественника, который
//	       извлечён из очереди первым (first-dequeue-wins)
//	kahn — задача попадает в уровень после своего последнего предшественника
//
// На графах, где в задачу ведёт больше одного пути, они расходятся:
//
//	A → B → C, A → C:   bfs  = [[A] [B C]]
//	                    kahn = [[A] [B] [C]]
//
// Задачи одного уровня Кана не зависят друг от друга, задачи одной
// bfs-фазы могут зависеть. Поэтому параллельная стратегия всегда
// использует уровни Кана.
package engine
