// taskgraph — инструмент командной строки для выполнения графов задач.
//
// Использование:
//
//	taskgraph [--json] [--file PATH] <command> [flags]
//
// Команды:
//
//	run       Выполнить pipeline и вывести фазы
//	plan      Показать фазы без выполнения
//	pipeline  Просмотр каталога pipelines
//	runs      Просмотр сохранённых runs
//	enqueue   Поставить pipeline в очередь worker
//	schedule  Проверка cron-расписаний
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/taskgraph/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
