package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/runner"
)

// EnvFunc лениво создаёт Env после парсинга PersistentFlags.
type EnvFunc func() (*Env, error)

// OutputFunc лениво создаёт Output после парсинга PersistentFlags.
type OutputFunc func() *Output

// NewRunCmd создаёт команду локального выполнения pipeline.
func NewRunCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	var strategy string
	var validate bool
	var timeout time.Duration
	var maxParallel int

	cmd := &cobra.Command{
		Use:   "run PIPELINE",
		Short: "Execute a pipeline locally and print its phases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			req := runner.Request{Pipeline: args[0], Trigger: domain.TriggerCLI}
			if strategy != "" {
				s, err := domain.ParseStrategy(strategy)
				if err != nil {
					return err
				}
				req.Strategy = s
			}

			cfg := env.Config.Engine
			if !cmd.Flags().Changed("validate") {
				validate = cfg.Validate
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.TaskTimeout
			}
			if !cmd.Flags().Changed("max-parallel") {
				maxParallel = cfg.MaxParallel
			}

			// В JSON режиме stdout занят результатом.
			var taskOut io.Writer = out.Writer()
			if out.IsJSON() {
				taskOut = io.Discard
			}

			r := runner.New(runner.Config{
				Catalog:     env.Catalog,
				Store:       store,
				Strategy:    env.Config.Strategy(),
				MaxParallel: maxParallel,
				Validate:    validate,
				TaskTimeout: timeout,
				Out:         taskOut,
				Logger:      env.Logger,
			})

			run, runErr := r.Execute(cmd.Context(), req)
			if run == nil {
				return runErr
			}

			printRunResult(out, run)
			return runErr
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Traversal strategy (bfs, kahn, parallel); default from TASKGRAPH_STRATEGY")
	cmd.Flags().BoolVar(&validate, "validate", false, "Reject cyclic graphs before execution")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-task timeout (0 disables)")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "Concurrency limit for the parallel strategy (0 = unlimited)")

	return cmd
}

// printRunResult выводит итог run: статус, фазы и порядок вызовов.
func printRunResult(out *Output, run *domain.Run) {
	if out.IsJSON() {
		out.JSON(run)
		return
	}

	out.Success(fmt.Sprintf("Run %s: %s (%s, %s)", run.ID, run.Status, run.Strategy, run.Duration().Round(time.Microsecond)))
	out.Phases(run.Phases)
	fmt.Fprintf(out.Writer(), "order: %s\n", strings.Join(run.Executed, " "))
}
