package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/pipeline"
)

// NewPlanCmd создаёт команду вычисления фаз без вызова callbacks.
func NewPlanCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "plan PIPELINE",
		Short: "Show phases of a pipeline without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			def, err := env.Catalog.Get(args[0])
			if err != nil {
				return err
			}

			strategies := []domain.Strategy{domain.StrategyBreadthFirst, domain.StrategyInDegree}
			if strategy != "" {
				s, err := domain.ParseStrategy(strategy)
				if err != nil {
					return err
				}
				strategies = []domain.Strategy{s}
			}

			results, err := pipeline.Plan(def, strategies)
			if err != nil {
				return err
			}

			headers := []string{"STRATEGY", "PHASES", "ERROR"}
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{string(r.Strategy), FormatPhases(r.Phases), r.Error}
			}
			out.Print(headers, rows, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Plan a single strategy (bfs, kahn, parallel)")

	return cmd
}
