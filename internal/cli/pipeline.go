package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/pipeline"
)

// NewPipelineCmd создаёт группу команд для просмотра каталога pipelines.
func NewPipelineCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Inspect available pipelines",
	}

	cmd.AddCommand(
		newPipelineListCmd(envFn, outputFn),
		newPipelineShowCmd(envFn, outputFn),
	)

	return cmd
}

func newPipelineListCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			defs := env.Catalog.List()

			headers := []string{"NAME", "TASKS", "ENTRY_POINTS", "DESCRIPTION"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{
					d.Name,
					strconv.Itoa(len(d.Tasks)),
					strings.Join(d.EntryPoints(), ","),
					d.Description,
				}
			}

			out.Print(headers, rows, defs)
			return nil
		},
	}
}

func newPipelineShowCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show pipeline tasks and edges",
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

			headers := []string{"ID", "NAME", "KIND", "ENTRY", "ACTION", "OUTPUTS"}
			rows := make([][]string, len(def.Tasks))
			for i, t := range def.Tasks {
				action := t.Action
				if action == "" {
					action = pipeline.ActionLog
				}
				rows[i] = []string{
					t.ID,
					t.DisplayName(),
					string(t.Kind),
					strconv.FormatBool(t.IsEntryPoint()),
					action,
					strings.Join(t.Outputs, ","),
				}
			}

			out.Print(headers, rows, def)
			return nil
		},
	}
}
