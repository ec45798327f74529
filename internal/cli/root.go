package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd собирает дерево команд taskgraph.
//
// Env создаётся один раз при первом обращении и закрывается после команды.
func NewRootCmd(version string) *cobra.Command {
	var opts Options
	var env *Env

	rootCmd := &cobra.Command{
		Use:           "taskgraph",
		Short:         "taskgraph — dependency graph task executor",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env != nil {
				env.Close()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "HCL pipeline file or directory (adds to built-in pipelines)")

	envFn := func() (*Env, error) {
		if env != nil {
			return env, nil
		}
		e, err := NewEnv(opts)
		if err != nil {
			return nil, err
		}
		env = e
		return env, nil
	}
	outputFn := func() *Output {
		return NewOutputTo(opts.JSON, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())
	}

	rootCmd.AddCommand(
		NewRunCmd(envFn, outputFn),
		NewPlanCmd(envFn, outputFn),
		NewPipelineCmd(envFn, outputFn),
		NewRunsCmd(envFn, outputFn),
		NewEnqueueCmd(envFn, outputFn),
		NewScheduleCmd(envFn, outputFn),
	)

	return rootCmd
}
