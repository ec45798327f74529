package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/repo"
)

// NewRunsCmd создаёт группу команд для просмотра сохранённых runs.
func NewRunsCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}

	cmd.AddCommand(
		newRunsListCmd(envFn, outputFn),
		newRunsGetCmd(envFn, outputFn),
	)

	return cmd
}

func newRunsListCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	var pipelineName string
	var status string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			filter := repo.RunFilter{
				Pipeline: pipelineName,
				Limit:    limit,
				Offset:   offset,
			}
			if status != "" {
				s, err := parseRunStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			headers := []string{"ID", "PIPELINE", "STRATEGY", "TRIGGER", "STATUS", "PHASES", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID.String(),
					r.Pipeline,
					string(r.Strategy),
					string(r.Trigger),
					string(r.Status),
					strconv.Itoa(len(r.Phases)),
					r.CreatedAt.Format(time.RFC3339),
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineName, "pipeline", "", "Filter by pipeline name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newRunsGetCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID %q: %w", args[0], err)
			}

			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			run, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				out.JSON(run)
				return nil
			}

			out.Table(
				[]string{"ID", "PIPELINE", "STRATEGY", "STATUS", "TASKS", "DURATION", "ERROR"},
				[][]string{{
					run.ID.String(), run.Pipeline, string(run.Strategy), string(run.Status),
					strconv.Itoa(run.TaskCount), run.Duration().String(), run.Error,
				}},
			)
			out.Phases(run.Phases)
			fmt.Fprintf(out.Writer(), "order: %s\n", strings.Join(run.Executed, " "))
			return nil
		},
	}
}

func parseRunStatus(s string) (domain.RunStatus, error) {
	status := domain.RunStatus(strings.ToUpper(s))
	switch status {
	case domain.RunStatusPending, domain.RunStatusRunning, domain.RunStatusSucceeded,
		domain.RunStatusFailed, domain.RunStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}
