package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/scheduler"
)

// NewScheduleCmd создаёт группу команд для проверки cron-расписаний.
func NewScheduleCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect cron schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(envFn, outputFn),
		newScheduleNextCmd(outputFn),
	)

	return cmd
}

func newScheduleListCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	var entries string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules from TASKGRAPH_SCHEDULES with their next fire time",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if !cmd.Flags().Changed("entries") {
				entries = env.Config.Schedules
			}

			schedules, err := scheduler.ParseEntries(entries)
			if err != nil {
				return err
			}

			now := time.Now()
			headers := []string{"PIPELINE", "STRATEGY", "CRON", "TIMEZONE", "KNOWN", "NEXT_DUE"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				next, err := scheduler.CalculateNextDue(s.CronExpr, s.Timezone, now)
				if err != nil {
					return err
				}
				s.NextDueAt = &next
				rows[i] = []string{
					s.Pipeline,
					string(s.Strategy),
					s.CronExpr,
					s.Timezone,
					strconv.FormatBool(env.Catalog.Has(s.Pipeline)),
					next.Format(time.RFC3339),
				}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&entries, "entries", "", "Schedule entries, e.g. \"demo:kahn=*/5 * * * *;diamond=@hourly\"")

	return cmd
}

func newScheduleNextCmd(outputFn OutputFunc) *cobra.Command {
	var count int
	var timezone string

	cmd := &cobra.Command{
		Use:   "next CRON_EXPR",
		Short: "Print the next fire times of a cron expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if count <= 0 {
				return fmt.Errorf("count must be positive: %d", count)
			}

			times, err := NextFireTimes(args[0], timezone, time.Now(), count)
			if err != nil {
				return err
			}

			rows := make([][]string, len(times))
			for i, t := range times {
				rows[i] = []string{strconv.Itoa(i + 1), t.Format(time.RFC3339)}
			}
			out.Print([]string{"#", "AT"}, rows, times)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of fire times to print")
	cmd.Flags().StringVar(&timezone, "tz", "UTC", "Timezone for the expression")

	return cmd
}

// NextFireTimes возвращает count следующих срабатываний выражения после from.
func NextFireTimes(expr, tz string, from time.Time, count int) ([]time.Time, error) {
	times := make([]time.Time, 0, count)
	at := from
	for range count {
		next, err := scheduler.CalculateNextDue(expr, tz, at)
		if err != nil {
			return nil, err
		}
		times = append(times, next)
		at = next
	}
	return times, nil
}
