package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/mq"
)

// enqueueConnectTimeout — сколько ждать подключения к RabbitMQ.
const enqueueConnectTimeout = 10 * time.Second

// NewEnqueueCmd создаёт команду постановки pipeline в очередь worker.
func NewEnqueueCmd(envFn EnvFunc, outputFn OutputFunc) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "enqueue PIPELINE",
		Short: "Request a pipeline run from taskgraph-worker via RabbitMQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			// Каталог worker может отличаться от локального
			if !env.Catalog.Has(args[0]) {
				env.Logger.Warn("pipeline is not in the local catalog, worker may reject it", "pipeline", args[0])
			}
			if strategy != "" {
				if _, err := domain.ParseStrategy(strategy); err != nil {
					return err
				}
			}

			url := env.Config.RabbitMQURL
			if url == "" {
				url = mq.DefaultURL()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), enqueueConnectTimeout)
			defer cancel()

			conn, err := mq.NewConnection(ctx, url, env.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return err
			}

			payload := mq.RunRequestedPayload{Pipeline: args[0], Strategy: strategy}
			if err := mq.NewPublisher(conn, env.Logger).PublishRunRequested(ctx, payload); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run requested: %s", args[0]))
			if out.IsJSON() {
				out.JSON(payload)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Traversal strategy (bfs, kahn, parallel); default from the worker")

	return cmd
}
