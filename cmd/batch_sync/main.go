package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/app"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/config"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/batch"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/brokers/kafka/producer"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "batch_sync",
		Short:         "Pull Shiprocket orders and shipments and push their metrics to analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $CONFIG_PATH)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup wires the application for a one-shot command. Failed batches go
// through a synchronous producer so they are acknowledged before exit.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewSlogLogger(logger.SlogEnvironment(cfg.Env))

	var opts app.Options
	if cfg.Kafka.Enabled() {
		syncProducer, err := producer.NewSyncProducer(cfg.Kafka.BrokerList)
		if err != nil {
			return nil, err
		}
		opts.Publisher = syncProducer
	}

	return app.NewApp(ctx, log, &cfg, opts)
}

func runCmd() *cobra.Command {
	var from, to, syncType string
	var lookback time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync one time window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			req, err := syncRequest(from, to, syncType, lookback, time.Now())
			if err != nil {
				return err
			}

			application, err := setup(ctx)
			if err != nil {
				return err
			}
			defer application.Stop(context.Background())

			run, runErr := application.Batch.Run(ctx, req)
			if err = printJSON(cmd, run); err != nil {
				return err
			}

			return runErr
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start, RFC3339 or YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "window end, RFC3339 or YYYY-MM-DD (default now)")
	cmd.Flags().StringVarP(&syncType, "type", "t", string(models.SyncAll), "orders, shipments or all")
	cmd.Flags().DurationVar(&lookback, "lookback", 24*time.Hour, "window length when --from is empty")

	return cmd
}

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Stop(context.Background())

			runs, err := application.Batch.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return printJSON(cmd, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")

	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check both remote APIs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Stop(context.Background())

			reports := []models.HealthReport{
				application.Analytics.HealthCheck(cmd.Context()),
				application.Shiprocket.HealthCheck(cmd.Context()),
			}
			if err = printJSON(cmd, reports); err != nil {
				return err
			}

			for _, report := range reports {
				if !report.Healthy {
					return fmt.Errorf("%s is unhealthy: %s", report.Name, report.Error)
				}
			}

			return nil
		},
	}
}

func syncRequest(from, to, syncType string, lookback time.Duration, now time.Time) (batch.SyncRequest, error) {
	req := batch.SyncRequest{Type: models.SyncType(syncType), To: now}

	if to != "" {
		parsed, err := batch.ParseEnd(to)
		if err != nil {
			return batch.SyncRequest{}, fmt.Errorf("--to: %w", err)
		}
		req.To = parsed
	}

	req.From = req.To.Add(-lookback)
	if from != "" {
		parsed, err := batch.ParseStart(from)
		if err != nil {
			return batch.SyncRequest{}, fmt.Errorf("--from: %w", err)
		}
		req.From = parsed
	}

	return req, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
