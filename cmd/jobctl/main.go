// File: cmd/jobctl/main.go
//
// jobctl is the operator CLI for the spot-image job store: inspect job
// state and push terminally failed jobs back into the queue.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/config"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	pg "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/db/postgres"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/dispatch"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "jobctl",
		Short:         "Operate the spot-image job queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")

	jobs := &cobra.Command{Use: "jobs", Short: "Inspect and repair spot-image jobs"}
	jobs.AddCommand(listCmd(), statsCmd(), requeueCmd())
	root.AddCommand(jobs)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withJobUC connects to the store and hands a ready use case to fn.
// Requeue re-dispatches through Cloud Tasks when config says push, so the
// CLI behaves exactly like the push handler's recovery path.
func withJobUC(fn func(ctx context.Context, uc usecase.ImageJobUseCase) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(cfgPath, false)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, true)

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	var dispatcher adapter.JobDispatcher
	if cfg.Tasks.Mode == "push" {
		dispatcher, err = dispatch.NewCloudTasksDispatcher(ctx, cfg.Tasks.Project, cfg.Tasks.Location, cfg.Tasks.Queue, cfg.Tasks.HandlerURL, logger)
		if err != nil {
			return err
		}
	} else {
		dispatcher = dispatch.NewNullDispatcher()
	}

	jobRepo := pg.NewImageJobRepo(pool)
	spotRepo := pg.NewSpotRepo(pool)
	uc := usecase.NewImageJobUseCase(jobRepo, spotRepo, nil, dispatcher, cfg.Jobs.StaleAfter, logger)
	return fn(ctx, uc)
}

func listCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobUC(func(ctx context.Context, uc usecase.ImageJobUseCase) error {
				jobs, err := uc.List(ctx, model.ImageJobStatus(status), limit)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Printf("no %s jobs\n", status)
					return nil
				}
				for _, j := range jobs {
					line := fmt.Sprintf("%s  %-10s  plan=%s  spot=%q  attempts=%d/%d",
						j.ID, j.Status, j.PlanID, j.SpotName, j.Attempts, j.MaxAttempts)
					if j.LastError != "" {
						line += "  last_error=" + j.LastError
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "failed", "job status to list (queued|processing|succeeded|failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-status job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobUC(func(ctx context.Context, uc usecase.ImageJobUseCase) error {
				counts, err := uc.Stats(ctx)
				if err != nil {
					return err
				}
				for _, st := range []model.ImageJobStatus{
					model.ImageJobStatusQueued, model.ImageJobStatusProcessing,
					model.ImageJobStatusSucceeded, model.ImageJobStatusFailed,
				} {
					fmt.Printf("%-12s %d\n", st, counts[st])
				}
				return nil
			})
		},
	}
}

func requeueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <job-id>",
		Short: "Move a failed job back to queued and re-dispatch it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobUC(func(ctx context.Context, uc usecase.ImageJobUseCase) error {
				job, err := uc.Requeue(ctx, args[0], "")
				if err != nil {
					return err
				}
				fmt.Printf("job %s requeued (attempts %d/%d, spot %q)\n", job.ID, job.Attempts, job.MaxAttempts, job.SpotName)
				return nil
			})
		},
	}
}
