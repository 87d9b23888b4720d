package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/auth"
	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/cron"
	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/services"
	"github.com/lexsearch/lexsearch-core/internal/ingest"
)

func newReindexCmd() *cobra.Command {
	var jobType string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Run one index job and wait for it to finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.indexService.EnsureIndexes(ctx); err != nil {
					return fmt.Errorf("provision indexes: %w", err)
				}
				defer a.worker.Stop()

				job, err := a.worker.RunNow(ctx, domain.JobType(jobType))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s %s\n", job.ID, job.Status)
				if job.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", job.Error)
				}
				if job.Status != domain.JobStatusCompleted {
					return fmt.Errorf("job %s ended %s", job.ID, job.Status)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jobType, "type", string(domain.JobTypeIncremental), "Job type: full or incremental")
	cmd.Flags().Int("batch-size", 0, "Documents per index batch")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Load ELI JSON and text files from a directory into the document store",
		Long: `Load ELI JSON and text files from a directory into the document store.

Document IDs derive from the path relative to <dir>, so importing the same
tree again updates the existing documents. Imported documents are pending
until the next index run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				loader := ingest.NewLoader(ingest.Config{Logger: a.logger})
				report, err := loader.Load(ctx, args[0], a.documents.SaveBatch)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "files: %d imported: %d skipped: %d\n", report.Files, report.Imported, report.Skipped)
				for path, ferr := range report.Failures {
					fmt.Fprintf(out, "  %s: %v\n", path, ferr)
				}
				return nil
			})
		},
	}
	return cmd
}

func newCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Inspect cron expressions",
	}

	// Describe and Preview only need the parser
	schedules := services.NewScheduleService(nil, cron.NewParser(cronCacheSize), nil)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <expression>",
		Short: "Check a five-field cron expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := schedules.Describe(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	})

	var count int
	var from string
	preview := &cobra.Command{
		Use:   "preview <expression>",
		Short: "List the next activations of a cron expression in UTC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now().UTC()
			if from != "" {
				t, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("--from must be RFC3339: %w", err)
				}
				start = t
			}
			runs, err := schedules.Preview(args[0], start, count)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), run.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	preview.Flags().IntVarP(&count, "count", "n", 5, "Number of activations")
	preview.Flags().StringVar(&from, "from", "", "Start time (RFC3339, default now)")
	cmd.AddCommand(preview)

	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is required (set LEXSEARCH_AUTH_JWT_SECRET)")
			}
			adapter, err := auth.NewAdapter(settings.Auth.JWTSecret)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = settings.Auth.TokenTTL
			}
			token, err := adapter.Issue(subject, domain.Role(strings.ToLower(role)), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleReader), "Role: admin or reader")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default auth.token_ttl)")
	return cmd
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream job lifecycle events published on Redis as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.events == nil {
					return fmt.Errorf("redis.url is required to stream job events")
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				return a.events.Listen(ctx, func(event domain.JobEvent) {
					if err := enc.Encode(event); err != nil {
						a.logger.Warn("failed to write event", "error", err)
					}
				})
			})
		},
	}
}
