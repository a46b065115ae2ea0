package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/stackchart/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerExport enqueues a PDF export of chartID.
func (c *JobsCLI) TriggerExport(ctx context.Context, chartID, title string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("jobs cli: client not configured")
	}
	if chartID == "" {
		return "", errors.New("jobs cli: chart id is required")
	}
	return c.client.EnqueueChartExport(ctx, jobs.ChartExportPayload{ChartID: chartID, Title: title})
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Failed    int    `json:"failed"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
		stats.Failed = int(info.Failed)
	}
	return stats, nil
}

func newJobsCommand(stdout, stderr io.Writer) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue and inspect background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "Redis address of the job queue")

	var title string
	export := &cobra.Command{
		Use:   "export <chart-id>",
		Short: "Enqueue a PDF export of a stored chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			id, err := c.TriggerExport(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, id)
			return nil
		},
	}
	export.Flags().StringVar(&title, "title", "", "page heading of the exported document")
	cmd.AddCommand(export)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print queue statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
				return exitCode(1)
			}
			return json.NewEncoder(stdout).Encode(stats)
		},
	})
	return cmd
}
