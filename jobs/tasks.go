package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskChartExport renders a stored chart to PDF.
	TaskChartExport = "chart:export"
)

// ChartExportPayload identifies the chart to export.
type ChartExportPayload struct {
	ChartID string `json:"chart_id"`
	Title   string `json:"title,omitempty"`
}

// NewChartExportTask constructs an Asynq task. Exports of one chart are
// deduplicated while a previous one is still queued.
func NewChartExportTask(payload ChartExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChartExport, data,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(time.Minute),
	), nil
}
