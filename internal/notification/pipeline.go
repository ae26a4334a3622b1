package notification

import (
	"context"
	"fmt"
	"os"

	"github.com/mainajackson95/gau-tools/pkg/classify"
	"github.com/mainajackson95/gau-tools/pkg/stages"
)

// Configured reports whether Discord alerting is set up in the environment.
func Configured() bool {
	return os.Getenv("DISCORD_TOKEN") != "" && os.Getenv("DISCORD_CHANNEL_ID") != ""
}

// PipelineNotifier adapts the Discord client to the pipeline notifier seams:
// one embed per script with high-priority findings, one embed per finished
// run.
type PipelineNotifier struct {
	client *NotificationClient
}

func NewPipelineNotifier() (*PipelineNotifier, error) {
	client, err := NewNotificationClient()
	if err != nil {
		return nil, err
	}
	return &PipelineNotifier{client: client}, nil
}

func (n *PipelineNotifier) NotifyHighPriority(_ context.Context, findings *classify.ScriptFindings) error {
	fields := make(map[string]string)
	for _, category := range classify.PriorityCategories {
		if count := len(findings.Matches[category]); count > 0 {
			fields[string(category)] = fmt.Sprintf("%d matches", count)
		}
	}

	return n.client.Send(Message{
		Title:       "High-priority script findings",
		Description: findings.URL,
		Severity:    "critical",
		Fields:      fields,
	})
}

func (n *PipelineNotifier) NotifyRunComplete(_ context.Context, summary *stages.RunSummary) error {
	severity := "info"
	if summary.Failed() {
		severity = "high"
	}

	fields := map[string]string{
		"run_id":  summary.RunID,
		"elapsed": fmt.Sprintf("%.1fs", summary.ElapsedSeconds),
	}
	for _, stage := range summary.Stages {
		fields[stage.Name] = string(stage.State)
	}

	return n.client.Send(Message{
		Title:       "Recon run finished",
		Description: fmt.Sprintf("Output tree: %s", summary.OutputRoot),
		Severity:    severity,
		Fields:      fields,
	})
}

func (n *PipelineNotifier) Close() error {
	return n.client.Close()
}
