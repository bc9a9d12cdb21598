package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention prunes audit log rows past the retention window.
	TaskAuditRetention = "audit:retention"
	// TaskCounterCleanup removes document counter rows from previous days.
	TaskCounterCleanup = "counters:cleanup"
)

// AuditRetentionPayload carries parameters for the audit retention sweep.
type AuditRetentionPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditRetentionTask constructs an Asynq task for the retention sweep.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal audit retention payload: %w", err)
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewCounterCleanupTask constructs an Asynq task for counter cleanup.
func NewCounterCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskCounterCleanup, nil)
}

func decodePayload(t *asynq.Task, target any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), target); err != nil {
		return fmt.Errorf("jobs: decode %s payload: %w", t.Type(), err)
	}
	return nil
}
