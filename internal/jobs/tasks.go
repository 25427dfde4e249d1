package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeLedgerPurge  = "ledger:purge"
	TaskTypePushValidate = "push:validate"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type LedgerPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}

func NewLedgerPurgeTask(retentionDays int) (*asynq.Task, error) {
	payload, err := json.Marshal(LedgerPurgePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeLedgerPurge, payload, asynq.Queue(QueueLow)), nil
}

func NewPushValidateTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskTypePushValidate, nil, asynq.Queue(QueueDefault)), nil
}
