package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskLookupDeadline = "lookups.deadline"

type LookupDeadlinePayload struct {
	LookupID string `json:"lookupId"`
}

func NewLookupDeadlineTask(lookupID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(LookupDeadlinePayload{LookupID: lookupID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLookupDeadline, data), nil
}

func ParseLookupDeadlinePayload(task *asynq.Task) (uuid.UUID, error) {
	var payload LookupDeadlinePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(payload.LookupID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup deadline payload: %w", err)
	}
	return id, nil
}

// deadlineTaskID makes rescheduling the same lookup a no-op.
func deadlineTaskID(lookupID uuid.UUID) string {
	return TaskLookupDeadline + ":" + lookupID.String()
}
