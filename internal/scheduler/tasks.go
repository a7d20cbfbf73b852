package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadRecompute = "leads.recompute"

type LeadRecomputePayload struct {
	LeadID string `json:"leadId"`
}

func NewLeadRecomputeTask(payload LeadRecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRecompute, data), nil
}

func ParseLeadRecomputePayload(task *asynq.Task) (LeadRecomputePayload, error) {
	var payload LeadRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRecomputePayload{}, err
	}
	return payload, nil
}
