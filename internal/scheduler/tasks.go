package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDirectoryCacheWarm = "directory.cache.warm"

// CacheWarmPayload selects the shared cache slot to refill. Empty fields
// warm the unfiltered directory.
type CacheWarmPayload struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
}

func NewCacheWarmTask(payload CacheWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDirectoryCacheWarm, data), nil
}

func ParseCacheWarmPayload(task *asynq.Task) (CacheWarmPayload, error) {
	var payload CacheWarmPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CacheWarmPayload{}, err
	}
	return payload, nil
}
