package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskOrphanIdentityDelete retries a compensating provider-account delete
// that failed inline during a registration rollback.
const TaskOrphanIdentityDelete = "auth.orphan_identity.delete"

type OrphanIdentityDeletePayload struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

func NewOrphanIdentityDeleteTask(payload OrphanIdentityDeletePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanIdentityDelete, data), nil
}

func ParseOrphanIdentityDeletePayload(task *asynq.Task) (OrphanIdentityDeletePayload, error) {
	var payload OrphanIdentityDeletePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrphanIdentityDeletePayload{}, err
	}
	return payload, nil
}
