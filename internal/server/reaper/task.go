// Package reaper retries the deletion of blob objects orphaned by failed
// compensating or cascading deletes. The server enqueues asynq tasks; the
// worker binary processes them.
package reaper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/server/attachments"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/hibiken/asynq"
)

const TypeBlobReap = "blob:reap"

type Payload struct {
	ProjectID int64            `json:"project_id"`
	ObjectID  string           `json:"object_id"`
	Kind      models.MediaKind `json:"kind"`
	Op        string           `json:"op"`
}

func NewReapTask(w attachments.OrphanWarning, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(Payload{ProjectID: w.ProjectID, ObjectID: w.ObjectID, Kind: w.Kind, Op: w.Op})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBlobReap, payload, asynq.MaxRetry(maxRetry)), nil
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer is an attachments.OrphanSink backed by an asynq client.
type Enqueuer struct {
	client   taskEnqueuer
	maxRetry int
}

func NewEnqueuer(client taskEnqueuer, maxRetry int) *Enqueuer {
	return &Enqueuer{client: client, maxRetry: maxRetry}
}

func (e *Enqueuer) Enqueue(ctx context.Context, w attachments.OrphanWarning) error {
	task, err := NewReapTask(w, e.maxRetry)
	if err != nil {
		return fmt.Errorf("build reap task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue reap task: %w", err)
	}
	return nil
}
