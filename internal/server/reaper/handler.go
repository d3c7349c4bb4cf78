package reaper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/blobstore"
	"github.com/hibiken/asynq"
)

type Handler struct {
	store  blobstore.Store
	logger logging.Logger
}

func NewHandler(store blobstore.Store, logger logging.Logger) *Handler {
	return &Handler{store: store, logger: logger.With("module", "reaper")}
}

// ProcessTask deletes the orphaned object. Malformed payloads are not
// retried.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.ObjectID == "" {
		return fmt.Errorf("empty object id: %w", asynq.SkipRetry)
	}

	if err := h.store.Delete(ctx, p.ObjectID, p.Kind); err != nil {
		h.logger.Warn(ctx, "reap failed", "object_id", p.ObjectID, "kind", string(p.Kind), "error", err)
		return err
	}

	h.logger.Info(ctx, "orphan reaped", "project_id", p.ProjectID, "object_id", p.ObjectID, "op", p.Op)
	return nil
}

func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeBlobReap, h)
	return mux
}
