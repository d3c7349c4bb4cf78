package attachments

import (
	"context"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// Orphan operations.
const (
	OpCompensate = "compensate"
	OpDelete     = "delete"
	OpCascade    = "cascade"
)

// OrphanWarning records a blob object left behind after its metadata was
// already changed. It is not an error.
type OrphanWarning struct {
	ProjectID int64
	ObjectID  string
	Kind      models.MediaKind
	Op        string
	Err       error
}

// OrphanSink receives orphans for later cleanup.
type OrphanSink interface {
	Enqueue(ctx context.Context, w OrphanWarning) error
}

// CascadeResult summarizes the blob deletions issued by DeleteProject.
type CascadeResult struct {
	Attempted int
	Orphans   []OrphanWarning
}

func (c *Coordinator) orphan(ctx context.Context, w OrphanWarning) {
	c.logger.Warn(ctx, "blob object orphaned",
		"project_id", w.ProjectID,
		"object_id", w.ObjectID,
		"kind", string(w.Kind),
		"op", w.Op,
		"error", w.Err,
	)

	if c.sink == nil {
		return
	}
	if err := c.sink.Enqueue(ctx, w); err != nil {
		c.logger.Error(ctx, "enqueue orphan for reaping", "object_id", w.ObjectID, "error", err)
	}
}
