// Package blobstore wraps object storage behind a small upload/delete
// contract. Implementations exist for S3 (aws-sdk-go-v2), MinIO and memory.
package blobstore

import (
	"context"
	"mime"
	"strings"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/google/uuid"
)

// Folders group objects by what they hold.
const (
	FolderImages  = "project_media"
	FolderVideos  = "project_videos"
	FolderReports = "project_reports"
)

// FolderFor returns the folder used for objects of kind.
func FolderFor(kind models.MediaKind) string {
	switch kind {
	case models.KindVideo:
		return FolderVideos
	case models.KindDocument:
		return FolderReports
	default:
		return FolderImages
	}
}

// ObjectRef identifies a stored object. ObjectID is authoritative; URL is a
// retrievable location derived from it.
type ObjectRef struct {
	ObjectID string
	URL      string
}

// Store is the blob storage contract.
//
// Upload either creates exactly one object and returns its reference, or
// fails leaving nothing behind. Delete is idempotent: deleting an object
// that does not exist succeeds.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (ObjectRef, error)
	Delete(ctx context.Context, objectID string, kind models.MediaKind) error
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/mpeg":      ".mpeg",
	"video/quicktime": ".mov",
	"application/pdf": ".pdf",
}

// NewObjectKey returns "<folder>/<uuid><ext>".
func NewObjectKey(folder, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return strings.Trim(folder, "/") + "/" + uuid.NewString() + ext
}

// ObjectURL joins base, bucket and key with single slashes.
func ObjectURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
