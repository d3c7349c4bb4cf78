// Package models holds the persisted shapes of projects, their attachments
// and user accounts.
package models

import (
	"slices"
	"strings"
)

// ProjectStatus is the lifecycle state of a public-works project.
type ProjectStatus string

const (
	StatusOngoing   ProjectStatus = "ongoing"
	StatusCompleted ProjectStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted
}

// DefaultConstituency is stored when a project is created without one.
const DefaultConstituency = "Unknown"

// MediaKind identifies what a blob object holds. Images and videos are
// attachments; documents back reports.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
)

// KindFromContentType derives the attachment kind from a MIME type prefix.
// It returns false for anything that is neither an image nor a video.
func KindFromContentType(contentType string) (MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, true
	default:
		return "", false
	}
}

// Attachment is an image or video held in the blob store. ObjectID is the
// only key used to address it; URL is informational.
type Attachment struct {
	ObjectID string    `json:"objectId"`
	URL      string    `json:"url"`
	Kind     MediaKind `json:"type"`
	Comment  string    `json:"comment"`
}

// Report is a PDF document attached to a project.
type Report struct {
	ID       int64  `json:"id"`
	ObjectID string `json:"objectId"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// Project is the canonical metadata record. Images and Videos are disjoint
// by ObjectID and kept in insertion order.
type Project struct {
	ID           int64
	Title        string
	Description  string
	Status       ProjectStatus
	Constituency string
	Images       []Attachment
	Videos       []Attachment
	Reports      []Report
	OwnerID      *string
}

// Media returns images followed by videos, each in insertion order.
func (p *Project) Media() []Attachment {
	media := make([]Attachment, 0, len(p.Images)+len(p.Videos))
	media = append(media, p.Images...)
	media = append(media, p.Videos...)
	return media
}

// ApplyDefaults fills the values a new project gets when fields are absent.
func (p *Project) ApplyDefaults() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Status == "" {
		p.Status = StatusOngoing
	}
	if strings.TrimSpace(p.Constituency) == "" {
		p.Constituency = DefaultConstituency
	}
	if p.Images == nil {
		p.Images = []Attachment{}
	}
	if p.Videos == nil {
		p.Videos = []Attachment{}
	}
	if p.Reports == nil {
		p.Reports = []Report{}
	}
}

// SplitMedia partitions a client-supplied media list by kind, preserving
// order. An entry that is neither an image nor a video is rejected.
func SplitMedia(media []Attachment) (images, videos []Attachment, err error) {
	images, videos = []Attachment{}, []Attachment{}
	for _, m := range media {
		switch m.Kind {
		case KindImage:
			images = append(images, m)
		case KindVideo:
			videos = append(videos, m)
		default:
			return nil, nil, errUnknownKind(m)
		}
	}
	return images, videos, nil
}

// CheckMedia reports an error unless every image and video has an object
// id, carries the kind of its list, and appears only once across both lists.
func CheckMedia(images, videos []Attachment) error {
	seen := make(map[string]struct{}, len(images)+len(videos))
	for _, list := range []struct {
		kind  MediaKind
		items []Attachment
	}{{KindImage, images}, {KindVideo, videos}} {
		for _, a := range list.items {
			if a.ObjectID == "" {
				return errMissingObjectID
			}
			if a.Kind != list.kind {
				return errKindMismatch(a, list.kind)
			}
			if _, dup := seen[a.ObjectID]; dup {
				return errDuplicateObjectID(a.ObjectID)
			}
			seen[a.ObjectID] = struct{}{}
		}
	}
	return nil
}

// ProjectPatch is the bulk edit payload. Nil fields are left unchanged.
// Images and Videos, when present, replace the whole sequence. Reports are
// never replaced in bulk; they change only through upload and delete.
type ProjectPatch struct {
	Title        *string
	Description  *string
	Status       *ProjectStatus
	Constituency *string
	Images       *[]Attachment
	Videos       *[]Attachment
}

// Validate rejects unknown statuses and media lists that fail CheckMedia.
// A list left nil is checked only against the supplied one.
func (p ProjectPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return errInvalidStatus(*p.Status)
	}
	var images, videos []Attachment
	if p.Images != nil {
		images = *p.Images
	}
	if p.Videos != nil {
		videos = *p.Videos
	}
	return CheckMedia(images, videos)
}

// ApplyTo copies the non-nil fields of p onto project and checks that the
// resulting images and videos stay disjoint.
func (p ProjectPatch) ApplyTo(project *Project) error {
	images, videos := project.Images, project.Videos
	if p.Images != nil {
		images = *p.Images
	}
	if p.Videos != nil {
		videos = *p.Videos
	}
	if err := CheckMedia(images, videos); err != nil {
		return err
	}

	if p.Title != nil {
		project.Title = *p.Title
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.Constituency != nil {
		project.Constituency = *p.Constituency
	}
	if p.Images != nil {
		project.Images = slices.Clone(*p.Images)
	}
	if p.Videos != nil {
		project.Videos = slices.Clone(*p.Videos)
	}
	return nil
}
