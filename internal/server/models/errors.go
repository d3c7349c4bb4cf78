package models

import (
	"github.com/dmitrijs2005/mpmonitor/internal/common"
)

var errMissingObjectID = common.Validationf("media entry without objectId")

func errInvalidStatus(s ProjectStatus) error {
	return common.Validationf("invalid status %q", s)
}

func errUnknownKind(a Attachment) error {
	return common.Validationf("media entry %q has unknown type %q", a.ObjectID, a.Kind)
}

func errKindMismatch(a Attachment, want MediaKind) error {
	return common.Validationf("media entry %q has type %q, want %q", a.ObjectID, a.Kind, want)
}

func errDuplicateObjectID(objectID string) error {
	return common.Validationf("duplicate objectId %q", objectID)
}
