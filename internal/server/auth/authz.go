package auth

import (
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionUpload   Action = "upload"
	ActionRegister Action = "register"
)

// Authorizer decides whether a principal may perform action on project.
// project is nil for actions that are not tied to an existing project.
type Authorizer interface {
	Allowed(p Principal, action Action, project *models.Project) bool
}

// OwnerPolicy lets admins do everything, lets any authenticated principal
// create projects, and restricts everything else to the project owner.
// Projects without an owner are admin-only.
type OwnerPolicy struct{}

func (OwnerPolicy) Allowed(p Principal, action Action, project *models.Project) bool {
	if p.UserID == "" {
		return false
	}
	if p.IsAdmin() {
		return true
	}

	switch action {
	case ActionCreate:
		return true
	case ActionRegister:
		return false
	}

	if project == nil || project.OwnerID == nil {
		return false
	}
	return *project.OwnerID == p.UserID
}

// Check returns common.ErrorUnauthorized for an anonymous principal and
// common.ErrorForbidden when a is denied.
func Check(a Authorizer, p Principal, action Action, project *models.Project) error {
	if p.UserID == "" {
		return common.ErrorUnauthorized
	}
	if !a.Allowed(p, action, project) {
		return fmt.Errorf("%w: %s", common.ErrorForbidden, action)
	}
	return nil
}
