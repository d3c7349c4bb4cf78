package httpapi

import (
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// ProjectResponse is the client view of a project: images and videos are
// merged into media.
type ProjectResponse struct {
	ID           int64                `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       models.ProjectStatus `json:"status"`
	Constituency string               `json:"constituency"`
	Media        []models.Attachment  `json:"media"`
	Reports      []models.Report      `json:"reports"`
	OwnerID      *string              `json:"ownerId,omitempty"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	reports := p.Reports
	if reports == nil {
		reports = []models.Report{}
	}
	return ProjectResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		Constituency: p.Constituency,
		Media:        p.Media(),
		Reports:      reports,
		OwnerID:      p.OwnerID,
	}
}

type CreateProjectRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       models.ProjectStatus `json:"status"`
	Constituency string               `json:"constituency"`
	Media        []models.Attachment  `json:"media"`
	Reports      []models.Report      `json:"reports"`
}

// UpdateProjectRequest is the bulk edit body. media, when present, replaces
// both images and videos; images or videos replace only their own list.
// Reports cannot be edited here.
type UpdateProjectRequest struct {
	Title        *string               `json:"title"`
	Description  *string               `json:"description"`
	Status       *models.ProjectStatus `json:"status"`
	Constituency *string               `json:"constituency"`
	Media        *[]models.Attachment  `json:"media"`
	Images       *[]models.Attachment  `json:"images"`
	Videos       *[]models.Attachment  `json:"videos"`
}

func (u UpdateProjectRequest) patch() (models.ProjectPatch, error) {
	p := models.ProjectPatch{
		Title:        u.Title,
		Description:  u.Description,
		Status:       u.Status,
		Constituency: u.Constituency,
		Images:       u.Images,
		Videos:       u.Videos,
	}
	if u.Media != nil {
		images, videos, err := models.SplitMedia(*u.Media)
		if err != nil {
			return models.ProjectPatch{}, err
		}
		p.Images, p.Videos = &images, &videos
	}
	return p, nil
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

type DeleteProjectResponse struct {
	ID      int64 `json:"id"`
	Objects int   `json:"objects"`
	Orphans int   `json:"orphans"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Role        string    `json:"role"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
