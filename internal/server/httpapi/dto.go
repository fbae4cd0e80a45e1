package httpapi

import (
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
	"github.com/dmitrijs2005/placementtracker/internal/timex"
)

type messageResponse struct {
	Message string `json:"message"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type profileResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	IsStaff   bool       `json:"is_staff"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

func toProfile(u *models.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLoginAt,
	}
}

type registerResponse struct {
	Message string          `json:"message"`
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    profileResponse `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    profileResponse `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// profilePatch holds the fields a PATCH may change; nil means keep.
type profilePatch struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (p profilePatch) apply(u *models.User) services.ProfileInput {
	in := services.ProfileInput{Email: u.Email, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
	setIf(&in.Email, p.Email)
	setIf(&in.Username, p.Username)
	setIf(&in.FirstName, p.FirstName)
	setIf(&in.LastName, p.LastName)
	return in
}

type sessionResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	DeviceInfo string    `json:"device_info"`
	IPAddress  string    `json:"ip_address"`
	IsExpired  bool      `json:"is_expired"`
}

type sessionsResponse struct {
	Tokens []sessionResponse `json:"tokens"`
}

func toSessions(list []services.Session) sessionsResponse {
	out := sessionsResponse{Tokens: make([]sessionResponse, 0, len(list))}
	for _, s := range list {
		out.Tokens = append(out.Tokens, sessionResponse(s))
	}
	return out
}

type applicationResponse struct {
	ID            string        `json:"id"`
	CompanyName   string        `json:"company_name"`
	Role          string        `json:"role"`
	Location      string        `json:"location"`
	Status        models.Status `json:"status"`
	AppliedDate   string        `json:"applied_date"`
	InterviewDate *string       `json:"interview_date"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func toApplication(a *models.Application) applicationResponse {
	out := applicationResponse{
		ID:          a.ID,
		CompanyName: a.CompanyName,
		Role:        a.Role,
		Location:    a.Location,
		Status:      a.Status,
		AppliedDate: a.AppliedDate.Format(timex.DateLayout),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.InterviewDate != nil {
		d := a.InterviewDate.Format(timex.DateLayout)
		out.InterviewDate = &d
	}
	return out
}

func toApplications(list []models.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(list))
	for i := range list {
		out = append(out, toApplication(&list[i]))
	}
	return out
}

type applicationPatch struct {
	CompanyName   *string `json:"company_name"`
	Role          *string `json:"role"`
	Location      *string `json:"location"`
	Status        *string `json:"status"`
	AppliedDate   *string `json:"applied_date"`
	InterviewDate *string `json:"interview_date"`
	Notes         *string `json:"notes"`
}

func (p applicationPatch) apply(a *models.Application) services.ApplicationInput {
	in := services.ApplicationInput{
		CompanyName: a.CompanyName,
		Role:        a.Role,
		Location:    a.Location,
		Status:      string(a.Status),
		AppliedDate: a.AppliedDate.Format(timex.DateLayout),
		Notes:       a.Notes,
	}
	if a.InterviewDate != nil {
		in.InterviewDate = a.InterviewDate.Format(timex.DateLayout)
	}
	setIf(&in.CompanyName, p.CompanyName)
	setIf(&in.Role, p.Role)
	setIf(&in.Location, p.Location)
	setIf(&in.Status, p.Status)
	setIf(&in.AppliedDate, p.AppliedDate)
	setIf(&in.InterviewDate, p.InterviewDate)
	setIf(&in.Notes, p.Notes)
	return in
}

type statusGroupResponse struct {
	Name         string                `json:"name"`
	Count        int                   `json:"count"`
	Applications []applicationResponse `json:"applications"`
}

type statsResponse struct {
	TotalApplications int     `json:"total_applications"`
	TotalInterviews   int     `json:"total_interviews"`
	TotalOffers       int     `json:"total_offers"`
	SuccessRate       float64 `json:"success_rate"`
}

type dashboardResponse struct {
	StatusGroups map[models.Status]statusGroupResponse `json:"status_groups"`
	Stats        statsResponse                          `json:"stats"`
}

func toDashboard(d *services.Dashboard) dashboardResponse {
	out := dashboardResponse{
		StatusGroups: make(map[models.Status]statusGroupResponse, len(d.Groups)),
		Stats:        statsResponse(d.Stats),
	}
	for _, g := range d.Groups {
		out.StatusGroups[g.Status] = statusGroupResponse{
			Name:         g.Name,
			Count:        g.Count,
			Applications: toApplications(g.Applications),
		}
	}
	return out
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
