package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/placementtracker/internal/timex"
)

// ApplicationInput is the editable part of an application. Dates use
// YYYY-MM-DD; an empty InterviewDate clears it.
type ApplicationInput struct {
	CompanyName   string `json:"company_name"`
	Role          string `json:"role"`
	Location      string `json:"location"`
	Status        string `json:"status"`
	AppliedDate   string `json:"applied_date"`
	InterviewDate string `json:"interview_date"`
	Notes         string `json:"notes"`
}

type StatusGroup struct {
	Status       models.Status
	Name         string
	Count        int
	Applications []models.Application
}

type DashboardStats struct {
	TotalApplications int
	TotalInterviews   int
	TotalOffers       int
	SuccessRate       float64
}

type Dashboard struct {
	Groups []StatusGroup
	Stats  DashboardStats
}

type ApplicationService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewApplicationService(db dbx.DB, m repomanager.RepositoryManager, logger logging.Logger) *ApplicationService {
	return &ApplicationService{db: db, repomanager: m, logger: logger.With("module", "applications")}
}

// List returns the user's applications newest first, optionally only those
// in status.
func (s *ApplicationService) List(ctx context.Context, userID, status string) ([]models.Application, error) {
	st := models.Status(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, common.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	list, err := s.repomanager.Applications(s.db).List(ctx, userID, st)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	return list, nil
}

// Create accepts any valid status; an empty one means Wishlist.
func (s *ApplicationService) Create(ctx context.Context, userID string, in ApplicationInput) (*models.Application, error) {
	if in.Status == "" {
		in.Status = string(models.StatusWishlist)
	}
	app, err := buildApplication(in)
	if err != nil {
		return nil, err
	}
	app.UserID = userID

	out, err := s.repomanager.Applications(s.db).Create(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}
	s.logger.Info(ctx, "application created", "user_id", userID, "application_id", out.ID, "status", out.Status)
	return out, nil
}

func (s *ApplicationService) Get(ctx context.Context, userID, id string) (*models.Application, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	app, err := s.repomanager.Applications(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, notFoundOr(err, "error loading application")
	}
	return app, nil
}

// Update replaces the editable fields. An empty status keeps the current
// one. The status change is checked against the stored value under a row
// lock.
func (s *ApplicationService) Update(ctx context.Context, userID, id string, in ApplicationInput) (*models.Application, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	var out *models.Application
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Applications(tx)

		cur, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return notFoundOr(err, "error loading application")
		}
		if in.Status == "" {
			in.Status = string(cur.Status)
		}

		app, err := buildApplication(in)
		if err != nil {
			return err
		}
		if err := models.ValidateTransition(cur.Status, app.Status); err != nil {
			return err
		}

		app.ID = cur.ID
		app.UserID = userID
		app.CreatedAt = cur.CreatedAt
		if err := repo.Update(ctx, app); err != nil {
			return notFoundOr(err, "error updating application")
		}

		if cur.Status != app.Status {
			s.logger.Info(ctx, "application status changed",
				"user_id", userID, "application_id", id, "from", cur.Status, "to", app.Status)
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ApplicationService) Delete(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Applications(s.db).Delete(ctx, userID, id); err != nil {
		return notFoundOr(err, "error deleting application")
	}
	s.logger.Info(ctx, "application deleted", "user_id", userID, "application_id", id)
	return nil
}

// Stats groups the user's applications by status in pipeline order and
// computes the dashboard totals. Interviews count INTERVIEW and OFFER.
func (s *ApplicationService) Stats(ctx context.Context, userID string) (*Dashboard, error) {
	list, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	byStatus := make(map[models.Status][]models.Application, len(models.Statuses))
	for _, a := range list {
		byStatus[a.Status] = append(byStatus[a.Status], a)
	}

	d := &Dashboard{Groups: make([]StatusGroup, 0, len(models.Statuses))}
	for _, st := range models.Statuses {
		apps := byStatus[st]
		if apps == nil {
			apps = []models.Application{}
		}
		d.Groups = append(d.Groups, StatusGroup{
			Status:       st,
			Name:         st.DisplayName(),
			Count:        len(apps),
			Applications: apps,
		})
	}

	offers := len(byStatus[models.StatusOffer])
	d.Stats = DashboardStats{
		TotalApplications: len(list),
		TotalInterviews:   len(byStatus[models.StatusInterview]) + offers,
		TotalOffers:       offers,
		SuccessRate:       successRate(offers, len(list)),
	}
	return d, nil
}

func successRate(offers, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(offers)/float64(total)*1000) / 10
}

func statusChoices() []interface{} {
	out := make([]interface{}, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		out = append(out, string(st))
	}
	return out
}

func buildApplication(in ApplicationInput) (*models.Application, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Role = strings.TrimSpace(in.Role)
	in.Location = strings.TrimSpace(in.Location)
	in.InterviewDate = strings.TrimSpace(in.InterviewDate)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.CompanyName, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Role, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Location, validation.RuneLength(0, 200)),
		validation.Field(&in.Status, validation.Required, validation.In(statusChoices()...).Error("is not a valid choice")),
		validation.Field(&in.AppliedDate, validation.Required, validation.Date(timex.DateLayout)),
		validation.Field(&in.InterviewDate, validation.Date(timex.DateLayout)),
	)
	if err != nil {
		return nil, asValidationError(err)
	}

	applied, err := timex.ParseDate(in.AppliedDate)
	if err != nil {
		return nil, common.NewFieldError("applied_date", err.Error())
	}
	var interview *time.Time
	if in.InterviewDate != "" {
		d, err := timex.ParseDate(in.InterviewDate)
		if err != nil {
			return nil, common.NewFieldError("interview_date", err.Error())
		}
		interview = &d
	}

	return &models.Application{
		CompanyName:   in.CompanyName,
		Role:          in.Role,
		Location:      in.Location,
		Status:        models.Status(in.Status),
		AppliedDate:   applied,
		InterviewDate: interview,
		Notes:         in.Notes,
	}, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
