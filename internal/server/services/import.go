package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

// ImportUser is one account exported from the previous deployment.
// Password holds the stored hash, copied verbatim.
type ImportUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
	IsActive  *bool  `json:"is_active"`
}

type ImportReport struct {
	Imported []string
	Skipped  []string
	DryRun   bool
}

var errDryRun = errors.New("dry run")

// ImportUsers creates accounts for every entry whose username is not taken
// yet, all in one transaction. Entries without an email get
// "<username>@example.com". With dryRun the work is rolled back and only the
// report is returned.
func (s *AuthService) ImportUsers(ctx context.Context, list []ImportUser, dryRun bool) (*ImportReport, error) {
	report := &ImportReport{DryRun: dryRun}

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		for i, in := range list {
			username := strings.TrimSpace(in.Username)
			if username == "" {
				return common.NewValidationError(fmt.Sprintf("entry %d: username is required", i))
			}
			if in.Password == "" {
				return common.NewValidationError(fmt.Sprintf("user %s: password hash is required", username))
			}

			exists, err := repo.ExistsUsername(ctx, username, "")
			if err != nil {
				return fmt.Errorf("error checking username: %w", err)
			}
			if exists {
				s.logger.Warn(ctx, "user already exists, skipping", "username", username)
				report.Skipped = append(report.Skipped, username)
				continue
			}

			email := strings.TrimSpace(in.Email)
			if email == "" {
				email = username + "@example.com"
			}
			active := in.IsActive == nil || *in.IsActive

			_, err = repo.Create(ctx, &models.User{
				Email:        email,
				Username:     username,
				PasswordHash: in.Password,
				FirstName:    in.FirstName,
				LastName:     in.LastName,
				IsActive:     active,
				IsStaff:      in.IsStaff,
			})
			if err != nil {
				return fmt.Errorf("user %s: %w", username, mapUserConflict(err))
			}
			report.Imported = append(report.Imported, username)
		}

		if dryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	s.logger.Info(ctx, "users imported", "imported", len(report.Imported), "skipped", len(report.Skipped), "dry_run", dryRun)
	return report, nil
}
