package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

func (a *App) createUser(ctx context.Context, args []string) error {
	fs := a.newFlagSet("create-user")
	var in services.CreateUserInput
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	fs.BoolVar(&in.IsStaff, "staff", false, "grant staff status")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if in.Email == "" || in.Username == "" {
		fmt.Fprintln(a.out, "-email and -username are required")
		fs.Usage()
		return ErrUsage
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	in.Password = pw

	u, err := a.users.CreateUser(ctx, in)
	if err != nil {
		a.printValidation(err)
		return err
	}

	kind := "User"
	if u.IsStaff {
		kind = "Staff user"
	}
	fmt.Fprintf(a.out, "%s %s created (id %s)\n", kind, u.Username, u.ID)
	return nil
}
