package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

// dumpRecord is one entry of a framework fixture dump, e.g.
// {"model": "auth.user", "pk": 1, "fields": {...}}.
type dumpRecord struct {
	Model  string               `json:"model"`
	Fields *services.ImportUser `json:"fields"`
}

// ReadImportFile loads users from path. Both a plain array of user objects
// and a fixture dump of auth.user records are accepted.
func ReadImportFile(path string) ([]services.ImportUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []dumpRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) > 0 && records[0].Fields != nil {
		out := make([]services.ImportUser, 0, len(records))
		for _, r := range records {
			if r.Fields != nil && (r.Model == "" || r.Model == "auth.user") {
				out = append(out, *r.Fields)
			}
		}
		return out, nil
	}

	var users []services.ImportUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return users, nil
}

func (a *App) importUsers(ctx context.Context, args []string) error {
	fs := a.newFlagSet("import-users")
	path := fs.String("file", "", "JSON file with exported users")
	dryRun := fs.Bool("dry-run", false, "show what would be imported without changing anything")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *path == "" {
		fmt.Fprintln(a.out, "-file is required")
		fs.Usage()
		return ErrUsage
	}

	list, err := ReadImportFile(*path)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No users to import")
		return nil
	}
	if *dryRun {
		fmt.Fprintln(a.out, "DRY RUN MODE - No changes will be made")
	}

	report, err := a.users.ImportUsers(ctx, list, *dryRun)
	if err != nil {
		a.printValidation(err)
		return fmt.Errorf("import failed: %w", err)
	}

	for _, name := range report.Skipped {
		fmt.Fprintf(a.out, "User %s already exists, skipping...\n", name)
	}
	verb := "Imported"
	if report.DryRun {
		verb = "Would import"
	}
	for _, name := range report.Imported {
		fmt.Fprintf(a.out, "%s user: %s\n", verb, name)
	}
	fmt.Fprintf(a.out, "%s %d users\n", verb, len(report.Imported))
	return nil
}
