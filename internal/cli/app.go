package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

// ErrUsage is returned for malformed command lines after usage was printed.
var ErrUsage = errors.New("usage error")

// UserAdmin is the part of the auth service trackerctl drives.
type UserAdmin interface {
	CreateUser(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	ImportUsers(ctx context.Context, list []services.ImportUser, dryRun bool) (*services.ImportReport, error)
}

type App struct {
	users UserAdmin
	out   io.Writer
}

func NewApp(users UserAdmin, out io.Writer) *App {
	return &App{users: users, out: out}
}

type command struct {
	name  string
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{"create-user", "create-user -email E -username U [-staff] [-first-name F] [-last-name L]", (*App).createUser},
	{"import-users", "import-users -file legacy.json [-dry-run]", (*App).importUsers},
}

// SplitArgs separates global arguments from the command name and its own
// arguments. ok is false when no known command is present.
func SplitArgs(args []string) (global []string, name string, rest []string, ok bool) {
	for i, arg := range args {
		for _, c := range commands {
			if arg == c.name {
				return args[:i], arg, args[i+1:], true
			}
		}
	}
	return args, "", nil, false
}

// Run executes the command named by args. Global configuration flags may
// precede the command name and are skipped here.
func (a *App) Run(ctx context.Context, args []string) error {
	_, name, rest, ok := SplitArgs(args)
	if !ok {
		a.Usage()
		return ErrUsage
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(a, ctx, rest)
		}
	}
	return ErrUsage
}

func (a *App) Usage() {
	fmt.Fprintln(a.out, "Usage: trackerctl [config flags] <command> [args]")
	fmt.Fprintln(a.out, "Commands:")
	for _, c := range commands {
		fmt.Fprintln(a.out, "  "+c.usage)
	}
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// printValidation lists field errors one per line in a stable order.
func (a *App) printValidation(err error) {
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	if len(ve.Fields) == 0 {
		fmt.Fprintln(a.out, "error:", ve.Error())
		return
	}
	keys := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s: %s\n", k, ve.Fields[k])
	}
}
