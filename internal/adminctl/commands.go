package adminctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage error")

const Usage = `usage: guardianctl [-c file] [-d dsn] [-l level] <command> [flags]

commands:
  create-role      -name NAME [-description TEXT]
  assign-role      -email EMAIL -role NAME
  bootstrap-admin  -email EMAIL (password is prompted twice)
`

// Admin is the store-side surface the commands drive.
type Admin interface {
	CreateRole(ctx context.Context, name string, description *string) (*models.Role, error)
	AssignRole(ctx context.Context, email, roleName string) (*models.PublicIdentity, error)
	BootstrapAdmin(ctx context.Context, email, password string) (*models.PublicIdentity, error)
}

// SplitArgs separates the global flags (handed to config.Load) from the
// command name and the command's own flags.
func SplitArgs(args []string) (global []string, command string, rest []string, err error) {
	fs := flag.NewFlagSet("guardianctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range []string{"c", "config", "a", "g", "d", "s", "t", "l"} {
		fs.String(name, "", "")
	}

	if err := fs.Parse(args); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	tail := fs.Args()
	if len(tail) == 0 {
		return nil, "", nil, fmt.Errorf("%w: missing command", ErrUsage)
	}

	return args[:len(args)-len(tail)], tail[0], tail[1:], nil
}

// Runner dispatches a single command against an Admin and reports the
// result to out.
type Runner struct {
	admin Admin
	out   io.Writer
}

func NewRunner(admin Admin, out io.Writer) *Runner {
	return &Runner{admin: admin, out: out}
}

func (r *Runner) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "create-role":
		return r.createRole(ctx, args)
	case "assign-role":
		return r.assignRole(ctx, args)
	case "bootstrap-admin":
		return r.bootstrapAdmin(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// required takes flag name and value pairs and reports the first blank one.
func required(command string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s requires -%s", ErrUsage, command, pairs[i])
		}
	}
	return nil
}

func (r *Runner) createRole(ctx context.Context, args []string) error {
	fs := newFlagSet("create-role")
	name := fs.String("name", "", "role name")
	description := fs.String("description", "", "role description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := required("create-role", "name", *name); err != nil {
		return err
	}

	// an absent -description is stored as NULL, an explicit empty one as ""
	var desc *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "description" {
			desc = description
		}
	})

	role, err := r.admin.CreateRole(ctx, *name, desc)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("role %q already exists", *name)
		}
		return fmt.Errorf("create role: %w", err)
	}

	fmt.Fprintf(r.out, "created role %q (id %d)\n", role.Name, role.ID)
	return nil
}

func (r *Runner) assignRole(ctx context.Context, args []string) error {
	fs := newFlagSet("assign-role")
	email := fs.String("email", "", "identity email")
	roleName := fs.String("role", "", "role name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := required("assign-role", "email", *email, "role", *roleName); err != nil {
		return err
	}

	identity, err := r.admin.AssignRole(ctx, *email, *roleName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("identity %q or role %q not found", *email, *roleName)
		}
		return fmt.Errorf("assign role: %w", err)
	}

	r.printIdentity(identity)
	return nil
}

func (r *Runner) bootstrapAdmin(ctx context.Context, args []string) error {
	fs := newFlagSet("bootstrap-admin")
	email := fs.String("email", "", "admin email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := required("bootstrap-admin", "email", *email); err != nil {
		return err
	}

	password, err := GetNewPassword(r.out)
	if err != nil {
		return err
	}

	identity, err := r.admin.BootstrapAdmin(ctx, *email, password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	r.printIdentity(identity)
	return nil
}

func (r *Runner) printIdentity(identity *models.PublicIdentity) {
	fmt.Fprintf(r.out, "%s (id %d) roles: %s\n", identity.Email, identity.ID, strings.Join(identity.Roles, ", "))
}
