// cmd/racectl/main.go
// Administrative tasks against the racelog database.
//
// Usage:
//
//	go run ./cmd/racectl adduser --name "Ana" --email ana@example.com --password Secret123 --admin
//	go run ./cmd/racectl export --email ana@example.com > races.json
//	go run ./cmd/racectl import --email ana@example.com races.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/padraicbc/racelog/config"
	bundb "github.com/padraicbc/racelog/db"
	"github.com/padraicbc/racelog/handlers"
	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository"
)

// stores is what the commands operate on.
type stores struct {
	races repository.RaceRepository
	users repository.UserRepository
}

type opener func(ctx context.Context) (*stores, func(), error)

func openPostgres(ctx context.Context) (*stores, func(), error) {
	cfg := config.Load()
	db, err := bundb.Setup(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := bundb.CreateTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return newStores(db), func() { _ = db.Close() }, nil
}

func newStores(db *bun.DB) *stores {
	return &stores{
		races: repository.NewRaceRepository(db),
		users: repository.NewUserRepository(db),
	}
}

func main() {
	if err := newRootCommand(openPostgres).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "racectl",
		Short:         "Manage racelog users and race data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newAddUserCommand(open),
		newExportCommand(open),
		newImportCommand(open),
	)
	return cmd
}

// withStores opens the stores for the duration of fn.
func withStores(cmd *cobra.Command, open opener, fn func(ctx context.Context, s *stores) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, s)
}

func newAddUserCommand(open opener) *cobra.Command {
	var name, email, password string
	var admin bool
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user or reset an existing user's password and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *stores) error {
				return addUser(ctx, s.users, cmd.OutOrStdout(), name, email, password, admin)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email local part)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "plain-text password (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func addUser(ctx context.Context, users repository.UserRepository, out io.Writer, name, email, password string, admin bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	hash, err := handlers.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{Name: strings.TrimSpace(name), Email: email, Password: hash, Role: models.RoleUser}
	if admin {
		user.Role = models.RoleAdmin
	}
	if existing, err := users.GetByEmail(ctx, email); err == nil {
		user.Avatar = existing.Avatar
		user.GoogleID = existing.GoogleID
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if err := users.Save(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(out, "user %q saved (%s)\n", email, user.Role)
	return nil
}

func newExportCommand(open opener) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's races to stdout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *stores) error {
				return exportRaces(ctx, s, cmd.OutOrStdout(), email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func exportRaces(ctx context.Context, s *stores, out io.Writer, email string) error {
	owner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("finding user %s: %w", email, err)
	}
	items, err := handlers.ExportRaces(ctx, s.races, owner.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func newImportCommand(open opener) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import races from a JSON file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return withStores(cmd, open, func(ctx context.Context, s *stores) error {
				return importRaces(ctx, s, in, cmd.OutOrStdout(), email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func importRaces(ctx context.Context, s *stores, in io.Reader, out io.Writer, email string) error {
	owner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("finding user %s: %w", email, err)
	}
	body, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	items, err := handlers.DecodeImport(body)
	if err != nil {
		return err
	}
	res, err := handlers.ImportRaces(ctx, s.races, owner.ID, items)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "imported %d, skipped %d, rejected %d\n", res.Imported, res.Skipped, len(res.Errors))
	for _, ie := range res.Errors {
		for _, fe := range ie.Errors {
			fmt.Fprintf(out, "  item %d: %s: %s\n", ie.Index, fe.Field, fe.Message)
		}
	}
	return nil
}
