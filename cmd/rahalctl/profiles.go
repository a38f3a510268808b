package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

var errNoDSN = errors.New("no database: pass --dsn or set DATABASE_URL")

func openDB(cmd *cobra.Command) (*sql.DB, error) {
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errNoDSN
	}
	return sql.Open("pgx", dsn)
}

func parseRoleFlag(raw string) (profile.Role, error) {
	role, ok := profile.ParseRole(strings.ToLower(strings.TrimSpace(raw)))
	if !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

func promoteCmd() *cobra.Command {
	var uid, roleName string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set the stored role of an existing profile",
		Long: `Set the stored role of an existing profile.

The profile store is authoritative. Claims on the identity provider are
refreshed the next time the user calls the claims sync endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := parseRoleFlag(roleName)
			if err != nil {
				return err
			}
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := setRole(ctx, db, uid, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", uid, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "subject id")
	cmd.Flags().StringVar(&roleName, "role", "", "one of the roles listed by 'rahalctl roles'")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func setRole(ctx context.Context, db *sql.DB, uid string, role profile.Role) error {
	res, err := db.ExecContext(ctx,
		`UPDATE rahal_auth.profiles SET role = $1, updated_at = $2 WHERE user_id = $3`,
		string(role), time.Now().UTC(), uid)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no profile for %q", uid)
	}
	return nil
}

func showCmd() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a profile's role and contact details",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			var p profile.Profile
			err = db.QueryRowContext(ctx,
				`SELECT user_id, email, phone, role, verified, active, created_at
				   FROM rahal_auth.profiles WHERE user_id = $1`, uid,
			).Scan(&p.UserID, &p.Email, &p.Phone, &p.Role, &p.Verified, &p.Active, &p.CreatedAt)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("no profile for %q", uid)
			}
			if err != nil {
				return fmt.Errorf("query profile: %w", err)
			}
			printProfile(cmd.OutOrStdout(), &p)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "subject id")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func printProfile(w io.Writer, p *profile.Profile) {
	role := p.Role
	if _, ok := p.ResolvedRole(); !ok {
		role += " (unrecognized, treated as no role)"
	}
	fmt.Fprintf(w, "uid:      %s\n", p.UserID)
	fmt.Fprintf(w, "email:    %s\n", p.Email)
	fmt.Fprintf(w, "phone:    %s\n", p.Phone)
	fmt.Fprintf(w, "role:     %s\n", role)
	fmt.Fprintf(w, "verified: %t\n", p.Verified)
	fmt.Fprintf(w, "active:   %t\n", p.Active)
	fmt.Fprintf(w, "created:  %s\n", p.CreatedAt.UTC().Format(time.RFC3339))
}

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List roles and their home routes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, r := range []profile.Role{
				profile.RoleTraveler,
				profile.RoleCampaignOwner,
				profile.RoleCampaignStaff,
				profile.RoleAdmin,
				profile.RoleSuperAdmin,
			} {
				fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", r, r.HomeRoute())
			}
		},
	}
}

func gateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate-check [file]",
		Short: "Validate admission rules, or print the embedded defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			rules, err := config.LoadGateRules(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "marker cookie: %s\n", rules.MarkerCookie)
			for _, r := range rules.Rules {
				fmt.Fprintf(out, "%-10s -> %s", r.Prefix, r.Login)
				if len(r.Exclude) > 0 {
					fmt.Fprintf(out, " (except %s)", strings.Join(r.Exclude, ", "))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
