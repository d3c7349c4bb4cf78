package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server"
	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/dmitrijs2005/mpmonitor/internal/server/users"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword and isTerminal are seams for tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	admin.AddCommand(newAdminInitCmd())
	return admin
}

func newAdminInitCmd() *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the bootstrap admin account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if username == "" {
				username = cfg.AdminUsername
			}
			if role == "" {
				role = cfg.AdminRole
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				password, err = promptPassword(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			storage, err := server.OpenStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer storage.Close()

			us := users.NewService(storage.Users, auth.NewMemoryRevoker(), auth.OwnerPolicy{}, cfg, logging.Nop{})
			created, err := us.EnsureAdmin(cmd.Context(), username, password, role)
			if err != nil {
				return err
			}

			if created {
				success(cmd.OutOrStdout(), "created %s account %q", role, username)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("account %q already exists, left unchanged", username))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username (default ADMIN_USERNAME)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&role, "role", "", fmt.Sprintf("account role, %s or %s (default ADMIN_ROLE)", models.RoleAdmin, models.RoleMP))
	return cmd
}

// promptPassword reads a password without echo on a terminal, or a single
// line from in otherwise.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")

	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
