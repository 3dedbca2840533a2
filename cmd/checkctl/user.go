package main

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func newUserCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd(open))
	cmd.AddCommand(newUserListCmd(open))
	return cmd
}

func newUserAddCmd(open opener) *cobra.Command {
	var (
		fullName string
		role     string
		password string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Long: `Creates an operator or supervisor account.

Without --password the password is read from the first line of stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("user add: read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.users.CreateUser(cmd.Context(), domain.CreateUserParams{
				Username: args[0],
				FullName: fullName,
				Password: password,
				Role:     domain.Role(role),
				Active:   !inactive,
			})
			if err != nil {
				return describe("user add", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "name printed on signed documents (required)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "operator or supervisor")
	cmd.Flags().StringVar(&password, "password", "", "account password (default: read from stdin)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account disabled")
	return cmd
}

func newUserListCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.users.ListUsers(cmd.Context())
			if err != nil {
				return describe("user list", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tACTIVE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
					u.ID, u.Username, u.FullName, u.Role, u.Active, u.CreatedAt.In(a.cfg.Location).Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

// describe turns a domain error into a one-line CLI error.
func describe(op string, err error) error {
	msg := domain.ErrorMessage(err)
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Fields))
		for field, m := range ve.Fields {
			parts = append(parts, field+": "+m)
		}
		sort.Strings(parts)
		msg = strings.Join(parts, "; ")
	}
	return fmt.Errorf("%s: %s", op, msg)
}
