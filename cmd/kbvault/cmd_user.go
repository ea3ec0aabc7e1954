package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local accounts",
	}
	cmd.AddCommand(userRegisterCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userPromoteCmd())
	cmd.AddCommand(userDemoteCmd())
	cmd.AddCommand(userActivateCmd())
	cmd.AddCommand(userDeactivateCmd())
	cmd.AddCommand(userResetPasswordCmd())
	cmd.AddCommand(userChangePasswordCmd())
	cmd.AddCommand(userVerifyCmd())
	return cmd
}

func userRegisterCmd() *cobra.Command {
	var password, actor string
	var isAdmin bool
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if password == "" {
				password = promptPassword("Password")
			}
			req := models.RegisterUserRequest{
				Username: args[0],
				Password: password,
				IsAdmin:  isAdmin,
				Actor:    actor,
			}
			user, err := app.users.Register(context.Background(), req)
			if err != nil {
				fatal("register user", err)
			}
			output(user, user.Username)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant admin rights")
	cmd.Flags().StringVar(&actor, "actor", "", "Acting admin username (required for admin accounts once users exist)")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			users, err := app.users.ListUsers(context.Background())
			if err != nil {
				fatal("list users", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "USERNAME", "ADMIN", "ACTIVE", "CREATED"}
				var rows [][]string
				for _, u := range users {
					rows = append(rows, []string{
						fmt.Sprintf("%d", u.ID),
						u.Username,
						boolCell(u.IsAdmin),
						boolCell(u.IsActive),
						u.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, u := range users {
					fmt.Println(u.Username)
				}
				return
			}
			output(users, "")
		},
	}
}

// userActionCmd builds one privileged single-target subcommand. Every such
// action requires an active admin actor and lands in the audit trail.
func userActionCmd(use, short string, action func(ctx context.Context, username, actor string) (*models.User, error)) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user, err := action(context.Background(), args[0], actor)
			if err != nil {
				fatal(use+" user", err)
			}
			output(user, user.Username)
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Acting admin username")
	return cmd
}

func userPromoteCmd() *cobra.Command {
	return userActionCmd("promote", "Grant admin rights to a user",
		func(ctx context.Context, username, actor string) (*models.User, error) {
			return app.users.Promote(ctx, username, actor)
		})
}

func userDemoteCmd() *cobra.Command {
	return userActionCmd("demote", "Revoke admin rights from a user",
		func(ctx context.Context, username, actor string) (*models.User, error) {
			return app.users.Demote(ctx, username, actor)
		})
}

func userActivateCmd() *cobra.Command {
	return userActionCmd("activate", "Reactivate a deactivated account",
		func(ctx context.Context, username, actor string) (*models.User, error) {
			return app.users.Activate(ctx, username, actor)
		})
}

func userDeactivateCmd() *cobra.Command {
	return userActionCmd("deactivate", "Deactivate an account",
		func(ctx context.Context, username, actor string) (*models.User, error) {
			return app.users.Deactivate(ctx, username, actor)
		})
}

func userResetPasswordCmd() *cobra.Command {
	var password, actor string
	cmd := &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if password == "" {
				password = promptPassword("New password")
			}
			if err := app.users.ResetPassword(context.Background(), args[0], password, actor); err != nil {
				fatal("reset password", err)
			}
			fmt.Println("password reset")
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	cmd.Flags().StringVar(&actor, "actor", "", "Acting admin username")
	return cmd
}

func userChangePasswordCmd() *cobra.Command {
	var oldPassword, newPassword string
	cmd := &cobra.Command{
		Use:   "change-password <username>",
		Short: "Change your own password",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if oldPassword == "" {
				oldPassword = promptPassword("Current password")
			}
			if newPassword == "" {
				newPassword = promptPassword("New password")
			}
			if err := app.users.ChangePassword(context.Background(), args[0], oldPassword, newPassword); err != nil {
				fatal("change password", err)
			}
			fmt.Println("password changed")
		},
	}
	cmd.Flags().StringVar(&oldPassword, "old-password", "", "Current password (prompted when omitted)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (prompted when omitted)")
	return cmd
}

func userVerifyCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "verify <username>",
		Short: "Check a username and password pair",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if password == "" {
				password = promptPassword("Password")
			}
			user, err := app.users.Authenticate(context.Background(), args[0], password)
			if err != nil {
				fatal("verify credentials", err)
			}
			output(user, user.Username)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// promptPassword reads one line from stdin, used when a password flag was
// omitted. The prompt goes to stderr so stdout stays clean.
func promptPassword(label string) string {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fatal("read password", err)
	}
	return strings.TrimRight(line, "\r\n")
}
