package commands

import (
	"context"
	"fmt"
	"strings"

	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(authService services.AuthServiceInterface, logger *observability.Logger) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for Ideas Central.

Available commands:
  list     - List all users
  create          - Create an account with any role, including faculty and admin
  reset-password  - Set a new password for an existing account`,
	}

	userCmd.AddCommand(listCmd(authService, logger))
	userCmd.AddCommand(createCmd(authService, logger))
	userCmd.AddCommand(resetPasswordCmd(authService, logger))

	return userCmd
}

func listCmd(authService services.AuthServiceInterface, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Long:  `List all users with their role and department.`,
		RunE:  runListUsers(authService, logger),
	}
}

func createCmd(authService services.AuthServiceInterface, logger *observability.Logger) *cobra.Command {
	var req models.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user account. The password is prompted for and never taken from flags.

Self-registration only hands out the roles allowed by system.auth.signup_roles,
so faculty and admin accounts are normally created here.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = models.Role(strings.ToLower(role))
			return runCreateUser(cmd, authService, logger, req)
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "Role: student, faculty or admin")
	cmd.Flags().StringVar(&req.Department, "department", "", "Department")
	cmd.Flags().StringVar(&req.StudentID, "student-id", "", "Student ID")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func resetPasswordCmd(authService services.AuthServiceInterface, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Reset a user's password",
		Long:  `Set a new password for an existing user. The password is prompted for twice.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			email := strings.TrimSpace(args[0])

			password, err := promptNewPassword(cmd)
			if err != nil {
				return err
			}
			if err := authService.SetPassword(ctx, email, password); err != nil {
				logger.Error(ctx, "Failed to reset password", err, map[string]interface{}{"email": email})
				return contextutils.WrapError(err, "failed to reset password")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", email)
			return nil
		},
	}
}

func runListUsers(authService services.AuthServiceInterface, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		users, err := authService.ListUsers(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to list users", err, nil)
			return contextutils.WrapError(err, "failed to list users")
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No users found")
			return nil
		}

		tw := newTable(out, "ID", "EMAIL", "NAME", "ROLE", "DEPARTMENT", "CREATED")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Email, u.FullName(), u.Role, u.Department, u.CreatedAt.Format("2006-01-02"))
		}
		if err := tw.Flush(); err != nil {
			return contextutils.WrapError(err, "failed to write user table")
		}

		logger.Info(ctx, "Listed users", map[string]interface{}{"total": len(users)})
		return nil
	}
}

func runCreateUser(cmd *cobra.Command, authService services.AuthServiceInterface, logger *observability.Logger, req models.NewUser) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	password, err := promptNewPassword(cmd)
	if err != nil {
		return err
	}
	req.Password = password

	user, err := authService.CreateUser(ctx, req)
	if err != nil {
		logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"email": req.Email, "role": string(req.Role)})
		return contextutils.WrapError(err, "failed to create user")
	}

	fmt.Fprintf(out, "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
	logger.Info(ctx, "User created", map[string]interface{}{"user_id": user.ID, "role": string(user.Role)})
	return nil
}

// promptNewPassword reads a password and its confirmation without echoing them
func promptNewPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Enter password: ")
	password, err := readPassword()
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	fmt.Fprintln(out)

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := readPassword()
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password confirmation: %v", err)
	}
	fmt.Fprintln(out)

	if string(password) != string(confirm) {
		return "", contextutils.ErrorWithContextf("passwords do not match")
	}
	return string(password), nil
}
