// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"fmt"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the store inspection commands
func DatabaseCommands(cfg *config.Config, authService services.AuthServiceInterface, records services.RecordServiceInterface, logger *observability.Logger) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Store inspection commands",
		Long: `Store inspection commands for Ideas Central.

Available commands:
  info      - Show which backend is configured
  stats     - Show user, problem and idea counts`,
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show store configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:      %s\n", cfg.Store.Backend)
			fmt.Fprintf(out, "Database URL: %s\n", maskDatabaseURL(cfg.Database.URL))
			fmt.Fprintf(out, "Apply schema: %t\n", cfg.Store.ApplySchema)
			return nil
		},
	})
	dbCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE:  runStats(authService, records, logger),
	})

	return dbCmd
}

func runStats(authService services.AuthServiceInterface, records services.RecordServiceInterface, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		users, err := authService.ListUsers(ctx)
		if err != nil {
			return contextutils.WrapError(err, "failed to list users")
		}
		byRole := make(map[models.Role]int)
		for _, u := range users {
			byRole[u.Role]++
		}

		problems, err := records.GetProblemStats(ctx)
		if err != nil {
			return contextutils.WrapError(err, "failed to get problem statistics")
		}

		ideas, err := records.ListIdeas(ctx, models.IdeaFilter{})
		if err != nil {
			return contextutils.WrapError(err, "failed to list ideas")
		}
		byStatus := make(map[models.IdeaStatus]int)
		for _, idea := range ideas {
			byStatus[idea.Status]++
		}

		tw := newTable(cmd.OutOrStdout(), "METRIC", "COUNT")
		fmt.Fprintf(tw, "users\t%d\n", len(users))
		for _, role := range []models.Role{models.RoleStudent, models.RoleFaculty, models.RoleAdmin} {
			fmt.Fprintf(tw, "users.%s\t%d\n", role, byRole[role])
		}
		fmt.Fprintf(tw, "problems\t%d\n", problems.Total)
		fmt.Fprintf(tw, "problems.open\t%d\n", problems.Open)
		fmt.Fprintf(tw, "problems.urgent\t%d\n", problems.Urgent)
		fmt.Fprintf(tw, "problems.in_progress\t%d\n", problems.InProgress)
		fmt.Fprintf(tw, "ideas\t%d\n", len(ideas))
		for _, status := range []models.IdeaStatus{models.IdeaStatusPending, models.IdeaStatusUnderReview, models.IdeaStatusApproved, models.IdeaStatusRejected} {
			fmt.Fprintf(tw, "ideas.%s\t%d\n", status, byStatus[status])
		}
		if err := tw.Flush(); err != nil {
			return contextutils.WrapError(err, "failed to write stats table")
		}

		logger.Info(ctx, "Store statistics", map[string]interface{}{
			"users":    len(users),
			"problems": problems.Total,
			"ideas":    len(ideas),
		})
		return nil
	}
}
