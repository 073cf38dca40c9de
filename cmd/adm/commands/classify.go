package commands

import (
	"context"
	"fmt"
	"strings"

	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/spf13/cobra"
)

// ClassifyCommand runs the keyword classifier over text given on the command line
func ClassifyCommand(classifier services.Classifier) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Suggest a category and tags for a problem description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			result, err := classifier.Classify(ctx, strings.Join(args, " "))
			if err != nil {
				return contextutils.WrapError(err, "classification failed")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Category:   %s\n", result.Category)
			fmt.Fprintf(out, "Confidence: %d%%\n", result.Confidence)
			fmt.Fprintf(out, "Tags:       %s\n", strings.Join(result.Tags, ", "))
			fmt.Fprintf(out, "Words:      %d\n", result.WordCount)
			for _, s := range result.TopScores {
				fmt.Fprintf(out, "  %-12s %.2f\n", s.Category, s.Score)
			}
			return nil
		},
	}
}
