package services

import (
	"fmt"

	contextutils "ideascentral/internal/utils"
)

// Criterion bounds for every evaluation sub-score
const (
	MinCriterionScore = 1
	MaxCriterionScore = 10
)

// OverallScore averages the three criteria and rounds half up to one decimal.
// Computed in integer tenths to avoid float rounding at the midpoint.
func OverallScore(innovation, feasibility, impact int) float64 {
	sum := innovation + feasibility + impact
	tenths := (20*sum + 3) / 6
	return float64(tenths) / 10
}

// ValidateCriteria rejects any sub-score outside [MinCriterionScore, MaxCriterionScore]
func ValidateCriteria(innovation, feasibility, impact int) error {
	var problems []string
	for _, c := range []struct {
		name  string
		value int
	}{
		{"innovation", innovation},
		{"feasibility", feasibility},
		{"impact", impact},
	} {
		if c.value < MinCriterionScore || c.value > MaxCriterionScore {
			problems = append(problems, fmt.Sprintf("%s score must be between %d and %d, got %d",
				c.name, MinCriterionScore, MaxCriterionScore, c.value))
		}
	}
	if len(problems) > 0 {
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			"invalid evaluation scores", fmt.Sprint(problems))
	}
	return nil
}
