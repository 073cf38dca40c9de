package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// MinClassifyLength is the shortest text the classifier accepts
const MinClassifyLength = 20

const (
	fallbackCategory   = "other"
	fallbackConfidence = 60
	maxConfidence      = 95
	maxKeywordTags     = 4
	topScoreCount      = 3
)

// Classifier suggests a category and tags for a problem description
type Classifier interface {
	Classify(ctx context.Context, text string) (*models.Classification, error)
}

type keywordCategory struct {
	value    string
	label    string
	keywords []string
}

// Table order breaks ties between equally scored categories
var keywordCategories = []keywordCategory{
	{"technology", "Technology", []string{"software", "app", "system", "digital", "automation", "ai", "computer", "internet", "database"}},
	{"environment", "Environment", []string{"waste", "pollution", "green", "sustainability", "energy", "recycling", "carbon", "climate", "eco"}},
	{"education", "Education", []string{"learning", "student", "teaching", "curriculum", "classroom", "academic", "study", "knowledge", "training"}},
	{"healthcare", "Healthcare", []string{"medical", "health", "hospital", "patient", "treatment", "medicine", "wellness", "care", "therapy"}},
	{"transportation", "Transportation", []string{"traffic", "vehicle", "transport", "parking", "road", "bus", "travel", "mobility", "logistics"}},
	{"infrastructure", "Infrastructure", []string{"building", "facility", "maintenance", "construction", "utilities", "network", "structure", "campus"}},
	{"security", "Security", []string{"safety", "protection", "surveillance", "access", "crime", "emergency", "risk", "threat", "guard"}},
	{"social", "Social Issues", []string{"community", "social", "cultural", "diversity", "inclusion", "communication", "collaboration", "engagement"}},
	{"finance", "Finance", []string{"budget", "cost", "funding", "payment", "financial", "money", "expense", "revenue", "economic"}},
}

// contextTags are added whenever any of their trigger substrings appears
var contextTags = []struct {
	tag      string
	triggers []string
}{
	{"urgent", []string{"urgent", "immediate"}},
	{"budget", []string{"cost", "budget"}},
	{"student-focused", []string{"student"}},
	{"faculty-focused", []string{"faculty"}},
}

// KeywordClassifier matches lower-cased substrings against a fixed keyword table
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier returns the keyword-table classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier
func (k *KeywordClassifier) Classify(ctx context.Context, text string) (result0 *models.Classification, err error) {
	_, span := observability.TraceClassifierFunction(ctx, "Classify", attribute.Int("text.length", len(text)))
	defer observability.FinishSpan(span, &err)

	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinClassifyLength {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityInfo,
			"text too short for analysis", "at least 20 characters are required")
	}

	lower := strings.ToLower(text)
	scores := make([]models.CategoryScore, len(keywordCategories))
	matched := make([][]string, len(keywordCategories))
	for i, cat := range keywordCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				matched[i] = append(matched[i], kw)
			}
		}
		scores[i] = models.CategoryScore{
			Category: cat.value,
			Label:    cat.label,
			Matches:  len(matched[i]),
			Score:    float64(len(matched[i])) / float64(len(cat.keywords)),
		}
	}

	best := 0
	for i := range scores {
		if scores[i].Score > scores[best].Score {
			best = i
		}
	}

	result := &models.Classification{
		Category:   fallbackCategory,
		Confidence: fallbackConfidence,
		WordCount:  len(strings.Fields(text)),
	}
	var tags []string
	if scores[best].Matches > 0 {
		result.Category = scores[best].Category
		result.Confidence = int(math.Round(math.Min(scores[best].Score*100, maxConfidence)))
		tags = matched[best]
		if len(tags) > maxKeywordTags {
			tags = tags[:maxKeywordTags]
		}
	}
	for _, ct := range contextTags {
		for _, trigger := range ct.triggers {
			if strings.Contains(lower, trigger) {
				tags = append(tags, ct.tag)
				break
			}
		}
	}
	result.Tags = dedupe(tags)

	ranked := append([]models.CategoryScore(nil), scores...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
	result.TopScores = ranked[:topScoreCount]

	span.SetAttributes(attribute.String("classification.category", result.Category))
	return result, nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
