package models

// Classification is the category and tag suggestion produced for a problem text
type Classification struct {
	Category   string          `json:"category"`
	Tags       []string        `json:"tags"`
	Confidence int             `json:"confidence"`
	WordCount  int             `json:"word_count"`
	TopScores  []CategoryScore `json:"top_scores,omitempty"`
}

// CategoryScore is the keyword hit rate of one category
type CategoryScore struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Matches  int     `json:"matches"`
}
