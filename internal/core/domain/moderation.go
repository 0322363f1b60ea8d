package domain

// ModerationCategory names a content-safety dimension reported by the moderator.
type ModerationCategory string

const (
	CategoryNSFW     ModerationCategory = "nsfw"
	CategoryToxicity ModerationCategory = "toxicity"
	CategorySexual   ModerationCategory = "sexual"
	CategorySelfHarm ModerationCategory = "self_harm"
	CategoryViolence ModerationCategory = "violence"
)

// neutralLabels holds the label each category reports for safe content.
var neutralLabels = map[ModerationCategory]string{
	CategoryNSFW:     "SAFE",
	CategoryToxicity: "NEUTRAL",
	CategorySexual:   "NEUTRAL",
	CategorySelfHarm: "NEUTRAL",
	CategoryViolence: "NEUTRAL",
}

// ModerationCategories lists every category in a stable order.
var ModerationCategories = []ModerationCategory{
	CategoryNSFW,
	CategoryToxicity,
	CategorySexual,
	CategorySelfHarm,
	CategoryViolence,
}

// NeutralLabel returns the baseline label for c.
func NeutralLabel(c ModerationCategory) string {
	return neutralLabels[c]
}

// CategoryResult is one category's label and optional confidence.
type CategoryResult struct {
	Label string
	Score *float64
}

// ModerationVerdict is the structured output of a content-safety check.
// Categories absent from the map are treated as neutral.
type ModerationVerdict struct {
	Flagged    bool
	Categories map[ModerationCategory]CategoryResult
}

// Label returns the label reported for c, or its neutral baseline when the
// moderator omitted the category or sent an empty label.
func (v ModerationVerdict) Label(c ModerationCategory) string {
	if r, ok := v.Categories[c]; ok && r.Label != "" {
		return r.Label
	}
	return NeutralLabel(c)
}

// IsHarmful is true when the verdict is flagged or any category deviates
// from its neutral baseline.
func (v ModerationVerdict) IsHarmful() bool {
	if v.Flagged {
		return true
	}
	for _, c := range ModerationCategories {
		if v.Label(c) != NeutralLabel(c) {
			return true
		}
	}
	return false
}
