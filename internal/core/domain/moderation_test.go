package domain

import "testing"

func TestModerationVerdict_IsHarmful(t *testing.T) {
	tests := []struct {
		name    string
		verdict ModerationVerdict
		want    bool
	}{
		{"empty verdict", ModerationVerdict{}, false},
		{"all baselines", ModerationVerdict{Categories: map[ModerationCategory]CategoryResult{
			CategoryNSFW:     {Label: "SAFE"},
			CategoryToxicity: {Label: "NEUTRAL"},
			CategorySexual:   {Label: "NEUTRAL"},
			CategorySelfHarm: {Label: "NEUTRAL"},
			CategoryViolence: {Label: "NEUTRAL"},
		}}, false},
		{"empty label falls back to baseline", ModerationVerdict{Categories: map[ModerationCategory]CategoryResult{
			CategoryViolence: {Label: ""},
		}}, false},
		{"flagged", ModerationVerdict{Flagged: true}, true},
		{"nsfw unsafe", ModerationVerdict{Categories: map[ModerationCategory]CategoryResult{
			CategoryNSFW: {Label: "UNSAFE"},
		}}, true},
		{"neutral is not the nsfw baseline", ModerationVerdict{Categories: map[ModerationCategory]CategoryResult{
			CategoryNSFW: {Label: "NEUTRAL"},
		}}, true},
		{"self harm", ModerationVerdict{Categories: map[ModerationCategory]CategoryResult{
			CategorySelfHarm: {Label: "SELF_HARM"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.verdict.IsHarmful(); got != tt.want {
				t.Fatalf("IsHarmful = %v, want %v", got, tt.want)
			}
		})
	}
}
