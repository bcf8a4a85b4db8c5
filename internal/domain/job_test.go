package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		status    JobStatus
		canCancel bool
		canRetry  bool
	}{
		{JobStatusQueued, true, false},
		{JobStatusRunning, true, false},
		{JobStatusNeedsInput, false, true},
		{JobStatusFailed, false, true},
		{JobStatusCompleted, false, true},
		{JobStatusCanceled, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.CanCancel(); got != tt.canCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.canCancel)
			}
			if got := tt.status.CanRetry(); got != tt.canRetry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.canRetry)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	if !ValidStatus("NEEDS_INPUT") {
		t.Error("NEEDS_INPUT should be valid")
	}
	if ValidStatus("PROCESSING") {
		t.Error("PROCESSING is not a known status")
	}
}

func TestNormalizeVocab(t *testing.T) {
	tags := NormalizeDietaryTags([]string{"vegan", "VEGAN", " Spicy ", "keto"})
	if len(tags) != 2 || tags[0] != "Vegan" || tags[1] != "Spicy" {
		t.Fatalf("NormalizeDietaryTags = %v, want [Vegan Spicy]", tags)
	}
	allergens := NormalizeAllergens([]string{"milk", "plutonium", "tree nuts"})
	if len(allergens) != 2 || allergens[0] != "Milk" || allergens[1] != "Tree Nuts" {
		t.Fatalf("NormalizeAllergens = %v, want [Milk Tree Nuts]", allergens)
	}
}
