package assess

import "testing"

func TestStrategyFor(t *testing.T) {
	for name, want := range map[string]string{
		"":            StrategyPositional,
		"positional":  StrategyPositional,
		" Membership": StrategyMembership,
		"fuzzy":       StrategyFuzzy,
	} {
		s, err := StrategyFor(name)
		if err != nil {
			t.Fatalf("StrategyFor(%q): %v", name, err)
		}
		if s.Name() != want {
			t.Fatalf("StrategyFor(%q) = %s, want %s", name, s.Name(), want)
		}
	}
	if _, err := StrategyFor("levenshtein"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestMembershipIgnoresPosition(t *testing.T) {
	pairs := Compare("i am fine", "fine i am", Membership{}, DefaultClassifier())
	if errs := Tally(pairs, true); errs != 0 {
		t.Fatalf("expected reordered words to pass membership, got %d errors", errs)
	}
	pairs = Compare("she goes home", "she go home", Membership{}, DefaultClassifier())
	if errs := Tally(pairs, true); errs != 1 {
		t.Fatalf("expected 1 error, got %d", errs)
	}
}

func TestFuzzyScores(t *testing.T) {
	f := Fuzzy{}
	if got := f.Score(0, "home", []string{"home"}); got != 1 {
		t.Fatalf("expected identical words to score 1, got %v", got)
	}
	if got := f.Score(1, "home", []string{"home"}); got != 0 {
		t.Fatalf("expected missing spoken word to score 0, got %v", got)
	}
	swapped := f.Score(0, "form", []string{"from"})
	if swapped <= Similarity("form", "from") {
		t.Fatalf("expected fuzzy to forgive a transposition, got %v", swapped)
	}
	if swapped > 1 {
		t.Fatalf("score out of range: %v", swapped)
	}
}
