package validate

import (
	"strings"
	"testing"
)

func TestParseContentKind(t *testing.T) {
	cases := map[string]ContentKind{
		"vision":     Vision,
		"Tech-Stack": TechStack,
		"SUMMARY":    Summary,
		"spec":       Spec,
		"notes":      Notes,
		"tasks":      Tasks,
	}
	for input, want := range cases {
		got, err := ParseContentKind(input)
		if err != nil {
			t.Fatalf("ParseContentKind(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseContentKind(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseContentKind("bogus"); err == nil {
		t.Fatalf("expected error for unknown content kind")
	}
}

func TestValidateVisionTooShort(t *testing.T) {
	res := Validate(Vision, "too short")
	if res.IsValid {
		t.Fatalf("expected invalid result")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
}

func TestValidateVisionSuggestions(t *testing.T) {
	content := strings.Repeat("a", 210)
	res := Validate(Vision, content)
	if !res.IsValid {
		t.Fatalf("expected valid result, got errors %v", res.Errors)
	}
	if len(res.Suggestions) == 0 {
		t.Fatalf("expected suggestions for a single-paragraph vision missing keywords")
	}
}

func TestValidateVisionNoSuggestionsWhenComplete(t *testing.T) {
	content := "This document describes the problem we aim to solve for our target users.\n\n" +
		strings.Repeat("b", 150)
	res := Validate(Vision, content)
	if !res.IsValid {
		t.Fatalf("expected valid result, got errors %v", res.Errors)
	}
	if len(res.Suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %v", res.Suggestions)
	}
}

func TestValidateVisionNoSuggestionWithOnlyOneKeywordOfPair(t *testing.T) {
	content := "This document describes the problem space in depth for its readers.\n\n" +
		strings.Repeat("b", 150)
	res := Validate(Vision, content)
	if !res.IsValid {
		t.Fatalf("expected valid result, got errors %v", res.Errors)
	}
	found := false
	for _, s := range res.Suggestions {
		if strings.Contains(s, "problem being solved") {
			found = true
		}
	}
	if found {
		t.Fatalf("mentioning \"problem\" alone should not trigger the problem/solve suggestion, got %v", res.Suggestions)
	}
}

func TestValidateTechStack(t *testing.T) {
	tooShort := Validate(TechStack, "short")
	if tooShort.IsValid {
		t.Fatalf("expected invalid result")
	}

	noKeywords := Validate(TechStack, strings.Repeat("x", 160))
	if !noKeywords.IsValid || len(noKeywords.Suggestions) == 0 {
		t.Fatalf("expected valid result with a suggestion, got %+v", noKeywords)
	}

	withKeyword := Validate(TechStack, "We use Go as our language. "+strings.Repeat("x", 150))
	if !withKeyword.IsValid || len(withKeyword.Suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", withKeyword)
	}
}

func TestValidateSummaryLongSuggestion(t *testing.T) {
	res := Validate(Summary, strings.Repeat("a", 600))
	if !res.IsValid {
		t.Fatalf("expected valid result")
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("expected a shorten-summary suggestion, got %v", res.Suggestions)
	}
}

func TestValidateSpec(t *testing.T) {
	tooShort := Validate(Spec, "short")
	if tooShort.IsValid {
		t.Fatalf("expected invalid result")
	}

	withKeyword := Validate(Spec, "This documents the requirements and behavior. "+strings.Repeat("y", 60))
	if !withKeyword.IsValid || len(withKeyword.Suggestions) != 0 {
		t.Fatalf("unexpected result: %+v", withKeyword)
	}
}

func TestValidateNotesMinLength(t *testing.T) {
	if Validate(Notes, "short").IsValid {
		t.Fatalf("expected invalid result")
	}
	if !Validate(Notes, strings.Repeat("n", 50)).IsValid {
		t.Fatalf("expected valid result at the boundary")
	}
}

func TestValidateTasksMinLength(t *testing.T) {
	if Validate(Tasks, "").IsValid {
		t.Fatalf("expected empty tasks content to be invalid")
	}
	if !Validate(Tasks, "- [ ] one task").IsValid {
		t.Fatalf("expected non-empty tasks content to be valid")
	}
}
