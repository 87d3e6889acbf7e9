// Package validate implements the pure content-quality predicates for each
// of a project's and spec's free-text documents.
package validate

import (
	"fmt"
	"strings"
)

// ContentKind selects which set of rules applies to a piece of content.
type ContentKind int

const (
	Vision ContentKind = iota
	TechStack
	Summary
	Spec
	Notes
	Tasks
)

// ParseContentKind maps a wire-level string to a ContentKind, matching the
// upstream reference's parse_content_type.
func ParseContentKind(s string) (ContentKind, error) {
	switch strings.ToLower(s) {
	case "vision":
		return Vision, nil
	case "tech-stack":
		return TechStack, nil
	case "summary":
		return Summary, nil
	case "spec":
		return Spec, nil
	case "notes":
		return Notes, nil
	case "tasks":
		return Tasks, nil
	default:
		return 0, fmt.Errorf("unknown content type: %s", s)
	}
}

// Result reports validity plus advisory errors and suggestions.
type Result struct {
	IsValid     bool
	Errors      []string
	Suggestions []string
}

// Validate dispatches to the per-kind validator.
func Validate(kind ContentKind, content string) Result {
	switch kind {
	case Vision:
		return validateVision(content)
	case TechStack:
		return validateTechStack(content)
	case Summary:
		return validateSummary(content)
	case Spec:
		return validateSpec(content)
	case Notes:
		return validateNotes(content)
	case Tasks:
		return validateTasks(content)
	default:
		return Result{IsValid: false, Errors: []string{"unknown content kind"}}
	}
}

func minLengthResult(content string, minChars int, label string) Result {
	if len(content) < minChars {
		return Result{
			IsValid: false,
			Errors:  []string{fmt.Sprintf("%s content must be at least %d characters", label, minChars)},
		}
	}
	return Result{IsValid: true}
}

func containsAnyFold(content string, keywords ...string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func paragraphCount(content string) int {
	count := 0
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

func validateVision(content string) Result {
	res := minLengthResult(content, 200, "vision")
	if !res.IsValid {
		return res
	}
	if paragraphCount(content) < 2 {
		res.Suggestions = append(res.Suggestions, "consider breaking the vision into at least two paragraphs")
	}
	if !containsAnyFold(content, "problem", "solve") {
		res.Suggestions = append(res.Suggestions, "consider describing the problem being solved")
	}
	if !containsAnyFold(content, "target", "user") {
		res.Suggestions = append(res.Suggestions, "consider describing the target users")
	}
	return res
}

func validateTechStack(content string) Result {
	res := minLengthResult(content, 150, "tech stack")
	if !res.IsValid {
		return res
	}
	if !containsAnyFold(content, "language", "framework", "database", "deployment", "infrastructure") {
		res.Suggestions = append(res.Suggestions, "consider mentioning the language, framework, database, deployment, or infrastructure")
	}
	return res
}

func validateSummary(content string) Result {
	res := minLengthResult(content, 100, "summary")
	if !res.IsValid {
		return res
	}
	if len(content) > 500 {
		res.Suggestions = append(res.Suggestions, "consider shortening the summary; it is over 500 characters")
	}
	return res
}

func validateSpec(content string) Result {
	res := minLengthResult(content, 100, "spec")
	if !res.IsValid {
		return res
	}
	if !containsAnyFold(content, "requirements", "functionality", "behavior", "interface") {
		res.Suggestions = append(res.Suggestions, "consider describing requirements, functionality, behavior, or interface")
	}
	return res
}

func validateNotes(content string) Result {
	return minLengthResult(content, 50, "notes")
}

func validateTasks(content string) Result {
	return minLengthResult(content, 1, "tasks")
}
