package remote

import (
	"strings"

	"github.com/foundry-mcp/foundry/internal/marker"
)

// DesiredTask is one task line parsed from a spec's tasks markdown.
type DesiredTask struct {
	Text string
	Key  string
	Done bool
}

// ExistingTask is one child issue already attached to a spec's tracker
// issue.
type ExistingTask struct {
	IssueID   string
	Title     string
	Open      bool
	HasLabel  bool
	TaskKey   string // from its marker, empty if legacy/unmarked
}

// Plan is the set of side-effecting operations needed to reconcile a
// desired task list against the existing child issues. Execution order is
// fixed (label fixes, then create, then close, then reopen). Replanning
// against the post-execution state yields, at most, a ToClose bucket holding
// the unmatched siblings this plan only label-fixed; once those are closed,
// the next plan is empty in all four buckets.
type Plan struct {
	ToCreate       []DesiredTask
	ToClose        []string // issue ids
	ToReopen       []string // issue ids
	ToKeepLabelFix []string // issue ids missing the foundry label
}

// IsEmpty reports whether the plan has no work in any bucket.
func (p Plan) IsEmpty() bool {
	return len(p.ToCreate) == 0 && len(p.ToClose) == 0 && len(p.ToReopen) == 0 && len(p.ToKeepLabelFix) == 0
}

// ParseDesiredTasks extracts task lines from tasks markdown, assigning each
// a stable key via marker.NormalizeTaskKey.
func ParseDesiredTasks(tasksMarkdown string) []DesiredTask {
	var tasks []DesiredTask
	for _, line := range strings.Split(tasksMarkdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- [") {
			continue
		}
		done := strings.HasPrefix(trimmed, "- [x]") || strings.HasPrefix(trimmed, "- [X]")
		text := trimmed
		for _, prefix := range []string{"- [ ] ", "- [x] ", "- [X] "} {
			if strings.HasPrefix(text, prefix) {
				text = text[len(prefix):]
				break
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		tasks = append(tasks, DesiredTask{Text: text, Key: marker.NormalizeTaskKey(text), Done: done})
	}
	return tasks
}

// PlanReconciliation computes the bucketed plan for desired tasks against
// existing child issues. Identity is by TaskKey; an existing issue lacking a
// marker (legacy data) is matched by its normalized title instead.
func PlanReconciliation(desired []DesiredTask, existing []ExistingTask) Plan {
	byKey := make(map[string]ExistingTask, len(existing))
	for _, e := range existing {
		key := e.TaskKey
		if key == "" {
			key = marker.NormalizeTaskKey(e.Title)
		}
		byKey[key] = e
	}

	var plan Plan
	matched := make(map[string]bool, len(desired))
	for _, d := range desired {
		e, ok := byKey[d.Key]
		if !ok {
			plan.ToCreate = append(plan.ToCreate, d)
			continue
		}
		matched[d.Key] = true
		if !e.Open {
			plan.ToReopen = append(plan.ToReopen, e.IssueID)
		}
		if !e.HasLabel {
			plan.ToKeepLabelFix = append(plan.ToKeepLabelFix, e.IssueID)
		}
	}

	for key, e := range byKey {
		if matched[key] {
			continue
		}
		// An unmatched sibling missing the label was never confirmed as one of
		// ours; fix its label instead of closing it out from under whatever
		// process owns it. Once labelled, a later pass is free to close it.
		if !e.HasLabel {
			plan.ToKeepLabelFix = append(plan.ToKeepLabelFix, e.IssueID)
			continue
		}
		if e.Open {
			plan.ToClose = append(plan.ToClose, e.IssueID)
		}
	}

	return plan
}
