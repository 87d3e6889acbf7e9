package remote

import (
	"sort"
	"testing"
)

func TestParseDesiredTasks(t *testing.T) {
	md := "- [ ] Keep me\n- [x] Done one\n\nSome prose\n- [ ]  Spacey task \n"
	tasks := ParseDesiredTasks(md)
	if len(tasks) != 3 {
		t.Fatalf("ParseDesiredTasks returned %d tasks, want 3: %+v", len(tasks), tasks)
	}
	if tasks[0].Text != "Keep me" || tasks[0].Key != "keep-me" || tasks[0].Done {
		t.Errorf("task[0] = %+v", tasks[0])
	}
	if tasks[1].Text != "Done one" || !tasks[1].Done {
		t.Errorf("task[1] = %+v", tasks[1])
	}
	if tasks[2].Text != "Spacey task" || tasks[2].Key != "spacey-task" {
		t.Errorf("task[2] = %+v", tasks[2])
	}
}

func TestPlanReconciliationScenario(t *testing.T) {
	// Mirrors the remote reconciliation scenario: desired "keep" + "new";
	// existing "keep" (open, labelled), "old" (open, labelled), "fixme"
	// (open, unlabelled).
	desired := ParseDesiredTasks("- [ ] keep\n- [ ] new")
	existing := []ExistingTask{
		{IssueID: "keep-id", Title: "keep", Open: true, HasLabel: true, TaskKey: "keep"},
		{IssueID: "old-id", Title: "old", Open: true, HasLabel: true, TaskKey: "old"},
		{IssueID: "fixme-id", Title: "fixme", Open: true, HasLabel: false, TaskKey: "fixme"},
	}

	plan := PlanReconciliation(desired, existing)

	if len(plan.ToCreate) != 1 || plan.ToCreate[0].Key != "new" {
		t.Errorf("ToCreate = %+v, want one task keyed \"new\"", plan.ToCreate)
	}
	if !equalStrings(plan.ToClose, []string{"old-id"}) {
		t.Errorf("ToClose = %v, want [old-id]", plan.ToClose)
	}
	if !equalStrings(plan.ToKeepLabelFix, []string{"fixme-id"}) {
		t.Errorf("ToKeepLabelFix = %v, want [fixme-id]", plan.ToKeepLabelFix)
	}
	if len(plan.ToReopen) != 0 {
		t.Errorf("ToReopen = %v, want empty", plan.ToReopen)
	}
}

func TestPlanReconciliationIdempotentReplay(t *testing.T) {
	desired := ParseDesiredTasks("- [ ] keep\n- [ ] new")

	// Simulate the state right after executing the first plan: "old" closed,
	// "fixme" now labelled (but its open state is untouched by a label fix),
	// "new" created and open+labelled.
	postExecution := []ExistingTask{
		{IssueID: "keep-id", Title: "keep", Open: true, HasLabel: true, TaskKey: "keep"},
		{IssueID: "old-id", Title: "old", Open: false, HasLabel: true, TaskKey: "old"},
		{IssueID: "fixme-id", Title: "fixme", Open: true, HasLabel: true, TaskKey: "fixme"},
		{IssueID: "new-id", Title: "new", Open: true, HasLabel: true, TaskKey: "new"},
	}

	// "fixme" was only ever fixed up, never evaluated for closing, so now
	// that it carries the label it's an ordinary extraneous sibling.
	plan := PlanReconciliation(desired, postExecution)
	if !equalStrings(plan.ToClose, []string{"fixme-id"}) {
		t.Errorf("ToClose = %v, want [fixme-id]", plan.ToClose)
	}
	if len(plan.ToCreate) != 0 || len(plan.ToReopen) != 0 || len(plan.ToKeepLabelFix) != 0 {
		t.Errorf("unexpected side buckets: %+v", plan)
	}

	// Once "fixme" is actually closed, replaying again is a true no-op.
	steadyState := append([]ExistingTask{}, postExecution...)
	steadyState[2].Open = false
	if final := PlanReconciliation(desired, steadyState); !final.IsEmpty() {
		t.Errorf("steady-state replay should be empty, got %+v", final)
	}
}

func TestPlanReconciliationReopensClosedMatch(t *testing.T) {
	desired := ParseDesiredTasks("- [ ] keep")
	existing := []ExistingTask{
		{IssueID: "keep-id", Title: "keep", Open: false, HasLabel: true, TaskKey: "keep"},
	}

	plan := PlanReconciliation(desired, existing)
	if !equalStrings(plan.ToReopen, []string{"keep-id"}) {
		t.Errorf("ToReopen = %v, want [keep-id]", plan.ToReopen)
	}
	if len(plan.ToClose) != 0 || len(plan.ToCreate) != 0 {
		t.Errorf("unexpected side buckets: %+v", plan)
	}
}

func TestPlanReconciliationFallsBackToNormalizedTitleForLegacyIssues(t *testing.T) {
	desired := ParseDesiredTasks("- [ ] Legacy task")
	existing := []ExistingTask{
		// No marker (legacy data): TaskKey is empty, matched by normalized title.
		{IssueID: "legacy-id", Title: "Legacy task", Open: true, HasLabel: true, TaskKey: ""},
	}

	plan := PlanReconciliation(desired, existing)
	if !plan.IsEmpty() {
		t.Errorf("legacy title match should produce an empty plan, got %+v", plan)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
