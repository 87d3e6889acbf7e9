package editengine

import "testing"

func statusPtr(s TaskStatus) *TaskStatus { return &s }

func TestSetTaskStatusAppliesAndIsIdempotent(t *testing.T) {
	docs := Documents{Tasks: "- [ ] Write the design doc\n- [ ] Ship it"}
	cmd := Command{
		Target:   TargetTasks,
		Command:  SetTaskStatus,
		Selector: Selector{Kind: SelectorTaskText, Value: "Write the design doc"},
		Status:   statusPtr(StatusDone),
	}

	result := ProcessCommands(docs, []Command{cmd})
	if result.AppliedCount != 1 {
		t.Fatalf("expected 1 applied command, got %+v", result)
	}
	if result.Documents.Tasks != "- [x] Write the design doc\n- [ ] Ship it" {
		t.Fatalf("unexpected tasks document: %q", result.Documents.Tasks)
	}

	// Replaying the same command against the new state is a no-op.
	again := ProcessCommands(result.Documents, []Command{cmd})
	if again.AppliedCount != 0 || again.SkippedIdempotentCount != 1 {
		t.Fatalf("expected idempotent skip, got %+v", again)
	}
}

func TestSetTaskStatusMissingStatusErrors(t *testing.T) {
	docs := Documents{Tasks: "- [ ] one"}
	cmd := Command{Target: TargetTasks, Command: SetTaskStatus, Selector: Selector{Kind: SelectorTaskText, Value: "one"}}

	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 || result.Errors[0].Message != "status is required for set_task_status" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSetTaskStatusAmbiguousWhenZeroOrManyMatches(t *testing.T) {
	docs := Documents{Tasks: "- [ ] duplicate\n- [ ] duplicate"}
	cmd := Command{
		Target:   TargetTasks,
		Command:  SetTaskStatus,
		Selector: Selector{Kind: SelectorTaskText, Value: "duplicate"},
		Status:   statusPtr(StatusDone),
	}
	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 || len(result.Errors[0].Candidates) == 0 {
		t.Fatalf("expected ambiguity error with candidates, got %+v", result)
	}
}

func TestUpsertTaskAppendsThenSkips(t *testing.T) {
	docs := Documents{Tasks: "- [ ] existing"}
	cmd := Command{
		Target:   TargetTasks,
		Command:  UpsertTask,
		Selector: Selector{Kind: SelectorTaskText, Value: "new task"},
		Content:  "- [ ] new task",
	}

	result := ProcessCommands(docs, []Command{cmd})
	if result.AppliedCount != 1 {
		t.Fatalf("expected append, got %+v", result)
	}
	if result.Documents.Tasks != "- [ ] existing\n- [ ] new task" {
		t.Fatalf("unexpected tasks document: %q", result.Documents.Tasks)
	}

	again := ProcessCommands(result.Documents, []Command{cmd})
	if again.AppliedCount != 0 || again.SkippedIdempotentCount != 1 {
		t.Fatalf("expected idempotent skip on repeat upsert, got %+v", again)
	}
}

func TestUpsertTaskMissingContentErrors(t *testing.T) {
	docs := Documents{Tasks: ""}
	cmd := Command{Target: TargetTasks, Command: UpsertTask, Selector: Selector{Kind: SelectorTaskText, Value: "x"}}
	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 || result.Errors[0].Message != "content is required for upsert_task" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAppendToSectionAppendsThenSkips(t *testing.T) {
	docs := Documents{Spec: "# Overview\nIntro text.\n\n# Design\nDesign text."}
	cmd := Command{
		Target:   TargetSpec,
		Command:  AppendToSection,
		Selector: Selector{Kind: SelectorSection, Value: "# Design"},
		Content:  "Extra design detail.",
	}

	result := ProcessCommands(docs, []Command{cmd})
	if result.AppliedCount != 1 {
		t.Fatalf("expected append, got %+v", result)
	}
	if result.Documents.Spec != "# Overview\nIntro text.\n\n# Design\nDesign text.\n\nExtra design detail." {
		t.Fatalf("unexpected spec document: %q", result.Documents.Spec)
	}

	again := ProcessCommands(result.Documents, []Command{cmd})
	if again.AppliedCount != 0 || again.SkippedIdempotentCount != 1 {
		t.Fatalf("expected idempotent skip, got %+v", again)
	}
}

func TestAppendToSectionMissingHeaderIsAmbiguous(t *testing.T) {
	docs := Documents{Notes: "# Only Section\nsome text"}
	cmd := Command{
		Target:   TargetNotes,
		Command:  AppendToSection,
		Selector: Selector{Kind: SelectorSection, Value: "# Missing"},
		Content:  "new content",
	}
	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result)
	}
}

func TestAppendToSectionInvalidForTasks(t *testing.T) {
	docs := Documents{Tasks: "- [ ] one"}
	cmd := Command{Target: TargetTasks, Command: AppendToSection, Selector: Selector{Kind: SelectorSection, Value: "# x"}, Content: "y"}
	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 || result.Errors[0].Message != "append_to_section is invalid for tasks" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestProcessCommandsSequencesStateAcrossCommands(t *testing.T) {
	docs := Documents{Tasks: "- [ ] step one"}
	commands := []Command{
		{Target: TargetTasks, Command: UpsertTask, Selector: Selector{Kind: SelectorTaskText, Value: "step two"}, Content: "- [ ] step two"},
		{Target: TargetTasks, Command: SetTaskStatus, Selector: Selector{Kind: SelectorTaskText, Value: "step one"}, Status: statusPtr(StatusDone)},
	}

	result := ProcessCommands(docs, commands)
	want := "- [x] step one\n- [ ] step two"
	if result.Documents.Tasks != want {
		t.Fatalf("Documents.Tasks = %q, want %q", result.Documents.Tasks, want)
	}
	if result.AppliedCount != 2 {
		t.Fatalf("expected 2 applied commands, got %+v", result)
	}
	if len(result.FileUpdates) != 1 || result.FileUpdates[0].Target != TargetTasks || result.FileUpdates[0].Applied != 2 {
		t.Fatalf("unexpected file updates: %+v", result.FileUpdates)
	}
}

func TestUnsupportedCombinationErrors(t *testing.T) {
	docs := Documents{Spec: "content"}
	cmd := Command{Target: TargetSpec, Command: SetTaskStatus, Selector: Selector{Kind: SelectorSection, Value: "x"}}
	result := ProcessCommands(docs, []Command{cmd})
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result)
	}
}
