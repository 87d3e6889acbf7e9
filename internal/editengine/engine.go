// Package editengine implements a pure, selector-addressed document
// transformation core: a deterministic, idempotent function from
// (documents, commands) to (documents, report). It performs no I/O.
package editengine

import "fmt"

// Target names one of a spec's three documents.
type Target int

const (
	TargetSpec Target = iota
	TargetTasks
	TargetNotes
)

func (t Target) String() string {
	switch t {
	case TargetSpec:
		return "spec"
	case TargetTasks:
		return "tasks"
	case TargetNotes:
		return "notes"
	default:
		return "unknown"
	}
}

// CommandName names one of the three supported edit operations.
type CommandName int

const (
	SetTaskStatus CommandName = iota
	UpsertTask
	AppendToSection
)

// TaskStatus is the desired checkbox state for SetTaskStatus.
type TaskStatus int

const (
	StatusTodo TaskStatus = iota
	StatusDone
)

// SelectorKind tags a Selector as addressing a task line or a section header.
type SelectorKind int

const (
	SelectorTaskText SelectorKind = iota
	SelectorSection
)

// Selector addresses the line(s) a command should act on.
type Selector struct {
	Kind  SelectorKind
	Value string
}

// Command is one entry in an edit-commands payload.
type Command struct {
	Target   Target
	Command  CommandName
	Selector Selector
	Status   *TaskStatus // required for SetTaskStatus
	Content  string      // required for UpsertTask (full line) and AppendToSection
}

// SelectorCandidate is one ambiguity-resolution hint: a selector the caller
// could retry with, plus a short excerpt of surrounding document context.
type SelectorCandidate struct {
	Selector Selector
	Preview  string
}

// CommandError reports one command's failure without aborting the batch.
type CommandError struct {
	Target        Target
	CommandIndex  int
	Message       string
	Candidates    []SelectorCandidate
}

// FileUpdateSummary tallies outcomes for one of the three documents.
type FileUpdateSummary struct {
	Target           Target
	Applied          int
	SkippedIdempotent int
}

// Documents is the mutable triple the engine transforms.
type Documents struct {
	Spec  string
	Tasks string
	Notes string
}

// Result is the outcome of ProcessCommands: the new document triple plus a
// per-command and per-file report.
type Result struct {
	Documents             Documents
	AppliedCount          int
	SkippedIdempotentCount int
	FileUpdates           []FileUpdateSummary
	Errors                []CommandError
	NextSteps             []string
	WorkflowHints         []string
}

// ProcessCommands applies commands to the initial document triple in order.
// Each command sees the state left by prior successful commands. A failing
// command is recorded in Result.Errors and does not interrupt the sequence.
func ProcessCommands(docs Documents, commands []Command) Result {
	tallies := map[Target]*FileUpdateSummary{
		TargetSpec:  {Target: TargetSpec},
		TargetTasks: {Target: TargetTasks},
		TargetNotes: {Target: TargetNotes},
	}

	result := Result{
		Documents: docs,
		NextSteps: []string{"Load updated spec with load_spec to verify changes"},
		WorkflowHints: []string{
			"Always copy exact task text and headers from load_spec before editing",
		},
	}

	for i, cmd := range commands {
		switch {
		case cmd.Target == TargetTasks && cmd.Command == SetTaskStatus && cmd.Selector.Kind == SelectorTaskText:
			if cmd.Status == nil {
				result.Errors = append(result.Errors, CommandError{Target: cmd.Target, CommandIndex: i, Message: "status is required for set_task_status"})
				continue
			}
			outcome, err := setTaskStatus(result.Documents.Tasks, cmd.Selector.Value, *cmd.Status)
			if err != nil {
				result.Errors = append(result.Errors, CommandError{
					Target: cmd.Target, CommandIndex: i,
					Message: "Ambiguous or no matching task_text selector", Candidates: err.Candidates,
				})
				continue
			}
			result.Documents.Tasks = outcome.content
			applyOutcome(&result, tallies[TargetTasks], outcome)

		case cmd.Target == TargetTasks && cmd.Command == UpsertTask && cmd.Selector.Kind == SelectorTaskText:
			if cmd.Content == "" {
				result.Errors = append(result.Errors, CommandError{Target: cmd.Target, CommandIndex: i, Message: "content is required for upsert_task"})
				continue
			}
			outcome, err := upsertTask(result.Documents.Tasks, cmd.Selector.Value, cmd.Content)
			if err != nil {
				result.Errors = append(result.Errors, CommandError{
					Target: cmd.Target, CommandIndex: i,
					Message: "Ambiguous task_text selector", Candidates: err.Candidates,
				})
				continue
			}
			result.Documents.Tasks = outcome.content
			applyOutcome(&result, tallies[TargetTasks], outcome)

		case (cmd.Target == TargetSpec || cmd.Target == TargetNotes) && cmd.Command == AppendToSection && cmd.Selector.Kind == SelectorSection:
			if cmd.Content == "" {
				result.Errors = append(result.Errors, CommandError{Target: cmd.Target, CommandIndex: i, Message: "content is required for append_to_section"})
				continue
			}
			current := result.Documents.Spec
			if cmd.Target == TargetNotes {
				current = result.Documents.Notes
			}
			outcome, err := appendToSection(current, cmd.Selector.Value, cmd.Content)
			if err != nil {
				result.Errors = append(result.Errors, CommandError{
					Target: cmd.Target, CommandIndex: i,
					Message: "Section not found or ambiguous", Candidates: err.Candidates,
				})
				continue
			}
			if cmd.Target == TargetNotes {
				result.Documents.Notes = outcome.content
			} else {
				result.Documents.Spec = outcome.content
			}
			applyOutcome(&result, tallies[cmd.Target], outcome)

		case cmd.Target == TargetTasks && cmd.Command == AppendToSection:
			result.Errors = append(result.Errors, CommandError{Target: cmd.Target, CommandIndex: i, Message: "append_to_section is invalid for tasks"})

		default:
			result.Errors = append(result.Errors, CommandError{
				Target: cmd.Target, CommandIndex: i,
				Message: fmt.Sprintf("unsupported command/selector combination for target %s", cmd.Target),
			})
		}
	}

	for _, t := range []Target{TargetSpec, TargetTasks, TargetNotes} {
		s := *tallies[t]
		if s.Applied > 0 || s.SkippedIdempotent > 0 {
			result.FileUpdates = append(result.FileUpdates, s)
		}
	}

	return result
}

type editOutcome struct {
	content string
	applied int
	skipped int
}

func applyOutcome(result *Result, tally *FileUpdateSummary, o editOutcome) {
	tally.Applied += o.applied
	tally.SkippedIdempotent += o.skipped
	result.AppliedCount += o.applied
	result.SkippedIdempotentCount += o.skipped
}

// ambiguityError carries retry candidates for a selector that matched zero
// or more than one target line.
type ambiguityError struct {
	Candidates []SelectorCandidate
}

func (e *ambiguityError) Error() string { return "ambiguous or no matching selector" }
