// Package foundry implements the storage-agnostic project and spec model:
// the data types, the spec-name and fuzzy-match algorithms, and the façade
// that coordinates a pluggable Backend with the edit engine.
package foundry

import (
	"fmt"
	"time"
)

// FileKind identifies one of a spec's three documents.
type FileKind int

const (
	FileSpec FileKind = iota
	FileNotes
	FileTasks
)

func (k FileKind) String() string {
	switch k {
	case FileSpec:
		return "spec"
	case FileNotes:
		return "notes"
	case FileTasks:
		return "tasks"
	default:
		return "unknown"
	}
}

// ResourceLocator identifies where a Project or Spec's bytes actually live.
// Exactly one field is populated, mirroring a tagged union.
type ResourceLocator struct {
	FilesystemPath string
	Remote         *RemoteLocator
}

// RemoteLocator addresses a spec (or project) mirrored onto an external
// issue tracker.
type RemoteLocator struct {
	ProjectID       string
	IssueID         string
	NotesDocumentID string
	IssueURL        string
	NotesURL        string
}

// Capabilities describes what a Backend implementation supports, so callers
// can adapt behaviour (e.g. retry policy, deeplink rendering) without a type
// switch on the concrete backend.
type Capabilities struct {
	SupportsDocuments bool
	SupportsSubtasks  bool
	URLDeeplinks      bool
	AtomicReplace     bool
	StrongConsistency bool
}

// ProjectConfig is the input to CreateProject.
type ProjectConfig struct {
	Name      string
	Vision    string
	TechStack string
	Summary   string
}

// Project is a top-level named container for vision/tech-stack/summary
// documents and a set of specs.
type Project struct {
	Name      string
	CreatedAt time.Time
	Locator   ResourceLocator
	Vision    string
	TechStack string
	Summary   string
}

// ProjectMetadata is the lightweight listing projection of a Project.
type ProjectMetadata struct {
	Name         string
	CreatedAt    time.Time
	SpecCount    int
	LastModified time.Time
}

// SpecConfig is the input to CreateSpec.
type SpecConfig struct {
	ProjectName string
	FeatureName string
	Spec        string
	Notes       string
	Tasks       string
}

// Spec is a timestamped, feature-named artefact carrying the three
// documents addressed by the edit engine.
type Spec struct {
	Name        string
	ProjectName string
	CreatedAt   time.Time
	Locator     ResourceLocator
	Spec        string
	Notes       string
	Tasks       string
}

// SpecMetadata is the lightweight listing projection of a Spec.
type SpecMetadata struct {
	Name        string
	ProjectName string
	FeatureName string
	CreatedAt   time.Time
}

// SpecFilter narrows ListSpecsFiltered results.
type SpecFilter struct {
	FeatureNameContains string
	CreatedAfter        *time.Time
	CreatedBefore       *time.Time
	Limit               int
}

// ContentValidationStatus records per-document validity for SpecValidationResult.
type ContentValidationStatus struct {
	SpecValid  bool
	NotesValid bool
	TasksValid bool
}

// SpecValidationResult reports on a spec's file existence and content quality.
type SpecValidationResult struct {
	SpecName           string
	ProjectName        string
	SpecFileExists     bool
	NotesFileExists    bool
	TaskListFileExists bool
	ContentValidation  ContentValidationStatus
	ValidationErrors   []string
}

// IsValid reports whether the spec has all three files present and valid,
// with no accumulated validation errors.
func (r SpecValidationResult) IsValid() bool {
	return r.SpecFileExists && r.NotesFileExists && r.TaskListFileExists &&
		r.ContentValidation.SpecValid && r.ContentValidation.NotesValid && r.ContentValidation.TasksValid &&
		len(r.ValidationErrors) == 0
}

// Summary renders a one-line human-readable result, matching the upstream
// reference's format.
func (r SpecValidationResult) Summary() string {
	if r.IsValid() {
		return "Spec is valid"
	}
	return pluralValidationSummary(len(r.ValidationErrors))
}

func pluralValidationSummary(n int) string {
	if n == 1 {
		return "Spec validation failed: 1 error"
	}
	return fmt.Sprintf("Spec validation failed: %d errors", n)
}
