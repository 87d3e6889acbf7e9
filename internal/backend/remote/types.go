package remote

import "time"

// Team is the subset of a tracker team Foundry needs to resolve team_id.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// WorkflowState is a team's issue workflow state.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "backlog" | "unstarted" | "started" | "completed" | "canceled"
}

// Label is a tracker issue label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is a tracker project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Document is a tracker document (used for Vision, Tech Stack, and Notes).
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Issue is the subset of a tracker issue Foundry reads and writes, used for
// both spec issues and their child task issues.
type Issue struct {
	ID          string
	Title       string
	Description string
	URL         string
	CreatedAt   time.Time
	State       WorkflowState
	Labels      []Label
	ProjectID   string
	Children    []Issue
}

// issueWire is the shape issues actually arrive in over GraphQL: labels and
// children are connections (a "nodes" wrapper), not flat arrays. Client
// methods unmarshal into this and convert via toIssue before returning an
// Issue to callers.
type issueWire struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	State       struct {
		Type string `json:"type"`
	} `json:"state"`
	Labels struct {
		Nodes []Label `json:"nodes"`
	} `json:"labels"`
	Project struct {
		ID string `json:"id"`
	} `json:"project"`
	Children struct {
		Nodes []issueWire `json:"nodes"`
	} `json:"children"`
}

func (w issueWire) toIssue() Issue {
	children := make([]Issue, 0, len(w.Children.Nodes))
	for _, c := range w.Children.Nodes {
		children = append(children, c.toIssue())
	}
	return Issue{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		URL:         w.URL,
		CreatedAt:   w.CreatedAt,
		State:       WorkflowState{Type: w.State.Type},
		Labels:      w.Labels.Nodes,
		ProjectID:   w.Project.ID,
		Children:    children,
	}
}

// IsOpen reports whether the issue's workflow state counts as open: neither
// completed nor canceled.
func (i Issue) IsOpen() bool {
	return i.State.Type != "completed" && i.State.Type != "canceled"
}

// HasLabel reports whether the issue carries a label with the given name.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}
