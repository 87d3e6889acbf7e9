// Package remote implements foundry.Backend against a GraphQL issue
// tracker (wire shape modeled on Linear). It is the backend variant with
// the weakest consistency guarantees and the only one that talks to a
// network service; everything here is built to tolerate retries and to
// make replaying the same operation a safe no-op.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var debugRateLimit = os.Getenv("FOUNDRY_DEBUG_RATE") != ""
var debugAPI = os.Getenv("FOUNDRY_DEBUG_API") != ""

const defaultAPIURL = "https://api.linear.app/graphql"

const foundryLabelName = "foundry"

// Client is a rate-limited GraphQL client scoped to the handful of
// project/document/issue/label operations Foundry's remote backend needs.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	stats      *Stats
}

// ClientOptions configures a Client.
type ClientOptions struct {
	APIURL string // overrides defaultAPIURL; used by tests
}

func NewClient(apiKey string) *Client {
	return NewClientWithOptions(apiKey, ClientOptions{})
}

func NewClientWithOptions(apiKey string, opts ClientOptions) *Client {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Mirrors Linear's documented quota: 1,500/hr sustained, burst of
		// 50 for cold caches.
		limiter: rate.NewLimiter(rate.Limit(float64(trackerHourlyLimit)/3600), 50),
		stats:   NewStats(),
	}
}

func (c *Client) Close() { c.stats.Close() }

func (c *Client) Stats() *Stats { return c.stats }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, result any) error {
	opName := extractOpName(query)
	reqID := uuid.NewString()
	if debugAPI {
		log.Printf("[remote] calling %s req=%s vars=%v", opName, reqID, variables)
	}
	if tokens := c.limiter.Tokens(); tokens <= 0 {
		log.Printf("[ratelimit] token bucket empty, %s will block until tokens replenish", opName)
	}
	if debugRateLimit {
		reservation := c.limiter.Reserve()
		if delay := reservation.Delay(); delay > time.Millisecond {
			log.Printf("[ratelimit] debug: %s reservation delay %v", opName, delay)
		}
		reservation.Cancel()
	}

	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	wait := time.Since(waitStart)
	if wait > time.Millisecond {
		c.stats.RecordRateLimitWait(wait)
	}
	if wait > 100*time.Millisecond {
		hourly := c.stats.HourlyCount()
		log.Printf("[ratelimit] %s waited %s (budget: %d/%d this hour)",
			opName, wait.Round(time.Millisecond), hourly, trackerHourlyLimit)
	}

	reqStart := time.Now()
	var queryErr error
	defer func() { c.stats.Record(opName, time.Since(reqStart), queryErr) }()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		queryErr = fmt.Errorf("marshal request: %w", err)
		return queryErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		queryErr = fmt.Errorf("build request: %w", err)
		return queryErr
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		queryErr = fmt.Errorf("execute request: %w", err)
		return queryErr
	}
	defer resp.Body.Close()

	c.checkRateLimitHeaders(resp, opName)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		queryErr = fmt.Errorf("read response: %w", err)
		return queryErr
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		queryErr = fmt.Errorf("tracker API error (status %d): %s", resp.StatusCode, string(respBody))
		log.Printf("[ratelimit] %s req=%s rate limited (HTTP 429): %s", opName, reqID, string(respBody))
		return queryErr
	}
	if resp.StatusCode != http.StatusOK {
		queryErr = fmt.Errorf("tracker API error (status %d) req=%s: %s", resp.StatusCode, reqID, string(respBody))
		return queryErr
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		queryErr = fmt.Errorf("parse response: %w", err)
		return queryErr
	}
	if len(gqlResp.Errors) > 0 {
		msg := gqlResp.Errors[0].Message
		queryErr = fmt.Errorf("graphql error: %s", msg)
		if strings.Contains(strings.ToLower(msg), "rate limit") {
			log.Printf("[ratelimit] %s rate limited by tracker: %s", opName, msg)
		}
		return queryErr
	}
	if err := json.Unmarshal(gqlResp.Data, result); err != nil {
		queryErr = fmt.Errorf("parse data: %w", err)
		return queryErr
	}
	return nil
}

func (c *Client) checkRateLimitHeaders(resp *http.Response, opName string) {
	remaining := resp.Header.Get("X-RateLimit-Requests-Remaining")
	if remaining == "" {
		return
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}
	limit := trackerHourlyLimit
	if l := resp.Header.Get("X-RateLimit-Requests-Limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if limit > 0 && float64(rem)/float64(limit) < 0.20 {
		log.Printf("[ratelimit] tracker: %d/%d requests remaining this hour (after %s)", rem, limit, opName)
	}
}

// ResolveTeamID resolves a team id from an explicit id, or by key/name
// lookup against the tracker.
func (c *Client) ResolveTeamID(ctx context.Context, teamID, teamKey, teamName string) (string, error) {
	if teamID != "" {
		return teamID, nil
	}
	var result struct {
		Teams struct {
			Nodes []Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.query(ctx, queryTeams, map[string]any{"first": 100}, &result); err != nil {
		return "", err
	}
	for _, t := range result.Teams.Nodes {
		if teamKey != "" && t.Key == teamKey {
			return t.ID, nil
		}
	}
	for _, t := range result.Teams.Nodes {
		if teamName != "" && t.Name == teamName {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("unable to resolve team id; set FOUNDRY_LINEAR_TEAM_ID or a matching TEAM_KEY/TEAM_NAME")
}

// FindProjectByName returns the project with an exact name match, if any.
func (c *Client) FindProjectByName(ctx context.Context, name string) (Project, bool, error) {
	var result struct {
		Projects struct {
			Nodes []Project `json:"nodes"`
		} `json:"projects"`
	}
	if err := c.query(ctx, queryProjects, map[string]any{"first": 250}, &result); err != nil {
		return Project{}, false, err
	}
	for _, p := range result.Projects.Nodes {
		if p.Name == name {
			return p, true, nil
		}
	}
	return Project{}, false, nil
}

// FindOrCreateProject finds a project by exact name, creating it with the
// given description if absent.
func (c *Client) FindOrCreateProject(ctx context.Context, teamID, name, description string) (Project, error) {
	if p, ok, err := c.FindProjectByName(ctx, name); err != nil {
		return Project{}, err
	} else if ok {
		return p, nil
	}

	var created struct {
		ProjectCreate struct {
			Project Project `json:"project"`
		} `json:"projectCreate"`
	}
	input := map[string]any{"name": name, "description": description, "teamIds": []string{teamID}}
	if err := c.query(ctx, mutationCreateProject, map[string]any{"input": input}, &created); err != nil {
		return Project{}, err
	}
	return created.ProjectCreate.Project, nil
}

func (c *Client) UpdateProjectDescription(ctx context.Context, projectID, description string) error {
	var result struct {
		ProjectUpdate struct {
			Project Project `json:"project"`
		} `json:"projectUpdate"`
	}
	input := map[string]any{"description": description}
	return c.query(ctx, mutationUpdateProject, map[string]any{"id": projectID, "input": input}, &result)
}

// ProjectDocuments returns the (first page of) documents attached to a
// project.
func (c *Client) ProjectDocuments(ctx context.Context, projectID string) ([]Document, error) {
	var result struct {
		Projects struct {
			Nodes []struct {
				Documents struct {
					Nodes []Document `json:"nodes"`
				} `json:"documents"`
			} `json:"nodes"`
		} `json:"projects"`
	}
	filter := map[string]any{"id": map[string]any{"eq": projectID}}
	vars := map[string]any{"filter": filter, "first": 1, "docsFirst": 50}
	if err := c.query(ctx, queryProjectDocuments, vars, &result); err != nil {
		return nil, err
	}
	if len(result.Projects.Nodes) == 0 {
		return nil, nil
	}
	return result.Projects.Nodes[0].Documents.Nodes, nil
}

func (c *Client) CreateDocument(ctx context.Context, title, content, projectID string) (Document, error) {
	var result struct {
		DocumentCreate struct {
			Document Document `json:"document"`
		} `json:"documentCreate"`
	}
	input := map[string]any{"title": title, "content": content, "projectId": projectID}
	if err := c.query(ctx, mutationCreateDocument, map[string]any{"input": input}, &result); err != nil {
		return Document{}, err
	}
	return result.DocumentCreate.Document, nil
}

func (c *Client) UpdateDocument(ctx context.Context, documentID, content string) error {
	var result struct {
		DocumentUpdate struct {
			Document Document `json:"document"`
		} `json:"documentUpdate"`
	}
	input := map[string]any{"content": content}
	return c.query(ctx, mutationUpdateDocument, map[string]any{"id": documentID, "input": input}, &result)
}

// EnsureLabel finds the "foundry" label or creates it.
func (c *Client) EnsureLabel(ctx context.Context) (string, error) {
	var result struct {
		IssueLabels struct {
			Nodes []Label `json:"nodes"`
		} `json:"issueLabels"`
	}
	filter := map[string]any{"name": map[string]any{"eq": foundryLabelName}}
	if err := c.query(ctx, queryIssueLabels, map[string]any{"filter": filter, "first": 50}, &result); err != nil {
		return "", err
	}
	for _, l := range result.IssueLabels.Nodes {
		if l.Name == foundryLabelName {
			return l.ID, nil
		}
	}

	var created struct {
		IssueLabelCreate struct {
			IssueLabel Label `json:"issueLabel"`
		} `json:"issueLabelCreate"`
	}
	input := map[string]any{"name": foundryLabelName, "color": "#4A90E2"}
	if err := c.query(ctx, mutationCreateIssueLabel, map[string]any{"input": input}, &created); err != nil {
		return "", err
	}
	return created.IssueLabelCreate.IssueLabel.ID, nil
}

func (c *Client) CreateIssue(ctx context.Context, title, description, projectID, teamID string, labelIDs []string, parentID string) (Issue, error) {
	var result struct {
		IssueCreate struct {
			Issue Issue `json:"issue"`
		} `json:"issueCreate"`
	}
	input := map[string]any{
		"title":       title,
		"description": description,
		"projectId":   projectID,
		"labelIds":    labelIDs,
		"teamId":      teamID,
	}
	if parentID != "" {
		input["parentId"] = parentID
	}
	if err := c.query(ctx, mutationCreateIssue, map[string]any{"input": input}, &result); err != nil {
		return Issue{}, err
	}
	return result.IssueCreate.Issue, nil
}

func (c *Client) UpdateIssueDescription(ctx context.Context, issueID, description string) error {
	var result struct {
		IssueUpdate struct {
			Issue Issue `json:"issue"`
		} `json:"issueUpdate"`
	}
	input := map[string]any{"description": description}
	return c.query(ctx, mutationUpdateIssue, map[string]any{"id": issueID, "input": input}, &result)
}

func (c *Client) UpdateIssueLabels(ctx context.Context, issueID string, labelIDs []string) error {
	var result struct {
		IssueUpdate struct {
			Issue Issue `json:"issue"`
		} `json:"issueUpdate"`
	}
	input := map[string]any{"labelIds": labelIDs}
	return c.query(ctx, mutationUpdateIssue, map[string]any{"id": issueID, "input": input}, &result)
}

func (c *Client) ArchiveIssue(ctx context.Context, issueID string) error {
	var result struct {
		IssueArchive struct {
			Success bool `json:"success"`
		} `json:"issueArchive"`
	}
	return c.query(ctx, mutationArchiveIssue, map[string]any{"id": issueID, "trash": false}, &result)
}

// WorkflowStateID finds a workflow state id of the given type ("started" or
// "completed") among any team's states.
func (c *Client) WorkflowStateID(ctx context.Context, stateType string) (string, error) {
	var result struct {
		Teams struct {
			Nodes []struct {
				States struct {
					Nodes []WorkflowState `json:"nodes"`
				} `json:"states"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	vars := map[string]any{"first": 10, "statesFirst": 50}
	if err := c.query(ctx, queryTeamWorkflowStates, vars, &result); err != nil {
		return "", err
	}
	for _, team := range result.Teams.Nodes {
		for _, state := range team.States.Nodes {
			if state.Type == stateType {
				return state.ID, nil
			}
		}
	}
	return "", fmt.Errorf("no workflow state of type %q found", stateType)
}

func (c *Client) SetIssueState(ctx context.Context, issueID, stateID string) error {
	var result struct {
		IssueUpdate struct {
			Issue Issue `json:"issue"`
		} `json:"issueUpdate"`
	}
	input := map[string]any{"stateId": stateID}
	return c.query(ctx, mutationUpdateIssue, map[string]any{"id": issueID, "input": input}, &result)
}

// IssueByID loads an issue together with its children (task sub-issues).
func (c *Client) IssueByID(ctx context.Context, issueID string, childrenFirst int) (Issue, bool, error) {
	var result struct {
		Issues struct {
			Nodes []issueWire `json:"nodes"`
		} `json:"issues"`
	}
	filter := map[string]any{"id": map[string]any{"eq": issueID}}
	vars := map[string]any{"filter": filter, "first": 1, "childrenFirst": childrenFirst}
	if err := c.query(ctx, queryIssueByID, vars, &result); err != nil {
		return Issue{}, false, err
	}
	if len(result.Issues.Nodes) == 0 {
		return Issue{}, false, nil
	}
	return result.Issues.Nodes[0].toIssue(), true, nil
}

// IssuesForProject lists all issues for a project, labelled "foundry",
// paginated to completion.
func (c *Client) IssuesForProject(ctx context.Context, projectID string) ([]Issue, error) {
	var all []Issue
	after := ""
	for {
		var result struct {
			Issues struct {
				Nodes    []issueWire `json:"nodes"`
				PageInfo pageInfo    `json:"pageInfo"`
			} `json:"issues"`
		}
		filter := map[string]any{
			"project": map[string]any{"id": map[string]any{"eq": projectID}},
			"labels":  map[string]any{"name": map[string]any{"eq": foundryLabelName}},
		}
		vars := map[string]any{"filter": filter, "first": 50}
		if after != "" {
			vars["after"] = after
		}
		if err := c.query(ctx, queryIssuesForProject, vars, &result); err != nil {
			return nil, err
		}
		for _, w := range result.Issues.Nodes {
			all = append(all, w.toIssue())
		}
		if !result.Issues.PageInfo.HasNextPage {
			break
		}
		after = result.Issues.PageInfo.EndCursor
	}
	return all, nil
}
