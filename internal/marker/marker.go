// Package marker parses and renders the hidden HTML-comment identity tags
// Foundry embeds as the first line of every remote-tracker issue and document
// body. A marker is the authoritative identity of a remote resource; its
// human-visible title never is.
package marker

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the resource a marker identifies.
type Kind string

const (
	KindSpec    Kind = "spec"
	KindNotes   Kind = "notes"
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// Marker is the parsed payload of a `<!-- foundry:... -->` comment.
type Marker struct {
	Fields map[string]string
}

// SpecID returns the "specId" field, if present.
func (m Marker) SpecID() string { return m.Fields["specId"] }

// Project returns the "project" field, if present (project-scoped markers only).
func (m Marker) Project() string { return m.Fields["project"] }

// TaskKey returns the "taskKey" field, if present (task markers only).
func (m Marker) TaskKey() string { return m.Fields["taskKey"] }

// Kind returns the "type" field as a Kind.
func (m Marker) Kind() Kind { return Kind(m.Fields["type"]) }

// RenderSpec composes a marker comment for a spec-scoped resource (spec, notes,
// or task). taskKey is ignored unless kind is KindTask.
func RenderSpec(specID string, kind Kind, taskKey string) string {
	fields := []string{fmt.Sprintf("foundry:specId=%s", specID), "type=" + string(kind), "v=1"}
	if kind == KindTask {
		fields = append(fields, "taskKey="+taskKey)
	}
	return "<!-- " + strings.Join(fields, "; ") + " -->"
}

// RenderProject composes a marker comment for a project-scoped document
// (vision, tech stack).
func RenderProject(projectName string) string {
	return fmt.Sprintf("<!-- foundry:project=%s; v=1 -->", projectName)
}

// Parse finds the first `<!-- ... -->` comment in body and parses it as a
// marker, if its first key carries the "foundry:" prefix. It returns
// ok=false when body carries no foundry marker.
func Parse(body string) (m Marker, ok bool) {
	start := strings.Index(body, "<!--")
	if start < 0 {
		return Marker{}, false
	}
	rel := strings.Index(body[start:], "-->")
	if rel < 0 {
		return Marker{}, false
	}
	end := start + rel
	payload := strings.TrimSpace(body[start+len("<!--") : end])

	parts := strings.Split(payload, ";")
	fields := make(map[string]string, len(parts))
	for i, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if i == 0 {
			if !strings.HasPrefix(key, "foundry:") {
				return Marker{}, false
			}
			key = strings.TrimPrefix(key, "foundry:")
		}
		fields[key] = strings.TrimSpace(kv[1])
	}
	if len(fields) == 0 {
		return Marker{}, false
	}
	return Marker{Fields: fields}, true
}

// StripFirst removes the first marker comment (and a single trailing
// newline, if present) from body, returning the remaining content; no other
// whitespace is trimmed.
func StripFirst(body string) string {
	start := strings.Index(body, "<!--")
	if start < 0 {
		return body
	}
	rel := strings.Index(body[start:], "-->")
	if rel < 0 {
		return body
	}
	end := start + rel + len("-->")
	if end < len(body) && body[end] == '\n' {
		end++
	}
	return body[:start] + body[end:]
}

// NormalizeTaskKey turns arbitrary task text into a stable, URL-safe key:
// lowercase, non-alphanumeric runs collapsed to a single hyphen, trimmed.
func NormalizeTaskKey(text string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// SortedKeys returns a marker's field names in sorted order, useful for
// deterministic logging and test assertions.
func (m Marker) SortedKeys() []string {
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
