package editengine

import "strings"

// normalizeTaskText implements §4.3's task-line normalisation: strip an
// optional checkbox prefix, collapse internal whitespace, drop one trailing
// period.
func normalizeTaskText(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, "- [ ] "):
		trimmed = trimmed[len("- [ ] "):]
	case strings.HasPrefix(trimmed, "- [x] "):
		trimmed = trimmed[len("- [x] "):]
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.Join(strings.Fields(trimmed), " ")
	trimmed = strings.TrimSuffix(trimmed, ".")
	return trimmed
}

func isTaskLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "- [")
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

// previewExcerpt returns up to 5 lines around idx: two before, the line
// itself, and two after, clamped to document bounds.
func previewExcerpt(lines []string, idx int) string {
	start := idx - 2
	if start < 0 {
		start = 0
	}
	end := idx + 3
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func taskCandidates(content string) []SelectorCandidate {
	lines := splitLines(content)
	var out []SelectorCandidate
	for i, l := range lines {
		if isTaskLine(l) {
			out = append(out, SelectorCandidate{
				Selector: Selector{Kind: SelectorTaskText, Value: normalizeTaskText(l)},
				Preview:  previewExcerpt(lines, i),
			})
		}
	}
	return out
}

func headerCandidates(content string) []SelectorCandidate {
	lines := splitLines(content)
	var out []SelectorCandidate
	for i, l := range lines {
		if isHeaderLine(l) {
			out = append(out, SelectorCandidate{
				Selector: Selector{Kind: SelectorSection, Value: strings.TrimSpace(l)},
				Preview:  previewExcerpt(lines, i),
			})
		}
	}
	return out
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// setTaskStatus toggles the unique task line whose normalised text matches
// taskText to the requested status.
func setTaskStatus(current, taskText string, status TaskStatus) (editOutcome, *ambiguityError) {
	wanted := normalizeTaskText(taskText)
	desiredPrefix := "- [ ] "
	if status == StatusDone {
		desiredPrefix = "- [x] "
	}

	lines := splitLines(current)
	var matches []int
	for i, l := range lines {
		if isTaskLine(l) && normalizeTaskText(l) == wanted {
			matches = append(matches, i)
		}
	}

	if len(matches) != 1 {
		return editOutcome{content: current}, &ambiguityError{Candidates: taskCandidates(current)}
	}

	idx := matches[0]
	if strings.HasPrefix(strings.TrimLeft(lines[idx], " \t"), desiredPrefix) {
		return editOutcome{content: current, skipped: 1}, nil
	}

	lines[idx] = desiredPrefix + normalizeTaskText(lines[idx])
	return editOutcome{content: strings.Join(lines, "\n"), applied: 1}, nil
}

// upsertTask appends newTaskLine if no existing line normalises to
// taskText; if exactly one does, the call is an idempotent no-op.
func upsertTask(current, taskText, newTaskLine string) (editOutcome, *ambiguityError) {
	wanted := normalizeTaskText(taskText)
	lines := splitLines(current)

	count := 0
	for _, l := range lines {
		if isTaskLine(l) && normalizeTaskText(l) == wanted {
			count++
		}
	}

	if count > 1 {
		return editOutcome{content: current}, &ambiguityError{Candidates: taskCandidates(current)}
	}
	if count == 1 {
		return editOutcome{content: current, skipped: 1}, nil
	}

	newContent := current
	if newContent != "" && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	newContent += newTaskLine
	return editOutcome{content: newContent, applied: 1}, nil
}

// appendToSection appends contentToAppend to the body of the unique section
// whose header matches header (case-insensitive, full trim), unless the
// content is already present verbatim in the section body.
func appendToSection(current, header, contentToAppend string) (editOutcome, *ambiguityError) {
	wanted := strings.ToLower(strings.TrimSpace(header))
	lines := splitLines(current)

	var headerIdx []int
	for i, l := range lines {
		if isHeaderLine(l) && strings.ToLower(strings.TrimSpace(l)) == wanted {
			headerIdx = append(headerIdx, i)
		}
	}

	if len(headerIdx) != 1 {
		return editOutcome{content: current}, &ambiguityError{Candidates: headerCandidates(current)}
	}

	startIdx := headerIdx[0]
	endIdx := len(lines)
	for j := startIdx + 1; j < len(lines); j++ {
		if isHeaderLine(lines[j]) {
			endIdx = j
			break
		}
	}

	sectionBody := strings.Join(lines[startIdx+1:endIdx], "\n")
	if strings.Contains(sectionBody, contentToAppend) {
		return editOutcome{content: current, skipped: 1}, nil
	}

	newLines := make([]string, len(lines))
	copy(newLines, lines)

	insertAt := endIdx
	if insertAt > 0 && newLines[insertAt-1] != "" {
		newLines = insertLine(newLines, insertAt, "")
		insertAt++
	}
	newLines = insertLine(newLines, insertAt, contentToAppend)

	return editOutcome{content: strings.Join(newLines, "\n"), applied: 1}, nil
}

func insertLine(lines []string, at int, line string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, line)
	out = append(out, lines[at:]...)
	return out
}
