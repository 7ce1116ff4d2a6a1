package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseTaskList extracts a task list from a model completion. The completion
// must contain a JSON array of non-empty strings; markdown code fences around
// the array are tolerated, anything else is rejected.
func ParseTaskList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	s = stripFences(s)

	var tasks []string
	if err := json.Unmarshal([]byte(s), &tasks); err != nil {
		// Models sometimes prefix the array with a short lead-in sentence.
		// Slicing to the brackets covers that, but never inside another
		// JSON value: an object wrapping the array is still rejected.
		if strings.HasPrefix(s, "{") {
			return nil, fmt.Errorf("parse task list: completion is a JSON object, not an array")
		}
		start := strings.Index(s, "[")
		end := strings.LastIndex(s, "]")
		if start == -1 || end == -1 || end < start {
			return nil, fmt.Errorf("parse task list: no JSON array in completion")
		}
		if err := json.Unmarshal([]byte(s[start:end+1]), &tasks); err != nil {
			return nil, fmt.Errorf("parse task list: %w", err)
		}
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("parse task list: empty array")
	}
	for i, t := range tasks {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("parse task list: blank task at position %d", i+1)
		}
		tasks[i] = t
	}
	return tasks, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i != -1 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
