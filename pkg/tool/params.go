package tool

import "fmt"

// Target is one logical file target of a tool call. Content is only
// meaningful when HasContent is true; a read never carries content.
type Target struct {
	Path       string
	Content    string
	HasContent bool
}

// NormalizeTargets resolves the single-target / batch shape split once, at
// the tool boundary. Callers either pass `path` (plus optional `content`) or
// a non-empty `files` array of objects with the same fields; everything
// downstream only ever sees a list of targets, length 1 for single mode.
func NormalizeTargets(params map[string]interface{}) ([]Target, error) {
	_, hasPath := params["path"].(string)
	rawFiles, hasFiles := params["files"]

	if hasPath && hasFiles {
		return nil, fmt.Errorf("parameters must carry either path or files, not both")
	}

	if hasPath {
		target, err := targetFromMap(params)
		if err != nil {
			return nil, err
		}
		return []Target{target}, nil
	}

	if !hasFiles {
		return nil, fmt.Errorf("parameters must carry either path or files")
	}

	entries, ok := rawFiles.([]interface{})
	if !ok {
		return nil, fmt.Errorf("files must be an array")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("files array cannot be empty")
	}

	targets := make([]Target, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("files[%d] must be an object", i)
		}
		target, err := targetFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func targetFromMap(m map[string]interface{}) (Target, error) {
	path, _ := m["path"].(string)
	if path == "" {
		return Target{}, fmt.Errorf("path is required")
	}
	target := Target{Path: path}
	if content, ok := m["content"].(string); ok {
		target.Content = content
		target.HasContent = true
	}
	return target, nil
}
