package reconcile

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders a unified diff (3 lines of context) between old and new
// content, labeled with the given file name on both sides.
func UnifiedDiff(oldContent, newContent, fileName string) (string, error) {
	return UnifiedDiffNamed(oldContent, newContent, fileName, fileName)
}

// UnifiedDiffNamed renders a unified diff with distinct from/to labels.
func UnifiedDiffNamed(oldContent, newContent, fromName, toName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}

	return difflib.GetUnifiedDiffString(diff)
}

// DiffSnippet returns up to maxLines hunk lines of the diff between old and
// new content, for embedding in a model-facing summary instead of echoing the
// whole file. Returns empty string when the contents are identical.
func DiffSnippet(oldContent, newContent, fileName string, maxLines int) (string, error) {
	full, err := UnifiedDiff(oldContent, newContent, fileName)
	if err != nil {
		return "", err
	}
	if full == "" {
		return "", nil
	}

	var picked []string
	for _, line := range strings.Split(full, "\n") {
		// Skip the file header; keep hunk headers and body.
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		if line == "" && len(picked) == 0 {
			continue
		}
		picked = append(picked, line)
		if len(picked) >= maxLines {
			break
		}
	}

	return strings.TrimRight(strings.Join(picked, "\n"), "\n"), nil
}
