// Package fsys provides the text-oriented filesystem service the tool
// implementations read and write through. It normalizes a UTF-8 byte-order
// mark away on read, never introduces one on write, and knows how to detect
// and preserve a file's dominant line-ending style.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const utf8BOM = "\xef\xbb\xbf"

// LineEnding identifies a line-ending style.
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

// DefaultLineEnding is used for files that do not exist yet or carry no
// newline at all.
const DefaultLineEnding = LF

// Service performs text reads and writes for the tool layer.
type Service struct{}

// NewService creates a new filesystem service.
func NewService() *Service {
	return &Service{}
}

// ReadText reads the file at path as UTF-8 text, stripping a leading
// byte-order mark if present.
func (s *Service) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

// WriteText writes content to path, creating parent directories as needed.
// The content is written as-is; no byte-order mark is added.
func (s *Service) WriteText(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileExists reports whether a regular file or directory exists at path.
func (s *Service) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// DetectLineEnding returns the dominant line ending of content. Content with
// no newlines, or with an equal split, reports the default.
func DetectLineEnding(content string) LineEnding {
	crlf := strings.Count(content, "\r\n")
	lf := strings.Count(content, "\n") - crlf
	if crlf > lf {
		return CRLF
	}
	return DefaultLineEnding
}

// NormalizeLineEndings rewrites every line ending in content to the given
// style. Mixed input is normalized to a single style.
func NormalizeLineEndings(content string, ending LineEnding) string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if ending == CRLF {
		normalized = strings.ReplaceAll(normalized, "\n", "\r\n")
	}
	return normalized
}

// CountLines returns the number of lines in content. A trailing newline does
// not start an extra empty line.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
