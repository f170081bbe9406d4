package logger

import (
	"io"
	"regexp"
)

// Redactor masks provider credentials before they reach a log sink.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor covers the secret shapes this process handles: Anthropic and
// OpenAI API keys, bearer tokens, and generic key=value secrets.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
			regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
			regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),
			regexp.MustCompile(`(?i)(api[_-]?key|token|secret)["\s:=]+[a-zA-Z0-9._-]{16,}`),
		},
	}
}

// Redact replaces every secret match with a placeholder.
func (r *Redactor) Redact(s string) string {
	result := s
	for _, pattern := range r.patterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// Wrap returns a writer that redacts everything written through it.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	redacted := w.redactor.Redact(string(p))
	if _, err := w.writer.Write([]byte(redacted)); err != nil {
		return 0, err
	}
	// Report the original length so zerolog does not treat redaction as a
	// short write.
	return len(p), nil
}
