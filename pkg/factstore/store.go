// Package factstore manages the persistent, id-indexed list of short facts
// the agent saves about its user. The on-disk form is a UTF-8 text file
// starting with a literal "# Memories" header, a blank line, then one
// "- [ID: <n>] <fact>" line per record. Record order is insertion order;
// deletion is the only thing that reorders, and id gaps are not reused unless
// the deleted id was the maximum.
package factstore

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"toolflow/pkg/tool"
)

// Header is the literal first line of the store file.
const Header = "# Memories"

var recordPattern = regexp.MustCompile(`^- \[ID: (\d+)\] (.*)$`)

// Record is one stored fact.
type Record struct {
	ID   int    `json:"id"`
	Fact string `json:"fact"`
}

// FileService is the filesystem surface the store persists through.
type FileService interface {
	ReadText(path string) (string, error)
	WriteText(path, content string) error
}

// Store reads and mutates the fact file. It caches the parsed records and
// re-reads from disk after MarkDirty (driven by the file watcher when the
// file is edited externally).
type Store struct {
	path  string
	fs    FileService
	mu    sync.Mutex
	cache []Record
	fresh bool
}

// NewStore creates a store over the file at path. The file need not exist
// yet; it is created on first save.
func NewStore(path string, fs FileService) *Store {
	return &Store{path: path, fs: fs}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// MarkDirty discards the cached parse so the next operation re-reads disk.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fresh = false
}

// NormalizeFact collapses newlines to spaces and trims surrounding
// whitespace so every fact is a single line.
func NormalizeFact(fact string) string {
	fact = strings.ReplaceAll(fact, "\r\n", " ")
	fact = strings.ReplaceAll(fact, "\n", " ")
	return strings.TrimSpace(fact)
}

// ParseRecords extracts records from store-file content. Lines that do not
// match the record form are ignored, which keeps the parser forward
// compatible with foreign annotations (at the cost of dropping them on the
// next persist).
func ParseRecords(content string) []Record {
	var records []Record
	for _, line := range strings.Split(content, "\n") {
		m := recordPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var id int
		fmt.Sscanf(m[1], "%d", &id)
		if id <= 0 {
			continue
		}
		records = append(records, Record{ID: id, Fact: m[2]})
	}
	return records
}

// FormatRecords renders records into the canonical store-file form.
func FormatRecords(records []Record) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteString("\n\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "- [ID: %d] %s\n", r.ID, r.Fact)
	}
	return sb.String()
}

// NextID assigns ids monotonically: max(existing)+1, or 1 for an empty
// store. Deleting the maximum id makes its successor value assignable again;
// interior gaps are never reused.
func NextID(records []Record) int {
	maxID := 0
	for _, r := range records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

func (s *Store) load() ([]Record, error) {
	if s.fresh {
		return s.cache, nil
	}

	content, err := s.fs.ReadText(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache = nil
			s.fresh = true
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read fact store: %w", err)
	}

	s.cache = ParseRecords(content)
	s.fresh = true
	return s.cache, nil
}

func (s *Store) persist(records []Record) error {
	if err := s.fs.WriteText(s.path, FormatRecords(records)); err != nil {
		return fmt.Errorf("failed to persist fact store: %w", err)
	}
	s.cache = records
	s.fresh = true
	return nil
}

// Save appends a new record and returns it with its assigned id.
func (s *Store) Save(fact string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fact = NormalizeFact(fact)
	if fact == "" {
		return Record{}, fmt.Errorf("fact cannot be empty")
	}

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}

	record := Record{ID: NextID(records), Fact: fact}
	if err := s.persist(append(records, record)); err != nil {
		return Record{}, err
	}

	log.Info().Int("id", record.ID).Msg("Fact saved")
	return record, nil
}

// Update mutates an existing record's fact in place, preserving its
// position. A missing id is a not-found error.
func (s *Store) Update(id int, fact string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fact = NormalizeFact(fact)
	if fact == "" {
		return Record{}, fmt.Errorf("fact cannot be empty")
	}

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}

	for i, r := range records {
		if r.ID == id {
			updated := make([]Record, len(records))
			copy(updated, records)
			updated[i].Fact = fact
			if err := s.persist(updated); err != nil {
				return Record{}, err
			}
			log.Info().Int("id", id).Msg("Fact updated")
			return updated[i], nil
		}
	}

	return Record{}, fmt.Errorf("%w: fact %d", tool.ErrNotFound, id)
}

// Delete removes the record with the given id. Deleting an absent id is a
// silent no-op; the return value reports whether anything was removed.
func (s *Store) Delete(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}

	kept := records[:0:0]
	removed := false
	for _, r := range records {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}

	if !removed {
		return false, nil
	}

	if err := s.persist(kept); err != nil {
		return false, err
	}

	log.Info().Int("id", id).Msg("Fact deleted")
	return true, nil
}

// Fetch returns the record with the given id. It never mutates.
func (s *Store) Fetch(id int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}

	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: fact %d", tool.ErrNotFound, id)
}

// All returns every record in insertion order.
func (s *Store) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// WriteVerbatim persists user-edited content exactly as given, bypassing the
// record-level mutation path. Used when a confirmation was overridden by
// direct edits to the proposed file content.
func (s *Store) WriteVerbatim(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.WriteText(s.path, content); err != nil {
		return fmt.Errorf("failed to persist fact store: %w", err)
	}
	s.cache = ParseRecords(content)
	s.fresh = true

	log.Info().Str("path", s.path).Msg("Fact store replaced with user-edited content")
	return nil
}
