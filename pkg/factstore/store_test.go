package factstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolflow/pkg/fsys"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memories.md")
	return NewStore(path, fsys.NewService()), path
}

func TestParseRecords(t *testing.T) {
	content := "# Memories\n\n- [ID: 1] first fact\n- [ID: 5] fifth fact\n"
	records := ParseRecords(content)
	require.Len(t, records, 2)
	assert.Equal(t, Record{ID: 1, Fact: "first fact"}, records[0])
	assert.Equal(t, Record{ID: 5, Fact: "fifth fact"}, records[1])
}

func TestParseRecordsIgnoresForeignLines(t *testing.T) {
	content := "# Memories\n\nsome stray note\n- [ID: 2] kept\n- not a record\n"
	records := ParseRecords(content)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ID)
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	assert.Equal(t, 6, NextID([]Record{{ID: 1}, {ID: 5}}))
	assert.Equal(t, 4, NextID([]Record{{ID: 3}, {ID: 1}}))
}

func TestFormatParseRoundTrip(t *testing.T) {
	records := []Record{
		{ID: 1, Fact: "likes terse commit messages"},
		{ID: 5, Fact: "works from UTC+2"},
	}
	content := FormatRecords(records)
	assert.Equal(t, records, ParseRecords(content))
	assert.Equal(t, content, FormatRecords(ParseRecords(content)))
}

func TestSaveIntoExistingFile(t *testing.T) {
	store, path := newTestStore(t)
	seed := "# Memories\n\n- [ID: 1] first fact\n- [ID: 5] fifth fact\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	record, err := store.Save("sixth fact")
	require.NoError(t, err)
	assert.Equal(t, 6, record.ID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seed+"- [ID: 6] sixth fact\n", string(data))
}

func TestSaveCreatesFile(t *testing.T) {
	store, path := newTestStore(t)

	record, err := store.Save("brand new")
	require.NoError(t, err)
	assert.Equal(t, 1, record.ID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Memories\n\n- [ID: 1] brand new\n", string(data))
}

func TestSaveNormalizesWhitespace(t *testing.T) {
	store, _ := newTestStore(t)

	record, err := store.Save("  spans\ntwo lines  ")
	require.NoError(t, err)
	assert.Equal(t, "spans two lines", record.Fact)

	_, err = store.Save("   \n  ")
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	first, err := store.Save("original")
	require.NoError(t, err)

	updated, err := store.Update(first.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)

	got, err := store.Fetch(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Fact)
}

func TestUpdateMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Update(42, "nope")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	a, err := store.Save("a")
	require.NoError(t, err)
	b, err := store.Save("b")
	require.NoError(t, err)

	removed, err := store.Delete(a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// Deleting an absent id is a silent no-op.
	removed, err = store.Delete(a.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	records, err := store.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, b.ID, records[0].ID)

	// b still holds the max id, so the next save does not reuse a's slot.
	c, err := store.Save("c")
	require.NoError(t, err)
	assert.Equal(t, b.ID+1, c.ID)
}

func TestFetchMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Fetch(9)
	assert.Error(t, err)
}

func TestFetchDoesNotMutate(t *testing.T) {
	store, path := newTestStore(t)
	_, err := store.Save("stable")
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = store.Fetch(1)
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWriteVerbatim(t *testing.T) {
	store, path := newTestStore(t)
	_, err := store.Save("computed")
	require.NoError(t, err)

	edited := "# Memories\n\n- [ID: 1] computed\n- [ID: 2] hand-written by the user\n"
	require.NoError(t, store.WriteVerbatim(edited))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, edited, string(data))

	got, err := store.Fetch(2)
	require.NoError(t, err)
	assert.Equal(t, "hand-written by the user", got.Fact)
}

func TestMarkDirtyRereadsDisk(t *testing.T) {
	store, path := newTestStore(t)
	_, err := store.Save("cached")
	require.NoError(t, err)

	external := "# Memories\n\n- [ID: 9] written behind the store's back\n"
	require.NoError(t, os.WriteFile(path, []byte(external), 0o644))

	// The cache still reflects the save.
	records, err := store.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ID)

	store.MarkDirty()
	records, err = store.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 9, records[0].ID)
}

func TestWatcherMarksDirty(t *testing.T) {
	store, path := newTestStore(t)
	_, err := store.Save("cached")
	require.NoError(t, err)

	watcher, err := NewWatcher(zerolog.Nop(), store)
	require.NoError(t, err)
	defer watcher.Stop()

	external := "# Memories\n\n- [ID: 7] external edit\n"
	require.NoError(t, os.WriteFile(path, []byte(external), 0o644))

	assert.Eventually(t, func() bool {
		records, err := store.All()
		if err != nil || len(records) != 1 {
			return false
		}
		return records[0].ID == 7
	}, 2*time.Second, 50*time.Millisecond)
}
