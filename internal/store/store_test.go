package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeHasher stands in for bcrypt so tests stay fast. It counts calls so
// seeding tests can tell whether the master account was created again.
type fakeHasher struct {
	calls atomic.Int32
}

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	h.calls.Add(1)
	return "hashed:" + plaintext, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := New(Options{Path: path, Hasher: &fakeHasher{}, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return openStore(t, filepath.Join(t.TempDir(), "data", "db.json"))
}

func addParticipant(t *testing.T, s *Store, name string) *model.Participant {
	t.Helper()
	p, _, err := s.CreateParticipant(context.Background(), repository.NewParticipant{Name: name})
	require.NoError(t, err)
	return p
}

func readDoc(t *testing.T, path string) *model.Document {
	t.Helper()
	doc, err := ReadFile(path)
	require.NoError(t, err)
	return doc
}

func countMasters(doc *model.Document) int {
	n := 0
	for _, u := range doc.Users {
		if u.IsMaster {
			n++
		}
	}
	return n
}

// =========================================================================
// LOAD AND BOOTSTRAP
// =========================================================================

func TestNew_MissingFileIsSeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "db.json")
	s := openStore(t, path)

	doc := readDoc(t, path)
	assert.Len(t, doc.Emojis, len(model.DefaultEmojis))
	assert.Equal(t, 1, countMasters(doc))
	require.NotNil(t, doc.Config)
	assert.Equal(t, model.DefaultTitle, doc.Config.Title)

	master, err := s.GetUserByEmail(context.Background(), "admin@queridometro.com")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", master.Name)
	assert.Equal(t, "hashed:admin123", master.PasswordHash)

	emojis, err := s.ListEmojis(context.Background())
	require.NoError(t, err)
	for i, e := range emojis {
		assert.Equal(t, i+1, e.ID)
	}
}

func TestNew_SeedingIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	first, err := New(Options{Path: path, Hasher: &fakeHasher{}, Logger: discardLogger()})
	require.NoError(t, err)
	require.NoError(t, first.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	h := &fakeHasher{}
	second, err := New(Options{Path: path, Hasher: h, Logger: discardLogger()})
	require.NoError(t, err)
	require.NoError(t, second.Close())
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, int32(0), h.calls.Load(), "master must not be seeded twice")
	assert.Equal(t, string(before), string(after))
}

func TestNew_CorruptFileIsBackedUpAndReseeded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := openStore(t, path)

	doc := s.Snapshot()
	assert.NotEmpty(t, doc.Emojis)
	assert.Equal(t, 1, countMasters(doc))

	backups, err := filepath.Glob(filepath.Join(dir, "db.json.corrupt-*"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestNew_KeepsExistingCatalogAndMaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	existing := `{
		"users": [{"id": 7, "email": "boss@x.com", "password_hash": "h", "name": "Boss", "photo": null,
		           "is_master": 1, "created_at": "2024-01-01T10:00:00.000Z", "participant_id": null}],
		"emojis": [{"id": 3, "emoji": "😊", "label": "Feliz"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	h := &fakeHasher{}
	s, err := New(Options{Path: path, Hasher: h, Logger: discardLogger()})
	require.NoError(t, err)
	defer s.Close()

	doc := s.Snapshot()
	assert.Equal(t, int32(0), h.calls.Load())
	assert.Len(t, doc.Users, 1)
	assert.Len(t, doc.Emojis, 1)
	assert.Equal(t, []model.Vote{}, doc.Votes)
	require.NotNil(t, doc.Config, "missing config is seeded")
}

func TestNew_OddFieldValuesKeepData(t *testing.T) {
	tests := []struct {
		name        string
		user        string
		participant string
	}{
		{
			name:        "empty created_at",
			user:        `{"id": 1, "email": "boss@x.com", "password_hash": "h", "name": "Boss", "is_master": 1, "created_at": "2024-01-01T10:00:00.000Z"}`,
			participant: `{"id": 1, "name": "Ana", "photo": null, "created_at": ""}`,
		},
		{
			name:        "is_master outside 0 and 1",
			user:        `{"id": 1, "email": "boss@x.com", "password_hash": "h", "name": "Boss", "is_master": 2, "created_at": "2024-01-01T10:00:00.000Z"}`,
			participant: `{"id": 1, "name": "Ana", "photo": null, "created_at": "2024-01-01T10:00:00.000Z"}`,
		},
		{
			name:        "null created_at and boolean is_master",
			user:        `{"id": 1, "email": "boss@x.com", "password_hash": "h", "name": "Boss", "is_master": true, "created_at": null}`,
			participant: `{"id": 1, "name": "Ana", "photo": null, "created_at": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "db.json")
			doc := `{"users": [` + tt.user + `], "participants": [` + tt.participant + `],
				"votes": [], "emojis": [{"id": 1, "emoji": "😊", "label": "Feliz"}]}`
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

			s := openStore(t, path)
			addParticipant(t, s, "Bruno")

			list, err := s.ListParticipants(context.Background())
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Ana", list[0].Name)
			assert.Equal(t, 1, countMasters(readDoc(t, path)))

			backups, err := filepath.Glob(filepath.Join(dir, "db.json.corrupt-*"))
			require.NoError(t, err)
			assert.Empty(t, backups)
		})
	}
}

func TestNew_UndecodableDocumentIsLeftInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	// valid JSON, wrong shape
	doc := `{"users": [], "participants": {"id": 1, "name": "Ana"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := New(Options{Path: path, Hasher: &fakeHasher{}, Logger: discardLogger()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorrupt)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))
	backups, err := filepath.Glob(filepath.Join(dir, "db.json.corrupt-*"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestSave_KeepsTimestampText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	doc := `{
		"users": [{"id": 1, "email": "boss@x.com", "password_hash": "h", "name": "Boss", "photo": null,
		           "is_master": 1, "created_at": "2024-01-01T00:00:00.000Z", "participant_id": null}],
		"participants": [{"id": 1, "name": "Ana", "photo": null, "created_at": ""},
		                 {"id": 2, "name": "Bia", "photo": null, "created_at": "2024-01-02T09:15:00.500-03:00"}],
		"votes": [],
		"emojis": [{"id": 1, "emoji": "😊", "label": "Feliz"}],
		"config": {"title": "BBB", "logo": null}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := openStore(t, path)
	// forces a full rewrite
	addParticipant(t, s, "Carla")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"created_at": "2024-01-01T00:00:00.000Z"`)
	assert.Contains(t, out, `"created_at": ""`)
	assert.Contains(t, out, `"created_at": "2024-01-02T09:15:00.500-03:00"`)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[]]"), 0o644))
	_, err = ReadFile(bad)
	assert.ErrorIs(t, err, ErrCorrupt)

	shape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(shape, []byte(`{"votes": "none"}`), 0o644))
	_, err = ReadFile(shape)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorrupt)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, filepath.Join(dir, "db.json"))
	addParticipant(t, s, "Ana")

	tmps, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps)
}

func TestSave_WritesIndentedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	openStore(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"users", "participants", "votes", "emojis", "config"} {
		assert.Contains(t, raw, key)
	}
	assert.Contains(t, string(data), "\n  \"users\": [")
	assert.Contains(t, string(data), `"is_master": 1`)
}

// =========================================================================
// WRITE QUEUE
// =========================================================================

func TestWrite_ReloadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := openStore(t, path)

	// An edit made behind the store's back is picked up by the next write.
	doc := readDoc(t, path)
	doc.Participants = append(doc.Participants, model.Participant{ID: 41, Name: "Edited"})
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := addParticipant(t, s, "Bia")
	assert.Equal(t, 42, p.ID)

	list, err := s.ListParticipants(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWrite_FailedUnitChangesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := openStore(t, path)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = write(context.Background(), s, "boom", func(doc *model.Document) (int, error) {
		doc.Participants = append(doc.Participants, model.Participant{ID: 1, Name: "ghost"})
		panic("boom")
	})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Empty(t, s.Snapshot().Participants)

	// the queue keeps going
	addParticipant(t, s, "Ana")
}

func TestWrite_AfterCloseFails(t *testing.T) {
	s, err := New(Options{Path: filepath.Join(t.TempDir(), "db.json"), Hasher: &fakeHasher{}, Logger: discardLogger()})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")

	_, _, err = s.CreateParticipant(context.Background(), repository.NewParticipant{Name: "Ana"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWrite_CancelledContextIsNotQueued(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.CreateParticipant(ctx, repository.NewParticipant{Name: "Ana"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Snapshot().Participants)
}

func TestWrite_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	s := newTestStore(t)

	const n = 25
	var wg sync.WaitGroup
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := s.CreateParticipant(context.Background(), repository.NewParticipant{Name: "P"})
			if err == nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, id := range ids {
		require.NotZero(t, id)
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, readDoc(t, s.Path()).Participants, n)
}
