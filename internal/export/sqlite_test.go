package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/queridometro/internal/model"
)

func sampleDocument() *model.Document {
	created := model.NewTimestamp(time.Date(2024, 1, 1, 12, 30, 0, 123_000_000, time.UTC))
	photo := "data:image/png;base64,AA=="
	pid := 1
	return &model.Document{
		Users: []model.User{
			{ID: 1, Email: "admin@queridometro.com", PasswordHash: "$2a$10$secret", Name: "Administrador", IsMaster: true, CreatedAt: created},
			{ID: 2, Email: "p1@interno.queridometro", PasswordHash: "$2a$10$other", Name: "Ana", Photo: &photo, CreatedAt: created, ParticipantID: &pid},
		},
		Participants: []model.Participant{
			{ID: 1, Name: "Ana", Photo: &photo, CreatedAt: created},
		},
		Votes: []model.Vote{
			{ID: 1, UserID: 1, ParticipantID: 1, Emoji: "🐍", VoteDate: "2024-01-01", CreatedAt: created},
			{ID: 2, UserID: 2, ParticipantID: 1, Emoji: "😊", VoteDate: "2024-01-01", CreatedAt: created},
			// cast by an account that no longer exists
			{ID: 3, UserID: 9, ParticipantID: 1, Emoji: "💣", VoteDate: "2024-01-02", CreatedAt: created},
		},
		Emojis: []model.Emoji{{ID: 1, Emoji: "😊", Label: "Feliz"}, {ID: 2, Emoji: "🐍", Label: "Cobra"}},
		Config: &model.Config{Title: "BBB"},
	}
}

func openExport(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")

	counts, err := ToSQLite(context.Background(), sampleDocument(), path)
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 2, Participants: 1, Votes: 3, Emojis: 2}, counts)

	db := openExport(t, path)

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('users') WHERE name LIKE '%password%'`).Scan(&n))
	assert.Zero(t, n, "password hashes must not be exported")

	var (
		isMaster      int
		participantID sql.NullInt64
		createdAt     string
	)
	require.NoError(t, db.QueryRow(
		`SELECT is_master, participant_id, created_at FROM users WHERE id = 1`).
		Scan(&isMaster, &participantID, &createdAt))
	assert.Equal(t, 1, isMaster)
	assert.False(t, participantID.Valid)
	assert.Equal(t, "2024-01-01T12:30:00.123Z", createdAt)

	require.NoError(t, db.QueryRow(
		`SELECT participant_id FROM users WHERE id = 2`).Scan(&participantID))
	assert.Equal(t, int64(1), participantID.Int64)

	rows, err := db.Query(`SELECT emoji, COUNT(*) FROM votes WHERE vote_date = '2024-01-01' GROUP BY emoji ORDER BY emoji`)
	require.NoError(t, err)
	defer rows.Close()
	got := map[string]int{}
	for rows.Next() {
		var emoji string
		var count int
		require.NoError(t, rows.Scan(&emoji, &count))
		got[emoji] = count
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, map[string]int{"🐍": 1, "😊": 1}, got)

	var title string
	var logo sql.NullString
	require.NoError(t, db.QueryRow(`SELECT title, logo FROM config`).Scan(&title, &logo))
	assert.Equal(t, "BBB", title)
	assert.False(t, logo.Valid)
}

func TestToSQLite_MissingConfigUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	doc := sampleDocument()
	doc.Config = nil

	_, err := ToSQLite(context.Background(), doc, path)
	require.NoError(t, err)

	var title string
	require.NoError(t, openExport(t, path).QueryRow(`SELECT title FROM config`).Scan(&title))
	assert.Equal(t, model.DefaultTitle, title)
}

func TestToSQLite_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	_, err := ToSQLite(context.Background(), sampleDocument(), path)
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestToSQLite_DuplicateIDRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	doc := sampleDocument()
	doc.Votes = append(doc.Votes, doc.Votes[0])

	_, err := ToSQLite(context.Background(), doc, path)
	require.Error(t, err)

	var n int
	require.NoError(t, openExport(t, path).QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n, "a failed export leaves the tables empty")
}
