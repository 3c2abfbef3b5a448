// Package export copies the JSON document into a SQLite database file for
// ad-hoc SQL analysis ("which participant got the most 🐍 in March?").
//
// The export is one-way and offline: the server never reads the SQLite
// file, and password hashes are left out.
//
// The driver is modernc.org/sqlite (pure Go, registered as "sqlite").
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/queridometro/internal/model"
)

// ErrExists is returned when the output file is already there. Exports
// always start from an empty database.
var ErrExists = errors.New("export: output file already exists")

// Counts reports how many rows were written per table.
type Counts struct {
	Users        int
	Participants int
	Votes        int
	Emojis       int
}

const schema = `
	CREATE TABLE users (
		id             INTEGER PRIMARY KEY,
		email          TEXT NOT NULL,
		name           TEXT NOT NULL,
		photo          TEXT,
		is_master      INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		participant_id INTEGER
	);
	CREATE TABLE participants (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		photo      TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE votes (
		id             INTEGER PRIMARY KEY,
		user_id        INTEGER NOT NULL,
		participant_id INTEGER NOT NULL,
		emoji          TEXT NOT NULL,
		vote_date      TEXT NOT NULL,
		created_at     TEXT NOT NULL
	);
	CREATE INDEX idx_votes_date ON votes(vote_date);
	CREATE INDEX idx_votes_participant ON votes(participant_id, vote_date);
	CREATE TABLE emojis (
		id    INTEGER PRIMARY KEY,
		emoji TEXT NOT NULL,
		label TEXT NOT NULL
	);
	CREATE TABLE config (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		title TEXT NOT NULL,
		logo  TEXT
	);
`

// ToSQLite writes doc into a new SQLite database at path.
//
// Every row goes in through a single transaction: either the whole document
// lands in the file or, on error, the tables stay empty. votes.user_id has
// no foreign key because votes cast by a deleted participant's account
// outlive that account.
func ToSQLite(ctx context.Context, doc *model.Document, path string) (Counts, error) {
	if _, err := os.Stat(path); err == nil {
		return Counts{}, fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Counts{}, fmt.Errorf("export: stat %s: %w", path, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return Counts{}, fmt.Errorf("export: opening database: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return Counts{}, fmt.Errorf("export: pinging database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return Counts{}, fmt.Errorf("export: creating schema: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("export: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	var c Counts
	for _, u := range doc.Users {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, name, photo, is_master, created_at, participant_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.Name, nullString(u.Photo), boolInt(bool(u.IsMaster)),
			formatTime(u.CreatedAt), nullInt(u.ParticipantID),
		)
		if err != nil {
			return Counts{}, fmt.Errorf("export: user %d: %w", u.ID, err)
		}
		c.Users++
	}

	for _, p := range doc.Participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO participants (id, name, photo, created_at) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, nullString(p.Photo), formatTime(p.CreatedAt),
		)
		if err != nil {
			return Counts{}, fmt.Errorf("export: participant %d: %w", p.ID, err)
		}
		c.Participants++
	}

	// votes are the bulk of the document; prepare once
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO votes (id, user_id, participant_id, emoji, vote_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Counts{}, fmt.Errorf("export: preparing votes insert: %w", err)
	}
	defer stmt.Close()
	for _, v := range doc.Votes {
		if _, err := stmt.ExecContext(ctx,
			v.ID, v.UserID, v.ParticipantID, v.Emoji, v.VoteDate, formatTime(v.CreatedAt),
		); err != nil {
			return Counts{}, fmt.Errorf("export: vote %d: %w", v.ID, err)
		}
		c.Votes++
	}

	for _, e := range doc.Emojis {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO emojis (id, emoji, label) VALUES (?, ?, ?)`,
			e.ID, e.Emoji, e.Label,
		); err != nil {
			return Counts{}, fmt.Errorf("export: emoji %d: %w", e.ID, err)
		}
		c.Emojis++
	}

	cfg := doc.Config
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO config (id, title, logo) VALUES (1, ?, ?)`,
		cfg.Title, nullString(cfg.Logo),
	); err != nil {
		return Counts{}, fmt.Errorf("export: config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("export: commit: %w", err)
	}
	return c, nil
}

// formatTime writes "" for a record without a creation time.
func formatTime(t model.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(model.TimestampLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
