package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/queridometro/internal/model"
)

// ErrCorrupt is returned by ReadFile when the file is not valid JSON. Valid
// JSON that does not fit the document shape is reported as a plain error.
var ErrCorrupt = errors.New("store: corrupt document")

const (
	masterEmail    = "admin@queridometro.com"
	masterPassword = "admin123"
	masterName     = "Administrador"
)

// ReadFile parses the document at path without seeding or repairing it.
// A missing file is reported as fs.ErrNotExist.
func ReadFile(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrCorrupt, path)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	normalize(&doc)
	return &doc, nil
}

// load reads the document from disk, recovering from a missing or unparsable
// file, and seeds whatever bootstrap data is absent. Seeded changes are
// persisted before load returns. A parsable document with a field it cannot
// decode is left in place and the error returned.
func (s *Store) load() (*model.Document, error) {
	doc, err := ReadFile(s.path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		doc = emptyDocument()
	case errors.Is(err, ErrCorrupt):
		backup := fmt.Sprintf("%s.corrupt-%s", s.path, xid.New().String())
		if rerr := os.Rename(s.path, backup); rerr != nil {
			return nil, fmt.Errorf("store: move corrupt document aside: %w", rerr)
		}
		s.logger.Warn("corrupt document replaced with an empty one",
			slog.String("path", s.path),
			slog.String("backup", backup),
			slog.String("error", err.Error()),
		)
		doc = emptyDocument()
	default:
		return nil, err
	}

	seeded, err := s.seed(doc)
	if err != nil {
		return nil, err
	}
	if seeded {
		if err := s.save(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// seed fills in the default emoji catalog, the master account and the config
// when they are missing. It reports whether anything changed.
func (s *Store) seed(doc *model.Document) (bool, error) {
	changed := false

	if len(doc.Emojis) == 0 {
		for i, e := range model.DefaultEmojis {
			e.ID = i + 1
			doc.Emojis = append(doc.Emojis, e)
		}
		s.logger.Info("seeded default emojis", slog.Int("count", len(doc.Emojis)))
		changed = true
	}

	if !hasMaster(doc) {
		hash, err := s.hasher.Hash(masterPassword)
		if err != nil {
			return false, fmt.Errorf("store: hash master password: %w", err)
		}
		if i := indexUserByEmail(doc, masterEmail); i >= 0 {
			doc.Users[i].IsMaster = true
			doc.Users[i].PasswordHash = hash
		} else {
			doc.Users = append(doc.Users, model.User{
				ID:           nextID(doc.Users, userID),
				Email:        masterEmail,
				PasswordHash: hash,
				Name:         masterName,
				IsMaster:     true,
				CreatedAt:    timestamp(),
			})
		}
		s.logger.Warn("seeded master account with the default password",
			slog.String("email", masterEmail))
		changed = true
	}

	if doc.Config == nil {
		doc.Config = model.DefaultConfig()
		changed = true
	}

	return changed, nil
}

// save rewrites the whole document: write a temp file next to the target,
// fsync it, then rename it over the target.
func (s *Store) save(doc *model.Document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, xid.New().String())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	if err := writeAndSync(f, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func emptyDocument() *model.Document {
	doc := &model.Document{}
	normalize(doc)
	return doc
}

// normalize replaces nil collections with empty ones so the file always
// carries every top-level key as an array.
func normalize(doc *model.Document) {
	if doc.Users == nil {
		doc.Users = []model.User{}
	}
	if doc.Participants == nil {
		doc.Participants = []model.Participant{}
	}
	if doc.Votes == nil {
		doc.Votes = []model.Vote{}
	}
	if doc.Emojis == nil {
		doc.Emojis = []model.Emoji{}
	}
}

func hasMaster(doc *model.Document) bool {
	for _, u := range doc.Users {
		if u.IsMaster {
			return true
		}
	}
	return false
}

// timestamp is the creation time stamped on new records.
func timestamp() model.Timestamp {
	return model.NewTimestamp(time.Now().UTC())
}
