package store

import (
	"context"
	"slices"
	"strings"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

func emojiID(e model.Emoji) int { return e.ID }

func indexEmoji(doc *model.Document, id int) int {
	for i := range doc.Emojis {
		if doc.Emojis[i].ID == id {
			return i
		}
	}
	return -1
}

// ListEmojis returns the catalog ordered by id.
func (s *Store) ListEmojis(ctx context.Context) ([]model.Emoji, error) {
	out := slices.Clone(s.doc().Emojis)
	slices.SortFunc(out, func(a, b model.Emoji) int { return a.ID - b.ID })
	return out, nil
}

func (s *Store) GetEmoji(ctx context.Context, id int) (*model.Emoji, error) {
	doc := s.doc()
	if i := indexEmoji(doc, id); i >= 0 {
		e := doc.Emojis[i]
		return &e, nil
	}
	return nil, apperror.NotFound("emoji", id)
}

// AddEmoji appends to the catalog. An empty label defaults to the glyph.
// The same glyph may be added more than once.
func (s *Store) AddEmoji(ctx context.Context, ne repository.NewEmoji) (*model.Emoji, error) {
	return write(ctx, s, "add_emoji", func(doc *model.Document) (*model.Emoji, error) {
		glyph := strings.TrimSpace(ne.Emoji)
		if glyph == "" {
			return nil, apperror.ValidationFailed("emoji", "emoji is required")
		}
		label := strings.TrimSpace(ne.Label)
		if label == "" {
			label = glyph
		}
		e := model.Emoji{ID: nextID(doc.Emojis, emojiID), Emoji: glyph, Label: label}
		doc.Emojis = append(doc.Emojis, e)
		return &e, nil
	})
}

func (s *Store) UpdateEmoji(ctx context.Context, id int, upd repository.EmojiUpdate) (*model.Emoji, error) {
	return write(ctx, s, "update_emoji", func(doc *model.Document) (*model.Emoji, error) {
		i := indexEmoji(doc, id)
		if i < 0 {
			return nil, apperror.NotFound("emoji", id)
		}
		e := &doc.Emojis[i]
		if upd.Emoji != nil {
			glyph := strings.TrimSpace(*upd.Emoji)
			if glyph == "" {
				return nil, apperror.ValidationFailed("emoji", "emoji is required")
			}
			e.Emoji = glyph
		}
		if upd.Label != nil {
			e.Label = strings.TrimSpace(*upd.Label)
		}
		out := *e
		return &out, nil
	})
}

// DeleteEmoji removes the catalog entry. Votes that used the glyph are kept.
func (s *Store) DeleteEmoji(ctx context.Context, id int) error {
	_, err := write(ctx, s, "delete_emoji", func(doc *model.Document) (struct{}, error) {
		i := indexEmoji(doc, id)
		if i < 0 {
			return struct{}{}, apperror.NotFound("emoji", id)
		}
		doc.Emojis = slices.Delete(doc.Emojis, i, i+1)
		return struct{}{}, nil
	})
	return err
}
