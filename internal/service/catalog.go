package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// CatalogService manages what the administrator customises: the emoji
// choices and the branding config.
type CatalogService struct {
	emojis repository.EmojiRepository
	config repository.ConfigRepository
	logger *slog.Logger
}

func NewCatalogService(emojis repository.EmojiRepository, config repository.ConfigRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{emojis: emojis, config: config, logger: logger}
}

func (s *CatalogService) ListEmojis(ctx context.Context) ([]model.Emoji, error) {
	list, err := s.emojis.ListEmojis(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing emojis: %w", err)
	}
	return list, nil
}

// AddEmoji adds a choice. The label defaults to the glyph itself.
func (s *CatalogService) AddEmoji(ctx context.Context, glyph, label string) (*model.Emoji, error) {
	glyph, err := cleanGlyph(glyph)
	if err != nil {
		return nil, err
	}
	label, err = cleanLabel(label)
	if err != nil {
		return nil, err
	}

	e, err := s.emojis.AddEmoji(ctx, repository.NewEmoji{Emoji: glyph, Label: label})
	if err != nil {
		return nil, fmt.Errorf("adding emoji: %w", err)
	}
	s.logger.InfoContext(ctx, "emoji added", slog.Int("emojiID", e.ID), slog.String("emoji", e.Emoji))
	return e, nil
}

// UpdateEmoji changes the glyph and/or label. Past votes keep the glyph they
// were cast with.
func (s *CatalogService) UpdateEmoji(ctx context.Context, id int, glyph, label *string) (*model.Emoji, error) {
	var upd repository.EmojiUpdate
	if glyph != nil {
		g, err := cleanGlyph(*glyph)
		if err != nil {
			return nil, err
		}
		upd.Emoji = &g
	}
	if label != nil {
		l, err := cleanLabel(*label)
		if err != nil {
			return nil, err
		}
		upd.Label = &l
	}

	e, err := s.emojis.UpdateEmoji(ctx, id, upd)
	if err != nil {
		return nil, notFoundAs(err, "Emoji não encontrado")
	}
	return e, nil
}

// DeleteEmoji removes a choice. Votes already cast with it are kept.
func (s *CatalogService) DeleteEmoji(ctx context.Context, id int) error {
	if err := s.emojis.DeleteEmoji(ctx, id); err != nil {
		return notFoundAs(err, "Emoji não encontrado")
	}
	s.logger.InfoContext(ctx, "emoji deleted", slog.Int("emojiID", id))
	return nil
}

func (s *CatalogService) GetConfig(ctx context.Context) (*model.Config, error) {
	c, err := s.config.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return c, nil
}

// UpdateConfig sets the title and/or logo. A blank title restores the
// default one.
func (s *CatalogService) UpdateConfig(ctx context.Context, title *string, logo model.OptionalString) (*model.Config, error) {
	var upd repository.ConfigUpdate
	if title != nil {
		t := strings.TrimSpace(*title)
		if len([]rune(t)) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("Título deve ter no máximo %d caracteres", MaxTitleLength))
		}
		upd.Title = &t
	}
	if logo.Set {
		if err := checkImage("logo", logo.Value); err != nil {
			return nil, err
		}
		upd.Logo = logo
	}

	c, err := s.config.UpdateConfig(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("updating config: %w", err)
	}
	s.logger.InfoContext(ctx, "config updated", slog.String("title", c.Title))
	return c, nil
}

func cleanGlyph(glyph string) (string, error) {
	glyph = strings.TrimSpace(glyph)
	if glyph == "" {
		return "", apperror.ValidationFailed("emoji", "Informe o emoji (use o teclado do celular para escolher)")
	}
	if len(glyph) > MaxEmojiLength {
		return "", apperror.ValidationFailed("emoji", "Emoji muito longo")
	}
	return glyph, nil
}

func cleanLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if len([]rune(label)) > MaxLabelLength {
		return "", apperror.ValidationFailed("label",
			fmt.Sprintf("Rótulo deve ter no máximo %d caracteres", MaxLabelLength))
	}
	return label, nil
}
