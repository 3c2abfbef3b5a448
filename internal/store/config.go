package store

import (
	"context"
	"strings"

	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// GetConfig returns the branding config. Bootstrap guarantees it exists; the
// default is returned if the cached document somehow lacks one.
func (s *Store) GetConfig(ctx context.Context) (*model.Config, error) {
	c := s.doc().Config
	if c == nil {
		return model.DefaultConfig(), nil
	}
	return copyConfig(c), nil
}

// UpdateConfig sets the title and logo. A blank title resets it to
// model.DefaultTitle.
func (s *Store) UpdateConfig(ctx context.Context, upd repository.ConfigUpdate) (*model.Config, error) {
	return write(ctx, s, "update_config", func(doc *model.Document) (*model.Config, error) {
		if doc.Config == nil {
			doc.Config = model.DefaultConfig()
		}
		if upd.Title != nil {
			title := strings.TrimSpace(*upd.Title)
			if title == "" {
				title = model.DefaultTitle
			}
			doc.Config.Title = title
		}
		if upd.Logo.Set {
			doc.Config.Logo = upd.Logo.Value
		}
		return copyConfig(doc.Config), nil
	})
}

func copyConfig(c *model.Config) *model.Config {
	out := *c
	if c.Logo != nil {
		l := *c.Logo
		out.Logo = &l
	}
	return &out
}
