// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → the JSON store behind repository interfaces
//
// Services take repository interfaces, never *store.Store, so tests can run
// them against a real store in a temp dir or against a fake.
//
// ERRORS:
// Services return apperror values carrying the message shown to the user
// (in Portuguese, like the rest of the UI). Handlers only translate the
// sentinel into a status code. Anything that is not an apperror is an
// internal failure and is wrapped with the operation that failed.
package service

import (
	"fmt"
	"strings"

	"github.com/sakif/queridometro/internal/apperror"
)

// Validation limits.
const (
	MaxNameLength  = 100
	MaxTitleLength = 100
	MaxLabelLength = 50
	MaxEmojiLength = 32
	// Photos and logos are data URIs inlined in the document, and the whole
	// document is rewritten on every save.
	MaxImageBytes = 2 << 20
)

// cleanName trims name and checks it is present and not too long.
func cleanName(field, name, requiredMsg string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed(field, requiredMsg)
	}
	if len([]rune(name)) > MaxNameLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("Nome deve ter no máximo %d caracteres", MaxNameLength))
	}
	return name, nil
}

// checkImage validates an optional data URI.
func checkImage(field string, img *string) error {
	if img == nil {
		return nil
	}
	if !strings.HasPrefix(*img, "data:image/") {
		return apperror.ValidationFailed(field, "Imagem deve ser uma data URL (data:image/...)")
	}
	if len(*img) > MaxImageBytes {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("Imagem deve ter no máximo %d MB", MaxImageBytes>>20))
	}
	return nil
}
