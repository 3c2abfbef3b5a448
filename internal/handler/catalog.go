package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/service"
)

// CatalogHandler serves the emoji catalog and the branding config. Reads are
// public so the voting page can render before login.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListEmojis → GET /api/emojis
func (h *CatalogHandler) HandleListEmojis(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListEmojis(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emojis": list})
}

type createEmojiRequest struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// HandleCreateEmoji → POST /api/emojis {"emoji": "🦄", "label": "Unicórnio"}
func (h *CatalogHandler) HandleCreateEmoji(w http.ResponseWriter, r *http.Request) {
	var req createEmojiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.catalog.AddEmoji(r.Context(), req.Emoji, req.Label)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emoji": e})
}

type updateEmojiRequest struct {
	Emoji *string `json:"emoji"`
	Label *string `json:"label"`
}

// HandleUpdateEmoji → PUT /api/emojis/{id}
func (h *CatalogHandler) HandleUpdateEmoji(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateEmojiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.catalog.UpdateEmoji(r.Context(), id, req.Emoji, req.Label)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emoji": e})
}

// HandleDeleteEmoji → DELETE /api/emojis/{id}
//
// Votes already cast with the emoji stay in the store; they just stop
// showing up in summaries.
func (h *CatalogHandler) HandleDeleteEmoji(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.catalog.DeleteEmoji(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

// HandleGetConfig → GET /api/config
func (h *CatalogHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetConfig(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": c})
}

type updateConfigRequest struct {
	Title *string              `json:"title"`
	Logo  model.OptionalString `json:"logo"`
}

// HandleUpdateConfig → PUT /api/config {"title"?: "...", "logo"?: "data:..." | null}
func (h *CatalogHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	c, err := h.catalog.UpdateConfig(r.Context(), req.Title, req.Logo)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": c})
}
