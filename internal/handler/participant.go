package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/service"
)

// ParticipantHandler exposes the people being voted on.
//
// Listing and reading need a session; creating, editing and deleting are
// for the administrator (enforced by the router).
type ParticipantHandler struct {
	participants *service.ParticipantService
	logger       *slog.Logger
}

func NewParticipantHandler(participants *service.ParticipantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, logger: logger}
}

// participantView is the public shape of a participant.
type participantView struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Photo *string `json:"photo"`
}

func viewParticipant(p *model.Participant) participantView {
	return participantView{ID: p.ID, Name: p.Name, Photo: p.Photo}
}

// HandleList → GET /api/participants
func (h *ParticipantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.participants.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]participantView, len(list))
	for i := range list {
		out[i] = viewParticipant(&list[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": out})
}

// HandleGet → GET /api/participants/{id}
func (h *ParticipantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.participants.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participant": viewParticipant(p)})
}

type createParticipantRequest struct {
	Name  string  `json:"name"`
	Photo *string `json:"photo"`
}

// HandleCreate adds a participant and their login account.
//
// HTTP: POST /api/participants
// RESPONSE:
//
//	{"participant": {...}, "login": "Maria", "senha": "3fa9c0d1"}
//
// "senha" is the temporary password. It is not stored anywhere in clear and
// this is the only time it is shown.
func (h *ParticipantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	created, err := h.participants.Create(r.Context(), req.Name, req.Photo)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participant": viewParticipant(created.Participant),
		"login":       created.Login,
		"senha":       created.TemporaryPassword,
	})
}

type updateParticipantRequest struct {
	Name  *string              `json:"name"`
	Photo model.OptionalString `json:"photo"`
}

// HandleUpdate → PUT /api/participants/{id}
func (h *ParticipantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.participants.Update(r.Context(), id, req.Name, req.Photo)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participant": viewParticipant(p)})
}

// HandleDelete removes the participant together with their votes and account.
//
// HTTP: DELETE /api/participants/{id}
func (h *ParticipantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.participants.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}
