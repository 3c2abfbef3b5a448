package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/service"
)

// VoteHandler handles voting and the daily / admin summaries.
type VoteHandler struct {
	votes  *service.VoteService
	logger *slog.Logger
}

func NewVoteHandler(votes *service.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// HandleToday returns the signed-in user's votes for today, keyed by
// participant id.
//
// HTTP: GET /api/votes
// RESPONSE: {"votes": {"3": "😊", "5": "🐍"}}
func (h *VoteHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	votes, err := h.votes.TodayVotes(r.Context(), sess.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	// JSON object keys are strings
	out := make(map[string]string, len(votes))
	for pid, emoji := range votes {
		out[strconv.Itoa(pid)] = emoji
	}
	writeJSON(w, http.StatusOK, map[string]any{"votes": out})
}

type castVoteRequest struct {
	ParticipantID flexInt `json:"participantId"`
	Emoji         string  `json:"emoji"`
}

// HandleCast records a vote for today.
//
// HTTP: POST /api/votes {"participantId": 3, "emoji": "😊"}
//
// A second vote for the same participant on the same day is answered with
// 400 and error "duplicate_vote".
func (h *VoteHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req castVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.votes.CastVote(r.Context(), sess.ID, int(req.ParticipantID), req.Emoji); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

// HandleSummary returns today's summary. It is public.
//
// HTTP: GET /api/resumo
func (h *VoteHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	day, err := h.votes.TodaySummary(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": day.Participants})
}

// HandleAdminSummary returns one summary per day in a date range.
//
// HTTP: GET /api/admin/resumo?from=2024-01-01&to=2024-01-31
// Both parameters are optional: the default is the last 30 days.
func (h *VoteHandler) HandleAdminSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.votes.RangeSummary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}
