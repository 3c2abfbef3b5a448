package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/service"
)

// AuthHandler manages login, registration, logout and the profile page.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → check credentials, set the session cookie
//   - HandleRegister → create an account, set the session cookie
//   - HandleLogout   → clear the session cookie
//   - HandleProfile  → return the signed-in user
//   - HandleUpdateProfile → name / photo / password changes
//
// The session itself is resolved by auth.LoadSession before any of these
// run; handlers only read it from the context.
type AuthHandler struct {
	auth   *service.AuthService
	secure bool // Secure flag on the session cookie (production only)
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, secure: secureCookies, logger: logger}
}

type loginRequest struct {
	Login    *string `json:"login"`
	Email    *string `json:"email"` // older clients send the identifier as "email"
	Password string  `json:"password"`
}

type userResponse struct {
	User *model.UserSummary `json:"user"`
}

// HandleLogin authenticates by email or participant name.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"login": "Maria" | "maria@example.com", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	login := req.Login
	if login == nil {
		login = req.Email
	}
	var identifier string
	if login != nil {
		identifier = *login
	}

	res, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(res.Token, h.secure))
	writeJSON(w, http.StatusOK, userResponse{User: &res.User})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister creates a regular account and signs it in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"email": "...", "password": "...", "name": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(res.Token, h.secure))
	writeJSON(w, http.StatusOK, userResponse{User: &res.User})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so there is nothing to revoke server-side; a copied
// token keeps working until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.secure))
	writeJSON(w, http.StatusOK, okResponse)
}

// HandleProfile returns the signed-in user.
//
// HTTP: GET /api/profile
// Auth: Required
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, userResponse{User: &sess.UserSummary})
}

type profileRequest struct {
	Name            *string              `json:"name"`
	Photo           model.OptionalString `json:"photo"`
	NewPassword     string               `json:"newPassword"`
	CurrentPassword *string              `json:"currentPassword"`
}

// HandleUpdateProfile applies a partial profile change.
//
// HTTP: PUT /api/profile
// Auth: Required
// REQUEST BODY (all optional):
//
//	{"name": "...", "photo": "data:image/..." | null,
//	 "newPassword": "...", "currentPassword": "..."}
//
// An absent "photo" leaves the photo alone; null removes it.
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.UpdateAccount(r.Context(), sess.ID, service.AccountUpdate{
		ProfileUpdate:   service.ProfileUpdate{Name: req.Name, Photo: req.Photo},
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}
