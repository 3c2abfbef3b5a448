package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// ErrInvalidCredentials is the single answer to a failed login. An unknown
// login and a wrong password must look the same to the caller.
var ErrInvalidCredentials = &apperror.AppError{
	Err:     apperror.ErrUnauthorized,
	Message: "Email ou senha inválidos",
}

// AuthService handles sessions, logins and account changes.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (store)
//	                   ↘ TokenService (session tokens)
//	                   ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user and the issued token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  model.UserSummary
	Token string
}

// GetSession resolves a session token to the current state of its user.
//
// An invalid or expired token, or one naming a deleted user, yields
// (nil, nil): the request is simply anonymous. Only a failing lookup is an
// error. Implements auth.SessionResolver.
func (s *AuthService) GetSession(ctx context.Context, token string) (*auth.Session, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: loading session user %d: %w", userID, err)
	}
	return &auth.Session{UserSummary: user.Summary()}, nil
}

// CreateSessionToken issues a token valid for auth.SessionDuration.
func (s *AuthService) CreateSessionToken(userID int) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %d: %w", userID, err)
	}
	return token, nil
}

// VerifyCredentials checks a login and password.
//
// The login is an email when it contains "@" (matched exactly) and a display
// name otherwise (trimmed, case-insensitive). Every failure, whatever its
// cause, is ErrInvalidCredentials.
func (s *AuthService) VerifyCredentials(ctx context.Context, login, password string) (*model.UserSummary, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetUserByEmail(ctx, login)
	} else {
		user, err = s.users.GetUserByName(ctx, login)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up login: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.WarnContext(ctx, "stored password hash is unusable",
				slog.Int("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, ErrInvalidCredentials
	}

	summary := user.Summary()
	return &summary, nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, apperror.ValidationFailed("login", "Login (email ou nome) e senha são obrigatórios")
	}

	user, err := s.VerifyCredentials(ctx, login, password)
	if err != nil {
		return nil, err
	}

	token, err := s.CreateSessionToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.Int("userID", user.ID))
	return &AuthResult{User: *user, Token: token}, nil
}

// Register creates a regular account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, apperror.ValidationFailed("", "Email, senha e nome são obrigatórios")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "Email inválido")
	}
	name, err := cleanName("name", name, "Nome é obrigatório")
	if err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, repository.NewUser{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if errors.Is(err, apperror.ErrConflict) {
		return nil, apperror.Conflict("email", "Este email já está cadastrado")
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, err := s.CreateSessionToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.Int("userID", user.ID))
	return &AuthResult{User: user.Summary(), Token: token}, nil
}

// ProfileUpdate is a partial profile change. Nil / unset fields are left
// alone.
type ProfileUpdate struct {
	Name  *string
	Photo model.OptionalString
}

// UpdateProfile changes the display name and/or photo.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int, p ProfileUpdate) (*model.UserSummary, error) {
	upd, err := s.profileChanges(p)
	if err != nil {
		return nil, err
	}
	return s.applyUserUpdate(ctx, userID, upd)
}

// UpdatePassword re-hashes and stores a new password. Sessions already
// issued stay valid until they expire.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int, newPassword string) error {
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.applyUserUpdate(ctx, userID, repository.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password changed", slog.Int("userID", userID))
	return nil
}

// AccountUpdate is what the profile page submits: profile fields plus an
// optional password change, which needs the current password.
type AccountUpdate struct {
	ProfileUpdate
	NewPassword     string
	CurrentPassword *string
}

// UpdateAccount validates everything first (including the current password)
// and then applies all changes in a single store write, so a rejected
// password change leaves the profile untouched too.
func (s *AuthService) UpdateAccount(ctx context.Context, userID int, a AccountUpdate) (*model.UserSummary, error) {
	upd, err := s.profileChanges(a.ProfileUpdate)
	if err != nil {
		return nil, err
	}

	if a.NewPassword != "" {
		if a.CurrentPassword == nil {
			return nil, apperror.ValidationFailed("currentPassword", "Senha atual é obrigatória para alterar a senha")
		}
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.passwords.Verify(user.PasswordHash, *a.CurrentPassword); err != nil {
			return nil, apperror.ValidationFailed("currentPassword", "Senha atual incorreta")
		}
		hash, err := s.hashPassword(a.NewPassword)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	summary, err := s.applyUserUpdate(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	if upd.PasswordHash != nil {
		s.logger.InfoContext(ctx, "password changed", slog.Int("userID", userID))
	}
	return summary, nil
}

func (s *AuthService) profileChanges(p ProfileUpdate) (repository.UserUpdate, error) {
	var upd repository.UserUpdate
	if p.Name != nil {
		name, err := cleanName("name", *p.Name, "Nome é obrigatório")
		if err != nil {
			return upd, err
		}
		upd.Name = &name
	}
	if p.Photo.Set {
		if err := checkImage("photo", p.Photo.Value); err != nil {
			return upd, err
		}
		upd.Photo = p.Photo
	}
	return upd, nil
}

func (s *AuthService) applyUserUpdate(ctx context.Context, userID int, upd repository.UserUpdate) (*model.UserSummary, error) {
	user, err := s.users.UpdateUser(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: updating user %d: %w", userID, err)
	}
	summary := user.Summary()
	return &summary, nil
}

// hashPassword validates and hashes a new password.
func (s *AuthService) hashPassword(password string) (string, error) {
	if password == "" {
		return "", apperror.ValidationFailed("password", "Senha é obrigatória")
	}
	if len(password) > auth.MaxPasswordBytes {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("Senha deve ter no máximo %d bytes", auth.MaxPasswordBytes))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return hash, nil
}
