package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// ParticipantService manages the people being voted on.
//
// Every participant gets a login account at creation time. Its login is the
// participant's name and its password is a random temporary one, shown to the
// administrator exactly once.
type ParticipantService struct {
	repo      repository.ParticipantRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewParticipantService(repo repository.ParticipantRepository, passwords *auth.PasswordService, logger *slog.Logger) *ParticipantService {
	return &ParticipantService{repo: repo, passwords: passwords, logger: logger}
}

// CreatedParticipant is returned once, when the participant is created.
type CreatedParticipant struct {
	Participant       *model.Participant
	Login             string
	TemporaryPassword string
}

func (s *ParticipantService) List(ctx context.Context) ([]model.Participant, error) {
	list, err := s.repo.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return list, nil
}

func (s *ParticipantService) Get(ctx context.Context, id int) (*model.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Participante não encontrado")
	}
	return p, nil
}

// Create adds a participant together with their login account.
func (s *ParticipantService) Create(ctx context.Context, name string, photo *string) (*CreatedParticipant, error) {
	name, err := cleanName("name", name, "Nome é obrigatório")
	if err != nil {
		return nil, err
	}
	if err := checkImage("photo", photo); err != nil {
		return nil, err
	}

	password, err := temporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing temporary password: %w", err)
	}

	p, account, err := s.repo.CreateParticipant(ctx, repository.NewParticipant{
		Name:                name,
		Photo:               photo,
		AccountPasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("creating participant: %w", err)
	}

	s.logger.InfoContext(ctx, "participant created",
		slog.Int("participantID", p.ID),
		slog.Int("accountID", account.ID),
		slog.String("name", p.Name),
	)
	return &CreatedParticipant{Participant: p, Login: p.Name, TemporaryPassword: password}, nil
}

// Update renames the participant and/or changes the photo. A nil name or
// an unset photo is left alone.
func (s *ParticipantService) Update(ctx context.Context, id int, name *string, photo model.OptionalString) (*model.Participant, error) {
	var upd repository.ParticipantUpdate
	if name != nil {
		n, err := cleanName("name", *name, "Nome é obrigatório")
		if err != nil {
			return nil, err
		}
		upd.Name = &n
	}
	if photo.Set {
		if err := checkImage("photo", photo.Value); err != nil {
			return nil, err
		}
		upd.Photo = photo
	}

	p, err := s.repo.UpdateParticipant(ctx, id, upd)
	if err != nil {
		return nil, notFoundAs(err, "Participante não encontrado")
	}
	return p, nil
}

// Delete removes the participant, their votes and their login account.
func (s *ParticipantService) Delete(ctx context.Context, id int) error {
	if err := s.repo.DeleteParticipant(ctx, id); err != nil {
		return notFoundAs(err, "Participante não encontrado")
	}
	s.logger.InfoContext(ctx, "participant deleted", slog.Int("participantID", id))
	return nil
}

// temporaryPassword returns 8 random hex characters.
func temporaryPassword() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating temporary password: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// notFoundAs swaps the store's not-found message for a user-facing one and
// leaves every other error as it is.
func notFoundAs(err error, message string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: message}
	}
	return err
}
