package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// ShadowEmail is the login email of the account created with participant id.
func ShadowEmail(participantID int) string {
	return fmt.Sprintf("p%d@interno.queridometro", participantID)
}

func participantID(p model.Participant) int { return p.ID }

func indexParticipant(doc *model.Document, id int) int {
	for i := range doc.Participants {
		if doc.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

// ListParticipants returns participants ordered by name, ignoring case and
// accents, so "Álvaro" sorts next to "alvaro".
func (s *Store) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	doc := s.doc()
	out := make([]model.Participant, len(doc.Participants))
	for i, p := range doc.Participants {
		out[i] = *copyParticipant(p)
	}

	// collators keep internal buffers and are not safe for concurrent use
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(out, func(a, b model.Participant) int {
		return col.CompareString(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) GetParticipant(ctx context.Context, id int) (*model.Participant, error) {
	doc := s.doc()
	if i := indexParticipant(doc, id); i >= 0 {
		return copyParticipant(doc.Participants[i]), nil
	}
	return nil, apperror.NotFound("participant", id)
}

// CreateParticipant inserts a participant with a trimmed name. If
// AccountPasswordHash is set, the participant's login account is inserted in
// the same write and returned as the second value; otherwise it is nil.
func (s *Store) CreateParticipant(ctx context.Context, np repository.NewParticipant) (*model.Participant, *model.User, error) {
	type created struct {
		participant *model.Participant
		user        *model.User
	}

	res, err := write(ctx, s, "create_participant", func(doc *model.Document) (created, error) {
		name := strings.TrimSpace(np.Name)
		if name == "" {
			return created{}, apperror.ValidationFailed("name", "name is required")
		}

		p := model.Participant{
			ID:        nextID(doc.Participants, participantID),
			Name:      name,
			Photo:     np.Photo,
			CreatedAt: timestamp(),
		}
		doc.Participants = append(doc.Participants, p)

		res := created{participant: copyParticipant(p)}
		if np.AccountPasswordHash == "" {
			return res, nil
		}

		email := ShadowEmail(p.ID)
		if indexUserByEmail(doc, email) >= 0 {
			return created{}, apperror.Conflict("email", "email already in use")
		}
		pid := p.ID
		u := model.User{
			ID:            nextID(doc.Users, userID),
			Email:         email,
			PasswordHash:  np.AccountPasswordHash,
			Name:          name,
			Photo:         np.Photo,
			CreatedAt:     p.CreatedAt,
			ParticipantID: &pid,
		}
		doc.Users = append(doc.Users, u)
		res.user = copyUser(u)
		return res, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return res.participant, res.user, nil
}

// UpdateParticipant changes the participant only. Its login account keeps
// the name it was created with.
func (s *Store) UpdateParticipant(ctx context.Context, id int, upd repository.ParticipantUpdate) (*model.Participant, error) {
	return write(ctx, s, "update_participant", func(doc *model.Document) (*model.Participant, error) {
		i := indexParticipant(doc, id)
		if i < 0 {
			return nil, apperror.NotFound("participant", id)
		}
		p := &doc.Participants[i]
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return nil, apperror.ValidationFailed("name", "name is required")
			}
			p.Name = name
		}
		if upd.Photo.Set {
			p.Photo = upd.Photo.Value
		}
		return copyParticipant(*p), nil
	})
}

// DeleteParticipant removes the participant, every vote cast for them and
// their login account in one write.
func (s *Store) DeleteParticipant(ctx context.Context, id int) error {
	_, err := write(ctx, s, "delete_participant", func(doc *model.Document) (struct{}, error) {
		i := indexParticipant(doc, id)
		if i < 0 {
			return struct{}{}, apperror.NotFound("participant", id)
		}
		doc.Participants = slices.Delete(doc.Participants, i, i+1)
		doc.Votes = slices.DeleteFunc(doc.Votes, func(v model.Vote) bool {
			return v.ParticipantID == id
		})
		doc.Users = slices.DeleteFunc(doc.Users, func(u model.User) bool {
			return u.ParticipantID != nil && *u.ParticipantID == id
		})
		return struct{}{}, nil
	})
	return err
}

func copyParticipant(p model.Participant) *model.Participant {
	if p.Photo != nil {
		ph := *p.Photo
		p.Photo = &ph
	}
	return &p
}
