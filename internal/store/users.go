package store

import (
	"context"
	"strings"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

func userID(u model.User) int { return u.ID }

func indexUserByEmail(doc *model.Document, email string) int {
	for i := range doc.Users {
		if doc.Users[i].Email == email {
			return i
		}
	}
	return -1
}

func indexUser(doc *model.Document, id int) int {
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	doc := s.doc()
	if i := indexUser(doc, id); i >= 0 {
		return copyUser(doc.Users[i]), nil
	}
	return nil, apperror.NotFound("user", id)
}

// GetUserByEmail matches the email exactly.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	doc := s.doc()
	if i := indexUserByEmail(doc, email); i >= 0 {
		return copyUser(doc.Users[i]), nil
	}
	return nil, apperror.NotFoundBy("user", "email", email)
}

// GetUserByName returns the first user whose trimmed name matches name,
// ignoring case.
func (s *Store) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	doc := s.doc()
	for _, u := range doc.Users {
		if strings.EqualFold(strings.TrimSpace(u.Name), name) {
			return copyUser(u), nil
		}
	}
	return nil, apperror.NotFoundBy("user", "name", name)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	doc := s.doc()
	users := make([]model.User, len(doc.Users))
	for i, u := range doc.Users {
		users[i] = *copyUser(u)
	}
	return users, nil
}

// CreateUser inserts a user. The email must not be in use.
func (s *Store) CreateUser(ctx context.Context, nu repository.NewUser) (*model.User, error) {
	return write(ctx, s, "create_user", func(doc *model.Document) (*model.User, error) {
		if indexUserByEmail(doc, nu.Email) >= 0 {
			return nil, apperror.Conflict("email", "email already in use")
		}
		u := model.User{
			ID:            nextID(doc.Users, userID),
			Email:         nu.Email,
			PasswordHash:  nu.PasswordHash,
			Name:          nu.Name,
			Photo:         nu.Photo,
			IsMaster:      model.Flag(nu.IsMaster),
			CreatedAt:     timestamp(),
			ParticipantID: nu.ParticipantID,
		}
		doc.Users = append(doc.Users, u)
		return copyUser(u), nil
	})
}

// UpdateUser applies the set fields of upd and returns the updated user.
func (s *Store) UpdateUser(ctx context.Context, id int, upd repository.UserUpdate) (*model.User, error) {
	return write(ctx, s, "update_user", func(doc *model.Document) (*model.User, error) {
		i := indexUser(doc, id)
		if i < 0 {
			return nil, apperror.NotFound("user", id)
		}
		u := &doc.Users[i]
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Photo.Set {
			u.Photo = upd.Photo.Value
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
		}
		return copyUser(*u), nil
	})
}

// copyUser detaches u from the cached document.
func copyUser(u model.User) *model.User {
	if u.Photo != nil {
		p := *u.Photo
		u.Photo = &p
	}
	if u.ParticipantID != nil {
		id := *u.ParticipantID
		u.ParticipantID = &id
	}
	return &u
}
