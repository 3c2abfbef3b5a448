package repository

import (
	"context"

	"github.com/sakif/queridometro/internal/model"
)

type NewUser struct {
	Email         string
	PasswordHash  string
	Name          string
	Photo         *string
	IsMaster      bool
	ParticipantID *int
}

// UserUpdate leaves nil / unset fields untouched.
type UserUpdate struct {
	Name         *string
	Photo        model.OptionalString
	PasswordHash *string
}

// NewParticipant creates a participant. When AccountPasswordHash is set, the
// shadow login account is created in the same write.
type NewParticipant struct {
	Name                string
	Photo               *string
	AccountPasswordHash string
}

type ParticipantUpdate struct {
	Name  *string
	Photo model.OptionalString
}

type NewVote struct {
	UserID        int
	ParticipantID int
	Emoji         string
	VoteDate      string
}

type NewEmoji struct {
	Emoji string
	Label string
}

type EmojiUpdate struct {
	Emoji *string
	Label *string
}

type ConfigUpdate struct {
	Title *string
	Logo  model.OptionalString
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, u NewUser) (*model.User, error)
	UpdateUser(ctx context.Context, id int, u UserUpdate) (*model.User, error)
}

type ParticipantRepository interface {
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	GetParticipant(ctx context.Context, id int) (*model.Participant, error)
	CreateParticipant(ctx context.Context, p NewParticipant) (*model.Participant, *model.User, error)
	UpdateParticipant(ctx context.Context, id int, p ParticipantUpdate) (*model.Participant, error)
	DeleteParticipant(ctx context.Context, id int) error
}

type VoteRepository interface {
	AddVote(ctx context.Context, v NewVote) (*model.Vote, error)
	VotesByUserAndDate(ctx context.Context, userID int, voteDate string) ([]model.Vote, error)
	VoteCountsByDate(ctx context.Context, voteDate string) ([]model.VoteCount, error)
	VoteCountsBetween(ctx context.Context, from, to string) ([]model.DatedVoteCount, error)
}

type EmojiRepository interface {
	ListEmojis(ctx context.Context) ([]model.Emoji, error)
	GetEmoji(ctx context.Context, id int) (*model.Emoji, error)
	AddEmoji(ctx context.Context, e NewEmoji) (*model.Emoji, error)
	UpdateEmoji(ctx context.Context, id int, e EmojiUpdate) (*model.Emoji, error)
	DeleteEmoji(ctx context.Context, id int) error
}

type ConfigRepository interface {
	GetConfig(ctx context.Context) (*model.Config, error)
	UpdateConfig(ctx context.Context, c ConfigUpdate) (*model.Config, error)
}
