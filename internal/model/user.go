// Package model defines the data structures persisted in the JSON document.
// In Go, we use structs to represent our data. The `json:"..."` tags pin the
// on-disk key names, which are snake_case so that documents written by earlier
// versions of the app keep loading unchanged.
package model

// User represents an account that can log in and vote.
//
// Two kinds of users share this struct:
//   - regular accounts (self-registered, or the seeded administrator)
//   - shadow accounts, created together with a Participant so the participant
//     can log in under their own name. ParticipantID points back at it.
//
// Photo is a data URI or nil. ParticipantID is nil for regular accounts.
type User struct {
	ID            int       `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	Photo         *string   `json:"photo"`
	IsMaster      Flag      `json:"is_master"`
	CreatedAt     Timestamp `json:"created_at"`
	ParticipantID *int      `json:"participant_id"`
}

// UserSummary is the public view of a User. It never carries the password hash.
type UserSummary struct {
	ID       int     `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Photo    *string `json:"photo"`
	IsMaster bool    `json:"isMaster"`
}

// Summary strips credentials from the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Photo:    u.Photo,
		IsMaster: bool(u.IsMaster),
	}
}
