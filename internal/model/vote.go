package model

// VoteDateLayout is the layout of Vote.VoteDate (a calendar day, not a timestamp).
const VoteDateLayout = "2006-01-02"

// Vote is one emoji reaction from a user to a participant on a given day.
//
// At most one vote exists per (UserID, ParticipantID, VoteDate). The store
// enforces this when the vote is written; there is no schema constraint.
type Vote struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	ParticipantID int       `json:"participant_id"`
	Emoji         string    `json:"emoji"`
	VoteDate      string    `json:"vote_date"`
	CreatedAt     Timestamp `json:"created_at"`
}

// VoteCount is the number of votes a participant received with one emoji.
type VoteCount struct {
	ParticipantID int    `json:"participant_id"`
	Emoji         string `json:"emoji"`
	Count         int    `json:"count"`
}

// DatedVoteCount is a VoteCount scoped to a single vote date.
type DatedVoteCount struct {
	VoteDate string `json:"vote_date"`
	VoteCount
}
