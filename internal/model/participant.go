package model

// Participant is someone who receives votes.
type Participant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Photo     *string   `json:"photo"`
	CreatedAt Timestamp `json:"created_at"`
}
