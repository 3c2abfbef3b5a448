package model

// Document is the whole dataset as it is stored on disk: one JSON object with
// one array per collection and the config singleton.
type Document struct {
	Users        []User        `json:"users"`
	Participants []Participant `json:"participants"`
	Votes        []Vote        `json:"votes"`
	Emojis       []Emoji       `json:"emojis"`
	Config       *Config       `json:"config"`
}

// Clone returns a deep copy. Pointer fields (photos, logo, participant ids)
// are copied too, so the clone shares no memory with d.
func (d *Document) Clone() *Document {
	c := &Document{
		Users:        make([]User, len(d.Users)),
		Participants: make([]Participant, len(d.Participants)),
		Votes:        make([]Vote, len(d.Votes)),
		Emojis:       make([]Emoji, len(d.Emojis)),
	}
	for i, u := range d.Users {
		u.Photo = cloneString(u.Photo)
		if u.ParticipantID != nil {
			id := *u.ParticipantID
			u.ParticipantID = &id
		}
		c.Users[i] = u
	}
	for i, p := range d.Participants {
		p.Photo = cloneString(p.Photo)
		c.Participants[i] = p
	}
	copy(c.Votes, d.Votes)
	copy(c.Emojis, d.Emojis)
	if d.Config != nil {
		c.Config = &Config{Title: d.Config.Title, Logo: cloneString(d.Config.Logo)}
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
