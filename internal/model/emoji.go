package model

// Emoji is an entry of the reaction catalog. Glyphs are not unique: the same
// glyph may appear twice with different labels.
type Emoji struct {
	ID    int    `json:"id"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// DefaultEmojis seeds an empty catalog.
var DefaultEmojis = []Emoji{
	{Emoji: "😊", Label: "Feliz"},
	{Emoji: "🐍", Label: "Cobra"},
	{Emoji: "😠", Label: "Bravo"},
	{Emoji: "🤢", Label: "Nojo"},
	{Emoji: "❤️", Label: "Amor"},
	{Emoji: "💣", Label: "Bomba"},
	{Emoji: "🍌", Label: "Banana"},
	{Emoji: "💔", Label: "Coração partido"},
	{Emoji: "🍆", Label: "Beringela"},
	{Emoji: "🍑", Label: "Pêssego"},
}
