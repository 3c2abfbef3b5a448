package model

// DefaultTitle is used when the config is missing or its title is blank.
const DefaultTitle = "Queridômetro"

// Config is the singleton branding record.
type Config struct {
	Title string  `json:"title"`
	Logo  *string `json:"logo"`
}

// DefaultConfig returns the config a fresh document starts with.
func DefaultConfig() *Config {
	return &Config{Title: DefaultTitle}
}
