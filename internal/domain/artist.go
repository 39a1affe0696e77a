package domain

// Artist is a performer profile shown on the marketing site.
type Artist struct {
	Syncable
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Bio      string   `json:"bio,omitempty"` // Markdown
	ImageURL string   `json:"image_url,omitempty"`
	Website  string   `json:"website,omitempty"`
	Country  string   `json:"country,omitempty"` // ISO 3166-1 alpha-2
	GenreIDs []string `json:"genre_ids"`
}
