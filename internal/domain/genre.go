package domain

// Genre is a flat taxonomy entry as it is stored: "Tech House" pointing at "House".
// The hierarchy (children, depth, display path) is derived on read by package genre
// and never persisted, so a rename or re-parent is a single-row update.
type Genre struct {
	Syncable
	Name        string `json:"name"`                  // Display name, not guaranteed unique
	Slug        string `json:"slug"`                  // URL-safe key: "tech-house"
	Description string `json:"description,omitempty"` // Optional blurb for genre landing pages
	ParentID    string `json:"parent_id,omitempty"`   // Empty for root genres
	Color       string `json:"color,omitempty"`       // Hex color for UI badges
}

// IsRoot reports whether the genre declares no parent.
// A genre whose parent cannot be resolved is also treated as a root by the tree builder.
func (g *Genre) IsRoot() bool {
	return g.ParentID == ""
}
