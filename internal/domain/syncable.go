package domain

import "time"

// Syncable carries identity and timestamps shared by every persisted catalog entity.
// Deletion is soft so the front-end cache can observe removals on its next refresh.
type Syncable struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	ID        string     `json:"id"`
}

// Touch bumps UpdatedAt. Call it on every mutation.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// InitTimestamps sets CreatedAt and UpdatedAt to now.
func (s *Syncable) InitTimestamps() {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// IsDeleted reports whether the entity has been soft-deleted.
func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted soft-deletes the entity.
func (s *Syncable) MarkDeleted() {
	now := time.Now().UTC()
	s.DeletedAt = &now
	s.UpdatedAt = now
}
