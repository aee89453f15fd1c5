package domain

import "time"

// Category is one entry of the local taxonomy. RemoteID is a back-reference
// stamped after the entry was matched to or created from a remote category.
type Category struct {
	ID          int64
	RemoteID    int64
	Name        string
	Slug        string
	Description string
	Level       int
	ParentID    *int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewCategory(remoteID int64, name, slug, description string, level int, parentID *int64) *Category {
	return &Category{
		RemoteID:    remoteID,
		Name:        name,
		Slug:        slug,
		Description: description,
		Level:       level,
		ParentID:    parentID,
	}
}
