package models

import (
	"time"

	"github.com/google/uuid"
)

// maxCategoryDepth bounds the parent walk so a corrupted tree can never
// loop forever.
const maxCategoryDepth = 10

type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(120);not null" json:"name"`
	Slug        string     `gorm:"type:varchar(140);uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Icon        string     `gorm:"type:varchar(80)" json:"icon,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	SortOrder   int        `gorm:"default:0" json:"sort_order"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// CategoryPathValid walks the parent chain of startID through byID and
// reports whether it terminates at a root without revisiting a node and
// within the depth bound. Used before re-parenting a category.
func CategoryPathValid(startID uuid.UUID, byID map[uuid.UUID]*Category) bool {
	seen := map[uuid.UUID]bool{}
	cur, ok := byID[startID]
	for depth := 0; ok && cur != nil; depth++ {
		if depth > maxCategoryDepth || seen[cur.ID] {
			return false
		}
		seen[cur.ID] = true
		if cur.ParentID == nil {
			return true
		}
		cur, ok = byID[*cur.ParentID]
	}
	// dangling parent reference
	return false
}
