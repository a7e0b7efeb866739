package models

import (
	"time"
)

// Follow is a directed edge: UserID follows AuthorID.
// At most one edge per pair; self-follows are rejected at the handler level.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_user_author" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
