package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	GroupID   *uint     `gorm:"index" json:"group_id"` // Nullable, a post may belong to no group
	Group     *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Image     string    `json:"image"` // Optional, URL path under /uploads
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Filled per query, not stored
	CommentCount int `gorm:"-" json:"comment_count"`
}
