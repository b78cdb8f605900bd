package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment 挂在求证帖或回答下的讨论
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"not null;index:idx_comments_scope" json:"tenant_id"`
	ProjectID string    `gorm:"not null;index:idx_comments_scope" json:"project_id"`

	TargetType TargetType `gorm:"size:10;not null;index:idx_comments_target" json:"target_type"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_target" json:"target_id"`

	Content    string `gorm:"type:text;not null" json:"content"`
	UserID     string `gorm:"not null;index" json:"user_id"`
	UserHandle string `json:"user_handle"` // 展示用，可为空

	Upvotes int `gorm:"default:0" json:"upvotes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
