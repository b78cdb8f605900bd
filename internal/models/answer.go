package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer 对求证帖的认领回答：声称某人是原作者
type Answer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"not null;index:idx_answers_scope" json:"tenant_id"`
	ProjectID string    `gorm:"not null;index:idx_answers_scope" json:"project_id"`

	RequestID uuid.UUID          `gorm:"type:uuid;not null;index" json:"request_id"`
	Request   AttributionRequest `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	CreatorHandle   string   `gorm:"not null" json:"creator_handle"`
	CreatorPlatform Platform `gorm:"size:20" json:"creator_platform"`
	ProofURL        string   `json:"proof_url"`
	Explanation     string   `gorm:"type:text" json:"explanation"`

	// 认证字段只写一次（见 store.VerifyAnswer）
	IsVerified bool       `gorm:"default:false;index" json:"is_verified"`
	VerifiedBy string     `json:"verified_by"`
	VerifiedAt *time.Time `json:"verified_at"`

	Upvotes      int `gorm:"default:0;index" json:"upvotes"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	SubmittedBy string    `json:"submitted_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
