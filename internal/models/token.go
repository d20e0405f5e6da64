package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is the opaque API credential. Each user has at most one.
type Token struct {
	Key       string    `gorm:"size:40;primaryKey" json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
