package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a guest comment attached to exactly one listing. Author is
// immutable after create; the listing back-reference is the membership
// record, so deleting the listing removes its reviews in the same
// transaction.
type Review struct {
	ReviewID  uuid.UUID `gorm:"column:review_id;type:uuid;primaryKey" json:"review_id"`
	Comment   string    `gorm:"column:comment;type:text;not null" json:"comment"`
	Rating    int       `gorm:"column:rating;not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ReviewID == uuid.Nil {
		r.ReviewID = uuid.New()
	}
	return nil
}
