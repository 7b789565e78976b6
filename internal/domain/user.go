package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds identity and credential material. The bcrypt hash embeds its
// salt; plaintext never touches persistence. Users are never deleted here.
type User struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Username     string    `gorm:"column:username;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets the UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// Identity is the resolved per-request actor, threaded explicitly into
// every guard and service call instead of read from ambient state.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// IdentityOf builds the request identity for a persisted user.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.UserID, Username: u.Username, Email: u.Email}
}
