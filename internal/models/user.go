package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a DevArena member. PasswordHash is empty for accounts created
// through Google sign-in; those can never log in with a password.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:20;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:256" json:"-"`
	AuthProvider string    `gorm:"size:50;default:'email'" json:"-"`
	GoogleID     *string   `gorm:"size:255;index" json:"-"`
	ImageFile    string    `gorm:"size:255;not null;default:'default.jpg'" json:"image_file"`
	Role         string    `gorm:"size:20;default:'user'" json:"role"`

	// Reputation, recomputed from reactions and comments on the user's posts.
	Points int `gorm:"default:0" json:"points"`

	// Battle stats.
	Rating       int `gorm:"default:1000" json:"rating"`
	Wins         int `gorm:"default:0" json:"wins"`
	Losses       int `gorm:"default:0" json:"losses"`
	TotalBattles int `gorm:"default:0" json:"total_battles"`

	SubscribedToDailyPrompt bool `gorm:"default:true" json:"subscribed_to_daily_prompt"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// AvatarLetter returns the two-letter initials shown when no image is set.
func (u *User) AvatarLetter() string {
	runes := []rune(u.Username)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}
