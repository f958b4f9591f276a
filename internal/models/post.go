package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Post visibility values.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
)

// Post is a shared code snippet. Tags and FeedbackType are stored as
// comma-joined strings, matching the template contract ("a,b,c").
type Post struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:100;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Language     string    `gorm:"size:50;not null" json:"language"`
	Code         string    `gorm:"type:text;not null" json:"code"`
	Tags         string    `gorm:"size:200" json:"tags"`
	FeedbackType string    `gorm:"size:200" json:"feedback_type"`
	Slug         string    `gorm:"size:120;index" json:"slug"`
	Visibility   string    `gorm:"size:20;not null;default:'public'" json:"visibility"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Author User      `gorm:"foreignKey:UserID" json:"-"`

	Reactions []Reaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// TagList splits the stored comma-joined tags.
func (p *Post) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// Reaction is an emoji a user attached to a post. A user may react with a
// given emoji at most once per post; distinct emojis are separate rows.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Emoji     string    `gorm:"size:10;not null;uniqueIndex:idx_reactions_user_post_emoji" json:"emoji"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_user_post_emoji" json:"user_id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_user_post_emoji;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is freeform discussion attached to a post.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PostID uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	Author User      `gorm:"foreignKey:UserID" json:"-"`
}
