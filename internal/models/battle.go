package models

import (
	"time"

	"github.com/google/uuid"
)

// Battle lifecycle. Transitions only move forward:
// waiting -> ready -> in_progress -> in_review -> completed.
const (
	BattleStatusWaiting    = "waiting"
	BattleStatusReady      = "ready"
	BattleStatusInProgress = "in_progress"
	BattleStatusInReview   = "in_review"
	BattleStatusCompleted  = "completed"
)

// Battle is a timed 1v1 coding challenge. UserID is the creator; OpponentID
// stays nil until someone joins. At most two participants ever.
type Battle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	TimeLimit   string    `gorm:"size:20;not null" json:"time_limit"`
	Language    string    `gorm:"size:50;not null" json:"language"`
	Difficulty  string    `gorm:"size:20;not null" json:"difficulty"`
	Tags        string    `gorm:"size:200" json:"tags"`
	Slug        string    `gorm:"size:120;index" json:"slug"`
	Visibility  string    `gorm:"size:20;not null;default:'public'" json:"visibility"`
	Status      string    `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	OpponentID *uuid.UUID `gorm:"type:uuid;index" json:"opponent_id"`
	Author     User       `gorm:"foreignKey:UserID" json:"-"`
	Opponent   *User      `gorm:"foreignKey:OpponentID" json:"-"`

	CreatorReady  bool `gorm:"default:false" json:"creator_ready"`
	OpponentReady bool `gorm:"default:false" json:"opponent_ready"`

	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	ReviewEndTime *time.Time `json:"review_end_time"`

	CreatorCode       string `gorm:"type:text" json:"-"`
	OpponentCode      string `gorm:"type:text" json:"-"`
	CreatorSubmitted  bool   `gorm:"default:false" json:"creator_submitted"`
	OpponentSubmitted bool   `gorm:"default:false" json:"opponent_submitted"`

	WinnerID *uuid.UUID `gorm:"type:uuid" json:"winner_id"`
}

// IsParticipant reports whether the user is the creator or the opponent.
func (b *Battle) IsParticipant(userID uuid.UUID) bool {
	if b.UserID == userID {
		return true
	}
	return b.OpponentID != nil && *b.OpponentID == userID
}

// BattleVote is a ballot cast during the review phase. One row per
// (user, battle); re-voting updates VotedForID in place.
type BattleVote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_battle_votes_user_battle" json:"user_id"`
	BattleID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_battle_votes_user_battle;index" json:"battle_id"`
	VotedForID uuid.UUID `gorm:"type:uuid;not null" json:"voted_for_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// BattleComment is review-phase discussion on a battle.
type BattleComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	BattleID uuid.UUID `gorm:"type:uuid;not null;index" json:"battle_id"`
	Author   User      `gorm:"foreignKey:UserID" json:"-"`
}
