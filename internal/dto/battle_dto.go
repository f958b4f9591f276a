package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateBattleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TimeLimit   string `json:"time_limit"`
	CustomTime  int    `json:"custom_time"`
	Language    string `json:"language"`
	Difficulty  string `json:"difficulty"`
	Tags        string `json:"tags"`
	Visibility  string `json:"visibility"`
}

type SubmitCodeRequest struct {
	Code string `json:"code"`
}

type VoteRequest struct {
	VotedForID uuid.UUID `json:"voted_for_id"`
}

// BattleStatusResponse is polled by the arena page. SubmittedByOther is the
// flag of the side the caller is NOT on.
type BattleStatusResponse struct {
	Status           string `json:"status"`
	OpponentJoined   bool   `json:"opponent_joined"`
	OpponentUsername string `json:"opponent_username,omitempty"`
	CreatorReady     bool   `json:"creator_ready"`
	OpponentReady    bool   `json:"opponent_ready"`
	OtherSubmitted   bool   `json:"opponent_submitted"`
	TimeLeft         int    `json:"time_left"`
}

type SubmitCodeResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type BattleResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimit        string     `json:"time_limit"`
	Language         string     `json:"language"`
	Difficulty       string     `json:"difficulty"`
	Tags             []string   `json:"tags"`
	Visibility       string     `json:"visibility"`
	Status           string     `json:"status"`
	Author           string     `json:"author"`
	OpponentUsername string     `json:"opponent_username,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	WinnerID         *uuid.UUID `json:"winner_id,omitempty"`
}

type ArenaResponse struct {
	Battle    BattleResponse `json:"battle"`
	IsCreator bool           `json:"is_creator"`
}

type ReviewResponse struct {
	Battle         BattleResponse    `json:"battle"`
	CreatorCode    string            `json:"creator_code"`
	OpponentCode   string            `json:"opponent_code"`
	CreatorVotes   int64             `json:"creator_votes"`
	OpponentVotes  int64             `json:"opponent_votes"`
	UserVote       *uuid.UUID        `json:"user_vote,omitempty"`
	ReviewTimeLeft int               `json:"review_time_left"`
	Comments       []CommentResponse `json:"comments"`
}

type TopWarriorResponse struct {
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

type BattleListResponse struct {
	Battles             []BattleResponse     `json:"battles"`
	BattlesWon          int64                `json:"battles_won"`
	BattlesParticipated int64                `json:"battles_participated"`
	TopWarriors         []TopWarriorResponse `json:"top_warriors"`
}
