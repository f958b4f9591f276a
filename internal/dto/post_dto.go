package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Language     string   `json:"language"`
	Code         string   `json:"code"`
	Tags         string   `json:"tags"`
	FeedbackType []string `json:"feedback_type"`
	Visibility   string   `json:"visibility"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

type ReactResponse struct {
	Status string `json:"status"`
	Emoji  string `json:"emoji"`
	Count  int64  `json:"count"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse carries the fields the frontend renders inline after
// posting: relative timestamp and avatar initials included.
type CommentResponse struct {
	ID           uuid.UUID `json:"id"`
	Content      string    `json:"content"`
	Author       string    `json:"author"`
	CreatedAt    string    `json:"created_at"`
	AvatarLetter string    `json:"avatar_letter"`
}

type PostResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Language       string    `json:"language"`
	Code           string    `json:"code"`
	Tags           []string  `json:"tags"`
	FeedbackType   []string  `json:"feedback_type"`
	Slug           string    `json:"slug"`
	Visibility     string    `json:"visibility"`
	Author         string    `json:"author"`
	AuthorImage    string    `json:"author_image"`
	CreatedAt      time.Time `json:"created_at"`
	ReactionsCount int64     `json:"reactions_count"`
	CommentsCount  int64     `json:"comments_count"`
}

// FeedPostResponse is a PostResponse plus the composite score used by the
// recommended sort (zero for latest/top).
type FeedPostResponse struct {
	PostResponse
	Score int `json:"score"`
}

type SearchResultResponse struct {
	PostResponse
	SearchScore float64 `json:"search_score"`
}
