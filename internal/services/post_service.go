package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("unauthorized")
	ErrEmptyComment    = errors.New("comment can't be empty")
	ErrEmojiRequired   = errors.New("emoji is required")
)

// Reaction/comment weights used for both the top feed sort and the points
// recompute.
const (
	ReactionWeight = 5
	CommentWeight  = 10
)

var postLanguages = map[string]bool{
	"python": true, "javascript": true, "rust": true, "go": true,
	"java": true, "cpp": true, "csharp": true,
}

var feedbackTypes = map[string]bool{
	"code_quality": true, "performance": true, "architecture": true, "security": true,
}

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// ParseTags splits a raw "#go #testing" style string into clean tags.
func ParseTags(raw string) []string {
	fields := strings.Fields(strings.ReplaceAll(raw, "#", " "))
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *PostService) CreatePost(userID uuid.UUID, req *dto.CreatePostRequest) (*models.Post, error) {
	if req.Title == "" || req.Description == "" || req.Language == "" || req.Code == "" {
		return nil, errors.New("title, description, language and code are required")
	}
	if len(req.Title) > 100 {
		return nil, errors.New("title must be under 100 characters")
	}
	if len(req.Description) > 5000 {
		return nil, errors.New("description must be under 5000 characters")
	}
	if len(req.Code) > 5000 {
		return nil, errors.New("code must be under 5000 characters")
	}
	if !postLanguages[req.Language] {
		return nil, fmt.Errorf("unsupported language: %s", req.Language)
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}
	if req.Visibility != models.VisibilityPublic && req.Visibility != models.VisibilityUnlisted {
		return nil, errors.New("visibility must be public or unlisted")
	}
	for _, f := range req.FeedbackType {
		if !feedbackTypes[f] {
			return nil, fmt.Errorf("unknown feedback type: %s", f)
		}
	}

	tags := ParseTags(req.Tags)
	if len(tags) > 5 {
		return nil, errors.New("at most 5 tags are allowed")
	}

	post := &models.Post{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Language:     req.Language,
		Code:         req.Code,
		Tags:         strings.Join(tags, ","),
		FeedbackType: strings.Join(req.FeedbackType, ","),
		Slug:         slug.Make(req.Title),
		Visibility:   req.Visibility,
		CreatedAt:    time.Now().UTC(),
		UserID:       userID,
	}

	if err := s.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	return post, nil
}

func (s *PostService) GetPost(postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.db.Preload("Author").First(&post, "id = ?", postID).Error; err != nil {
		return nil, ErrPostNotFound
	}
	return &post, nil
}

func (s *PostService) GetUserPosts(userID uuid.UUID, publicOnly bool) ([]models.Post, error) {
	var posts []models.Post
	query := s.db.Preload("Author").Where("user_id = ?", userID)
	if publicOnly {
		query = query.Where("visibility = ?", models.VisibilityPublic)
	}
	err := query.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// ToggleReaction removes an existing (user, post, emoji) row or inserts a new
// one, then recomputes the author's points. Toggling twice is a no-op.
func (s *PostService) ToggleReaction(userID, postID uuid.UUID, emoji string) (*dto.ReactResponse, error) {
	if emoji == "" {
		return nil, ErrEmojiRequired
	}

	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		return nil, ErrPostNotFound
	}

	status := "added"
	var existing models.Reaction
	err := s.db.Where("user_id = ? AND post_id = ? AND emoji = ?", userID, postID, emoji).
		First(&existing).Error
	if err == nil {
		if err := s.db.Delete(&existing).Error; err != nil {
			return nil, err
		}
		status = "removed"
	} else {
		reaction := models.Reaction{
			ID:     uuid.New(),
			Emoji:  emoji,
			UserID: userID,
			PostID: postID,
		}
		if err := s.db.Create(&reaction).Error; err != nil {
			return nil, err
		}
	}

	if err := s.RecalculatePoints(post.UserID); err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.Reaction{}).Where("post_id = ? AND emoji = ?", postID, emoji).Count(&count)

	return &dto.ReactResponse{Status: status, Emoji: emoji, Count: count}, nil
}

func (s *PostService) AddComment(userID, postID uuid.UUID, content string) (*dto.CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		return nil, ErrPostNotFound
	}

	comment := models.Comment{
		ID:        uuid.New(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
		PostID:    postID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	if err := s.RecalculatePoints(post.UserID); err != nil {
		return nil, err
	}

	var author models.User
	if err := s.db.First(&author, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	return RenderComment(&comment, &author), nil
}

// RenderComment produces the inline-render shape the frontend expects.
func RenderComment(comment *models.Comment, author *models.User) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:           comment.ID,
		Content:      comment.Content,
		Author:       author.Username,
		CreatedAt:    humanize.Time(comment.CreatedAt),
		AvatarLetter: strings.ToUpper(author.AvatarLetter()),
	}
}

// DeletePost removes a post and its reactions/comments. Author or admin only.
func (s *PostService) DeletePost(actor *models.User, postID uuid.UUID) error {
	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		return ErrPostNotFound
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotAuthor
	}

	authorID := post.UserID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return err
	}
	return s.RecalculatePoints(authorID)
}

func (s *PostService) DeleteComment(actor *models.User, commentID uuid.UUID) (int64, error) {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		return 0, ErrCommentNotFound
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return 0, ErrNotAuthor
	}

	postID := comment.PostID
	if err := s.db.Delete(&comment).Error; err != nil {
		return 0, err
	}

	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err == nil {
		if err := s.RecalculatePoints(post.UserID); err != nil {
			return 0, err
		}
	}

	var count int64
	s.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count)
	return count, nil
}

// RecalculatePoints derives the user's points from scratch:
// reactions*5 + comments*10 summed across all of the user's posts. Full
// recompute on every write keeps the number idempotent; fine while per-user
// post counts stay small.
func (s *PostService) RecalculatePoints(userID uuid.UUID) error {
	var reactions int64
	if err := s.db.Model(&models.Reaction{}).
		Joins("JOIN posts ON posts.id = reactions.post_id").
		Where("posts.user_id = ?", userID).
		Count(&reactions).Error; err != nil {
		return err
	}

	var comments int64
	if err := s.db.Model(&models.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.user_id = ?", userID).
		Count(&comments).Error; err != nil {
		return err
	}

	points := reactions*ReactionWeight + comments*CommentWeight
	return s.db.Model(&models.User{}).Where("id = ?", userID).Update("points", points).Error
}

// ReactionCounts groups a post's reactions by emoji.
func (s *PostService) ReactionCounts(postID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Emoji string
		Count int64
	}
	err := s.db.Model(&models.Reaction{}).
		Select("emoji, count(*) as count").
		Where("post_id = ?", postID).
		Group("emoji").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Emoji] = r.Count
	}
	return counts, nil
}

// Comments returns a post's comments oldest-first, rendered.
func (s *PostService) Comments(postID uuid.UUID) ([]dto.CommentResponse, error) {
	var comments []models.Comment
	if err := s.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	out := make([]dto.CommentResponse, len(comments))
	for i := range comments {
		out[i] = *RenderComment(&comments[i], &comments[i].Author)
	}
	return out, nil
}
