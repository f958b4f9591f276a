package services

import (
	"sort"
	"strings"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feed sort modes. Unknown values fall back to recommended.
const (
	SortLatest      = "latest"
	SortTop         = "top"
	SortRecommended = "recommended"
)

const feedLimit = 20

// Recommended-feed signal weights.
const (
	languageAffinityBonus = 40
	tagOverlapBonus       = 30
	engagementCap         = 50
	recencyBonus3d        = 25
	recencyBonus7d        = 10
	ownPostPenalty        = -15
)

type FeedService struct {
	db    *gorm.DB
	posts *PostService
}

func NewFeedService(db *gorm.DB, posts *PostService) *FeedService {
	return &FeedService{db: db, posts: posts}
}

type scoredPost struct {
	post      models.Post
	reactions int64
	comments  int64
	score     int
}

// GetFeed returns up to 20 public posts ranked by the requested mode.
func (s *FeedService) GetFeed(viewerID uuid.UUID, sortMode string) ([]dto.FeedPostResponse, error) {
	if sortMode != SortLatest && sortMode != SortTop {
		sortMode = SortRecommended
	}

	var posts []models.Post
	if err := s.db.Preload("Author").
		Where("visibility = ?", models.VisibilityPublic).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	reactionCounts, commentCounts, err := s.engagementCounts()
	if err != nil {
		return nil, err
	}

	scored := make([]scoredPost, len(posts))
	for i, p := range posts {
		scored[i] = scoredPost{
			post:      p,
			reactions: reactionCounts[p.ID],
			comments:  commentCounts[p.ID],
		}
	}

	switch sortMode {
	case SortLatest:
		sort.Slice(scored, func(i, j int) bool {
			return scored[i].post.CreatedAt.After(scored[j].post.CreatedAt)
		})
	case SortTop:
		sort.Slice(scored, func(i, j int) bool {
			ei := engagement(scored[i].reactions, scored[i].comments)
			ej := engagement(scored[j].reactions, scored[j].comments)
			if ei != ej {
				return ei > ej
			}
			return scored[i].post.CreatedAt.After(scored[j].post.CreatedAt)
		})
	default:
		langs, tags, err := s.viewerSignals(viewerID)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		for i := range scored {
			scored[i].score = RecommendScore(
				&scored[i].post, scored[i].reactions, scored[i].comments,
				viewerID, langs, tags, now,
			)
		}
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score > scored[j].score
			}
			return scored[i].post.CreatedAt.After(scored[j].post.CreatedAt)
		})
	}

	if len(scored) > feedLimit {
		scored = scored[:feedLimit]
	}

	out := make([]dto.FeedPostResponse, len(scored))
	for i, sp := range scored {
		out[i] = dto.FeedPostResponse{
			PostResponse: PostToResponse(&sp.post, sp.reactions, sp.comments),
			Score:        sp.score,
		}
	}
	return out, nil
}

// RecommendScore blends language affinity, tag overlap, capped engagement,
// recency, and a penalty on the viewer's own posts.
func RecommendScore(
	post *models.Post,
	reactions, comments int64,
	viewerID uuid.UUID,
	viewerLanguages map[string]bool,
	viewerTags []string,
	now time.Time,
) int {
	score := 0

	if viewerLanguages[post.Language] {
		score += languageAffinityBonus
	}

	if len(viewerTags) > 0 && post.Tags != "" {
		postTags := strings.ToLower(post.Tags)
		for _, t := range viewerTags {
			if strings.Contains(postTags, t) {
				score += tagOverlapBonus
				break
			}
		}
	}

	e := engagement(reactions, comments)
	if e > engagementCap {
		e = engagementCap
	}
	score += e

	age := now.Sub(post.CreatedAt)
	switch {
	case age < 3*24*time.Hour:
		score += recencyBonus3d
	case age < 7*24*time.Hour:
		score += recencyBonus7d
	}

	if post.UserID == viewerID {
		score += ownPostPenalty
	}

	return score
}

func engagement(reactions, comments int64) int {
	return int(reactions*ReactionWeight + comments*CommentWeight)
}

// viewerSignals collects the languages and tags of the viewer's own posts.
// A viewer with no posts gets empty signals and falls back to
// engagement+recency ranking.
func (s *FeedService) viewerSignals(viewerID uuid.UUID) (map[string]bool, []string, error) {
	var posts []models.Post
	if err := s.db.Select("language", "tags").
		Where("user_id = ?", viewerID).
		Find(&posts).Error; err != nil {
		return nil, nil, err
	}

	langs := make(map[string]bool)
	tagSet := make(map[string]bool)
	for _, p := range posts {
		langs[p.Language] = true
		for _, t := range p.TagList() {
			tagSet[strings.ToLower(t)] = true
		}
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	// Bound the per-post substring scan.
	if len(tags) > 20 {
		tags = tags[:20]
	}
	return langs, tags, nil
}

func (s *FeedService) engagementCounts() (map[uuid.UUID]int64, map[uuid.UUID]int64, error) {
	type row struct {
		PostID uuid.UUID
		Count  int64
	}

	var reactions []row
	if err := s.db.Model(&models.Reaction{}).
		Select("post_id, count(*) as count").
		Group("post_id").
		Find(&reactions).Error; err != nil {
		return nil, nil, err
	}

	var comments []row
	if err := s.db.Model(&models.Comment{}).
		Select("post_id, count(*) as count").
		Group("post_id").
		Find(&comments).Error; err != nil {
		return nil, nil, err
	}

	rc := make(map[uuid.UUID]int64, len(reactions))
	for _, r := range reactions {
		rc[r.PostID] = r.Count
	}
	cc := make(map[uuid.UUID]int64, len(comments))
	for _, c := range comments {
		cc[c.PostID] = c.Count
	}
	return rc, cc, nil
}

// PostToResponse maps a post row plus engagement counts to its JSON shape.
func PostToResponse(post *models.Post, reactions, comments int64) dto.PostResponse {
	var feedback []string
	if post.FeedbackType != "" {
		feedback = strings.Split(post.FeedbackType, ",")
	}
	return dto.PostResponse{
		ID:             post.ID,
		Title:          post.Title,
		Description:    post.Description,
		Language:       post.Language,
		Code:           post.Code,
		Tags:           post.TagList(),
		FeedbackType:   feedback,
		Slug:           post.Slug,
		Visibility:     post.Visibility,
		Author:         post.Author.Username,
		AuthorImage:    post.Author.ImageFile,
		CreatedAt:      post.CreatedAt,
		ReactionsCount: reactions,
		CommentsCount:  comments,
	}
}
