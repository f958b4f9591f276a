package services

import (
	"testing"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/google/uuid"
)

func TestRecommendScore(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	base := models.Post{
		ID:        uuid.New(),
		Language:  "go",
		Tags:      "go,testing",
		UserID:    other,
		CreatedAt: now.Add(-10 * 24 * time.Hour),
	}

	tests := []struct {
		name      string
		mutate    func(*models.Post)
		reactions int64
		comments  int64
		langs     map[string]bool
		tags      []string
		want      int
	}{
		{
			name: "no signals",
			want: 0,
		},
		{
			name:  "language affinity",
			langs: map[string]bool{"go": true},
			want:  languageAffinityBonus,
		},
		{
			name: "tag overlap counts once",
			tags: []string{"go", "testing"},
			want: tagOverlapBonus,
		},
		{
			name:      "engagement below cap",
			reactions: 2,
			comments:  1,
			want:      2*ReactionWeight + CommentWeight,
		},
		{
			name:      "engagement capped",
			reactions: 100,
			comments:  100,
			want:      engagementCap,
		},
		{
			name:   "fresh post",
			mutate: func(p *models.Post) { p.CreatedAt = now.Add(-24 * time.Hour) },
			want:   recencyBonus3d,
		},
		{
			name:   "week-old post",
			mutate: func(p *models.Post) { p.CreatedAt = now.Add(-5 * 24 * time.Hour) },
			want:   recencyBonus7d,
		},
		{
			name:   "own post penalized",
			mutate: func(p *models.Post) { p.UserID = viewer },
			want:   ownPostPenalty,
		},
		{
			name:      "all signals combine",
			mutate:    func(p *models.Post) { p.CreatedAt = now.Add(-time.Hour) },
			reactions: 1,
			comments:  0,
			langs:     map[string]bool{"go": true},
			tags:      []string{"testing"},
			want:      languageAffinityBonus + tagOverlapBonus + ReactionWeight + recencyBonus3d,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := base
			if tt.mutate != nil {
				tt.mutate(&post)
			}
			got := RecommendScore(&post, tt.reactions, tt.comments, viewer, tt.langs, tt.tags, now)
			if got != tt.want {
				t.Errorf("RecommendScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetFeedOrdering(t *testing.T) {
	db := newTestDB(t)
	postSvc := NewPostService(db)
	feedSvc := NewFeedService(db, postSvc)
	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")

	older := createPost(t, db, author, "Older post")
	newer := createPost(t, db, author, "Newer post")
	db.Model(older).Update("created_at", time.Now().UTC().Add(-time.Hour))

	// Only the older post has engagement.
	if _, err := postSvc.ToggleReaction(reader.ID, older.ID, "🔥"); err != nil {
		t.Fatalf("ToggleReaction() error = %v", err)
	}

	latest, err := feedSvc.GetFeed(reader.ID, SortLatest)
	if err != nil {
		t.Fatalf("GetFeed(latest) error = %v", err)
	}
	if len(latest) != 2 || latest[0].ID != newer.ID {
		t.Errorf("latest feed order = %v, want newest first", feedIDs(latest))
	}

	top, err := feedSvc.GetFeed(reader.ID, SortTop)
	if err != nil {
		t.Fatalf("GetFeed(top) error = %v", err)
	}
	if len(top) != 2 || top[0].ID != older.ID {
		t.Errorf("top feed order = %v, want engaged post first", feedIDs(top))
	}
	if top[0].ReactionsCount != 1 {
		t.Errorf("top post reactions = %d, want 1", top[0].ReactionsCount)
	}
}

func TestGetFeedHidesUnlisted(t *testing.T) {
	db := newTestDB(t)
	postSvc := NewPostService(db)
	feedSvc := NewFeedService(db, postSvc)
	author := createUser(t, db, "author")

	createPost(t, db, author, "Public post")
	req := postRequest("Unlisted post")
	req.Visibility = models.VisibilityUnlisted
	if _, err := postSvc.CreatePost(author.ID, req); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	feed, err := feedSvc.GetFeed(uuid.Nil, SortLatest)
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(feed) != 1 || feed[0].Title != "Public post" {
		t.Errorf("feed = %v, want only the public post", feedIDs(feed))
	}
}

func TestGetFeedRecommendedPrefersViewerInterests(t *testing.T) {
	db := newTestDB(t)
	postSvc := NewPostService(db)
	feedSvc := NewFeedService(db, postSvc)
	gopher := createUser(t, db, "gopher")
	pythonista := createUser(t, db, "pythonista")
	viewer := createUser(t, db, "viewer")

	// Viewer's own post establishes a go/testing interest profile.
	createPost(t, db, viewer, "My go snippet")

	goPost := createPost(t, db, gopher, "Idiomatic iterators")
	pyReq := postRequest("List comprehensions")
	pyReq.Language = "python"
	pyReq.Tags = "#python"
	pyPost, err := postSvc.CreatePost(pythonista.ID, pyReq)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	// The python post is newer, so latest ordering alone would rank it first.
	db.Model(goPost).Update("created_at", time.Now().UTC().Add(-time.Hour))

	feed, err := feedSvc.GetFeed(viewer.ID, SortRecommended)
	if err != nil {
		t.Fatalf("GetFeed(recommended) error = %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("feed size = %d, want 3", len(feed))
	}
	if feed[0].ID != goPost.ID {
		t.Errorf("recommended first = %q, want the matching-language post", feed[0].Title)
	}
	// The viewer's own post matches their profile perfectly but the own-post
	// penalty drops it behind the stranger's go post.
	if feed[1].Author != "viewer" {
		t.Errorf("recommended second = %q, want the viewer's own post", feed[1].Title)
	}
	if feed[2].ID != pyPost.ID {
		t.Errorf("recommended last = %q, want the off-profile post", feed[2].Title)
	}
	if feed[0].Score <= feed[1].Score || feed[1].Score <= feed[2].Score {
		t.Errorf("scores not strictly ordered: %d, %d, %d", feed[0].Score, feed[1].Score, feed[2].Score)
	}
}

func feedIDs(feed []dto.FeedPostResponse) []string {
	titles := make([]string, len(feed))
	for i, p := range feed {
		titles[i] = p.Title
	}
	return titles
}
