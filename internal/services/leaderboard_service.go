package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// Versioned key so payloads cached under the old full-user shape are
	// never served after an upgrade.
	leaderboardKey = "leaderboard:points:v2"
	leaderboardTTL = 60 * time.Second
	leaderboardTop = 10
)

// LeaderboardService serves the points top list. When a Redis client is
// configured the result is cached for a minute; with rdb == nil every call
// hits the database.
type LeaderboardService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewLeaderboardService(db *gorm.DB, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, rdb: rdb}
}

// Top returns the ten highest-scoring users as public entries. The endpoint
// has no auth, so the rows never include email or any other private field.
func (s *LeaderboardService) Top(ctx context.Context) ([]dto.LeaderboardEntry, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, leaderboardKey).Bytes(); err == nil {
			var out []dto.LeaderboardEntry
			if json.Unmarshal(cached, &out) == nil {
				return out, nil
			}
		}
	}

	var users []models.User
	if err := s.db.Order("points DESC").Limit(leaderboardTop).Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]dto.LeaderboardEntry, len(users))
	for i := range users {
		u := &users[i]
		out[i] = dto.LeaderboardEntry{
			Username:     u.Username,
			ImageFile:    u.ImageFile,
			AvatarLetter: u.AvatarLetter(),
			Points:       u.Points,
			Rating:       u.Rating,
			Wins:         u.Wins,
		}
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, leaderboardKey, payload, leaderboardTTL).Err(); err != nil {
				slog.Warn("leaderboard cache write failed", "error", err)
			}
		}
	}
	return out, nil
}
