package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrBattleNotFound   = errors.New("battle not found")
	ErrBattleFull       = errors.New("this battle is already full")
	ErrNotParticipant   = errors.New("you are not part of this battle")
	ErrNotInProgress    = errors.New("battle is not in progress")
	ErrVotingClosed     = errors.New("voting is closed")
	ErrInvalidVote      = errors.New("invalid vote")
	ErrReviewNotReady   = errors.New("this battle is not ready for review yet")
	ErrCustomTimeNeeded = errors.New("please enter a valid number of minutes for custom time")
)

const reviewWindow = 30 * time.Minute

var battleTimeLimits = map[string]bool{
	"30 min": true, "1 hour": true, "3 hours": true, "24 hours": true,
}

var battleDifficulties = map[string]bool{
	"Beginner": true, "Intermediate": true, "Advanced": true, "Expert": true,
}

var battleLanguages = map[string]bool{
	"python": true, "javascript": true, "typescript": true, "rust": true,
	"go": true, "java": true, "csharp": true, "cpp": true, "php": true,
	"ruby": true, "swift": true, "kotlin": true,
}

// BattleService drives the battle lifecycle. Time-based transitions are
// evaluated lazily when a client polls status or opens the review page; an
// abandoned battle can sit in_progress past its deadline until someone asks.
type BattleService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBattleService(db *gorm.DB) *BattleService {
	return &BattleService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ParseTimeLimit converts a stored limit such as "30 min" or "3 hours" to
// minutes. Unrecognized formats default to 60.
func ParseTimeLimit(limit string) int {
	fields := strings.Fields(limit)
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			unit := strings.ToLower(fields[1])
			if strings.HasPrefix(unit, "min") {
				return n
			}
			if strings.HasPrefix(unit, "hour") {
				return n * 60
			}
		}
	}
	return 60
}

func (s *BattleService) CreateBattle(userID uuid.UUID, req *dto.CreateBattleRequest) (*models.Battle, error) {
	if req.Title == "" || req.Description == "" {
		return nil, errors.New("title and description are required")
	}
	if len(req.Title) > 100 {
		return nil, errors.New("title must be under 100 characters")
	}
	if len(req.Description) > 5000 {
		return nil, errors.New("description must be under 5000 characters")
	}
	if !battleLanguages[req.Language] {
		return nil, fmt.Errorf("unsupported language: %s", req.Language)
	}
	if !battleDifficulties[req.Difficulty] {
		return nil, fmt.Errorf("unknown difficulty: %s", req.Difficulty)
	}

	timeLimit := req.TimeLimit
	if timeLimit == "Custom" {
		if req.CustomTime <= 0 {
			return nil, ErrCustomTimeNeeded
		}
		timeLimit = fmt.Sprintf("%d min", req.CustomTime)
	} else if !battleTimeLimits[timeLimit] {
		return nil, fmt.Errorf("unknown time limit: %s", timeLimit)
	}

	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}

	tags := ParseTags(req.Tags)
	if len(tags) > 5 {
		return nil, errors.New("at most 5 tags are allowed")
	}

	battle := &models.Battle{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   timeLimit,
		Language:    req.Language,
		Difficulty:  req.Difficulty,
		Tags:        strings.Join(tags, ","),
		Slug:        slug.Make(req.Title),
		Visibility:  req.Visibility,
		Status:      models.BattleStatusWaiting,
		CreatedAt:   s.now(),
		UserID:      userID,
	}

	if err := s.db.Create(battle).Error; err != nil {
		return nil, fmt.Errorf("failed to save battle: %w", err)
	}
	return battle, nil
}

func (s *BattleService) GetBattle(battleID uuid.UUID) (*models.Battle, error) {
	var battle models.Battle
	if err := s.db.Preload("Author").Preload("Opponent").
		First(&battle, "id = ?", battleID).Error; err != nil {
		return nil, ErrBattleNotFound
	}
	return &battle, nil
}

// JoinBattle seats the first non-creator user as opponent and moves the
// battle to ready. The creator re-joining is a no-op; anyone else after the
// seat is taken gets ErrBattleFull.
func (s *BattleService) JoinBattle(userID, battleID uuid.UUID) (*models.Battle, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, err
	}

	if battle.UserID == userID {
		return battle, nil
	}

	if battle.OpponentID == nil {
		updates := map[string]interface{}{
			"opponent_id": userID,
			"status":      models.BattleStatusReady,
		}
		if err := s.db.Model(battle).Updates(updates).Error; err != nil {
			return nil, err
		}
		battle.OpponentID = &userID
		battle.Status = models.BattleStatusReady
		return battle, nil
	}

	if *battle.OpponentID != userID {
		return nil, ErrBattleFull
	}
	return battle, nil
}

// Arena returns the battle for a participant; everyone else is rejected.
func (s *BattleService) Arena(userID, battleID uuid.UUID) (*models.Battle, bool, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, false, err
	}
	if !battle.IsParticipant(userID) {
		return nil, false, ErrNotParticipant
	}
	return battle, battle.UserID == userID, nil
}

// Status reports arena state and lazily expires the timer: a poll past
// end_time moves in_progress to in_review and opens a 30 minute window.
func (s *BattleService) Status(userID, battleID uuid.UUID) (*dto.BattleStatusResponse, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	timeLeft := 0
	if battle.Status == models.BattleStatusInProgress && battle.EndTime != nil {
		left := battle.EndTime.Sub(s.now())
		if left <= 0 {
			reviewEnd := s.now().Add(reviewWindow)
			updates := map[string]interface{}{
				"status":          models.BattleStatusInReview,
				"review_end_time": reviewEnd,
			}
			if err := s.db.Model(battle).Updates(updates).Error; err != nil {
				return nil, err
			}
			battle.Status = models.BattleStatusInReview
			battle.ReviewEndTime = &reviewEnd
		} else {
			timeLeft = int(left.Seconds())
		}
	}

	isCreator := battle.UserID == userID
	resp := &dto.BattleStatusResponse{
		Status:         battle.Status,
		OpponentJoined: battle.OpponentID != nil,
		CreatorReady:   battle.CreatorReady,
		OpponentReady:  battle.OpponentReady,
		TimeLeft:       timeLeft,
	}
	if battle.Opponent != nil {
		resp.OpponentUsername = battle.Opponent.Username
	}
	if isCreator {
		resp.OtherSubmitted = battle.OpponentSubmitted
	} else {
		resp.OtherSubmitted = battle.CreatorSubmitted
	}
	return resp, nil
}

// ToggleReady flips the caller's ready flag. Once both sides are ready in
// status ready the battle starts and the deadline is fixed from the parsed
// time limit.
func (s *BattleService) ToggleReady(userID, battleID uuid.UUID) (*models.Battle, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	updates := map[string]interface{}{}
	if battle.UserID == userID {
		battle.CreatorReady = !battle.CreatorReady
		updates["creator_ready"] = battle.CreatorReady
	} else {
		battle.OpponentReady = !battle.OpponentReady
		updates["opponent_ready"] = battle.OpponentReady
	}

	if battle.CreatorReady && battle.OpponentReady && battle.Status == models.BattleStatusReady {
		start := s.now()
		end := start.Add(time.Duration(ParseTimeLimit(battle.TimeLimit)) * time.Minute)
		updates["status"] = models.BattleStatusInProgress
		updates["start_time"] = start
		updates["end_time"] = end
		battle.Status = models.BattleStatusInProgress
		battle.StartTime = &start
		battle.EndTime = &end
	}

	if err := s.db.Model(battle).Updates(updates).Error; err != nil {
		return nil, err
	}
	return battle, nil
}

// SubmitCode stores the caller's code while in_progress. When both sides
// have submitted the battle is forced into review even if the timer has not
// expired.
func (s *BattleService) SubmitCode(userID, battleID uuid.UUID, code string) (*models.Battle, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if battle.Status != models.BattleStatusInProgress {
		return nil, ErrNotInProgress
	}

	updates := map[string]interface{}{}
	if battle.UserID == userID {
		updates["creator_code"] = code
		updates["creator_submitted"] = true
		battle.CreatorCode = code
		battle.CreatorSubmitted = true
	} else {
		updates["opponent_code"] = code
		updates["opponent_submitted"] = true
		battle.OpponentCode = code
		battle.OpponentSubmitted = true
	}

	if battle.CreatorSubmitted && battle.OpponentSubmitted {
		now := s.now()
		reviewEnd := now.Add(reviewWindow)
		updates["status"] = models.BattleStatusInReview
		updates["end_time"] = now
		updates["review_end_time"] = reviewEnd
		battle.Status = models.BattleStatusInReview
		battle.EndTime = &now
		battle.ReviewEndTime = &reviewEnd
	}

	if err := s.db.Model(battle).Updates(updates).Error; err != nil {
		return nil, err
	}
	return battle, nil
}

// Review assembles the review page data, lazily finalizing the battle once
// the voting window has closed. A vote tie goes to the creator.
func (s *BattleService) Review(viewerID uuid.UUID, battleID uuid.UUID) (*dto.ReviewResponse, error) {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return nil, err
	}

	switch battle.Status {
	case models.BattleStatusWaiting, models.BattleStatusReady, models.BattleStatusInProgress:
		return nil, ErrReviewNotReady
	}

	if battle.Status == models.BattleStatusInReview &&
		battle.ReviewEndTime != nil && s.now().After(*battle.ReviewEndTime) {
		if err := s.finalize(battle); err != nil {
			return nil, err
		}
	}

	creatorVotes, opponentVotes, err := s.voteCounts(battle)
	if err != nil {
		return nil, err
	}

	var userVote *uuid.UUID
	if viewerID != uuid.Nil {
		var vote models.BattleVote
		if err := s.db.Where("battle_id = ? AND user_id = ?", battle.ID, viewerID).
			First(&vote).Error; err == nil {
			userVote = &vote.VotedForID
		}
	}

	reviewTimeLeft := 0
	if battle.Status == models.BattleStatusInReview && battle.ReviewEndTime != nil {
		if left := battle.ReviewEndTime.Sub(s.now()); left > 0 {
			reviewTimeLeft = int(left.Seconds())
		}
	}

	comments, err := s.Comments(battle.ID)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewResponse{
		Battle:         BattleToResponse(battle),
		CreatorCode:    battle.CreatorCode,
		OpponentCode:   battle.OpponentCode,
		CreatorVotes:   creatorVotes,
		OpponentVotes:  opponentVotes,
		UserVote:       userVote,
		ReviewTimeLeft: reviewTimeLeft,
		Comments:       comments,
	}, nil
}

func (s *BattleService) finalize(battle *models.Battle) error {
	creatorVotes, opponentVotes, err := s.voteCounts(battle)
	if err != nil {
		return err
	}

	// Tie-break: creator wins.
	winnerID := battle.UserID
	if opponentVotes > creatorVotes && battle.OpponentID != nil {
		winnerID = *battle.OpponentID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":    models.BattleStatusCompleted,
			"winner_id": winnerID,
		}
		if err := tx.Model(battle).Updates(updates).Error; err != nil {
			return err
		}
		return s.applyBattleStats(tx, battle, winnerID)
	})
	if err != nil {
		return err
	}

	battle.Status = models.BattleStatusCompleted
	battle.WinnerID = &winnerID
	return nil
}

// applyBattleStats bumps wins/losses/total counts and shifts rating by a
// flat 25 points per decided battle.
func (s *BattleService) applyBattleStats(tx *gorm.DB, battle *models.Battle, winnerID uuid.UUID) error {
	participants := []uuid.UUID{battle.UserID}
	if battle.OpponentID != nil {
		participants = append(participants, *battle.OpponentID)
	}

	for _, id := range participants {
		updates := map[string]interface{}{
			"total_battles": gorm.Expr("total_battles + 1"),
		}
		if id == winnerID {
			updates["wins"] = gorm.Expr("wins + 1")
			updates["rating"] = gorm.Expr("rating + 25")
		} else {
			updates["losses"] = gorm.Expr("losses + 1")
			updates["rating"] = gorm.Expr("rating - 25")
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *BattleService) voteCounts(battle *models.Battle) (int64, int64, error) {
	var creatorVotes, opponentVotes int64
	if err := s.db.Model(&models.BattleVote{}).
		Where("battle_id = ? AND voted_for_id = ?", battle.ID, battle.UserID).
		Count(&creatorVotes).Error; err != nil {
		return 0, 0, err
	}
	if battle.OpponentID != nil {
		if err := s.db.Model(&models.BattleVote{}).
			Where("battle_id = ? AND voted_for_id = ?", battle.ID, *battle.OpponentID).
			Count(&opponentVotes).Error; err != nil {
			return 0, 0, err
		}
	}
	return creatorVotes, opponentVotes, nil
}

// Vote records or overwrites the caller's ballot while voting is open. The
// target must be one of the two participants.
func (s *BattleService) Vote(userID, battleID, votedForID uuid.UUID) error {
	battle, err := s.GetBattle(battleID)
	if err != nil {
		return err
	}
	if battle.Status != models.BattleStatusInReview {
		return ErrVotingClosed
	}
	if !battle.IsParticipant(votedForID) {
		return ErrInvalidVote
	}

	var existing models.BattleVote
	err = s.db.Where("battle_id = ? AND user_id = ?", battleID, userID).First(&existing).Error
	if err == nil {
		return s.db.Model(&existing).Update("voted_for_id", votedForID).Error
	}

	vote := models.BattleVote{
		ID:         uuid.New(),
		UserID:     userID,
		BattleID:   battleID,
		VotedForID: votedForID,
	}
	return s.db.Create(&vote).Error
}

func (s *BattleService) AddComment(userID, battleID uuid.UUID, content string) (*dto.CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	if _, err := s.GetBattle(battleID); err != nil {
		return nil, err
	}

	comment := models.BattleComment{
		ID:        uuid.New(),
		Content:   content,
		CreatedAt: s.now(),
		UserID:    userID,
		BattleID:  battleID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	var author models.User
	if err := s.db.First(&author, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	return &dto.CommentResponse{
		ID:           comment.ID,
		Content:      comment.Content,
		Author:       author.Username,
		CreatedAt:    "Just now",
		AvatarLetter: strings.ToUpper(author.AvatarLetter()),
	}, nil
}

// Comments returns a battle's review discussion oldest-first.
func (s *BattleService) Comments(battleID uuid.UUID) ([]dto.CommentResponse, error) {
	var comments []models.BattleComment
	if err := s.db.Preload("Author").
		Where("battle_id = ?", battleID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	out := make([]dto.CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = dto.CommentResponse{
			ID:           c.ID,
			Content:      c.Content,
			Author:       c.Author.Username,
			CreatedAt:    c.CreatedAt.Format("Jan 02"),
			AvatarLetter: strings.ToUpper(c.Author.AvatarLetter()),
		}
	}
	return out, nil
}

// ListBattles returns the battles page payload: recent public battles plus
// the viewer's stats and the top warriors board.
func (s *BattleService) ListBattles(viewerID uuid.UUID) (*dto.BattleListResponse, error) {
	var battles []models.Battle
	if err := s.db.Preload("Author").Preload("Opponent").
		Where("visibility = ?", models.VisibilityPublic).
		Order("created_at DESC").
		Limit(20).
		Find(&battles).Error; err != nil {
		return nil, err
	}

	var won int64
	s.db.Model(&models.Battle{}).Where("winner_id = ?", viewerID).Count(&won)

	var participated int64
	s.db.Model(&models.Battle{}).
		Where("user_id = ? OR opponent_id = ?", viewerID, viewerID).
		Count(&participated)

	var warriors []struct {
		Username string
		Wins     int64
	}
	if err := s.db.Model(&models.Battle{}).
		Select("users.username as username, count(battles.winner_id) as wins").
		Joins("JOIN users ON users.id = battles.winner_id").
		Group("users.username").
		Order("wins DESC").
		Limit(5).
		Find(&warriors).Error; err != nil {
		return nil, err
	}

	resp := &dto.BattleListResponse{
		Battles:             make([]dto.BattleResponse, len(battles)),
		BattlesWon:          won,
		BattlesParticipated: participated,
		TopWarriors:         make([]dto.TopWarriorResponse, len(warriors)),
	}
	for i := range battles {
		resp.Battles[i] = BattleToResponse(&battles[i])
	}
	for i, w := range warriors {
		resp.TopWarriors[i] = dto.TopWarriorResponse{Username: w.Username, Wins: w.Wins}
	}
	return resp, nil
}

// ActiveBattles returns the sidebar feed of battles still in play.
func (s *BattleService) ActiveBattles(limit int) ([]dto.BattleResponse, error) {
	var battles []models.Battle
	if err := s.db.Preload("Author").Preload("Opponent").
		Where("visibility = ?", models.VisibilityPublic).
		Where("status IN ?", []string{
			models.BattleStatusWaiting, models.BattleStatusReady,
			models.BattleStatusInProgress, models.BattleStatusInReview,
		}).
		Order("created_at DESC").
		Limit(limit).
		Find(&battles).Error; err != nil {
		return nil, err
	}

	out := make([]dto.BattleResponse, len(battles))
	for i := range battles {
		out[i] = BattleToResponse(&battles[i])
	}
	return out, nil
}

// BattleToResponse maps a battle row to its public JSON shape.
func BattleToResponse(battle *models.Battle) dto.BattleResponse {
	resp := dto.BattleResponse{
		ID:          battle.ID,
		Title:       battle.Title,
		Description: battle.Description,
		TimeLimit:   battle.TimeLimit,
		Language:    battle.Language,
		Difficulty:  battle.Difficulty,
		Visibility:  battle.Visibility,
		Status:      battle.Status,
		Author:      battle.Author.Username,
		CreatedAt:   battle.CreatedAt,
		WinnerID:    battle.WinnerID,
	}
	if battle.Tags != "" {
		for _, t := range strings.Split(battle.Tags, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				resp.Tags = append(resp.Tags, trimmed)
			}
		}
	}
	if battle.Opponent != nil {
		resp.OpponentUsername = battle.Opponent.Username
	}
	return resp
}
