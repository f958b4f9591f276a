package services

import (
	"errors"
	"testing"
	"time"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestParseTimeLimit(t *testing.T) {
	tests := []struct {
		limit string
		want  int
	}{
		{"30 min", 30},
		{"45 min", 45},
		{"1 hour", 60},
		{"3 hours", 180},
		{"24 hours", 1440},
		{"Custom", 60},
		{"", 60},
		{"soon", 60},
		{"abc min", 60},
	}

	for _, tt := range tests {
		t.Run(tt.limit, func(t *testing.T) {
			if got := ParseTimeLimit(tt.limit); got != tt.want {
				t.Errorf("ParseTimeLimit(%q) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func battleRequest() *dto.CreateBattleRequest {
	return &dto.CreateBattleRequest{
		Title:       "Reverse a linked list",
		Description: "Fastest clean solution wins",
		TimeLimit:   "30 min",
		Language:    "go",
		Difficulty:  "Intermediate",
		Tags:        "#algorithms",
	}
}

// setupBattle creates a battle with a controllable clock and both seats
// filled.
func setupBattle(t *testing.T, db *gorm.DB, clock *time.Time) (*BattleService, *models.Battle, *models.User, *models.User) {
	t.Helper()

	svc := NewBattleService(db)
	svc.now = func() time.Time { return *clock }

	creator := createUser(t, db, "creator")
	opponent := createUser(t, db, "opponent")

	battle, err := svc.CreateBattle(creator.ID, battleRequest())
	if err != nil {
		t.Fatalf("CreateBattle() error = %v", err)
	}
	if _, err := svc.JoinBattle(opponent.ID, battle.ID); err != nil {
		t.Fatalf("JoinBattle() error = %v", err)
	}
	return svc, battle, creator, opponent
}

func TestCreateBattleCustomTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewBattleService(db)
	creator := createUser(t, db, "creator")

	req := battleRequest()
	req.TimeLimit = "Custom"
	req.CustomTime = 0
	if _, err := svc.CreateBattle(creator.ID, req); !errors.Is(err, ErrCustomTimeNeeded) {
		t.Errorf("custom time 0 error = %v, want ErrCustomTimeNeeded", err)
	}

	req.CustomTime = 45
	battle, err := svc.CreateBattle(creator.ID, req)
	if err != nil {
		t.Fatalf("CreateBattle() error = %v", err)
	}
	if battle.TimeLimit != "45 min" {
		t.Errorf("stored time limit = %q, want \"45 min\"", battle.TimeLimit)
	}
	if battle.Status != models.BattleStatusWaiting {
		t.Errorf("new battle status = %q, want waiting", battle.Status)
	}
}

func TestJoinBattle(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	// Seat is taken, a third user bounces.
	third := createUser(t, db, "third")
	if _, err := svc.JoinBattle(third.ID, battle.ID); !errors.Is(err, ErrBattleFull) {
		t.Errorf("third join error = %v, want ErrBattleFull", err)
	}

	// Creator and seated opponent can re-enter freely.
	if _, err := svc.JoinBattle(creator.ID, battle.ID); err != nil {
		t.Errorf("creator rejoin error = %v", err)
	}
	got, err := svc.JoinBattle(opponent.ID, battle.ID)
	if err != nil {
		t.Errorf("opponent rejoin error = %v", err)
	}
	if got.Status != models.BattleStatusReady {
		t.Errorf("status after join = %q, want ready", got.Status)
	}

	// Outsiders cannot open the arena.
	if _, _, err := svc.Arena(third.ID, battle.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider arena error = %v, want ErrNotParticipant", err)
	}
}

func TestReadyStartsBattle(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	b, err := svc.ToggleReady(creator.ID, battle.ID)
	if err != nil {
		t.Fatalf("ToggleReady(creator) error = %v", err)
	}
	if b.Status != models.BattleStatusReady {
		t.Errorf("status after one ready = %q, want ready", b.Status)
	}

	b, err = svc.ToggleReady(opponent.ID, battle.ID)
	if err != nil {
		t.Fatalf("ToggleReady(opponent) error = %v", err)
	}
	if b.Status != models.BattleStatusInProgress {
		t.Errorf("status after both ready = %q, want in_progress", b.Status)
	}
	if b.EndTime == nil || !b.EndTime.Equal(clock.Add(30*time.Minute)) {
		t.Errorf("end time = %v, want clock+30m", b.EndTime)
	}
}

func TestStatusExpiresTimerLazily(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	svc.ToggleReady(creator.ID, battle.ID)
	svc.ToggleReady(opponent.ID, battle.ID)

	// Twenty minutes in, the countdown is still running.
	clock = clock.Add(20 * time.Minute)
	status, err := svc.Status(creator.ID, battle.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != models.BattleStatusInProgress {
		t.Errorf("status at 20m = %q, want in_progress", status.Status)
	}
	if status.TimeLeft != int((10 * time.Minute).Seconds()) {
		t.Errorf("time left = %d, want 600", status.TimeLeft)
	}

	// A poll past the deadline flips to review and opens a 30 minute window.
	clock = clock.Add(15 * time.Minute)
	status, err = svc.Status(opponent.ID, battle.ID)
	if err != nil {
		t.Fatalf("Status() past deadline error = %v", err)
	}
	if status.Status != models.BattleStatusInReview {
		t.Errorf("status past deadline = %q, want in_review", status.Status)
	}

	got, err := svc.GetBattle(battle.ID)
	if err != nil {
		t.Fatalf("GetBattle() error = %v", err)
	}
	if got.ReviewEndTime == nil || !got.ReviewEndTime.Equal(clock.Add(reviewWindow)) {
		t.Errorf("review end = %v, want poll time + 30m", got.ReviewEndTime)
	}
}

func TestSubmitCode(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	// Cannot submit before the battle starts.
	if _, err := svc.SubmitCode(creator.ID, battle.ID, "x"); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("early submit error = %v, want ErrNotInProgress", err)
	}

	svc.ToggleReady(creator.ID, battle.ID)
	svc.ToggleReady(opponent.ID, battle.ID)

	b, err := svc.SubmitCode(creator.ID, battle.ID, "creator solution")
	if err != nil {
		t.Fatalf("SubmitCode(creator) error = %v", err)
	}
	if b.Status != models.BattleStatusInProgress {
		t.Errorf("status after one submit = %q, want in_progress", b.Status)
	}

	// The other side sees the submission via status polling.
	status, err := svc.Status(opponent.ID, battle.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.OtherSubmitted {
		t.Error("opponent does not see creator's submission")
	}

	// Second submission ends the battle early.
	clock = clock.Add(5 * time.Minute)
	b, err = svc.SubmitCode(opponent.ID, battle.ID, "opponent solution")
	if err != nil {
		t.Fatalf("SubmitCode(opponent) error = %v", err)
	}
	if b.Status != models.BattleStatusInReview {
		t.Errorf("status after both submits = %q, want in_review", b.Status)
	}
	if b.ReviewEndTime == nil || !b.ReviewEndTime.Equal(clock.Add(reviewWindow)) {
		t.Errorf("review end = %v, want submit time + 30m", b.ReviewEndTime)
	}
}

func TestVoteAndFinalize(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	svc.ToggleReady(creator.ID, battle.ID)
	svc.ToggleReady(opponent.ID, battle.ID)

	// Voting is closed until review opens.
	voter := createUser(t, db, "voter")
	if err := svc.Vote(voter.ID, battle.ID, creator.ID); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("early vote error = %v, want ErrVotingClosed", err)
	}
	if _, err := svc.Review(voter.ID, battle.ID); !errors.Is(err, ErrReviewNotReady) {
		t.Errorf("early review error = %v, want ErrReviewNotReady", err)
	}

	svc.SubmitCode(creator.ID, battle.ID, "creator solution")
	svc.SubmitCode(opponent.ID, battle.ID, "opponent solution")

	// Votes only land on participants, and a revote overwrites.
	if err := svc.Vote(voter.ID, battle.ID, voter.ID); !errors.Is(err, ErrInvalidVote) {
		t.Errorf("vote for non-participant error = %v, want ErrInvalidVote", err)
	}
	if err := svc.Vote(voter.ID, battle.ID, creator.ID); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	if err := svc.Vote(voter.ID, battle.ID, opponent.ID); err != nil {
		t.Fatalf("revote error = %v", err)
	}

	review, err := svc.Review(voter.ID, battle.ID)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.CreatorVotes != 0 || review.OpponentVotes != 1 {
		t.Errorf("votes = %d/%d, want 0/1 after revote", review.CreatorVotes, review.OpponentVotes)
	}
	if review.UserVote == nil || *review.UserVote != opponent.ID {
		t.Error("UserVote does not reflect the voter's current ballot")
	}

	// Past the review window, the next review view finalizes the battle.
	clock = clock.Add(reviewWindow + time.Minute)
	review, err = svc.Review(uuid.Nil, battle.ID)
	if err != nil {
		t.Fatalf("Review() after window error = %v", err)
	}
	if review.Battle.Status != models.BattleStatusCompleted {
		t.Errorf("status = %q, want completed", review.Battle.Status)
	}
	if review.Battle.WinnerID == nil || *review.Battle.WinnerID != opponent.ID {
		t.Error("winner is not the vote leader")
	}

	var winner, loser models.User
	db.First(&winner, "id = ?", opponent.ID)
	db.First(&loser, "id = ?", creator.ID)
	if winner.Wins != 1 || winner.Rating != 1025 || winner.TotalBattles != 1 {
		t.Errorf("winner stats = %d wins, %d rating, %d battles", winner.Wins, winner.Rating, winner.TotalBattles)
	}
	if loser.Losses != 1 || loser.Rating != 975 || loser.TotalBattles != 1 {
		t.Errorf("loser stats = %d losses, %d rating, %d battles", loser.Losses, loser.Rating, loser.TotalBattles)
	}

	// Voting on a completed battle is rejected.
	if err := svc.Vote(voter.ID, battle.ID, creator.ID); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("vote after completion error = %v, want ErrVotingClosed", err)
	}
}

func TestTieGoesToCreator(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	svc.ToggleReady(creator.ID, battle.ID)
	svc.ToggleReady(opponent.ID, battle.ID)
	svc.SubmitCode(creator.ID, battle.ID, "a")
	svc.SubmitCode(opponent.ID, battle.ID, "b")

	// Zero votes each is still a tie.
	clock = clock.Add(reviewWindow + time.Minute)
	review, err := svc.Review(uuid.Nil, battle.ID)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Battle.WinnerID == nil || *review.Battle.WinnerID != creator.ID {
		t.Error("tie did not go to the creator")
	}
}

func TestBattleComments(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, _ := setupBattle(t, db, &clock)

	if _, err := svc.AddComment(creator.ID, battle.ID, "  "); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("blank comment error = %v, want ErrEmptyComment", err)
	}

	comment, err := svc.AddComment(creator.ID, battle.ID, "good luck")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if comment.CreatedAt != "Just now" {
		t.Errorf("fresh comment timestamp = %q, want \"Just now\"", comment.CreatedAt)
	}

	comments, err := svc.Comments(battle.ID)
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(comments) != 1 || comments[0].Content != "good luck" {
		t.Errorf("comments = %v", comments)
	}
}

func TestListBattles(t *testing.T) {
	db := newTestDB(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, battle, creator, opponent := setupBattle(t, db, &clock)

	svc.ToggleReady(creator.ID, battle.ID)
	svc.ToggleReady(opponent.ID, battle.ID)
	svc.SubmitCode(creator.ID, battle.ID, "a")
	svc.SubmitCode(opponent.ID, battle.ID, "b")
	clock = clock.Add(reviewWindow + time.Minute)
	if _, err := svc.Review(uuid.Nil, battle.ID); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	list, err := svc.ListBattles(creator.ID)
	if err != nil {
		t.Fatalf("ListBattles() error = %v", err)
	}
	if len(list.Battles) != 1 {
		t.Fatalf("battle count = %d, want 1", len(list.Battles))
	}
	if list.BattlesWon != 1 || list.BattlesParticipated != 1 {
		t.Errorf("creator stats = %d won / %d participated, want 1/1", list.BattlesWon, list.BattlesParticipated)
	}
	if len(list.TopWarriors) != 1 || list.TopWarriors[0].Username != "creator" {
		t.Errorf("top warriors = %v, want creator on top", list.TopWarriors)
	}
}

func TestActiveBattles(t *testing.T) {
	db := newTestDB(t)
	svc := NewBattleService(db)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	creator := createUser(t, db, "creator")

	makeBattle := func(title, visibility string) *models.Battle {
		req := battleRequest()
		req.Title = title
		req.Visibility = visibility
		battle, err := svc.CreateBattle(creator.ID, req)
		if err != nil {
			t.Fatalf("CreateBattle(%q) error = %v", title, err)
		}
		clock = clock.Add(time.Minute)
		return battle
	}

	makeBattle("Open battle", "")
	done := makeBattle("Finished battle", "")
	if err := db.Model(done).Update("status", models.BattleStatusCompleted).Error; err != nil {
		t.Fatalf("complete battle: %v", err)
	}
	makeBattle("Hidden battle", models.VisibilityUnlisted)
	makeBattle("Fresh battle", "")

	active, err := svc.ActiveBattles(5)
	if err != nil {
		t.Fatalf("ActiveBattles() error = %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active count = %d, want 2", len(active))
	}
	if active[0].Title != "Fresh battle" || active[1].Title != "Open battle" {
		t.Errorf("active order = [%s, %s], want newest first with completed and unlisted hidden",
			active[0].Title, active[1].Title)
	}

	limited, err := svc.ActiveBattles(1)
	if err != nil {
		t.Fatalf("ActiveBattles(1) error = %v", err)
	}
	if len(limited) != 1 || limited[0].Title != "Fresh battle" {
		t.Errorf("limited = %v, want just the newest battle", limited)
	}
}
