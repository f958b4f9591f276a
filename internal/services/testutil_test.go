package services

import (
	"testing"
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Post{},
		&models.Reaction{},
		&models.Comment{},
		&models.Battle{},
		&models.BattleVote{},
		&models.BattleComment{},
		&models.Report{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-jwt-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		SessionSecret:    "test-session-secret",
	}
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Rating:   1000,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func postRequest(title string) *dto.CreatePostRequest {
	return &dto.CreatePostRequest{
		Title:       title,
		Description: "A snippet worth a look",
		Language:    "go",
		Code:        "func main() {}",
		Tags:        "#go #testing",
	}
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()

	post, err := NewPostService(db).CreatePost(author.ID, postRequest(title))
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}
