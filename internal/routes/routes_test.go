package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/database"
	"github.com/devarena/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{}, &models.RefreshToken{}, &models.Post{},
		&models.Reaction{}, &models.Comment{}, &models.Battle{},
		&models.BattleVote{}, &models.BattleComment{}, &models.Report{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	database.DB = db

	cfg := &config.Config{
		JWTSecret:        "test-jwt-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		SessionSecret:    "test-session-secret",
		AdminToken:       "admin-secret",
		BaseURL:          "https://devarena.test",
	}

	app := fiber.New()
	Setup(app, cfg, nil)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func registerUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp, body := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-password",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", username, resp.StatusCode, body)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("register %s: no access token in %v", username, body)
	}
	return token
}

func TestRegisterLoginFlow(t *testing.T) {
	app := newTestApp(t)
	registerUser(t, app, "gopher")

	resp, body := doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email": "gopher@example.com", "password": "secret-password",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email": "gopher@example.com", "password": "wrong-password",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
	if body["error"] != true {
		t.Errorf("bad login body = %v, want error envelope", body)
	}

	resp, body = doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"username": "shouter", "email": "Shouter@Example.com", "password": "secret-password",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("uppercase email status = %d, want 400", resp.StatusCode)
	}
	if body["message"] != "Email must be in lowercase." {
		t.Errorf("uppercase email message = %v", body["message"])
	}
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	author := registerUser(t, app, "author")
	reader := registerUser(t, app, "reader")

	resp, body := doJSON(t, app, "POST", "/api/posts/", author, map[string]interface{}{
		"title":       "Binary search in Go",
		"description": "A walkthrough",
		"language":    "go",
		"code":        "func search() {}",
		"tags":        "#go #algorithms",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create post status = %d, body %v", resp.StatusCode, body)
	}
	postID, _ := body["id"].(string)
	if postID == "" {
		t.Fatalf("create post: no id in %v", body)
	}

	// Anonymous create is rejected.
	resp, _ = doJSON(t, app, "POST", "/api/posts/", "", map[string]string{"title": "x"})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", resp.StatusCode)
	}

	resp, body = doJSON(t, app, "POST", "/api/posts/"+postID+"/react", reader, map[string]string{"emoji": "🔥"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("react status = %d, body %v", resp.StatusCode, body)
	}
	if body["status"] != "added" {
		t.Errorf("react status field = %v, want added", body["status"])
	}

	resp, body = doJSON(t, app, "POST", "/api/posts/"+postID+"/comments", reader, map[string]string{"content": "nice"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("comment status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, "GET", "/api/posts/"+postID, "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get post status = %d", resp.StatusCode)
	}
	comments, _ := body["comments"].([]interface{})
	if len(comments) != 1 {
		t.Errorf("comment count = %d, want 1", len(comments))
	}

	resp, body = doJSON(t, app, "GET", "/api/feed?sort=latest", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("feed status = %d", resp.StatusCode)
	}
	posts, _ := body["posts"].([]interface{})
	if len(posts) != 1 {
		t.Errorf("feed post count = %d, want 1", len(posts))
	}

	// Author's points reflect the reaction and comment.
	resp, body = doJSON(t, app, "GET", "/api/profile", author, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	if points, _ := body["points"].(float64); points != 15 {
		t.Errorf("author points = %v, want 15", body["points"])
	}

	// Only the author can delete.
	resp, _ = doJSON(t, app, "DELETE", "/api/posts/"+postID, reader, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("stranger delete status = %d, want 403", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, "DELETE", "/api/posts/"+postID, author, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("author delete status = %d, want 200", resp.StatusCode)
	}
}

func TestFeedDefaultsToRecommended(t *testing.T) {
	app := newTestApp(t)
	author := registerUser(t, app, "author")

	resp, body := doJSON(t, app, "POST", "/api/posts/", author, map[string]interface{}{
		"title":       "Sorting visualized",
		"description": "Step by step",
		"language":    "go",
		"code":        "func sort() {}",
		"tags":        "#go",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create post status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, "POST", "/api/battles/", author, map[string]string{
		"title":       "Fizzbuzz sprint",
		"description": "First clean solution wins",
		"time_limit":  "30 min",
		"language":    "go",
		"difficulty":  "Beginner",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create battle status = %d, body %v", resp.StatusCode, body)
	}

	// No sort param, anonymous viewer.
	resp, body = doJSON(t, app, "GET", "/api/feed", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("feed status = %d", resp.StatusCode)
	}
	if body["sort"] != "recommended" {
		t.Errorf("default feed sort = %v, want recommended", body["sort"])
	}
	posts, _ := body["posts"].([]interface{})
	if len(posts) != 1 {
		t.Errorf("feed post count = %d, want 1", len(posts))
	}

	// The open battle shows up in the sidebar list.
	battles, _ := body["active_battles"].([]interface{})
	if len(battles) != 1 {
		t.Fatalf("active battle count = %d, want 1", len(battles))
	}
	if battle, _ := battles[0].(map[string]interface{}); battle["title"] != "Fizzbuzz sprint" {
		t.Errorf("active battle = %v, want the open battle", battles[0])
	}
}

func TestLeaderboardIsPublicSafe(t *testing.T) {
	app := newTestApp(t)
	registerUser(t, app, "champ")

	req := httptest.NewRequest("GET", "/api/leaderboard", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("leaderboard status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(raw, []byte(`"username":"champ"`)) {
		t.Errorf("leaderboard missing registered user: %s", raw)
	}
	// Unauthenticated endpoint, so account emails must never appear.
	for _, leak := range []string{"champ@example.com", `"email"`} {
		if bytes.Contains(raw, []byte(leak)) {
			t.Errorf("leaderboard exposes %s: %s", leak, raw)
		}
	}
}

func TestSitemapAndRobots(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/sitemap.xml", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("sitemap: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("sitemap status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(raw, []byte("<urlset")) || !bytes.Contains(raw, []byte("https://devarena.test/feed")) {
		t.Errorf("sitemap body missing expected entries: %s", raw)
	}

	req = httptest.NewRequest("GET", "/robots.txt", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("robots: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	if !bytes.Contains(raw, []byte("Sitemap: https://devarena.test/sitemap.xml")) {
		t.Errorf("robots body = %s", raw)
	}
}

func TestModerationFlow(t *testing.T) {
	app := newTestApp(t)
	reporter := registerUser(t, app, "reporter")

	resp, body := doJSON(t, app, "POST", "/api/reports", reporter, map[string]string{
		"content_type": "post",
		"content_id":   "some-post-id",
		"reason":       "spam",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create report status = %d, body %v", resp.StatusCode, body)
	}

	// The admin list is closed to regular users but open to the admin token.
	resp, _ = doJSON(t, app, "GET", "/api/admin/reports", reporter, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("regular user admin access status = %d, want 403", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/admin/reports", nil)
	req.Header.Set("X-Admin-Token", "admin-secret")
	adminResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if adminResp.StatusCode != fiber.StatusOK {
		t.Errorf("admin token access status = %d, want 200", adminResp.StatusCode)
	}
	raw, _ := io.ReadAll(adminResp.Body)
	var listBody map[string]interface{}
	if err := json.Unmarshal(raw, &listBody); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if total, _ := listBody["total"].(float64); total != 1 {
		t.Errorf("report total = %v, want 1", listBody["total"])
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, "GET", "/api/health", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["db"] != "ok" {
		t.Errorf("health body = %v", body)
	}
}
