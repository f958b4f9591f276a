package handlers

import (
	"github.com/devarena/backend/internal/models"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserHandler struct {
	db                 *gorm.DB
	postService        *services.PostService
	leaderboardService *services.LeaderboardService
}

func NewUserHandler(db *gorm.DB, posts *services.PostService, leaderboard *services.LeaderboardService) *UserHandler {
	return &UserHandler{db: db, postService: posts, leaderboardService: leaderboard}
}

// Profile is the public view of a user: stats plus their public posts.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	username := c.Params("username")

	var user models.User
	if err := h.db.First(&user, "username = ?", username).Error; err != nil {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}

	posts, err := h.postService.GetUserPosts(user.ID, true)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load posts")
	}

	return c.JSON(fiber.Map{
		"user":  publicProfile(&user),
		"posts": renderPosts(posts),
	})
}

func (h *UserHandler) Leaderboard(c *fiber.Ctx) error {
	top, err := h.leaderboardService.Top(c.Context())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load leaderboard")
	}
	return c.JSON(fiber.Map{"leaderboard": top})
}

// publicProfile strips the email so profile pages never expose it.
func publicProfile(user *models.User) fiber.Map {
	return fiber.Map{
		"id":            user.ID,
		"username":      user.Username,
		"image_file":    user.ImageFile,
		"avatar_letter": user.AvatarLetter(),
		"points":        user.Points,
		"rating":        user.Rating,
		"wins":          user.Wins,
		"losses":        user.Losses,
		"total_battles": user.TotalBattles,
	}
}

func renderPosts(posts []models.Post) []interface{} {
	out := make([]interface{}, 0, len(posts))
	for i := range posts {
		out = append(out, services.PostToResponse(&posts[i], 0, 0))
	}
	return out
}
