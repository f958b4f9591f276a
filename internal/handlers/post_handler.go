package handlers

import (
	"errors"
	"log/slog"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/middleware"
	"github.com/devarena/backend/internal/models"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	postService   *services.PostService
	feedService   *services.FeedService
	authService   *services.AuthService
	battleService *services.BattleService
}

func NewPostHandler(posts *services.PostService, feed *services.FeedService, auth *services.AuthService, battles *services.BattleService) *PostHandler {
	return &PostHandler{postService: posts, feedService: feed, authService: auth, battleService: battles}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.postService.CreatePost(userID, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	slog.Info("post created", "post_id", post.ID, "user_id", userID)
	return c.Status(fiber.StatusCreated).JSON(services.PostToResponse(post, 0, 0))
}

// Get returns a post with its reaction tally and comment thread. Unlisted
// posts resolve here too, they are only hidden from the feed and search.
func (h *PostHandler) Get(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	post, err := h.postService.GetPost(postID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "Post not found")
	}

	reactions, err := h.postService.ReactionCounts(postID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load reactions")
	}
	comments, err := h.postService.Comments(postID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load comments")
	}

	var total int64
	for _, n := range reactions {
		total += n
	}

	return c.JSON(fiber.Map{
		"post":      services.PostToResponse(post, total, int64(len(comments))),
		"reactions": reactions,
		"comments":  comments,
	})
}

func (h *PostHandler) React(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	var req dto.ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.postService.ToggleReaction(userID, postID, req.Emoji)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrEmojiRequired):
			return badRequest(c, err.Error())
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to toggle reaction")
		}
	}
	return c.JSON(resp)
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.postService.AddComment(userID, postID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrEmptyComment):
			return badRequest(c, err.Error())
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to add comment")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	if err := h.postService.DeletePost(actor, postID); err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrNotAuthor):
			return errorJSON(c, fiber.StatusForbidden, "You can only delete your own posts")
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete post")
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *PostHandler) DeleteComment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	commentID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid comment id")
	}

	remaining, err := h.postService.DeleteComment(actor, commentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrNotAuthor):
			return errorJSON(c, fiber.StatusForbidden, "You can only delete your own comments")
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete comment")
		}
	}
	return c.JSON(fiber.Map{"success": true, "comments_count": remaining})
}

// Feed serves the public post list, defaulting to the recommended ordering.
// Auth is optional: anonymous viewers get the same latest/top ordering, and
// recommended just skips the personal signals. The response also carries the
// sidebar list of battles still in play.
func (h *PostHandler) Feed(c *fiber.Ctx) error {
	viewerID := middleware.OptionalUserID(c)
	sortMode := c.Query("sort", services.SortRecommended)

	posts, err := h.feedService.GetFeed(viewerID, sortMode)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load feed")
	}

	activeBattles, err := h.battleService.ActiveBattles(5)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load active battles")
	}

	return c.JSON(fiber.Map{
		"posts":          posts,
		"sort":           sortMode,
		"active_battles": activeBattles,
	})
}

func (h *PostHandler) actor(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.UserID(c)
	if err != nil {
		return nil, err
	}
	return h.authService.GetUser(userID)
}
