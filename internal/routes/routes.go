package routes

import (
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/database"
	"github.com/devarena/backend/internal/handlers"
	"github.com/devarena/backend/internal/middleware"
	"github.com/devarena/backend/internal/search"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// Setup wires services, handlers and the route tree onto the app. rdb may be
// nil, the leaderboard then skips its cache.
func Setup(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	db := database.DB

	authService := services.NewAuthService(db, cfg)
	postService := services.NewPostService(db)
	feedService := services.NewFeedService(db, postService)
	battleService := services.NewBattleService(db)
	leaderboardService := services.NewLeaderboardService(db, rdb)
	moderationService := services.NewModerationService(db)
	searchService := search.NewService(db, search.NewIndex())

	authHandler := handlers.NewAuthHandler(authService, cfg)
	postHandler := handlers.NewPostHandler(postService, feedService, authService, battleService)
	battleHandler := handlers.NewBattleHandler(battleService)
	searchHandler := handlers.NewSearchHandler(searchService)
	userHandler := handlers.NewUserHandler(db, postService, leaderboardService)
	siteHandler := handlers.NewSiteHandler(db, authService, cfg)
	legalHandler := handlers.NewLegalHandler()
	moderationHandler := handlers.NewModerationHandler(moderationService)

	jwtProtected := middleware.JWTProtected(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	// Root-level pages consumed by browsers and crawlers.
	app.Get("/sitemap.xml", siteHandler.Sitemap)
	app.Get("/robots.txt", siteHandler.Robots)
	app.Get("/privacy", legalHandler.Privacy)
	app.Get("/terms", legalHandler.Terms)
	app.Get("/unsubscribe/:token", siteHandler.UnsubscribePage)
	app.Post("/unsubscribe/:token", siteHandler.Unsubscribe)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	api.Get("/health", siteHandler.Health)

	// Credential endpoints get a tighter budget than the rest of the API.
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/google", authHandler.GoogleRedirect)
	auth.Get("/google/callback", authHandler.GoogleCallback)

	api.Get("/profile", jwtProtected, authHandler.Me)
	api.Put("/profile", jwtProtected, authHandler.UpdateProfile)
	api.Get("/users/:username", userHandler.Profile)
	api.Get("/leaderboard", userHandler.Leaderboard)

	api.Get("/feed", optionalAuth, postHandler.Feed)
	api.Get("/search", searchHandler.Search)

	posts := api.Group("/posts")
	posts.Post("/", jwtProtected, postHandler.Create)
	posts.Get("/:id", postHandler.Get)
	posts.Delete("/:id", jwtProtected, postHandler.Delete)
	posts.Post("/:id/react", jwtProtected, postHandler.React)
	posts.Post("/:id/comments", jwtProtected, postHandler.AddComment)
	api.Delete("/comments/:id", jwtProtected, postHandler.DeleteComment)

	battles := api.Group("/battles")
	battles.Get("/", optionalAuth, battleHandler.List)
	battles.Post("/", jwtProtected, battleHandler.Create)
	battles.Post("/:id/join", jwtProtected, battleHandler.Join)
	battles.Get("/:id/arena", jwtProtected, battleHandler.Arena)
	battles.Get("/:id/status", jwtProtected, battleHandler.Status)
	battles.Post("/:id/ready", jwtProtected, battleHandler.Ready)
	battles.Post("/:id/submit", jwtProtected, battleHandler.Submit)
	battles.Get("/:id/review", optionalAuth, battleHandler.Review)
	battles.Post("/:id/vote", jwtProtected, battleHandler.Vote)
	battles.Post("/:id/comments", jwtProtected, battleHandler.AddComment)

	api.Post("/reports", jwtProtected, moderationHandler.CreateReport)

	// Optional auth here: the admin gate itself accepts either a valid admin
	// user token or the X-Admin-Token header.
	admin := api.Group("/admin", optionalAuth, middleware.AdminRequired(cfg))
	admin.Get("/reports", moderationHandler.ListReports)
	admin.Post("/reports/:id/action", moderationHandler.ActionReport)
}
