package handlers

import (
	"encoding/xml"
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SiteHandler struct {
	db          *gorm.DB
	authService *services.AuthService
	cfg         *config.Config
}

func NewSiteHandler(db *gorm.DB, auth *services.AuthService, cfg *config.Config) *SiteHandler {
	return &SiteHandler{db: db, authService: auth, cfg: cfg}
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap lists the static pages plus every public post and battle by slug.
func (h *SiteHandler) Sitemap(c *fiber.Ctx) error {
	base := h.cfg.BaseURL

	set := sitemapSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: base + "/"},
			{Loc: base + "/feed"},
			{Loc: base + "/battles"},
			{Loc: base + "/leaderboard"},
			{Loc: base + "/privacy"},
			{Loc: base + "/terms"},
		},
	}

	var posts []models.Post
	if err := h.db.Select("slug, id, created_at").
		Where("visibility = ?", models.VisibilityPublic).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to build sitemap")
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + "/posts/" + p.ID.String() + "/" + p.Slug,
			LastMod: p.CreatedAt.Format("2006-01-02"),
		})
	}

	var battles []models.Battle
	if err := h.db.Select("slug, id, created_at").
		Where("visibility = ?", models.VisibilityPublic).
		Order("created_at DESC").
		Find(&battles).Error; err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to build sitemap")
	}
	for _, b := range battles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + "/battles/" + b.ID.String() + "/" + b.Slug,
			LastMod: b.CreatedAt.Format("2006-01-02"),
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to build sitemap")
	}

	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.SendString(xml.Header + string(out))
}

func (h *SiteHandler) Robots(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString("User-agent: *\nAllow: /\nDisallow: /api/\nSitemap: " + h.cfg.BaseURL + "/sitemap.xml\n")
}

// Unsubscribe handles one-click links from the daily prompt email. GET shows
// a confirmation page so mail scanners that prefetch links do not opt users
// out; the form POST flips the flag.
func (h *SiteHandler) UnsubscribePage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html><head><title>Unsubscribe - DevArena</title></head><body>
<h1>Unsubscribe from daily prompts</h1>
<p>Click below to stop receiving the daily coding prompt email.</p>
<form method="POST"><button type="submit">Unsubscribe</button></form>
</body></html>`)
}

func (h *SiteHandler) Unsubscribe(c *fiber.Ctx) error {
	token := c.Params("token")
	if err := h.authService.Unsubscribe(token); err != nil {
		return badRequest(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html><head><title>Unsubscribed - DevArena</title></head><body>
<h1>You have been unsubscribed.</h1>
<p>You will no longer receive daily prompt emails.</p>
</body></html>`)
}

// Health reports process and database liveness.
func (h *SiteHandler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
