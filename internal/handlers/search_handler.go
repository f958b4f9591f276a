package handlers

import (
	"strings"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/search"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	searchService *search.Service
}

func NewSearchHandler(s *search.Service) *SearchHandler {
	return &SearchHandler{searchService: s}
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.JSON(fiber.Map{"results": []dto.SearchResultResponse{}, "query": query})
	}

	limit := c.QueryInt("limit", 0)
	results, err := h.searchService.Search(query, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Search failed")
	}

	out := make([]dto.SearchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, dto.SearchResultResponse{
			PostResponse: services.PostToResponse(&r.Post, 0, 0),
			SearchScore:  r.Score,
		})
	}
	return c.JSON(fiber.Map{"results": out, "query": query})
}
