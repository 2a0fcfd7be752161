package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"careerlaunch_api/internal/apperrors"
	"careerlaunch_api/internal/models"
	"careerlaunch_api/internal/services"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogHandler serves the read-only mentor and project listings the
// payment flow's clients browse before initiating an order. Listings
// are cached in Redis; the cache may be nil.
type CatalogHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewCatalogHandler(db *gorm.DB, cache *services.RedisCache) *CatalogHandler {
	return &CatalogHandler{db: db, cache: cache}
}

// ListMentors handles GET /api/mentors.
func (h *CatalogHandler) ListMentors(c echo.Context) error {
	mentors, err := services.GetOrSet(h.cache, c.Request().Context(), "catalog:mentors", catalogCacheTTL,
		func() ([]models.Mentor, error) {
			var out []models.Mentor
			err := h.db.Order("rating desc").Find(&out).Error
			return out, err
		})
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch mentors", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"mentors": mentors,
	})
}

// GetMentor handles GET /api/mentors/:id.
func (h *CatalogHandler) GetMentor(c echo.Context) error {
	var mentor models.Mentor
	if err := h.db.First(&mentor, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.KindNotFound, "Mentor not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch mentor", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"mentor":  mentor,
	})
}

// ListProjects handles GET /api/projects.
func (h *CatalogHandler) ListProjects(c echo.Context) error {
	projects, err := services.GetOrSet(h.cache, c.Request().Context(), "catalog:projects", catalogCacheTTL,
		func() ([]models.Project, error) {
			var out []models.Project
			err := h.db.Order("stars desc").Find(&out).Error
			return out, err
		})
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch projects", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"projects": projects,
	})
}

// GetProject handles GET /api/projects/:id.
func (h *CatalogHandler) GetProject(c echo.Context) error {
	var project models.Project
	if err := h.db.First(&project, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.KindNotFound, "Project not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch project", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"project": project,
	})
}
