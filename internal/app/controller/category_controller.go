package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

// GET /api/v1/categories
func (ctrl *CategoryController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "list categories", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetBySlug returns the category and a page of its visible businesses.
// GET /api/v1/categories/:slug?page=&page_size=
func (ctrl *CategoryController) GetBySlug(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")
	listing, err := ctrl.categoryService.GetBySlug(c.Request.Context(), slug, queryInt(c, "page", 1), queryInt(c, "page_size", 0))
	if err != nil {
		respondError(c, log, err, "get category", map[string]interface{}{"slug": slug})
		return
	}
	c.JSON(http.StatusOK, listing)
}
