package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
)

type BusinessController struct {
	businessService service.BusinessService
}

func NewBusinessController(businessService service.BusinessService) *BusinessController {
	return &BusinessController{businessService: businessService}
}

type UpdateBusinessRequest struct {
	Name        *string `json:"name"`
	ShopNo      *string `json:"shop_no"`
	BlockNum    *string `json:"block_num"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Description *string `json:"description"`
}

type UpdateMediaRequest struct {
	MediaURL   *string          `json:"media_url"`
	MediaType  *model.MediaKind `json:"media_type"`
	MediaURL2  *string          `json:"media_url_2"`
	MediaType2 *model.MediaKind `json:"media_type_2"`
}

type SetStatusRequest struct {
	Status model.BusinessStatus `json:"status" binding:"required"`
}

// List returns active businesses, optionally filtered.
// GET /api/v1/businesses?search=&category=&page=&page_size=
func (ctrl *BusinessController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.BusinessListOptions{
		Search:       c.Query("search"),
		CategorySlug: c.Query("category"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 0),
	}

	result, err := ctrl.businessService.ListPublic(c.Request.Context(), opts)
	if err != nil {
		respondError(c, log, err, "list businesses", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GET /api/v1/businesses/:id
func (ctrl *BusinessController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, err := ctrl.businessService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err, "get business", map[string]interface{}{"business_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// GET /api/v1/businesses/slug/:slug
func (ctrl *BusinessController) GetBySlug(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")
	business, err := ctrl.businessService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		respondError(c, log, err, "get business", map[string]interface{}{"slug": slug})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// ListMine returns the caller's own listings in any status.
// GET /api/v1/me/businesses
func (ctrl *BusinessController) ListMine(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	businesses, err := ctrl.businessService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err, "list own businesses", map[string]interface{}{"user_id": userID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": businesses})
}

// PUT /api/v1/businesses/:id
func (ctrl *BusinessController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.GetActor(c)
	business, err := ctrl.businessService.Update(c.Request.Context(), actor, id, service.BusinessMutation{
		Name:        req.Name,
		ShopNo:      req.ShopNo,
		BlockNum:    req.BlockNum,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, log, err, "update business", map[string]interface{}{
			"business_id": id,
			"user_id":     actor.UserID,
		})
		return
	}

	log.Info("Business updated", map[string]interface{}{
		"business_id": id,
		"user_id":     actor.UserID,
	})
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// PUT /api/v1/businesses/:id/media
func (ctrl *BusinessController) UpdateMedia(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateMediaRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.GetActor(c)
	business, err := ctrl.businessService.UpdateMedia(c.Request.Context(), actor, id, service.MediaInput{
		MediaURL:   req.MediaURL,
		MediaType:  req.MediaType,
		MediaURL2:  req.MediaURL2,
		MediaType2: req.MediaType2,
	})
	if err != nil {
		respondError(c, log, err, "update media", map[string]interface{}{
			"business_id": id,
			"user_id":     actor.UserID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// PUT /api/v1/businesses/:id/status
func (ctrl *BusinessController) SetStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.GetActor(c)
	business, err := ctrl.businessService.SetStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondError(c, log, err, "set business status", map[string]interface{}{
			"business_id": id,
			"status":      req.Status,
		})
		return
	}

	log.Info("Business status changed", map[string]interface{}{
		"business_id": id,
		"status":      business.Status,
	})
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// DELETE /api/v1/businesses/:id
func (ctrl *BusinessController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor := middleware.GetActor(c)
	if err := ctrl.businessService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, log, err, "delete business", map[string]interface{}{"business_id": id})
		return
	}

	log.Info("Business deleted", map[string]interface{}{
		"business_id": id,
		"user_id":     actor.UserID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Business deleted"})
}
