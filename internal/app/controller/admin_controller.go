package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/internal/websocket"
)

type AdminController struct {
	adminService          service.AdminService
	intakeService         service.IntakeService
	reconciliationService service.ReconciliationService
	businessService       service.BusinessService
	activityService       service.ActivityService
	hub                   *websocket.Hub
	upgrader              *gorillaws.Upgrader
}

func NewAdminController(
	adminService service.AdminService,
	intakeService service.IntakeService,
	reconciliationService service.ReconciliationService,
	businessService service.BusinessService,
	activityService service.ActivityService,
	hub *websocket.Hub,
	upgrader *gorillaws.Upgrader,
) *AdminController {
	return &AdminController{
		adminService:          adminService,
		intakeService:         intakeService,
		reconciliationService: reconciliationService,
		businessService:       businessService,
		activityService:       activityService,
		hub:                   hub,
		upgrader:              upgrader,
	}
}

type ProcessRegistrationRequest struct {
	BusinessName string               `json:"business_name"`
	Category     string               `json:"category"`
	Status       model.BusinessStatus `json:"status"`
}

type AssignOwnerRequest struct {
	OwnerID uint `json:"owner_id" binding:"required"`
}

type UpdateUserRequest struct {
	Role      *model.UserRole `json:"role"`
	Suspended *bool           `json:"suspended"`
}

// GET /api/v1/admin/stats
func (ctrl *AdminController) Stats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.adminService.DashboardStats(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, log, err, "load dashboard stats", nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/v1/admin/requests/:kind
func (ctrl *AdminController) ListRequests(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	kind := model.RequestKind(c.Param("kind"))
	pending, err := ctrl.intakeService.ListPending(c.Request.Context(), middleware.GetActor(c), kind)
	if err != nil {
		respondError(c, log, err, "list pending requests", map[string]interface{}{"kind": kind})
		return
	}
	c.JSON(http.StatusOK, pending)
}

// POST /api/v1/admin/requests/:kind/:id/processed
func (ctrl *AdminController) MarkProcessed(c *gin.Context) {
	ctrl.closeRequest(c, "mark request processed", ctrl.intakeService.MarkProcessed)
}

// POST /api/v1/admin/requests/:kind/:id/reject
func (ctrl *AdminController) Reject(c *gin.Context) {
	ctrl.closeRequest(c, "reject request", ctrl.intakeService.Reject)
}

type closeRequestFunc func(ctx context.Context, actor model.ActorContext, kind model.RequestKind, id uint) (bool, error)

func (ctrl *AdminController) closeRequest(c *gin.Context, action string, fn closeRequestFunc) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	kind := model.RequestKind(c.Param("kind"))
	actor := middleware.GetActor(c)

	changed, err := fn(c.Request.Context(), actor, kind, id)
	if err != nil {
		respondError(c, log, err, action, map[string]interface{}{
			"kind":       kind,
			"request_id": id,
		})
		return
	}

	log.Info("Request closed", map[string]interface{}{
		"kind":       kind,
		"request_id": id,
		"admin_id":   actor.UserID,
		"changed":    changed,
	})
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// ApproveClaim applies a claim. A second approval answers 200 with
// already_reviewed set.
// POST /api/v1/admin/claims/:id/approve
func (ctrl *AdminController) ApproveClaim(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor := middleware.GetActor(c)
	result, err := ctrl.reconciliationService.ApproveClaim(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, log, err, "approve claim", map[string]interface{}{
			"claim_id": id,
			"admin_id": actor.UserID,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/v1/admin/registrations/businesses/:id/process
func (ctrl *AdminController) ProcessBusinessRegistration(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProcessRegistrationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.reconciliationService.ProcessBusinessRegistration(c.Request.Context(), middleware.GetActor(c), id, service.RegistrationOverrides{
		BusinessName: req.BusinessName,
		Category:     req.Category,
		Status:       req.Status,
	})
	if err != nil {
		respondError(c, log, err, "process business registration", map[string]interface{}{"request_id": id})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// POST /api/v1/admin/registrations/users/:id/process
func (ctrl *AdminController) ProcessUserRegistration(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.reconciliationService.ProcessUserRegistration(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, log, err, "process user registration", map[string]interface{}{"request_id": id})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userResponse(user)})
}

// PUT /api/v1/admin/businesses/:id/owner
func (ctrl *AdminController) AssignOwner(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignOwnerRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.businessService.AssignOwner(c.Request.Context(), middleware.GetActor(c), id, req.OwnerID)
	if err != nil {
		respondError(c, log, err, "assign owner", map[string]interface{}{
			"business_id": id,
			"owner_id":    req.OwnerID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// POST /api/v1/admin/businesses/:id/verify
func (ctrl *AdminController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, err := ctrl.businessService.Verify(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, log, err, "verify business", map[string]interface{}{"business_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// GET /api/v1/admin/businesses
func (ctrl *AdminController) ListBusinesses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	status := model.BusinessStatus(c.Query("status"))
	result, err := ctrl.adminService.ListBusinesses(c.Request.Context(), middleware.GetActor(c), status, service.BusinessListOptions{
		Search:       c.Query("search"),
		CategorySlug: c.Query("category"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 0),
	})
	if err != nil {
		respondError(c, log, err, "list businesses", map[string]interface{}{"status": status})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/v1/admin/users?role=&search=&page=&page_size=
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	result, err := ctrl.adminService.ListUsers(c.Request.Context(), middleware.GetActor(c), repository.UserFilter{
		Role:     model.UserRole(c.Query("role")),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	})
	if err != nil {
		respondError(c, log, err, "list users", nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PUT /api/v1/admin/users/:id
func (ctrl *AdminController) UpdateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.adminService.UpdateUser(c.Request.Context(), middleware.GetActor(c), id, service.UserUpdate{
		Role:      req.Role,
		Suspended: req.Suspended,
	})
	if err != nil {
		respondError(c, log, err, "update user", map[string]interface{}{"user_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// DELETE /api/v1/admin/users/:id
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.adminService.DeleteUser(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, log, err, "delete user", map[string]interface{}{"user_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// GET /api/v1/admin/activities?limit=
func (ctrl *AdminController) ListActivities(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	activities, err := ctrl.activityService.ListRecent(c.Request.Context(), middleware.GetActor(c), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, log, err, "list activities", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// ActivityFeed streams new admin activity over a websocket. Browsers pass
// the access token as ?token= since they cannot set headers.
// GET /api/v1/admin/activities/ws
func (ctrl *AdminController) ActivityFeed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, _ := middleware.GetUserID(c)
	if err := ctrl.hub.Serve(ctrl.upgrader, c.Writer, c.Request, userID); err != nil {
		// The upgrader has already written the error response
		log.Warn("Failed to upgrade activity feed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	log.Info("Activity feed connected", map[string]interface{}{"user_id": userID})
}
