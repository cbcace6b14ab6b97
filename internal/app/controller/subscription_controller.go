package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
)

type SubscriptionController struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionController(subscriptionService service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

type PlanRequest struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

// GET /api/v1/plans
func (ctrl *SubscriptionController) ListPlans(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	plans, err := ctrl.subscriptionService.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "list plans", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// GET /api/v1/businesses/:id/subscription
func (ctrl *SubscriptionController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sub, err := ctrl.subscriptionService.GetForBusiness(c.Request.Context(), middleware.GetActor(c), businessID)
	if err != nil {
		respondError(c, log, err, "get subscription", map[string]interface{}{"business_id": businessID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// Set confirms a subscription immediately.
// POST /api/v1/businesses/:id/subscription
func (ctrl *SubscriptionController) Set(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.GetActor(c)
	status, err := ctrl.subscriptionService.SetSubscription(c.Request.Context(), actor, businessID, req.PlanID)
	if err != nil {
		respondError(c, log, err, "set subscription", map[string]interface{}{
			"business_id": businessID,
			"plan_id":     req.PlanID,
		})
		return
	}

	log.Info("Subscription set", map[string]interface{}{
		"business_id": businessID,
		"plan_id":     req.PlanID,
		"user_id":     actor.UserID,
	})
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Request records a pending subscription for an admin to confirm.
// POST /api/v1/businesses/:id/subscription/request
func (ctrl *SubscriptionController) Request(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := ctrl.subscriptionService.RequestSubscription(c.Request.Context(), middleware.GetActor(c), businessID, req.PlanID)
	if err != nil {
		respondError(c, log, err, "request subscription", map[string]interface{}{
			"business_id": businessID,
			"plan_id":     req.PlanID,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// DELETE /api/v1/admin/businesses/:id/subscription
func (ctrl *SubscriptionController) Cancel(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.subscriptionService.CancelSubscription(c.Request.Context(), middleware.GetActor(c), businessID); err != nil {
		respondError(c, log, err, "cancel subscription", map[string]interface{}{"business_id": businessID})
		return
	}

	log.Info("Subscription cancelled", map[string]interface{}{"business_id": businessID})
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled"})
}
