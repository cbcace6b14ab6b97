package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
)

// IntakeController accepts registration and claim submissions for admin
// review.
type IntakeController struct {
	intakeService service.IntakeService
}

func NewIntakeController(intakeService service.IntakeService) *IntakeController {
	return &IntakeController{intakeService: intakeService}
}

type BusinessRegistrationRequest struct {
	BusinessName  string   `json:"business_name" binding:"required"`
	ShopNo        string   `json:"shop_no"`
	BlockNum      string   `json:"block_num"`
	PhoneNumber   string   `json:"phone_number" binding:"required"`
	Email         string   `json:"email"`
	Description   string   `json:"description"`
	Category      string   `json:"category" binding:"required"`
	WebsiteURL    string   `json:"website_url"`
	SocialHandles []string `json:"social_handles"`
}

type UserRegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type ClaimRequest struct {
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
}

// SubmitBusinessRegistration queues a new listing; the submitter is kept
// when the caller is signed in.
// POST /api/v1/registrations/businesses
func (ctrl *IntakeController) SubmitBusinessRegistration(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BusinessRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	var submitter *model.ActorContext
	if actor := middleware.GetActor(c); actor.Authenticated() {
		submitter = &actor
	}

	id, err := ctrl.intakeService.SubmitBusinessRegistration(c.Request.Context(), submitter, service.BusinessRegistrationInput{
		BusinessName:  req.BusinessName,
		ShopNo:        req.ShopNo,
		BlockNum:      req.BlockNum,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		Description:   req.Description,
		Category:      req.Category,
		WebsiteURL:    req.WebsiteURL,
		SocialHandles: req.SocialHandles,
	})
	if err != nil {
		respondError(c, log, err, "submit business registration", map[string]interface{}{
			"business_name": req.BusinessName,
		})
		return
	}

	log.Info("Business registration submitted", map[string]interface{}{"request_id": id})
	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Registration submitted for review"})
}

// POST /api/v1/registrations/users
func (ctrl *IntakeController) SubmitUserRegistration(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UserRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := ctrl.intakeService.SubmitUserRegistration(c.Request.Context(), service.UserRegistrationInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, log, err, "submit user registration", map[string]interface{}{"email": req.Email})
		return
	}

	log.Info("User registration submitted", map[string]interface{}{"request_id": id})
	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Registration submitted for review"})
}

// POST /api/v1/businesses/:id/claims
func (ctrl *IntakeController) SubmitClaim(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.GetActor(c)
	id, err := ctrl.intakeService.SubmitClaim(c.Request.Context(), actor, businessID, service.ClaimInput{
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, log, err, "submit claim", map[string]interface{}{
			"business_id": businessID,
			"user_id":     actor.UserID,
		})
		return
	}

	log.Info("Claim submitted", map[string]interface{}{
		"claim_id":    id,
		"business_id": businessID,
	})
	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Claim submitted for review"})
}
