package controller

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminRoutes(t *testing.T) *testAPI {
	api := newTestAPI(t)
	v1 := api.router.Group("/api/v1")
	v1.POST("/registrations/users", api.intakeCtrl.SubmitUserRegistration)
	v1.POST("/registrations/businesses", api.auth.OptionalAuthenticate(), api.intakeCtrl.SubmitBusinessRegistration)
	v1.POST("/businesses/:id/claims", api.auth.Authenticate(), api.intakeCtrl.SubmitClaim)

	admin := v1.Group("/admin", api.auth.Authenticate(), api.auth.RequireRole(model.RoleAdmin))
	admin.GET("/stats", api.adminCtrl.Stats)
	admin.GET("/requests/:kind", api.adminCtrl.ListRequests)
	admin.POST("/requests/:kind/:id/processed", api.adminCtrl.MarkProcessed)
	admin.POST("/requests/:kind/:id/reject", api.adminCtrl.Reject)
	admin.POST("/claims/:id/approve", api.adminCtrl.ApproveClaim)
	admin.POST("/registrations/businesses/:id/process", api.adminCtrl.ProcessBusinessRegistration)
	admin.POST("/registrations/users/:id/process", api.adminCtrl.ProcessUserRegistration)
	admin.GET("/businesses", api.adminCtrl.ListBusinesses)
	admin.PUT("/businesses/:id/owner", api.adminCtrl.AssignOwner)
	admin.POST("/businesses/:id/verify", api.adminCtrl.Verify)
	admin.DELETE("/businesses/:id/subscription", api.subscriptionCtrl.Cancel)
	admin.GET("/users", api.adminCtrl.ListUsers)
	admin.PUT("/users/:id", api.adminCtrl.UpdateUser)
	admin.DELETE("/users/:id", api.adminCtrl.DeleteUser)
	admin.GET("/activities", api.adminCtrl.ListActivities)
	return api
}

func idOf(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	id, ok := body["id"].(float64)
	require.True(t, ok, "response has no id: %v", body)
	return strconv.FormatUint(uint64(id), 10)
}

func TestAdminController_ClaimApproval(t *testing.T) {
	api := setupAdminRoutes(t)
	claimant, claimantToken := api.createUser("claimant", model.RoleUser)
	_, adminToken := api.createUser("boss", model.RoleAdmin)
	business := api.createBusiness("Bukka Hut", nil, model.StatusPending)
	claimsPath := "/api/v1/businesses/" + strconv.FormatUint(uint64(business.ID), 10) + "/claims"

	w := api.do(http.MethodPost, claimsPath, ClaimRequest{Category: "Restaurants"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, claimsPath, ClaimRequest{Category: "Restaurants", PhoneNumber: "0803 000 1111"}, claimantToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	claimID := idOf(t, decode(t, w))

	w = api.do(http.MethodPost, claimsPath, ClaimRequest{Category: "Restaurants"}, claimantToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/claims/"+claimID+"/approve", nil, claimantToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/api/v1/admin/requests/claim", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["claims"], 1)

	w = api.do(http.MethodPost, "/api/v1/admin/claims/"+claimID+"/approve", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body["already_reviewed"])
	approved := body["business"].(map[string]interface{})
	assert.Equal(t, float64(claimant.ID), approved["owner_id"])
	assert.Equal(t, "Restaurants", approved["category"])

	w = api.do(http.MethodPost, "/api/v1/admin/claims/"+claimID+"/approve", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["already_reviewed"])

	w = api.do(http.MethodPost, "/api/v1/admin/claims/9999/approve", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/admin/activities", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	activities := decode(t, w)["activities"].([]interface{})
	require.NotEmpty(t, activities)
	assert.Equal(t, model.ActionApproveClaim, activities[0].(map[string]interface{})["action"])
}

func TestAdminController_RegistrationQueues(t *testing.T) {
	api := setupAdminRoutes(t)
	_, adminToken := api.createUser("boss", model.RoleAdmin)

	w := api.do(http.MethodPost, "/api/v1/registrations/businesses", BusinessRegistrationRequest{
		BusinessName: "Tailor Joe",
		PhoneNumber:  "0809 555 0000",
		Category:     "Fashion",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	businessReqID := idOf(t, decode(t, w))

	w = api.do(http.MethodPost, "/api/v1/registrations/users", UserRegistrationRequest{
		Username: "newbie",
		Email:    "newbie@example.com",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userReqID := idOf(t, decode(t, w))

	w = api.do(http.MethodGet, "/api/v1/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode(t, w)["pending"].(map[string]interface{})
	assert.Equal(t, float64(1), pending["business_registrations"])
	assert.Equal(t, float64(1), pending["user_registrations"])

	w = api.do(http.MethodGet, "/api/v1/admin/requests/payments", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/registrations/businesses/"+businessReqID+"/process", ProcessRegistrationRequest{Status: model.StatusActive}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	business := decode(t, w)["business"].(map[string]interface{})
	assert.Equal(t, "Tailor Joe", business["name"])
	assert.Equal(t, "active", business["status"])

	w = api.do(http.MethodPost, "/api/v1/admin/registrations/businesses/"+businessReqID+"/process", nil, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/requests/user/"+userReqID+"/reject", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["changed"])

	w = api.do(http.MethodPost, "/api/v1/admin/requests/user/"+userReqID+"/processed", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["changed"])

	w = api.do(http.MethodPost, "/api/v1/admin/registrations/users/"+userReqID+"/process", nil, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminController_UsersAndOwnership(t *testing.T) {
	api := setupAdminRoutes(t)
	admin, adminToken := api.createUser("boss", model.RoleAdmin)
	owner, _ := api.createUser("shopkeeper", model.RoleUser)
	business := api.createBusiness("Fabric Palace", nil, model.StatusActive)
	businessPath := "/api/v1/admin/businesses/" + strconv.FormatUint(uint64(business.ID), 10)
	ownerPath := "/api/v1/admin/users/" + strconv.FormatUint(uint64(owner.ID), 10)

	w := api.do(http.MethodPut, businessPath+"/owner", AssignOwnerRequest{OwnerID: owner.ID}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(owner.ID), decode(t, w)["business"].(map[string]interface{})["owner_id"])

	w = api.do(http.MethodPost, businessPath+"/verify", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["business"].(map[string]interface{})["is_verified"])

	w = api.do(http.MethodGet, "/api/v1/admin/users?search=shop", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	suspended := true
	w = api.do(http.MethodPut, ownerPath, UpdateUserRequest{Suspended: &suspended}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shopkeeper", decode(t, w)["user"].(map[string]interface{})["username"])

	badRole := model.UserRole("superuser")
	w = api.do(http.MethodPut, ownerPath, UpdateUserRequest{Role: &badRole}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, ownerPath, nil, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_OWNS_BUSINESS", decode(t, w)["error"])

	w = api.do(http.MethodDelete, "/api/v1/admin/users/"+strconv.FormatUint(uint64(admin.ID), 10)+"0", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminController_ListBusinessesByStatus(t *testing.T) {
	api := setupAdminRoutes(t)
	_, adminToken := api.createUser("admin", model.RoleAdmin)
	_, userToken := api.createUser("visitor", model.RoleUser)
	api.createBusiness("Open Kitchen", nil, model.StatusActive)
	pending := api.createBusiness("New Salon", nil, model.StatusPending)
	api.createBusiness("Paused Tailor", nil, model.StatusSuspended)
	api.createBusiness("Closed Bar", nil, model.StatusDeleted)

	w := api.do(http.MethodGet, "/api/v1/admin/businesses?status=pending", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])
	listed := body["businesses"].([]interface{})
	require.Len(t, listed, 1)
	assert.Equal(t, pending.Slug, listed[0].(map[string]interface{})["slug"])

	w = api.do(http.MethodGet, "/api/v1/admin/businesses?status=deleted", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = api.do(http.MethodGet, "/api/v1/admin/businesses", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["total"])

	w = api.do(http.MethodGet, "/api/v1/admin/businesses?status=closed", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_STATUS", decode(t, w)["error"])

	w = api.do(http.MethodGet, "/api/v1/admin/businesses?status=pending", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
