package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/controller"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/internal/router"
	"github.com/ikkim/bizdirectory-backend/internal/storage"
	"github.com/ikkim/bizdirectory-backend/internal/websocket"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret        = "integration-secret"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

type mailbox struct {
	mu     sync.Mutex
	tokens map[notify.Event]string
}

func (m *mailbox) Send(_ context.Context, event notify.Event, _ string, payload map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[notify.Event]string{}
	}
	m.tokens[event] = payload["token"]
	return nil
}

func (m *mailbox) token(event notify.Event) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[event]
}

type TestServer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	Mailbox *mailbox
}

// setupIntegrationTest builds the production router without Redis or S3.
func setupIntegrationTest(t *testing.T, ping router.Pinger) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	require.NoError(t, db.SeedAdmin(testDB, config.AdminSeedConfig{Email: testAdminEmail, Password: testAdminPassword}))

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Upload: config.UploadConfig{Dir: t.TempDir(), BaseURL: "/uploads", MaxBytes: 1 << 20},
	}

	userRepo := repository.NewUserRepository(testDB)
	tokenRepo := repository.NewUserTokenRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	claimRepo := repository.NewClaimRepository(testDB)
	registrationRepo := repository.NewRegistrationRepository(testDB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	activityRepo := repository.NewActivityRepository(testDB)

	box := &mailbox{}
	hub := websocket.NewHub()
	timeout := 5 * time.Second

	authService := service.NewAuthService(userRepo, tokenRepo, box, nil, testSecret, 15*time.Minute, time.Hour)
	resetService := service.NewPasswordResetService(userRepo, tokenRepo, box)
	categoryService := service.NewCategoryService(categoryRepo, businessRepo, nil)
	businessService := service.NewBusinessService(testDB, businessRepo, userRepo, activityRepo, hub, timeout)
	intakeService := service.NewIntakeService(testDB, registrationRepo, claimRepo, businessRepo, userRepo, activityRepo, hub, timeout)
	reconciliationService := service.NewReconciliationService(testDB, categoryService, businessRepo, claimRepo, registrationRepo, userRepo, activityRepo, hub, box, timeout)
	subscriptionService := service.NewSubscriptionService(testDB, subscriptionRepo, businessRepo, activityRepo, hub, timeout)
	adminService := service.NewAdminService(testDB, userRepo, businessRepo, intakeService, activityRepo, hub, timeout)

	local, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL)
	require.NoError(t, err)

	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService, resetService),
		Business:     controller.NewBusinessController(businessService),
		Category:     controller.NewCategoryController(categoryService),
		Intake:       controller.NewIntakeController(intakeService),
		Subscription: controller.NewSubscriptionController(subscriptionService),
		Admin: controller.NewAdminController(adminService, intakeService, reconciliationService, businessService,
			service.NewActivityService(activityRepo), hub, websocket.NewUpgrader(cfg.CORS.AllowedOrigins)),
		Upload: controller.NewUploadController(local, nil, cfg.Upload.MaxBytes),
	}

	r := router.NewRouter(controllers, middleware.NewAuthMiddleware(testSecret, nil), cfg, ping)
	return &TestServer{Router: r.Setup(), DB: testDB, Mailbox: box}
}

func (s *TestServer) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (s *TestServer) login(t *testing.T, login, password string) string {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"login": login, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := decodeBody(t, w)["tokens"].(map[string]interface{})
	return tokens["access_token"].(string)
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	server := setupIntegrationTest(t, func(context.Context) error { return nil })

	w := server.request(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])

	w = server.request(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bizdirectory_http_requests_total")
}

func TestIntegration_HealthReportsUnreachableDatabase(t *testing.T) {
	server := setupIntegrationTest(t, func(context.Context) error { return errors.New("connection refused") })

	w := server.request(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIntegration_RegisterVerifyClaimApprove(t *testing.T) {
	server := setupIntegrationTest(t, nil)

	business := &model.Business{Name: "Iya Basira Kitchen", Slug: "iya-basira-kitchen", Status: model.StatusActive}
	require.NoError(t, server.DB.Omit("Categories", "Owner").Create(business).Error)
	businessPath := "/api/v1/businesses/" + strconv.FormatUint(uint64(business.ID), 10)

	w := server.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "tunde_eats",
		"email":    "tunde@example.com",
		"password": "supersecret",
		"name":     "Tunde",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = server.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"login": "tunde_eats", "password": "supersecret"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	verifyToken := server.Mailbox.token(notify.EventVerifyEmail)
	require.NotEmpty(t, verifyToken)
	w = server.request(t, http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"token": verifyToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	userToken := server.login(t, "tunde@example.com", "supersecret")

	w = server.request(t, http.MethodGet, "/api/v1/auth/me", nil, userToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodPost, businessPath+"/claims", map[string]string{"category": "  restaurants "}, userToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	claimID := strconv.FormatFloat(decodeBody(t, w)["id"].(float64), 'f', 0, 64)

	w = server.request(t, http.MethodPost, "/api/v1/admin/claims/"+claimID+"/approve", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := server.login(t, testAdminEmail, testAdminPassword)
	w = server.request(t, http.MethodPost, "/api/v1/admin/claims/"+claimID+"/approve", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = server.request(t, http.MethodGet, "/api/v1/me/businesses", nil, userToken)
	require.Equal(t, http.StatusOK, w.Code)
	owned := decodeBody(t, w)["businesses"].([]interface{})
	require.Len(t, owned, 1)
	assert.Equal(t, "Iya Basira Kitchen", owned[0].(map[string]interface{})["name"])

	w = server.request(t, http.MethodGet, "/api/v1/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "restaurants")

	// Without a subscription the owner cannot attach media.
	w = server.request(t, http.MethodPut, businessPath+"/media", map[string]string{
		"media_url":  "/uploads/media/a.png",
		"media_type": "image",
	}, userToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BUSINESS_SUBSCRIPTION_REQUIRED", decodeBody(t, w)["error"])

	// Logout without Redis still succeeds.
	w = server.request(t, http.MethodPost, "/api/v1/auth/logout", nil, userToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIntegration_PresignWithoutS3(t *testing.T) {
	server := setupIntegrationTest(t, nil)
	adminToken := server.login(t, testAdminEmail, testAdminPassword)

	w := server.request(t, http.MethodPost, "/api/v1/uploads/presigned-url", map[string]string{"filename": "a.png"}, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
