package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/internal/websocket"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	bizredis "github.com/ikkim/bizdirectory-backend/pkg/redis"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "controller-test-secret"

type capturingNotifier struct {
	mu       sync.Mutex
	payloads map[notify.Event]map[string]string
}

func (n *capturingNotifier) Send(_ context.Context, event notify.Event, _ string, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.payloads == nil {
		n.payloads = map[notify.Event]map[string]string{}
	}
	n.payloads[event] = payload
	return nil
}

func (n *capturingNotifier) token(event notify.Event) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payloads[event]["token"]
}

// testAPI wires real services over an in-memory database onto a bare gin
// engine with the same middleware the router uses.
type testAPI struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	auth     *middleware.AuthMiddleware
	notifier *capturingNotifier
	hub      *websocket.Hub

	authCtrl         *AuthController
	businessCtrl     *BusinessController
	categoryCtrl     *CategoryController
	intakeCtrl       *IntakeController
	subscriptionCtrl *SubscriptionController
	adminCtrl        *AdminController
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	store := bizredis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	userRepo := repository.NewUserRepository(testDB)
	tokenRepo := repository.NewUserTokenRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	claimRepo := repository.NewClaimRepository(testDB)
	registrationRepo := repository.NewRegistrationRepository(testDB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	activityRepo := repository.NewActivityRepository(testDB)

	notifier := &capturingNotifier{}
	hub := websocket.NewHub()
	timeout := 5 * time.Second

	authService := service.NewAuthService(userRepo, tokenRepo, notifier, store, testJWTSecret, 15*time.Minute, time.Hour)
	resetService := service.NewPasswordResetService(userRepo, tokenRepo, notifier)
	categoryService := service.NewCategoryService(categoryRepo, businessRepo, store)
	businessService := service.NewBusinessService(testDB, businessRepo, userRepo, activityRepo, hub, timeout)
	intakeService := service.NewIntakeService(testDB, registrationRepo, claimRepo, businessRepo, userRepo, activityRepo, hub, timeout)
	reconciliationService := service.NewReconciliationService(testDB, categoryService, businessRepo, claimRepo, registrationRepo, userRepo, activityRepo, hub, notifier, timeout)
	subscriptionService := service.NewSubscriptionService(testDB, subscriptionRepo, businessRepo, activityRepo, hub, timeout)
	adminService := service.NewAdminService(testDB, userRepo, businessRepo, intakeService, activityRepo, hub, timeout)
	activityService := service.NewActivityService(activityRepo)

	api := &testAPI{
		t:        t,
		db:       testDB,
		router:   gin.New(),
		auth:     middleware.NewAuthMiddleware(testJWTSecret, store),
		notifier: notifier,
		hub:      hub,

		authCtrl:         NewAuthController(authService, resetService),
		businessCtrl:     NewBusinessController(businessService),
		categoryCtrl:     NewCategoryController(categoryService),
		intakeCtrl:       NewIntakeController(intakeService),
		subscriptionCtrl: NewSubscriptionController(subscriptionService),
		adminCtrl:        NewAdminController(adminService, intakeService, reconciliationService, businessService, activityService, hub, websocket.NewUpgrader([]string{"*"})),
	}
	api.router.Use(middleware.LoggingMiddleware())
	return api
}

func (api *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	api.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(api.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func (api *testAPI) createUser(username string, role model.UserRole) (*model.User, string) {
	api.t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(api.t, err)

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}
	require.NoError(api.t, api.db.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(api.t, err)
	return user, tokens.AccessToken
}

func (api *testAPI) createBusiness(name string, ownerID *uint, status model.BusinessStatus) *model.Business {
	api.t.Helper()
	var count int64
	require.NoError(api.t, api.db.Model(&model.Business{}).Count(&count).Error)

	business := &model.Business{
		Name:        name,
		Slug:        service.Slugify(name) + "-" + strconv.FormatInt(count+1, 10),
		OwnerID:     ownerID,
		PhoneNumber: "0801 234 5678",
		Status:      status,
	}
	require.NoError(api.t, api.db.Omit("Categories", "Owner").Create(business).Error)
	return business
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
