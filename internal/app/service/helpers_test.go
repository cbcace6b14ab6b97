package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testTxTimeout = 5 * time.Second

var anonymous = model.ActorContext{}

type sentMessage struct {
	Event     notify.Event
	Recipient string
	Payload   map[string]string
}

// recordingNotifier keeps every message instead of sending it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, event notify.Event, recipient string, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{Event: event, Recipient: recipient, Payload: payload})
	return nil
}

func (n *recordingNotifier) last(event notify.Event) (sentMessage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Event == event {
			return n.sent[i], true
		}
	}
	return sentMessage{}, false
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []model.AdminActivity
}

func (p *recordingPublisher) Publish(activity model.AdminActivity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, activity)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]string, 0, len(p.activities))
	for _, a := range p.activities {
		actions = append(actions, a.Action)
	}
	return actions
}

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db        *gorm.DB
	notifier  *recordingNotifier
	publisher *recordingPublisher

	users         repository.UserRepository
	tokens        repository.UserTokenRepository
	categoryRepo  repository.CategoryRepository
	businesses    repository.BusinessRepository
	claims        repository.ClaimRepository
	registrations repository.RegistrationRepository
	subsRepo      repository.SubscriptionRepository
	activityRepo  repository.ActivityRepository

	categories     CategoryService
	business       BusinessService
	intake         IntakeService
	reconciliation ReconciliationService
	subscriptions  SubscriptionService
	admin          AdminService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCache(t, nil)
}

func newTestEnvWithCache(t *testing.T, cache Cache) *testEnv {
	t.Helper()
	testDB := setupTestDB(t)

	env := &testEnv{
		db:            testDB,
		notifier:      &recordingNotifier{},
		publisher:     &recordingPublisher{},
		users:         repository.NewUserRepository(testDB),
		tokens:        repository.NewUserTokenRepository(testDB),
		categoryRepo:  repository.NewCategoryRepository(testDB),
		businesses:    repository.NewBusinessRepository(testDB),
		claims:        repository.NewClaimRepository(testDB),
		registrations: repository.NewRegistrationRepository(testDB),
		subsRepo:      repository.NewSubscriptionRepository(testDB),
		activityRepo:  repository.NewActivityRepository(testDB),
	}
	env.categories = NewCategoryService(env.categoryRepo, env.businesses, cache)
	env.business = NewBusinessService(testDB, env.businesses, env.users, env.activityRepo, env.publisher, testTxTimeout)
	env.intake = NewIntakeService(testDB, env.registrations, env.claims, env.businesses, env.users, env.activityRepo, env.publisher, testTxTimeout)
	env.reconciliation = NewReconciliationService(testDB, env.categories, env.businesses, env.claims, env.registrations, env.users, env.activityRepo, env.publisher, env.notifier, testTxTimeout)
	env.subscriptions = NewSubscriptionService(testDB, env.subsRepo, env.businesses, env.activityRepo, env.publisher, testTxTimeout)
	env.admin = NewAdminService(testDB, env.users, env.businesses, env.intake, env.activityRepo, env.publisher, testTxTimeout)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createAdmin(t *testing.T) model.ActorContext {
	t.Helper()
	admin := e.createUser(t, fmt.Sprintf("admin%d", nextSeq()), model.RoleAdmin)
	return model.ActorContext{UserID: admin.ID, Role: model.RoleAdmin}
}

func (e *testEnv) createBusiness(t *testing.T, name string, mutate func(b *model.Business)) *model.Business {
	t.Helper()
	business := &model.Business{
		Name:   name,
		Slug:   fmt.Sprintf("%s-%d", Slugify(name), nextSeq()),
		Status: model.StatusActive,
	}
	if mutate != nil {
		mutate(business)
	}
	require.NoError(t, e.db.Omit("Categories", "Owner").Create(business).Error)
	return business
}

func (e *testEnv) reloadBusiness(t *testing.T, id uint) model.Business {
	t.Helper()
	var business model.Business
	require.NoError(t, e.db.First(&business, id).Error)
	return business
}

func (e *testEnv) count(t *testing.T, table string, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := e.db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func actorFor(user *model.User) model.ActorContext {
	return model.ActorContext{UserID: user.ID, Role: user.Role}
}

func strPtr(s string) *string { return &s }

func kindPtr(k model.MediaKind) *model.MediaKind { return &k }

var (
	seqMu sync.Mutex
	seq   int
)

func nextSeq() int {
	seqMu.Lock()
	defer seqMu.Unlock()
	seq++
	return seq
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
