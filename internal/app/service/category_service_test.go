package service

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryService_ResolveOrCreate_ConcurrentCallersShareRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const callers = 8
	ids := make([]uint, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = env.categories.ResolveOrCreate(ctx, "Bakery")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), env.count(t, "categories", "name = ?", "Bakery"))
}

func TestCategoryService_ResolveOrCreate_NormalizesName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.categories.ResolveOrCreate(ctx, "  Home   Appliances ")
	require.NoError(t, err)
	second, err := env.categories.ResolveOrCreate(ctx, "home appliances")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	category, err := env.categoryRepo.FindByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Home Appliances", category.Name)
	assert.Equal(t, "home-appliances", category.Slug)
}

func TestCategoryService_ResolveOrCreate_EmptyName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.categories.ResolveOrCreate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrCategoryRequired)
	assert.Equal(t, int64(0), env.count(t, "categories", ""))
}

func TestCategoryService_ResolveOrCreate_SlugCollisionGetsSuffix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.categories.ResolveOrCreate(ctx, "Café")
	require.NoError(t, err)
	second, err := env.categories.ResolveOrCreate(ctx, "Caf")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	a, err := env.categoryRepo.FindByID(ctx, first)
	require.NoError(t, err)
	b, err := env.categoryRepo.FindByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "caf", a.Slug)
	assert.Equal(t, "caf-1", b.Slug)
}

// staleCategoryRepo misses the first lookup, as if another caller inserted
// the row right after it was read.
type staleCategoryRepo struct {
	repository.CategoryRepository
	misses int
}

func (r *staleCategoryRepo) FindByKey(ctx context.Context, key string) (*model.Category, error) {
	if r.misses > 0 {
		r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CategoryRepository.FindByKey(ctx, key)
}

func TestCategoryService_ResolveOrCreate_LostRaceResolvesExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	winner, err := env.categories.ResolveOrCreate(ctx, "Electronics")
	require.NoError(t, err)

	stale := &staleCategoryRepo{CategoryRepository: env.categoryRepo, misses: 1}
	svc := NewCategoryService(stale, env.businesses, nil)

	id, err := svc.ResolveOrCreate(ctx, "electronics")
	require.NoError(t, err)
	assert.Equal(t, winner, id)
	assert.Equal(t, int64(1), env.count(t, "categories", ""))
}

func TestCategoryService_ResolveOrCreate_GivesUpAfterRepeatedLosses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.categories.ResolveOrCreate(ctx, "Electronics")
	require.NoError(t, err)

	stale := &staleCategoryRepo{CategoryRepository: env.categoryRepo, misses: maxCategoryAttempts}
	svc := NewCategoryService(stale, env.businesses, nil)

	_, err = svc.ResolveOrCreate(ctx, "Electronics")
	assert.ErrorIs(t, err, ErrCategoryContention)
}

func TestCategoryService_ResolveOrCreateTx_RollsBackWithCaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tx := env.db.Begin()
	category, err := env.categories.ResolveOrCreateTx(ctx, tx, "Tailoring")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
	require.NoError(t, tx.Rollback().Error)

	assert.Equal(t, int64(0), env.count(t, "categories", ""))
}

func TestCategoryService_List_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	env := newTestEnvWithCache(t, store)
	ctx := context.Background()

	bakery, err := env.categories.ResolveOrCreate(ctx, "Bakery")
	require.NoError(t, err)
	business := env.createBusiness(t, "Bread House", nil)
	require.NoError(t, env.businesses.LinkCategory(ctx, business.ID, bakery))

	categories, err := env.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, int64(1), categories[0].BusinessCount)
	assert.True(t, mr.Exists(categoryListCacheKey))

	// Rows written behind the service's back stay invisible until invalidation.
	require.NoError(t, env.db.Create(&model.Category{Name: "Barber", NameKey: "barber", Slug: "barber"}).Error)
	categories, err = env.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	env.categories.InvalidateCache(ctx)
	assert.False(t, mr.Exists(categoryListCacheKey))

	categories, err = env.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestCategoryService_ResolveOrCreate_InvalidatesCacheOnCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	env := newTestEnvWithCache(t, store)
	ctx := context.Background()

	_, err := env.categories.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(categoryListCacheKey))

	_, err = env.categories.ResolveOrCreate(ctx, "Pharmacy")
	require.NoError(t, err)
	assert.False(t, mr.Exists(categoryListCacheKey))
}

func TestCategoryService_GetBySlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.categories.ResolveOrCreate(ctx, "Bakery")
	require.NoError(t, err)

	active := env.createBusiness(t, "Active Bakery", nil)
	pending := env.createBusiness(t, "Pending Bakery", func(b *model.Business) { b.Status = model.StatusPending })
	suspended := env.createBusiness(t, "Suspended Bakery", func(b *model.Business) { b.Status = model.StatusSuspended })
	for _, b := range []*model.Business{active, pending, suspended} {
		require.NoError(t, env.businesses.LinkCategory(ctx, b.ID, id))
	}

	listing, err := env.categories.GetBySlug(ctx, "bakery", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Bakery", listing.Category.Name)
	assert.Equal(t, int64(2), listing.Businesses.Total)

	_, err = env.categories.GetBySlug(ctx, "missing", 1, 10)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
