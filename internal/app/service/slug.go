package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	maxSlugInsertAttempts = 5
	maxSlugProbes         = 10000
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparators = regexp.MustCompile(`[\s-]+`)
)

// Slugify lowercases text, drops everything but ASCII letters, digits,
// spaces and hyphens, and joins the words with single hyphens.
func Slugify(text string) string {
	return slugifyOr(text, "business")
}

func slugifyOr(text, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// SlugProber reports whether a slug is taken.
type SlugProber interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// GenerateUniqueSlug returns base if free, else the first free base-N.
// It only reads, so the answer is a hint that the insert must confirm.
func GenerateUniqueSlug(ctx context.Context, prober SlugProber, base string) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugProbes; n++ {
		taken, err := prober.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", ErrSlugExhausted
}

// CreateBusinessWithUniqueSlug inserts business under a fresh slug derived
// from its name. A concurrent insert that takes the slug first is retried
// under a savepoint so tx stays usable.
func CreateBusinessWithUniqueSlug(ctx context.Context, tx *gorm.DB, repo repository.BusinessRepository, business *model.Business) error {
	txRepo := repo.WithTx(tx)
	base := Slugify(business.Name)

	for attempt := 1; attempt <= maxSlugInsertAttempts; attempt++ {
		slug, err := GenerateUniqueSlug(ctx, txRepo, base)
		if err != nil {
			return err
		}
		business.Slug = slug

		err = db.WithSavepoint(tx, "business_slug", func(tx *gorm.DB) error {
			return repo.WithTx(tx).Create(ctx, business)
		})
		if err == nil {
			return nil
		}
		if !apperrors.IsUniqueViolation(err) {
			return err
		}

		business.ID = 0
		logger.Warn("Slug taken during insert, retrying", map[string]interface{}{
			"slug":    slug,
			"attempt": attempt,
		})
	}
	return ErrSlugExhausted
}

// reslug moves business to a slug for newName unless its current slug
// already derives from that name.
func reslug(ctx context.Context, tx *gorm.DB, repo repository.BusinessRepository, business *model.Business, newName string) error {
	base := Slugify(newName)
	if slugDerivesFrom(business.Slug, base) {
		return nil
	}

	txRepo := repo.WithTx(tx)
	for attempt := 1; attempt <= maxSlugInsertAttempts; attempt++ {
		slug, err := GenerateUniqueSlug(ctx, txRepo, base)
		if err != nil {
			return err
		}
		err = db.WithSavepoint(tx, "business_reslug", func(tx *gorm.DB) error {
			return repo.WithTx(tx).UpdateFields(ctx, business.ID, map[string]interface{}{"slug": slug})
		})
		if err == nil {
			business.Slug = slug
			return nil
		}
		if !apperrors.IsUniqueViolation(err) {
			return err
		}
	}
	return ErrSlugExhausted
}

var numericSuffix = regexp.MustCompile(`^-[0-9]+$`)

func slugDerivesFrom(slug, base string) bool {
	if slug == base {
		return true
	}
	return strings.HasPrefix(slug, base) && numericSuffix.MatchString(slug[len(base):])
}
