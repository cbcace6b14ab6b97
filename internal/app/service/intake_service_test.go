package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeService_SubmitBusinessRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   BusinessRegistrationInput
		wantErr bool
	}{
		{
			name:  "valid anonymous submission",
			input: BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "08011112222", Category: "Food"},
		},
		{
			name:    "missing name",
			input:   BusinessRegistrationInput{PhoneNumber: "08011112222", Category: "Food"},
			wantErr: true,
		},
		{
			name:    "short phone",
			input:   BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "0801", Category: "Food"},
			wantErr: true,
		},
		{
			name:    "missing category",
			input:   BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "08011112222", Category: "  "},
			wantErr: true,
		},
		{
			name:    "bad email",
			input:   BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "08011112222", Category: "Food", Email: "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := env.intake.SubmitBusinessRegistration(ctx, nil, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				assert.Zero(t, id)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, id)
		})
	}
	assert.Equal(t, int64(1), env.count(t, "business_registration_requests", ""))
}

func TestIntakeService_SubmitBusinessRegistration_RecordsSubmitter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "submitter", model.RoleUser)
	actor := actorFor(user)

	id, err := env.intake.SubmitBusinessRegistration(ctx, &actor, BusinessRegistrationInput{
		BusinessName:  " Mama Put ",
		PhoneNumber:   "08011112222",
		Category:      " street   food ",
		SocialHandles: []string{"@mamaput", "", " ig:mamaput "},
	})
	require.NoError(t, err)

	req, err := env.registrations.FindBusinessRequest(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, req.UserID)
	assert.Equal(t, user.ID, *req.UserID)
	assert.Equal(t, "Mama Put", req.BusinessName)
	assert.Equal(t, "street food", req.Category)
	assert.Equal(t, []string{"@mamaput", "ig:mamaput"}, []string(req.SocialHandles))
}

func TestIntakeService_SubmitUserRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "existing", model.RoleUser)

	_, err := env.intake.SubmitUserRegistration(ctx, UserRegistrationInput{
		Username: "existing", Email: "fresh@example.com", Password: "password123", Phone: "08011112222",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = env.intake.SubmitUserRegistration(ctx, UserRegistrationInput{
		Username: "fresh", Email: "EXISTING@example.com", Password: "password123", Phone: "08011112222",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = env.intake.SubmitUserRegistration(ctx, UserRegistrationInput{
		Username: "fresh", Email: "fresh@example.com", Password: "short", Phone: "08011112222",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	id, err := env.intake.SubmitUserRegistration(ctx, UserRegistrationInput{
		Username: "fresh", Email: "fresh@example.com", Password: "password123", Phone: "08011112222",
	})
	require.NoError(t, err)

	req, err := env.registrations.FindUserRequest(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", req.PasswordHash)
	assert.False(t, req.Processed)
}

func TestIntakeService_SubmitClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "claimant", model.RoleUser)
	business := env.createBusiness(t, "Gadget Hub", nil)

	_, err := env.intake.SubmitClaim(ctx, anonymous, business.ID, ClaimInput{Category: "Electronics"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.intake.SubmitClaim(ctx, actorFor(user), business.ID, ClaimInput{})
	assert.ErrorIs(t, err, ErrCategoryRequired)

	_, err = env.intake.SubmitClaim(ctx, actorFor(user), 9999, ClaimInput{Category: "Electronics"})
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	id, err := env.intake.SubmitClaim(ctx, actorFor(user), business.ID, ClaimInput{Category: "Electronics", PhoneNumber: "08011112222"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = env.intake.SubmitClaim(ctx, actorFor(user), business.ID, ClaimInput{Category: "Electronics"})
	assert.ErrorIs(t, err, ErrDuplicateClaim)
}

func TestIntakeService_ListPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t)
	user := env.createUser(t, "claimant", model.RoleUser)
	business := env.createBusiness(t, "Gadget Hub", nil)
	submitClaim(t, env, user, business, ClaimInput{Category: "Electronics"})

	_, err := env.intake.ListPending(ctx, actorFor(user), model.RequestClaim)
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = env.intake.ListPending(ctx, admin, "everything")
	assert.ErrorIs(t, err, ErrInvalidRequestKind)

	pending, err := env.intake.ListPending(ctx, admin, model.RequestClaim)
	require.NoError(t, err)
	require.Len(t, pending.Claims, 1)
	assert.Nil(t, pending.BusinessRegistrations)
	assert.Nil(t, pending.UserRegistrations)
}

func TestIntakeService_MarkProcessedAndReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t)

	bizID, err := env.intake.SubmitBusinessRegistration(ctx, nil, BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "08011112222", Category: "Food"})
	require.NoError(t, err)
	userID, err := env.intake.SubmitUserRegistration(ctx, UserRegistrationInput{Username: "fresh", Email: "fresh@example.com", Password: "password123", Phone: "08011112222"})
	require.NoError(t, err)

	changed, err := env.intake.MarkProcessed(ctx, admin, model.RequestBusiness, bizID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = env.intake.MarkProcessed(ctx, admin, model.RequestBusiness, bizID)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = env.intake.Reject(ctx, admin, model.RequestUser, userID)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = env.intake.Reject(ctx, admin, model.RequestUser, 9999)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = env.intake.Reject(ctx, admin, model.RequestClaim, 9999)
	assert.ErrorIs(t, err, ErrClaimNotFound)

	counts, err := env.intake.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.BusinessRegistrations+counts.UserRegistrations+counts.Claims)

	// No business was created; the request was only closed.
	assert.Equal(t, int64(0), env.count(t, "businesses", ""))
	assert.Equal(t, []string{model.ActionMarkProcessed, model.ActionRejectRequest}, env.publisher.actions())
}

func TestIntakeService_RejectedClaimCannotBeApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t)
	user := env.createUser(t, "claimant", model.RoleUser)
	business := env.createBusiness(t, "Gadget Hub", nil)
	claimID := submitClaim(t, env, user, business, ClaimInput{Category: "Electronics"})

	changed, err := env.intake.Reject(ctx, admin, model.RequestClaim, claimID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = env.intake.Reject(ctx, admin, model.RequestClaim, claimID)
	require.NoError(t, err)
	assert.False(t, changed)

	claim, err := env.claims.FindByID(ctx, claimID)
	require.NoError(t, err)
	assert.True(t, claim.Rejected)
	assert.False(t, claim.Reviewed)
	require.NotNil(t, claim.RejectedBy)
	assert.Equal(t, admin.UserID, *claim.RejectedBy)

	_, err = env.reconciliation.ApproveClaim(ctx, admin, claimID)
	assert.ErrorIs(t, err, ErrClaimRejected)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindConflict, appErr.Kind)

	assert.Nil(t, env.reloadBusiness(t, business.ID).OwnerID)
	assert.False(t, env.reloadBusiness(t, business.ID).IsVerified)
}

func TestIntakeService_MarkProcessedRefusesClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t)
	user := env.createUser(t, "claimant", model.RoleUser)
	business := env.createBusiness(t, "Gadget Hub", nil)
	claimID := submitClaim(t, env, user, business, ClaimInput{Category: "Electronics"})

	_, err := env.intake.MarkProcessed(ctx, admin, model.RequestClaim, claimID)
	assert.ErrorIs(t, err, ErrClaimNotClosable)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	claim, err := env.claims.FindByID(ctx, claimID)
	require.NoError(t, err)
	assert.False(t, claim.Reviewed)
	assert.False(t, claim.Rejected)

	counts, err := env.intake.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Claims)
	assert.Empty(t, env.publisher.actions())

	// The claim still goes through the real approval.
	result, err := env.reconciliation.ApproveClaim(ctx, admin, claimID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyReviewed)
	owner := env.reloadBusiness(t, business.ID).OwnerID
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, *owner)
}

func TestIntakeService_CloseRunsUnderConfiguredTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t)

	bizID, err := env.intake.SubmitBusinessRegistration(ctx, nil, BusinessRegistrationInput{BusinessName: "Mama Put", PhoneNumber: "08011112222", Category: "Food"})
	require.NoError(t, err)

	// A bound that has already elapsed fails the transaction instead of closing the request.
	expired := NewIntakeService(env.db, env.registrations, env.claims, env.businesses, env.users, env.activityRepo, env.publisher, time.Nanosecond)
	_, err = expired.MarkProcessed(ctx, admin, model.RequestBusiness, bizID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransactionFailure, apperrors.KindOf(err))

	counts, err := env.intake.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.BusinessRegistrations)

	changed, err := env.intake.MarkProcessed(ctx, admin, model.RequestBusiness, bizID)
	require.NoError(t, err)
	assert.True(t, changed)
}
