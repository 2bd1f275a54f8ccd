package service

import (
	"context"
	"testing"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserProvisionsAndKeepsProfileName(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.repo, 20)
	ctx := context.Background()

	user, err := svc.EnsureUser(ctx, &models.User{ID: 10, Email: "new@example.com", Name: "From Token", Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, "From Token", user.Name)

	_, err = svc.UpdateProfile(ctx, 10, models.ProfileInput{Name: "Chosen Name", Phone: "555"})
	require.NoError(t, err)

	user, err = svc.EnsureUser(ctx, &models.User{ID: 10, Email: "new@example.com", Name: "From Token", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Chosen Name", user.Name)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestUpdateProfileValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.repo, 20)

	_, err := svc.UpdateProfile(context.Background(), buyerID, models.ProfileInput{})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestAdminDeleteUser(t *testing.T) {
	f := newOrderFixture(t)
	svc := NewUserService(f.repo, 20)
	ctx := context.Background()

	users, err := svc.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	err = svc.DeleteUser(ctx, ownerID, ownerID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	placeMultiShopOrder(t, f)
	err = svc.DeleteUser(ctx, ownerID, buyerID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, svc.DeleteUser(ctx, buyerID, otherOwnerID))
	_, err = f.repo.GetShopByID(ctx, f.otherShop.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.DeleteUser(ctx, buyerID, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
