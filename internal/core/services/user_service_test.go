package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

func TestUserService_Create(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	u, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name: "Ana", Email: " Ana@Example.com ", CPF: "123", Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, domain.RoleResearcher, u.Role)
	assert.True(t, u.FirstAccess)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))

	_, err = svc.Create(context.Background(), ports.CreateUserInput{Name: "Ana 2", Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserService_CreateValidates(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	cases := map[string]ports.CreateUserInput{
		"name":     {Email: "a@b.c", Password: "secret123"},
		"email":    {Name: "A", Email: "not-an-email", Password: "secret123"},
		"role":     {Name: "A", Email: "a@b.c", Password: "secret123", Role: "owner"},
		"password": {Name: "A", Email: "a@b.c", Password: "123"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUserService_UpdatePasswordClearsFirstAccess(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()
	u, err := svc.Create(ctx, ports.CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	pw := "another-secret"
	updated, err := svc.Update(ctx, u.ID, ports.UpdateUserInput{Password: &pw})
	require.NoError(t, err)
	assert.False(t, updated.FirstAccess)

	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte(pw)))
}

func TestUserService_NotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_ListByRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()
	_, err := svc.Create(ctx, ports.CreateUserInput{Name: "A", Email: "a@x.com", Password: "secret123", Role: domain.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ports.CreateUserInput{Name: "R", Email: "r@x.com", Password: "secret123"})
	require.NoError(t, err)

	researchers, err := svc.List(ctx, domain.RoleResearcher)
	require.NoError(t, err)
	require.Len(t, researchers, 1)
	assert.Equal(t, "R", researchers[0].Name)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
