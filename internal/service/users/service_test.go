package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.NewUserRepository(memory.NewStore()), WithHashCost(bcrypt.MinCost))
}

func strPtr(v string) *string { return &v }

func TestService_Create_HashesPasswordAndNormalizesEmail(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "  Ann@Example.COM ",
		Name:     "Ann",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", user.Email)
	require.NotEqual(t, "correct-horse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Name: "Ann", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "ANN@example.com", Name: "Other", Password: "password2"})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "not-an-email", Password: "short"})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	rules := map[string]string{}
	for _, fe := range validationErr.Fields {
		rules[fe.Field] = fe.Rule
	}
	require.Equal(t, map[string]string{"email": "email", "name": "required", "password": "min"}, rules)
}

func TestService_Patch(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Name: "Ann", Password: "password1"})
	require.NoError(t, err)

	patched, err := svc.Patch(ctx, user.ID, PatchUserInput{Name: strPtr("Anna")})
	require.NoError(t, err)
	require.Equal(t, "Anna", patched.Name)
	require.Equal(t, "ann@example.com", patched.Email)
	require.Equal(t, user.PasswordHash, patched.PasswordHash)

	_, err = svc.Patch(ctx, user.ID, PatchUserInput{})
	require.ErrorIs(t, err, domain.ErrNothingToUpdate)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Patch(ctx, user.ID, PatchUserInput{Name: strPtr("  ")})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Patch(ctx, "missing", PatchUserInput{Name: strPtr("Bob")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Replace(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Name: "Ann", Password: "password1"})
	require.NoError(t, err)

	replaced, err := svc.Replace(ctx, user.ID, CreateUserInput{Email: "anna@example.com", Name: "Anna", Password: "password2"})
	require.NoError(t, err)
	require.Equal(t, "anna@example.com", replaced.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(replaced.PasswordHash), []byte("password2")))

	_, err = svc.Replace(ctx, user.ID, CreateUserInput{Email: "anna@example.com"})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestService_ListAndDelete(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateUserInput{Email: "a@example.com", Name: "A", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateUserInput{Email: "b@example.com", Name: "B", Password: "password1"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)

	deleted, err := svc.Delete(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", deleted.Email)

	_, err = svc.Get(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
