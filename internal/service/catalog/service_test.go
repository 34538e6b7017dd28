package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.NewProductRepository(memory.NewStore()), nil, nil)
}

func TestService_CreateAndGet(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:        "  Keyboard ",
		Description: "Mechanical",
		Price:       decimal.RequireFromString("49.90"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Keyboard", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.True(t, got.Price.Equal(decimal.RequireFromString("49.9")))
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	_, err := svc.Create(context.Background(), ProductInput{Name: "   ", Price: decimal.Zero})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	rules := map[string]string{}
	for _, fe := range validationErr.Fields {
		rules[fe.Field] = fe.Rule
	}
	require.Equal(t, map[string]string{"name": "required", "price": "gt"}, rules)
}

func TestService_List_Filters(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	for _, in := range []ProductInput{
		{Name: "Red Apple", Description: "fresh fruit", Price: decimal.RequireFromString("1.50")},
		{Name: "Green apple", Description: "sour fruit", Price: decimal.RequireFromString("2.50")},
		{Name: "Laptop", Description: "work machine", Price: decimal.RequireFromString("999.00")},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Red Apple", all[0].Name)

	apples, err := svc.List(ctx, domain.ProductFilter{NameContains: "APPLE"})
	require.NoError(t, err)
	require.Len(t, apples, 2)

	maxPrice := decimal.RequireFromString("2.00")
	cheap, err := svc.List(ctx, domain.ProductFilter{NameContains: "apple", MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	require.Equal(t, "Red Apple", cheap[0].Name)

	sour, err := svc.List(ctx, domain.ProductFilter{DescriptionContains: "sour"})
	require.NoError(t, err)
	require.Len(t, sour, 1)
	require.Equal(t, "Green apple", sour[0].Name)
}

func TestService_ReplaceAndDelete(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{Name: "Mouse", Price: decimal.RequireFromString("5.00")})
	require.NoError(t, err)

	updated, err := svc.Replace(ctx, created.ID, ProductInput{Name: "Wireless mouse", Description: "2.4GHz", Price: decimal.RequireFromString("7.00")})
	require.NoError(t, err)
	require.Equal(t, "Wireless mouse", updated.Name)
	require.True(t, updated.Price.Equal(decimal.RequireFromString("7")))
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Replace(ctx, "missing", ProductInput{Name: "x", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Wireless mouse", deleted.Name)

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Delete(ctx, created.ID)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
