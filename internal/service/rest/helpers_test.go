package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/users"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type testEnv struct {
	e           *echo.Echo
	store       *memory.Store
	orders      domain.OrderRepository
	products    domain.ProductRepository
	users       domain.UserRepository
	idempotency domain.IdempotencyRepository
	logHook     *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithOrders(t, nil)
}

// newTestEnvWithOrders позволяет подменить репозиторий заказов, например, чтобы сымитировать сбой записи.
func newTestEnvWithOrders(t *testing.T, orderRepo domain.OrderRepository) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, orderRepo, func(*Config) {})
}

// newTestEnvWithConfig даёт тесту поправить Config перед сборкой сервера.
func newTestEnvWithConfig(t *testing.T, orderRepo domain.OrderRepository, tweak func(*Config)) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		store:       store,
		orders:      memory.NewOrderRepository(store),
		products:    memory.NewProductRepository(store),
		users:       memory.NewUserRepository(store),
		idempotency: memory.NewIdempotencyRepository(),
	}
	if orderRepo == nil {
		orderRepo = env.orders
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	env.logHook = hook
	entry := logrus.NewEntry(logger)

	cfg := Config{
		Orders: orders.NewService(orderRepo, env.products, env.users,
			orders.WithLogger(entry),
			orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(prometheus.NewRegistry())),
		),
		Catalog:     catalog.NewService(env.products, nil, entry),
		Users:       users.NewService(env.users, users.WithHashCost(bcrypt.MinCost), users.WithLogger(entry)),
		Metrics:     metrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry()),
		Logger:      entry,
		Idempotency: env.idempotency,
	}
	tweak(&cfg)
	env.e = NewServer(cfg)

	ctx := context.Background()
	require.NoError(t, env.products.Create(ctx, domain.Product{ID: "p1", Name: "Keyboard", Description: "Mechanical", Price: decimal.RequireFromString("10.00")}))
	require.NoError(t, env.products.Create(ctx, domain.Product{ID: "p2", Name: "Mouse", Description: "Wireless", Price: decimal.RequireFromString("5.00")}))
	require.NoError(t, env.users.Create(ctx, domain.User{ID: "u1", Email: "ann@example.com", Name: "Ann", PasswordHash: "hash"}))
	return env
}

func (env *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type apiError struct {
	Error struct {
		Code       string              `json:"code"`
		Message    string              `json:"message"`
		Fields     []domain.FieldError `json:"fields"`
		MissingIDs []string            `json:"missingIds"`
	} `json:"error"`
}

func (e apiError) fieldRules() map[string]string {
	rules := make(map[string]string, len(e.Error.Fields))
	for _, f := range e.Error.Fields {
		rules[f.Field] = f.Rule
	}
	return rules
}
