package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	body := `{"userId":"u1","productIds":["p1","p2"],"payment":true}`

	first := env.do(t, http.MethodPost, "/orders", body, headerIdempotencyKey, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	require.Empty(t, first.Header().Get(headerIdempotencyReplayed))

	second := env.do(t, http.MethodPost, "/orders", body, headerIdempotencyKey, "key-1")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get(headerIdempotencyReplayed))
	require.JSONEq(t, first.Body.String(), second.Body.String())

	list, err := env.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestIdempotency_DifferentPayloadConflicts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/orders", `{"userId":"u1","productIds":["p1"],"payment":true}`, headerIdempotencyKey, "key-2")
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(t, http.MethodPost, "/orders", `{"userId":"u1","productIds":["p2"],"payment":true}`, headerIdempotencyKey, "key-2")
	require.Equal(t, http.StatusConflict, second.Code)

	var body apiError
	decodeJSON(t, second, &body)
	require.Equal(t, "conflict", body.Error.Code)
}

func TestIdempotency_InFlightDuplicateConflicts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	body := `{"userId":"u1","productIds":["p1"],"payment":true}`

	_, err := env.idempotency.CreateProcessing(context.Background(), "key-3",
		requestHash(http.MethodPost, "/orders", []byte(body)), time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/orders", body, headerIdempotencyKey, "key-3")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already processing")
}

func TestIdempotency_ReplaysFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	body := `{"userId":"u1","productIds":["p9"],"payment":true}`

	first := env.do(t, http.MethodPost, "/orders", body, headerIdempotencyKey, "key-4")
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := env.do(t, http.MethodPost, "/orders", body, headerIdempotencyKey, "key-4")
	require.Equal(t, http.StatusBadRequest, second.Code)
	require.Equal(t, "true", second.Header().Get(headerIdempotencyReplayed))
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_WithoutKey(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	body := `{"userId":"u1","productIds":["p1"],"payment":true}`

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/orders", body).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/orders", body).Code)

	list, err := env.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	small := `{"userId":"u1","productIds":["p1"],"payment":true}`
	large := `{"userId":"u1","productIds":["p1","p2","p1","p2","p1","p2"],"payment":true}`

	tests := []struct {
		name      string
		body      string
		streamed  bool
		key       string
		wantCode  int
		wantOrder bool
	}{
		{name: "within limit", body: small, key: "small", wantCode: http.StatusCreated, wantOrder: true},
		{name: "content length over limit", body: large, key: "declared", wantCode: http.StatusRequestEntityTooLarge},
		{name: "streamed with key", body: large, streamed: true, key: "streamed", wantCode: http.StatusRequestEntityTooLarge},
		{name: "streamed without key", body: large, streamed: true, wantCode: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnvWithConfig(t, nil, func(cfg *Config) { cfg.BodyLimit = "64B" })

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.key != "" {
				req.Header.Set(headerIdempotencyKey, tt.key)
			}
			if tt.streamed {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			env.e.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			list, err := env.orders.List(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantOrder, len(list) == 1)

			if tt.wantCode == http.StatusRequestEntityTooLarge {
				var body apiError
				decodeJSON(t, rec, &body)
				require.Equal(t, "payload_too_large", body.Error.Code)
			}
		})
	}
}
