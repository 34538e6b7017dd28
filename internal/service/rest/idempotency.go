package rest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	headerIdempotencyKey      = "Idempotency-Key"
	headerIdempotencyReplayed = "Idempotency-Replayed"
	maxIdempotencyKeyLength   = 255
	idempotencySaveTimeout    = 2 * time.Second
)

// idempotencyMiddleware выполняет запрос с заголовком Idempotency-Key не более одного раза.
// Повтор с тем же телом получает сохранённый ответ, с другим телом — 409.
func idempotencyMiddleware(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLength {
				return domain.NewValidationError(headerIdempotencyKey, "max", "must be at most 255 characters long")
			}

			body, err := io.ReadAll(c.Request().Body)
			if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
				return err
			}
			if err != nil {
				return domain.NewValidationError("body", "read", "could not be read")
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			ctx := c.Request().Context()
			hash := requestHash(c.Request().Method, c.Path(), body)
			entry := logger.WithField("idempotency_key", key)

			_, err = repo.CreateProcessing(ctx, key, hash, time.Now().UTC().Add(ttl))
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrIdempotencyHashMismatch):
				return echo.NewHTTPError(http.StatusConflict, "idempotency key is already used with a different request payload")
			case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
				return replay(c, repo, key, entry)
			default:
				return &domain.PersistenceError{Op: "create idempotency record", Err: err}
			}

			recorder := &responseRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = recorder
			if err := next(c); err != nil {
				c.Error(err)
			}
			c.Response().Writer = recorder.ResponseWriter

			status := c.Response().Status
			store := repo.MarkDone
			if status >= http.StatusBadRequest {
				store = repo.MarkFailed
			}
			// ctx запроса мог истечь; ответ всё равно нужно сохранить.
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotencySaveTimeout)
			defer cancel()
			if err := store(saveCtx, key, recorder.body.Bytes(), status); err != nil {
				entry.WithError(err).Warn("failed to store idempotent response")
			}
			return nil
		}
	}
}

func replay(c echo.Context, repo domain.IdempotencyRepository, key string, entry *log.Entry) error {
	record, err := repo.Get(c.Request().Context(), key)
	if err != nil {
		return &domain.PersistenceError{Op: "load idempotency record", Err: err}
	}

	switch record.Status {
	case domain.IdempotencyStatusProcessing:
		return echo.NewHTTPError(http.StatusConflict, "request with the same idempotency key is already processing")
	case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
		if record.HTTPStatus == 0 {
			entry.Warn("idempotency record has no stored response")
			return &domain.PersistenceError{Op: "replay idempotent response", Err: errors.New("stored response is empty")}
		}
		c.Response().Header().Set(headerIdempotencyReplayed, "true")
		return c.Blob(record.HTTPStatus, echo.MIMEApplicationJSONCharsetUTF8, record.ResponseBody)
	default:
		return &domain.PersistenceError{Op: "replay idempotent response", Err: errors.New("unknown idempotency status " + string(record.Status))}
	}
}

func requestHash(method, route string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// responseRecorder дублирует тело ответа в буфер.
type responseRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
