package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const internalErrorMessage = "internal server error"

type errorBody struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Fields     []domain.FieldError `json:"fields,omitempty"`
	MissingIDs []string            `json:"missingIds,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusForKind — единственное место, где категории ошибок превращаются в HTTP-статусы.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindReferentialIntegrity:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// toErrorResponse строит статус и тело ответа для ошибки.
func toErrorResponse(err error) (int, errorResponse) {
	// HTTPError верхнего уровня (404 маршрута, 415, таймаут) сохраняет свой статус.
	if httpErr, ok := err.(*echo.HTTPError); ok {
		return httpErr.Code, errorResponse{Error: errorBody{
			Code:    codeForStatus(httpErr.Code),
			Message: fmt.Sprint(httpErr.Message),
		}}
	}

	kind := domain.KindOf(err)
	status := statusForKind(kind)
	body := errorBody{Code: string(kind), Message: err.Error()}

	var validationErr *domain.ValidationError
	var refErr *domain.ReferentialIntegrityError
	switch {
	case errors.As(err, &validationErr):
		body.Message = "request validation failed"
		body.Fields = validationErr.Fields
	case errors.As(err, &refErr):
		body.MissingIDs = refErr.MissingIDs
	case errors.Is(err, domain.ErrNothingToUpdate):
		body.Message = "nothing to update"
	}
	if status == http.StatusInternalServerError {
		body.Message = internalErrorMessage
	}
	return status, errorResponse{Error: body}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domain.KindValidation)
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusConflict:
		return string(domain.KindConflict)
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	default:
		if status >= http.StatusInternalServerError {
			return string(domain.KindPersistence)
		}
		return "http_error"
	}
}

// newErrorHandler пишет ошибки в едином формате. Детали 5xx уходят только в лог.
func newErrorHandler(logger *log.Entry) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toErrorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.WithError(err).WithFields(log.Fields{
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
				"method":      c.Request().Method,
				"path":        c.Path(),
				"resource_id": c.Param("id"),
			}).Error("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.WithError(writeErr).Warn("failed to write error response")
		}
	}
}
