package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// bindJSON разбирает тело запроса в dst. Несовпадение типов JSON превращается в FieldError,
// к которому добавляются нарушения тегов validate у остальных полей, чтобы клиент
// получил полный список сразу.
func bindJSON(c echo.Context, v *validation.Validator, dst interface{}) error {
	err := c.Bind(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		fields := []domain.FieldError{{
			Field:   field,
			Rule:    "type",
			Message: "must be " + jsonTypeName(typeErr.Type),
		}}

		var others *domain.ValidationError
		if errors.As(v.Struct(dst), &others) {
			for _, fe := range others.Fields {
				if fe.Field == field || strings.HasPrefix(fe.Field, field+"[") || strings.HasPrefix(fe.Field, field+".") {
					continue
				}
				fields = append(fields, fe)
			}
		}
		return &domain.ValidationError{Fields: fields}
	}

	// тело без Content-Length обрывает BodyLimit уже во время разбора
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return echo.ErrStatusRequestEntityTooLarge
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusBadRequest {
		return domain.NewValidationError("body", "json", "must be a valid JSON document")
	}
	return err
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "of a different type"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "an object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Ptr:
		return jsonTypeName(t.Elem())
	default:
		return "of type " + t.String()
	}
}
