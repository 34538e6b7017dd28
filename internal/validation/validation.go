// Package validation проверяет входные структуры по декларативным тегам `validate`
// и переводит нарушения в *domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Validator оборачивает validator.Validate. Реализует echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New создаёт валидатор, который называет поля по их json-именам
// и умеет сравнивать decimal.Decimal в правилах gt/gte/lt/lte.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	// ошибка возможна только при пустом имени тега
	_ = v.RegisterValidation("money", moneyValue)
	return &Validator{validate: v}
}

// Validate реализует echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.Struct(i)
}

// Struct проверяет все поля структуры и возвращает все нарушения сразу.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		result.Fields = append(result.Fields, domain.FieldError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return result
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

// moneyValue проверяет денежное поле по domain.ValidPrice. Decimal берётся из
// родительской структуры: после decimalValue в fl.Field() уже float64.
func moneyValue(fl validator.FieldLevel) bool {
	if d, ok := parentDecimal(fl); ok {
		return domain.ValidPrice(d)
	}
	if fl.Field().Kind() == reflect.Float64 {
		return domain.ValidPrice(decimal.NewFromFloat(fl.Field().Float()))
	}
	return false
}

func parentDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return decimal.Decimal{}, false
	}
	field := parent.FieldByName(fl.StructFieldName())
	if !field.IsValid() || !field.CanInterface() {
		return decimal.Decimal{}, false
	}
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v != nil {
			return *v, true
		}
	}
	return decimal.Decimal{}, false
}

// fieldPath отбрасывает имя корневой структуры: "createOrderRequest.productIds[1]" -> "productIds[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return boundMessage(fe, "at least")
	case "max":
		return boundMessage(fe, "at most")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "required_if":
		return "is required when " + strings.Replace(fe.Param(), " ", " is ", 1)
	case "required_with":
		return "is required when " + fe.Param() + " is set"
	case "money":
		return fmt.Sprintf("must have at most %d decimal places and not exceed %s", domain.CurrencyPrecision, domain.MaxPrice.StringFixed(domain.CurrencyPrecision))
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func boundMessage(fe validator.FieldError, bound string) string {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		suffix := "items"
		if fe.Param() == "1" {
			suffix = "item"
		}
		return fmt.Sprintf("must contain %s %s %s", bound, fe.Param(), suffix)
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters long", bound, fe.Param())
	default:
		return fmt.Sprintf("must be %s %s", bound, fe.Param())
	}
}
