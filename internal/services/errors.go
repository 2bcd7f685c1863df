package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"alfa-forge/internal/utils"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// statusError несёт сообщение для клиента и категорию ошибки
type statusError struct {
	kind    error
	message string
}

func (e *statusError) Error() string { return e.message }
func (e *statusError) Unwrap() error { return e.kind }

func notFound(message string) error  { return &statusError{kind: ErrNotFound, message: message} }
func forbidden(message string) error { return &statusError{kind: ErrForbidden, message: message} }

// ValidationError — некорректный ввод, отклонённый до обращения к БД
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
		return utils.IsClock(fl.Field().String())
	})
	mustRegister(v, "ymd", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseDay(fl.Field().String())
		return err == nil
	})
	// пустая строка допустима: для reminderAt она означает «снять напоминание»,
	// обязательность проверяет required
	mustRegister(v, "rfc3339", func(fl validator.FieldLevel) bool {
		if fl.Field().String() == "" {
			return true
		}
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalid(field, "время должно быть в формате RFC 3339")
	}
	return t, nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid(fe.Field(), describeRule(fe))
	}
	return &ValidationError{Message: err.Error()}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		return "значение должно быть не меньше " + fe.Param()
	case "max":
		return "значение должно быть не больше " + fe.Param()
	case "oneof":
		return "допустимые значения: " + fe.Param()
	case "len":
		return "длина должна быть " + fe.Param()
	case "hhmm":
		return "время должно быть в формате HH:MM"
	case "ymd":
		return "дата должна быть в формате YYYY-MM-DD"
	case "hexcolor":
		return "цвет должен быть в формате #RRGGBB"
	case "rfc3339":
		return "время должно быть в формате RFC 3339"
	default:
		return "некорректное значение (" + fe.Tag() + ")"
	}
}
