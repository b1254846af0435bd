// Package validation wraps go-playground/validator with the app's custom tags
// and user-facing (pt-BR) field messages.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var global = New()

// New returns a validator that reports fields by their json name and knows the
// cpf and cnpj tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "cpf", digitsOfLength(11))
	mustRegister(v, "cnpj", digitsOfLength(14))
	return v
}

// mustRegister panics because New runs during package initialization.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func digitsOfLength(n int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != n {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
}

// FieldErrors validates s and returns the messages per field, or nil when s is valid.
// The error is non-nil only when s cannot be validated at all (e.g. it is not a struct).
func FieldErrors(ctx context.Context, s any) (map[string][]string, error) {
	err := global.StructCtx(ctx, s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out, nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório."
	case "email":
		return "Informe um e-mail válido."
	case "len":
		return fmt.Sprintf("Deve ter exatamente %s caracteres.", fe.Param())
	case "min":
		return fmt.Sprintf("Deve ter pelo menos %s caracteres.", fe.Param())
	case "max":
		return fmt.Sprintf("Deve ter no máximo %s caracteres.", fe.Param())
	case "gte":
		return fmt.Sprintf("Deve ser maior ou igual a %s.", fe.Param())
	case "numeric":
		return "Deve conter apenas números."
	case "oneof":
		return fmt.Sprintf("Valor inválido. Opções: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("Formato inválido, use %s.", fe.Param())
	case "uuid":
		return "Identificador inválido."
	case "cpf":
		return "O CPF deve ter 11 dígitos."
	case "cnpj":
		return "O CNPJ deve ter 14 dígitos."
	default:
		return "Valor inválido."
	}
}
