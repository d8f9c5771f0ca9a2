package bind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// messages overrides the stock english text for the tags requests use most
var messages = map[string]string{
	"min":    "{0} must be at least {1}",
	"max":    "{0} must be at most {1}",
	"period": "{0} must be a month like 2024-01",
	"label":  "{0} must not be blank",
}

// validation is built once, the validator caches struct metadata
var validation = sync.OnceValues(func() (*validator.Validate, ut.Translator) {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse("2006-01", s)
		return err == nil
	})
	_ = v.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	for tag, text := range messages {
		_ = v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			},
		)
	}
	return v, trans
})

// jsonName reports fields by their wire name so errors match the request body
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate checks v against its validate tags. The first failure becomes a
// Validation error carrying the offending field
func Validate(v any) error {
	val, trans := validation()
	err := val.Struct(v)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		first := fields[0]
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", first.Translate(trans)), first.Field())
	}
	// InvalidValidationError means v was not a struct, a programming error
	logger.Get().Error().Err(err).Str("type", fmt.Sprintf("%T", v)).Msg("validate")
	return perr.JSONErrf("validation error")
}
