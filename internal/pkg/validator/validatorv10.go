package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/workpulse/workpulse/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("translator not found")

// regexRule is a string-only tag backed by a pattern, with its English message.
type regexRule struct {
	pattern *regexp.Regexp
	message string
}

var regexRules = map[string]regexRule{
	// NIST 800-63B length bounds; 72 is the bcrypt input limit.
	"password": {regexp.MustCompile(`^.{8,72}$`), "{0} must be 8-72 characters"},
	// OTP codes are compared as integers, so short forms like "7" are valid.
	"otpcode": {regexp.MustCompile(`^[0-9]{1,6}$`), "{0} must be 1-6 digits"},
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string { return vs }

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for tag, rule := range regexRules {
		if err := registerRegexRule(validate, trans, tag, rule); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

// jsonFieldName reports fields by their JSON name when they have one.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func registerRegexRule(validate *validator.Validate, trans ut.Translator, tag string, rule regexRule) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && rule.pattern.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, rule.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}
