package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/service"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// Supported response languages. The first one is the fallback.
const (
	LangEN = "en"
	LangES = "es"
)

// custom validation tags
const (
	notBlankTag     = "notblank"
	teamCodeTag     = "teamcode"
	activityTypeTag = "activitytype"
	roleTag         = "role"
)

var customMessages = map[string]map[string]string{
	LangEN: {
		notBlankTag:     "{0} cannot be blank",
		teamCodeTag:     "{0} must be a 6 character team code",
		activityTypeTag: "{0} must be one of training, match, meeting, other",
		roleTag:         "{0} must be coach or player",
	},
	LangES: {
		notBlankTag:     "{0} no puede estar vacío",
		teamCodeTag:     "{0} debe ser un código de equipo de 6 caracteres",
		activityTypeTag: "{0} debe ser training, match, meeting u other",
		roleTag:         "{0} debe ser coach o player",
	},
}

// Validator checks request payloads and renders field errors in the
// caller's language.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

// New builds a validator with the en and es catalogs loaded.
func New() (*Validator, error) {
	v := validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		notBlankTag:     notBlank,
		teamCodeTag:     teamCode,
		activityTypeTag: activityType,
		roleTag:         role,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, es.New())

	enTrans, _ := uni.GetTranslator(LangEN)
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, err
	}
	esTrans, _ := uni.GetTranslator(LangES)
	if err := es_translations.RegisterDefaultTranslations(v, esTrans); err != nil {
		return nil, err
	}

	for lang, trans := range map[string]ut.Translator{LangEN: enTrans, LangES: esTrans} {
		if err := registerCustom(v, trans, customMessages[lang]); err != nil {
			return nil, err
		}
		if err := registerErrorCatalog(trans, errorCatalog[lang]); err != nil {
			return nil, err
		}
	}
	return &Validator{validate: v, uni: uni}, nil
}

func registerCustom(v *validator.Validate, trans ut.Translator, messages map[string]string) error {
	for tag, text := range messages {
		register := func(t ut.Translator) error {
			return t.Add(tag, text, true)
		}
		translate := func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		}
		if err := v.RegisterTranslation(tag, trans, register, translate); err != nil {
			return err
		}
	}
	return nil
}

// Translator returns the translator for lang, falling back to English.
func (v *Validator) Translator(lang string) ut.Translator {
	trans, found := v.uni.GetTranslator(lang)
	if !found {
		trans, _ = v.uni.GetTranslator(LangEN)
	}
	return trans
}

// Language picks the response language from the Accept-Language header.
func Language(c *fiber.Ctx) string {
	if lang := c.AcceptsLanguages(LangEN, LangES); lang != "" {
		return lang
	}
	return LangEN
}

// Struct validates s. It returns validator.ValidationErrors on failure.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// FieldErrors flattens validation errors into field -> message in lang.
func (v *Validator) FieldErrors(err error, lang string) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	trans := v.Translator(lang)
	out := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = fe.Translate(trans)
	}
	return out
}

// fieldPath drops the root struct name from the namespace so nested fields
// read like "questions[0].prompt".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Bind parses the request body into out and validates it.
func (v *Validator) Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Check(c, out)
}

// Check validates an already populated value, such as parsed query params.
func (v *Validator) Check(c *fiber.Ctx, in any) error {
	if err := v.Struct(in); err != nil {
		if details := v.FieldErrors(err, Language(c)); details != nil {
			return apperrors.NewValidationError("invalid payload", details)
		}
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return nil
}

// Custom validators

func notBlank(fl validator.FieldLevel) bool {
	switch field := fl.Field(); field.Kind() {
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	default:
		return !field.IsZero()
	}
}

func teamCode(fl validator.FieldLevel) bool {
	code := service.NormalizeTeamCode(fl.Field().String())
	if len(code) != service.TeamCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(service.TeamCodeAlphabet, r) {
			return false
		}
	}
	return true
}

func activityType(fl validator.FieldLevel) bool {
	return domain.ActivityType(fl.Field().String()).Valid()
}

func role(fl validator.FieldLevel) bool {
	return domain.Role(fl.Field().String()).Valid()
}
