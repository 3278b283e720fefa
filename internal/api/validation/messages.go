package validation

import ut "github.com/go-playground/universal-translator"

// errorCatalog holds the localized headline for each error code. English
// responses keep the message produced by the service; other languages use
// these texts.
var errorCatalog = map[string]map[string]string{
	LangEN: {
		"VALIDATION_FAILED":      "the request is invalid",
		"NOT_FOUND":              "the resource was not found",
		"UNAUTHORIZED":           "authentication required",
		"FORBIDDEN":              "you are not allowed to do this",
		"CONFLICT":               "the request conflicts with the current state",
		"INTERNAL_ERROR":         "internal server error",
		"DEPENDENCY_UNAVAILABLE": "one or more dependencies unavailable",
	},
	LangES: {
		"VALIDATION_FAILED":      "la solicitud no es válida",
		"NOT_FOUND":              "el recurso no existe",
		"UNAUTHORIZED":           "se requiere autenticación",
		"FORBIDDEN":              "no tienes permiso para hacer esto",
		"CONFLICT":               "la solicitud entra en conflicto con el estado actual",
		"INTERNAL_ERROR":         "error interno del servidor",
		"DEPENDENCY_UNAVAILABLE": "una o más dependencias no están disponibles",
	},
}

func errorKey(code string) string {
	return "error." + code
}

func registerErrorCatalog(trans ut.Translator, messages map[string]string) error {
	for code, text := range messages {
		if err := trans.Add(errorKey(code), text, true); err != nil {
			return err
		}
	}
	return nil
}

// Message returns the text shown for an error code in lang. English keeps
// fallback, the service's own message, when it is set.
func (v *Validator) Message(lang, code, fallback string) string {
	if lang == LangEN && fallback != "" {
		return fallback
	}
	msg, err := v.Translator(lang).T(errorKey(code))
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
