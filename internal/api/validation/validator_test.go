package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinRequest struct {
	Code string `json:"code" validate:"required,teamcode"`
}

type activityRequest struct {
	Type  string `json:"type" validate:"required,activitytype"`
	Title string `json:"title" validate:"notblank,max=120"`
}

type questionRequest struct {
	Prompt  string   `json:"prompt" validate:"notblank"`
	Options []string `json:"options" validate:"min=2"`
}

type quizRequest struct {
	Title     string            `json:"title" validate:"notblank"`
	Questions []questionRequest `json:"questions" validate:"required,dive"`
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestCustomTags(t *testing.T) {
	t.Parallel()
	v := newValidator(t)

	assert.NoError(t, v.Struct(joinRequest{Code: " abc234 "}))
	assert.Error(t, v.Struct(joinRequest{Code: "ABC23"}))
	assert.Error(t, v.Struct(joinRequest{Code: "ABC230"}), "0 is not in the alphabet")

	assert.NoError(t, v.Struct(activityRequest{Type: "match", Title: "Derby"}))
	assert.Error(t, v.Struct(activityRequest{Type: "party", Title: "Derby"}))
	assert.Error(t, v.Struct(activityRequest{Type: "match", Title: "   "}))
}

func TestFieldErrors_UsesJSONNames(t *testing.T) {
	t.Parallel()
	v := newValidator(t)

	err := v.Struct(quizRequest{Title: "", Questions: []questionRequest{{Prompt: "ok", Options: []string{"a"}}}})
	require.Error(t, err)

	details := v.FieldErrors(err, LangEN)
	assert.Equal(t, "title cannot be blank", details["title"])
	assert.Contains(t, details, "questions[0].options")
}

func TestFieldErrors_Spanish(t *testing.T) {
	t.Parallel()
	v := newValidator(t)

	err := v.Struct(joinRequest{Code: "nope"})
	require.Error(t, err)

	details := v.FieldErrors(err, LangES)
	assert.Equal(t, "code debe ser un código de equipo de 6 caracteres", details["code"])

	err = v.Struct(joinRequest{})
	details = v.FieldErrors(err, LangES)
	assert.Equal(t, "code es un campo requerido", details["code"])
}

func TestFieldErrors_UnknownLanguageFallsBack(t *testing.T) {
	t.Parallel()
	v := newValidator(t)

	err := v.Struct(joinRequest{})
	details := v.FieldErrors(err, "de")
	assert.Equal(t, "code is a required field", details["code"])
}

func TestMessage(t *testing.T) {
	t.Parallel()
	v := newValidator(t)

	assert.Equal(t, "team not found", v.Message(LangEN, "NOT_FOUND", "team not found"))
	assert.Equal(t, "el recurso no existe", v.Message(LangES, "NOT_FOUND", "team not found"))
	assert.Equal(t, "authentication required", v.Message(LangEN, "UNAUTHORIZED", ""))
	assert.Equal(t, "fallback", v.Message(LangES, "TEAPOT", "fallback"))
}
