package quiz

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/squad-service/internal/domain"
)

const (
	MinOptions   = 2
	MaxOptions   = 6
	MaxQuestions = 50
)

// FieldError points at an invalid part of a quiz definition.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found in a definition.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Details flattens the errors into a field -> message map.
func (v ValidationErrors) Details() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		out[e.Field] = e.Message
	}
	return out
}

// ValidateQuestions checks prompts, option counts and correct indexes.
func ValidateQuestions(questions []domain.QuizQuestion) error {
	var errs ValidationErrors
	if len(questions) == 0 {
		errs = append(errs, FieldError{Field: "questions", Message: "at least one question is required"})
	}
	if len(questions) > MaxQuestions {
		errs = append(errs, FieldError{Field: "questions", Message: fmt.Sprintf("at most %d questions", MaxQuestions)})
	}
	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, FieldError{Field: field + ".prompt", Message: "is required"})
		}
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			errs = append(errs, FieldError{
				Field:   field + ".options",
				Message: fmt.Sprintf("must have between %d and %d options", MinOptions, MaxOptions),
			})
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				errs = append(errs, FieldError{Field: fmt.Sprintf("%s.options[%d]", field, j), Message: "is required"})
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			errs = append(errs, FieldError{Field: field + ".correct_index", Message: "out of range"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Definition is the portable form of a quiz used by the YAML importer.
type Definition struct {
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Questions   []domain.QuizQuestion `yaml:"questions"`
}

// Validate checks the whole definition.
func (d *Definition) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "is required"})
	}
	if err := ValidateQuestions(d.Questions); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseYAML decodes and validates a quiz definition. Unknown keys are rejected.
func ParseYAML(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse quiz yaml: %w", err)
	}
	def.Title = strings.TrimSpace(def.Title)
	def.Description = strings.TrimSpace(def.Description)
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
