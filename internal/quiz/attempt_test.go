package quiz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/squad-service/internal/domain"
)

func sampleQuiz() *domain.CustomQuiz {
	return &domain.CustomQuiz{
		ID:    "quiz-1",
		Title: "Offside",
		Questions: []domain.QuizQuestion{
			{Prompt: "Is a player level with the second-last defender offside?", Options: []string{"Yes", "No"}, CorrectIndex: 1, Explanation: "Level is onside."},
			{Prompt: "Can you be offside from a throw-in?", Options: []string{"Yes", "No"}, CorrectIndex: 1, Explanation: "Throw-ins are exempt."},
			{Prompt: "Offside is judged when the ball is...", Options: []string{"received", "played", "shot"}, CorrectIndex: 1, Explanation: "At the moment it is played."},
		},
	}
}

func TestAttemptFullRun(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	attempt, err := NewAttempt("att-1", "asg-1", "player-1", sampleQuiz(), now)
	require.NoError(t, err)
	assert.Equal(t, PhaseQuestion, attempt.Phase)

	view, err := attempt.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 3, view.Total)

	fb, err := attempt.Answer(1)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, "Level is onside.", fb.Explanation)
	assert.False(t, fb.Last)
	require.NoError(t, attempt.Next(now))

	fb, err = attempt.Answer(0)
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	assert.Equal(t, 1, fb.CorrectIndex)
	require.NoError(t, attempt.Next(now))

	fb, err = attempt.Answer(1)
	require.NoError(t, err)
	assert.True(t, fb.Last)

	_, err = attempt.Result()
	assert.ErrorIs(t, err, ErrNotFinished)

	finishedAt := now.Add(5 * time.Minute)
	require.NoError(t, attempt.Next(finishedAt))
	assert.Equal(t, PhaseFinished, attempt.Phase)
	require.NotNil(t, attempt.FinishedAt)
	assert.True(t, finishedAt.Equal(*attempt.FinishedAt))

	result, err := attempt.Result()
	require.NoError(t, err)
	assert.Equal(t, Result{Score: 2, Total: 3, Percent: 66}, result)
}

func TestAttemptRejectsInvalidTransitions(t *testing.T) {
	now := time.Now()
	attempt, err := NewAttempt("att-1", "asg-1", "player-1", sampleQuiz(), now)
	require.NoError(t, err)

	assert.ErrorIs(t, attempt.Next(now), ErrNotAnswered)
	_, err = attempt.Feedback()
	assert.ErrorIs(t, err, ErrNotAnswered)

	_, err = attempt.Answer(5)
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = attempt.Answer(-1)
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = attempt.Answer(0)
	require.NoError(t, err)
	_, err = attempt.Answer(1)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 0, attempt.Correct)

	for attempt.Phase != PhaseFinished {
		if attempt.Phase == PhaseQuestion {
			_, err = attempt.Answer(0)
			require.NoError(t, err)
		}
		require.NoError(t, attempt.Next(now))
	}
	_, err = attempt.Answer(0)
	assert.ErrorIs(t, err, ErrFinished)
	assert.ErrorIs(t, attempt.Next(now), ErrFinished)
	_, err = attempt.Current()
	assert.ErrorIs(t, err, ErrFinished)
}

func TestNewAttemptRequiresQuestions(t *testing.T) {
	_, err := NewAttempt("a", "b", "c", &domain.CustomQuiz{ID: "q"}, time.Now())
	assert.ErrorIs(t, err, ErrNoQuestions)
	_, err = NewAttempt("a", "b", "c", nil, time.Now())
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestCurrentHidesCorrectOption(t *testing.T) {
	attempt, err := NewAttempt("a", "b", "c", sampleQuiz(), time.Now())
	require.NoError(t, err)

	view, err := attempt.Current()
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "No"}, view.Options)
	assert.NotContains(t, view.Prompt, "onside")
}

func TestScoreRoundsDown(t *testing.T) {
	assert.Equal(t, 66, Score(2, 3).Percent)
	assert.Equal(t, 100, Score(4, 4).Percent)
	assert.Equal(t, 0, Score(0, 0).Percent)
	assert.Equal(t, 14, Score(1, 7).Percent)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	attempt, err := NewAttempt("att-9", "asg", "player", sampleQuiz(), time.Now())
	require.NoError(t, err)
	_, err = attempt.Answer(1)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, attempt))

	loaded, err := store.Get(ctx, "att-9")
	require.NoError(t, err)
	assert.Equal(t, PhaseAnswered, loaded.Phase)
	assert.Equal(t, 1, loaded.Correct)

	require.NoError(t, store.Delete(ctx, "att-9"))
	_, err = store.Get(ctx, "att-9")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestParseYAML(t *testing.T) {
	doc := `
title: "  Set pieces  "
description: Corners and free kicks
questions:
  - prompt: Who takes short corners?
    options: [Winger, Goalkeeper]
    correct_index: 0
    explanation: Wide players usually do.
`
	def, err := ParseYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Set pieces", def.Title)
	require.Len(t, def.Questions, 1)
	assert.Equal(t, "Wide players usually do.", def.Questions[0].Explanation)
}

func TestParseYAMLRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]struct {
		doc   string
		field string
	}{
		"missing title": {
			doc:   "questions:\n  - prompt: a\n    options: [x, y]\n    correct_index: 0\n",
			field: "title",
		},
		"one option": {
			doc:   "title: t\nquestions:\n  - prompt: a\n    options: [x]\n    correct_index: 0\n",
			field: "questions[0].options",
		},
		"index out of range": {
			doc:   "title: t\nquestions:\n  - prompt: a\n    options: [x, y]\n    correct_index: 2\n",
			field: "questions[0].correct_index",
		},
		"no questions": {
			doc:   "title: t\n",
			field: "questions",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYAML(strings.NewReader(tc.doc))
			require.Error(t, err)
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Details(), tc.field)
		})
	}

	_, err := ParseYAML(strings.NewReader("title: t\nunknown: 1\n"))
	assert.Error(t, err)
}
