package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
)

// QuizzesHandler serves custom quizzes, theory assignments and attempts.
type QuizzesHandler struct {
	quizzes   *service.QuizService
	theory    *service.TheoryService
	validator *validation.Validator
	now       func() time.Time
}

// NewQuizzesHandler constructs handler.
func NewQuizzesHandler(quizzes *service.QuizService, theory *service.TheoryService, validator *validation.Validator) *QuizzesHandler {
	return &QuizzesHandler{quizzes: quizzes, theory: theory, validator: validator, now: time.Now}
}

func quizInput(req dto.QuizRequest) service.QuizInput {
	return service.QuizInput{
		Title:       req.Title,
		Description: req.Description,
		Questions:   quizQuestions(req.Questions),
	}
}

// Create POST /teams/:id/quizzes.
func (h *QuizzesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.QuizRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	q, err := h.quizzes.Create(c.UserContext(), principal, c.Params("id"), quizInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, quizResponse(q, true))
}

// List GET /teams/:id/quizzes.
func (h *QuizzesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	teamID := c.Params("id")
	quizzes, err := h.quizzes.ListByTeam(c.UserContext(), principal, teamID)
	if err != nil {
		return err
	}
	withAnswers := h.quizzes.RevealsAnswers(c.UserContext(), principal, teamID)
	items := make([]dto.QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		items = append(items, quizResponse(&quizzes[i], withAnswers))
	}
	return respond(c, http.StatusOK, items)
}

// Get GET /quizzes/:id.
func (h *QuizzesHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	q, err := h.quizzes.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, quizResponse(q, h.quizzes.RevealsAnswers(c.UserContext(), principal, q.TeamID)))
}

// Update PUT /quizzes/:id.
func (h *QuizzesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.QuizRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	q, err := h.quizzes.Update(c.UserContext(), principal, c.Params("id"), quizInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, quizResponse(q, true))
}

// Delete DELETE /quizzes/:id.
func (h *QuizzesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.quizzes.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign POST /quizzes/:id/assignments.
func (h *QuizzesHandler) Assign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignQuizRequest
	if len(c.Body()) > 0 {
		if err := h.validator.Bind(c, &req); err != nil {
			return err
		}
	}
	assigned, err := h.theory.Assign(c.UserContext(), principal, c.Params("id"), req.PlayerIDs, req.DueDate)
	if err != nil {
		return err
	}
	now := h.now()
	items := make([]dto.AssignmentResponse, 0, len(assigned))
	for i := range assigned {
		items = append(items, assignmentResponse(&assigned[i], now))
	}
	return respond(c, http.StatusCreated, items)
}

// ListTeam GET /teams/:id/assignments?quiz_id=.
func (h *QuizzesHandler) ListTeam(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var quizID *string
	if raw := strings.TrimSpace(c.Query("quiz_id")); raw != "" {
		quizID = &raw
	}
	rows, err := h.theory.ListTeam(c.UserContext(), principal, c.Params("id"), quizID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, assignmentListing(rows, h.now()))
}

// ListMine GET /me/assignments.
func (h *QuizzesHandler) ListMine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.theory.ListMine(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, assignmentListing(rows, h.now()))
}

// Unassign DELETE /assignments/:id.
func (h *QuizzesHandler) Unassign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.theory.Unassign(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// StartAttempt POST /assignments/:id/attempts.
func (h *QuizzesHandler) StartAttempt(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	attempt, err := h.theory.StartAttempt(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, attemptResponse(attempt, nil, h.now()))
}

// GetAttempt GET /attempts/:id.
func (h *QuizzesHandler) GetAttempt(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	attempt, err := h.theory.GetAttempt(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, attemptResponse(attempt, nil, h.now()))
}

// Answer POST /attempts/:id/answer.
func (h *QuizzesHandler) Answer(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AnswerRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	step, err := h.theory.Answer(c.UserContext(), principal, c.Params("id"), *req.Option)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, attemptResponse(step.Attempt, step, h.now()))
}

// Next POST /attempts/:id/next.
func (h *QuizzesHandler) Next(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	step, err := h.theory.Next(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, attemptResponse(step.Attempt, step, h.now()))
}
