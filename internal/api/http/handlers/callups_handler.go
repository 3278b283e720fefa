package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
)

// CallupsHandler serves immediate and scheduled callups.
type CallupsHandler struct {
	callups   *service.CallupService
	scheduled *service.ScheduledCallupService
	validator *validation.Validator
}

// NewCallupsHandler constructs handler.
func NewCallupsHandler(callups *service.CallupService, scheduled *service.ScheduledCallupService, validator *validation.Validator) *CallupsHandler {
	return &CallupsHandler{callups: callups, scheduled: scheduled, validator: validator}
}

// Send POST /activities/:id/callups.
func (h *CallupsHandler) Send(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SendCallupRequest
	if len(c.Body()) > 0 {
		if err := h.validator.Bind(c, &req); err != nil {
			return err
		}
	}
	result, err := h.callups.Send(c.UserContext(), principal, c.Params("id"), req.PlayerIDs)
	if err != nil {
		return err
	}
	added := result.Added
	if added == nil {
		added = []string{}
	}
	return respond(c, http.StatusOK, dto.SendCallupResponse{
		ActivityID: result.ActivityID,
		Requested:  result.Requested,
		Added:      added,
	})
}

// Overview GET /activities/:id/callups.
func (h *CallupsHandler) Overview(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	overview, err := h.callups.Overview(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, callupOverviewResponse(overview))
}

// Respond PUT /activities/:id/callups/me.
func (h *CallupsHandler) Respond(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RespondCallupRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	response, err := h.callups.Respond(c.UserContext(), principal, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, callupItem(response))
}

// MyResponse GET /activities/:id/callups/me.
func (h *CallupsHandler) MyResponse(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	response, err := h.callups.MyResponse(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, callupItem(response))
}

// Pending GET /me/callups.
func (h *CallupsHandler) Pending(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.callups.Pending(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, pendingCallups(rows))
}

// Schedule POST /activities/:id/scheduled-callups.
func (h *CallupsHandler) Schedule(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleCallupRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	sc, err := h.scheduled.Schedule(c.UserContext(), principal, c.Params("id"), req.SendAt, req.PlayerIDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, scheduledResponse(sc))
}

// ListScheduled GET /teams/:id/scheduled-callups.
func (h *CallupsHandler) ListScheduled(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.scheduled.ListByTeam(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ScheduledCallupResponse, 0, len(rows))
	for i := range rows {
		items = append(items, scheduledResponse(&rows[i]))
	}
	return respond(c, http.StatusOK, items)
}

// CancelScheduled DELETE /scheduled-callups/:id.
func (h *CallupsHandler) CancelScheduled(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	sc, err := h.scheduled.Cancel(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, scheduledResponse(sc))
}
