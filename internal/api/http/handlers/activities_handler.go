package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// ActivitiesHandler serves the team calendar.
type ActivitiesHandler struct {
	activities *service.ActivityService
	validator  *validation.Validator
	now        func() time.Time
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activities *service.ActivityService, validator *validation.Validator) *ActivitiesHandler {
	return &ActivitiesHandler{activities: activities, validator: validator, now: time.Now}
}

func activityInput(req dto.ActivityRequest) service.ActivityInput {
	return service.ActivityInput{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Opponent:    req.Opponent,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
}

// Create POST /teams/:id/activities.
func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ActivityRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	activity, err := h.activities.Create(c.UserContext(), principal, c.Params("id"), activityInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, activityResponse(activity))
}

// List GET /teams/:id/activities?from=&to=.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var query dto.ActivityRangeQuery
	if query.From, err = parseTimeQuery(c, "from"); err != nil {
		return err
	}
	if query.To, err = parseTimeQuery(c, "to"); err != nil {
		return err
	}
	if err := h.validator.Check(c, &query); err != nil {
		return err
	}
	activities, err := h.activities.ListRange(c.UserContext(), principal, c.Params("id"), query.From, query.To)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, activityResponses(activities))
}

// Week GET /teams/:id/calendar/week?start=YYYY-MM-DD. Without start the
// current week is shown.
func (h *ActivitiesHandler) Week(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	loc := h.activities.CalendarLocation()
	weekOf := h.now().In(loc)
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		weekOf, err = time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return apperrors.NewValidationError("start must be YYYY-MM-DD", map[string]any{"field": "start"})
		}
	}
	week, activities, err := h.activities.Week(c.UserContext(), principal, c.Params("id"), weekOf)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, calendarWeekResponse(week, activities, loc))
}

// Get GET /activities/:id.
func (h *ActivitiesHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	activity, err := h.activities.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, activityResponse(activity))
}

// Update PUT /activities/:id.
func (h *ActivitiesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ActivityRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	activity, err := h.activities.Update(c.UserContext(), principal, c.Params("id"), activityInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, activityResponse(activity))
}

// Delete DELETE /activities/:id.
func (h *ActivitiesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.activities.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
