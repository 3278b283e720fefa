package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
)

// TeamsHandler manages teams, join codes and rosters.
type TeamsHandler struct {
	teams     *service.TeamService
	validator *validation.Validator
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teams *service.TeamService, validator *validation.Validator) *TeamsHandler {
	return &TeamsHandler{teams: teams, validator: validator}
}

// Create POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	team, err := h.teams.Create(c.UserContext(), principal, service.TeamInput{Name: req.Name, Category: req.Category})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, teamResponse(team, principal))
}

// ListMine GET /teams.
func (h *TeamsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	teams, err := h.teams.ListMine(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, teamResponse(&teams[i], principal))
	}
	return respond(c, http.StatusOK, items)
}

// Get GET /teams/:id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.teams.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, teamResponse(team, principal))
}

// Update PATCH /teams/:id.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamUpdateRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	team, err := h.teams.Update(c.UserContext(), principal, c.Params("id"), service.TeamInput{Name: req.Name, Category: req.Category})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, teamResponse(team, principal))
}

// RegenerateCode POST /teams/:id/code.
func (h *TeamsHandler) RegenerateCode(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.teams.RegenerateCode(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, teamResponse(team, principal))
}

// Join POST /teams/join.
func (h *TeamsHandler) Join(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.JoinTeamRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	team, err := h.teams.JoinByCode(c.UserContext(), principal, req.Code)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, teamResponse(team, principal))
}

// Leave POST /teams/leave.
func (h *TeamsHandler) Leave(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.teams.Leave(c.UserContext(), principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Roster GET /teams/:id/roster.
func (h *TeamsHandler) Roster(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	players, err := h.teams.Roster(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, rosterEntries(players))
}

// RemovePlayer DELETE /teams/:id/players/:playerId.
func (h *TeamsHandler) RemovePlayer(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.teams.RemovePlayer(c.UserContext(), principal, c.Params("id"), c.Params("playerId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
