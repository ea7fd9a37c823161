package handlers

import (
	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/pkg/pagination"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PartyHandler handles party directory endpoints
type PartyHandler struct {
	parties repositories.PartyRepository
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(parties repositories.PartyRepository) *PartyHandler {
	return &PartyHandler{parties: parties}
}

// ListParties handles listing ledger parties
// @Summary List parties
// @Description Get a paginated list of ledger parties, optionally by role
// @Tags Parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param role query string false "Filter by role"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /parties [get]
func (h *PartyHandler) ListParties(c *fiber.Ctx) error {
	if role := c.Query("role"); role != "" {
		parties, err := h.parties.ListByRole(c.Context(), role)
		if err != nil {
			return response.InternalServerError(c, "Failed to list parties")
		}
		return response.Success(c, "Parties retrieved successfully", toPartyResponses(parties))
	}

	params := pagination.GetParams(c)
	parties, total, err := h.parties.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list parties")
	}

	return response.Success(c, "Parties retrieved successfully",
		pagination.NewResponse(toPartyResponses(parties), params, total))
}

// GetParty handles a single party lookup by name
// @Summary Get party by name
// @Description Get a ledger party by its name
// @Tags Parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Party name"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /parties/{name} [get]
func (h *PartyHandler) GetParty(c *fiber.Ctx) error {
	party, err := h.parties.GetByName(c.Context(), c.Params("name"))
	if err != nil {
		return response.NotFound(c, "Party not found")
	}

	return response.Success(c, "Party retrieved successfully", party.ToResponse())
}

// ListRoles returns the known party roles
// @Summary List roles
// @Description Get the closed vocabulary of party roles
// @Tags Parties
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /vocab/roles [get]
func (h *PartyHandler) ListRoles(c *fiber.Ctx) error {
	roles := []domain.Role{
		domain.RoleBank,
		domain.RoleCentralBank,
		domain.RoleObserver,
		domain.RoleNotary,
	}
	return response.Success(c, "Roles retrieved successfully", roles)
}

func toPartyResponses(parties []*models.Party) []*models.PartyResponse {
	out := make([]*models.PartyResponse, 0, len(parties))
	for _, party := range parties {
		out = append(out, party.ToResponse())
	}
	return out
}
