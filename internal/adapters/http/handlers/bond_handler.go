package handlers

import (
	"errors"

	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/core/services"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BondHandler handles bond purchase and position endpoints
type BondHandler struct {
	requestService *services.BondRequestService
	bonds          repositories.BondRepository
	holdings       repositories.HoldingRepository
}

// NewBondHandler creates a new bond handler
func NewBondHandler(
	requestService *services.BondRequestService,
	bonds repositories.BondRepository,
	holdings repositories.HoldingRepository,
) *BondHandler {
	return &BondHandler{
		requestService: requestService,
		bonds:          bonds,
		holdings:       holdings,
	}
}

// BondRequestBody represents a purchase request body
type BondRequestBody struct {
	TermLinearID string `json:"term_linear_id"`
	Units        int    `json:"units"`
}

// RequestBond handles a bond purchase
// @Summary Request bond units
// @Description Buy units of a term; settles cash against the issuer atomically
// @Tags Bonds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BondRequestBody true "Purchase request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bonds/request [post]
func (h *BondHandler) RequestBond(c *fiber.Ctx) error {
	var req BondRequestBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.TermLinearID == "" {
		return response.BadRequest(c, "term_linear_id is required")
	}
	if req.Units <= 0 {
		return response.BadRequest(c, "units must be greater than zero")
	}

	investor := middleware.PartyName(c)
	receipt, err := h.requestService.Request(c.Context(), investor, req.TermLinearID, req.Units)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTermNotFound):
			return response.NotFound(c, "Term not found")
		case errors.Is(err, domain.ErrNotLatestTerm):
			// The acted-on version lost a commit race; the client retries
			// against the fresh state.
			return response.Conflict(c, err.Error())
		case errors.Is(err, domain.ErrInsufficientUnits),
			errors.Is(err, domain.ErrIssuerAsInvestor),
			errors.Is(err, domain.ErrBondMatured),
			errors.Is(err, domain.ErrInsufficientCash),
			errors.Is(err, domain.ErrCashStateNotFound),
			errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrWrongRole):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, domain.ErrSessionTimeout):
			return response.Error(c, fiber.StatusGatewayTimeout, err.Error())
		default:
			return response.InternalServerError(c, "Failed to settle bond request")
		}
	}

	return response.Success(c, "Bond request settled", receipt)
}

// ListBonds lists the caller's active bond positions
// @Summary List bond positions
// @Description List the caller's ACTIVE bonds, as investor or issuer
// @Tags Bonds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param side query string false "investor (default) or issuer"
// @Success 200 {object} response.Response
// @Router /bonds [get]
func (h *BondHandler) ListBonds(c *fiber.Ctx) error {
	party := middleware.PartyName(c)

	var (
		bonds []*models.BondState
		err   error
	)
	if c.Query("side", "investor") == "issuer" {
		bonds, err = h.bonds.ListActiveByIssuer(c.Context(), party)
	} else {
		bonds, err = h.bonds.ListActiveByInvestor(c.Context(), party)
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to list bonds")
	}

	out := make([]*models.BondStateResponse, 0, len(bonds))
	for _, bond := range bonds {
		out = append(out, bond.ToResponse())
	}

	return response.Success(c, "Bonds retrieved successfully", out)
}

// GetBond handles single bond lookup by linear id
// @Summary Get a bond
// @Description Get the current version of a bond by its linear id
// @Tags Bonds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param linear_id path string true "Bond linear id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bonds/{linear_id} [get]
func (h *BondHandler) GetBond(c *fiber.Ctx) error {
	bond, err := h.bonds.LatestByLinearID(c.Context(), c.Params("linear_id"))
	if err != nil {
		return response.NotFound(c, "Bond not found")
	}

	return response.Success(c, "Bond retrieved successfully", bond.ToResponse())
}

// HoldingResponse pairs a holding with its bond descriptor
type HoldingResponse struct {
	BondLinearID string `json:"bond_linear_id"`
	Amount       int    `json:"amount"`
}

// ListHoldings lists the caller's fungible bond holdings
// @Summary List bond holdings
// @Description List the caller's unit counts per bond
// @Tags Bonds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /bonds/holdings [get]
func (h *BondHandler) ListHoldings(c *fiber.Ctx) error {
	party := middleware.PartyName(c)

	holdings, err := h.holdings.BondHoldingsByHolder(c.Context(), party)
	if err != nil {
		return response.InternalServerError(c, "Failed to list holdings")
	}

	out := make([]*HoldingResponse, 0, len(holdings))
	for _, holding := range holdings {
		out = append(out, &HoldingResponse{
			BondLinearID: holding.BondLinearID,
			Amount:       holding.Amount,
		})
	}

	return response.Success(c, "Holdings retrieved successfully", out)
}
