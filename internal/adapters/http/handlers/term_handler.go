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

// TermHandler handles bond offering endpoints
type TermHandler struct {
	termService *services.TermService
}

// NewTermHandler creates a new term handler
func NewTermHandler(termService *services.TermService) *TermHandler {
	return &TermHandler{termService: termService}
}

// CreateTerm handles term creation
// @Summary Create a bond offering
// @Description Issue a new bond term on the ledger. Only Bank parties may issue.
// @Tags Terms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTermInput true "Term fields"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /terms [post]
func (h *TermHandler) CreateTerm(c *fiber.Ctx) error {
	var input services.CreateTermInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	issuer := middleware.PartyName(c)
	term, txID, err := h.termService.CreateTerm(c.Context(), issuer, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIssuerNotBank):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, domain.ErrParValueOutOfRange),
			errors.Is(err, domain.ErrMaturityTooSoon),
			errors.Is(err, domain.ErrUnratedTerm),
			errors.Is(err, domain.ErrUntypedTerm),
			errors.Is(err, domain.ErrNoUnitsOffered),
			errors.Is(err, domain.ErrRedemptionNotZero),
			errors.Is(err, domain.ErrPaymentFrequencyInvalid),
			errors.Is(err, domain.ErrUnknownCurrency),
			errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create term")
		}
	}

	return response.Created(c, "Term created successfully", fiber.Map{
		"term":           term.ToResponse(),
		"transaction_id": txID,
	})
}

// ListTerms handles active term queries with filters
// @Summary List active terms
// @Description Query ACTIVE bond offerings by currency, rating, or maturity comparison
// @Tags Terms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param currency query string false "Currency code"
// @Param credit_rating query string false "Credit rating code"
// @Param maturity_date query string false "Maturity date (yyyyMMdd)"
// @Param maturity_cmp query string false "Comparison: lt, eq, gt"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /terms [get]
func (h *TermHandler) ListTerms(c *fiber.Ctx) error {
	filter := &repositories.TermFilter{
		Currency:     c.Query("currency"),
		CreditRating: c.Query("credit_rating"),
	}

	if raw := c.Query("maturity_date"); raw != "" {
		maturity, err := domain.ParseDate(raw)
		if err != nil {
			return response.BadRequest(c, "maturity_date must be yyyyMMdd")
		}
		filter.MaturityDate = &maturity

		switch cmp := repositories.MaturityCmp(c.Query("maturity_cmp", "eq")); cmp {
		case repositories.MaturityLess, repositories.MaturityEqual, repositories.MaturityGreater:
			filter.MaturityCmp = cmp
		default:
			return response.BadRequest(c, "maturity_cmp must be lt, eq or gt")
		}
	}

	terms, err := h.termService.ListActive(c.Context(), filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to list terms")
	}

	out := make([]*models.TermStateResponse, 0, len(terms))
	for _, term := range terms {
		out = append(out, term.ToResponse())
	}

	return response.Success(c, "Terms retrieved successfully", out)
}

// GetTerm handles single term lookup by linear id
// @Summary Get a term
// @Description Get the current version of a term by its linear id
// @Tags Terms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param linear_id path string true "Term linear id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /terms/{linear_id} [get]
func (h *TermHandler) GetTerm(c *fiber.Ctx) error {
	term, err := h.termService.GetByLinearID(c.Context(), c.Params("linear_id"))
	if err != nil {
		return response.NotFound(c, "Term not found")
	}

	return response.Success(c, "Term retrieved successfully", term.ToResponse())
}
