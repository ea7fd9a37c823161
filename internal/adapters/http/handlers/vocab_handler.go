package handlers

import (
	"bondledger/internal/core/domain"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VocabHandler serves the closed vocabularies terms are validated against
type VocabHandler struct{}

// NewVocabHandler creates a new vocab handler
func NewVocabHandler() *VocabHandler {
	return &VocabHandler{}
}

// CurrencyEntry is one supported currency with its precision
type CurrencyEntry struct {
	Code           string `json:"code"`
	FractionDigits int32  `json:"fraction_digits"`
}

// ListCurrencies returns the supported currencies
// @Summary List currencies
// @Description Get the closed vocabulary of supported currencies
// @Tags Vocabulary
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /vocab/currencies [get]
func (h *VocabHandler) ListCurrencies(c *fiber.Ctx) error {
	out := make([]CurrencyEntry, 0)
	for _, cur := range domain.Currencies() {
		out = append(out, CurrencyEntry{
			Code:           cur.Code,
			FractionDigits: cur.FractionDigits,
		})
	}
	return response.Success(c, "Currencies retrieved successfully", out)
}

// ListCreditRatings returns the accepted rating codes
// @Summary List credit ratings
// @Description Get the closed vocabulary of credit ratings
// @Tags Vocabulary
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /vocab/credit-ratings [get]
func (h *VocabHandler) ListCreditRatings(c *fiber.Ctx) error {
	return response.Success(c, "Credit ratings retrieved successfully", domain.CreditRatings)
}

// ListBondTypes returns the accepted bond type codes
// @Summary List bond types
// @Description Get the closed vocabulary of bond types
// @Tags Vocabulary
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /vocab/bond-types [get]
func (h *VocabHandler) ListBondTypes(c *fiber.Ctx) error {
	return response.Success(c, "Bond types retrieved successfully", domain.BondTypes)
}
