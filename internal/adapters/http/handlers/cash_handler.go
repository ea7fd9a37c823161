package handlers

import (
	"errors"

	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/core/domain"
	"bondledger/internal/core/services"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CashHandler handles cash issuance, transfer and balance endpoints
type CashHandler struct {
	cashService *services.CashService
}

// NewCashHandler creates a new cash handler
func NewCashHandler(cashService *services.CashService) *CashHandler {
	return &CashHandler{cashService: cashService}
}

// IssueCashBody represents a cash issuance request body
type IssueCashBody struct {
	Recipient    string `json:"recipient"`
	CurrencyCode string `json:"currency_code"`
	Amount       string `json:"amount"`
	USDRate      float64 `json:"usd_rate"`
}

// TransferCashBody represents a cash transfer request body
type TransferCashBody struct {
	Recipient    string `json:"recipient"`
	CurrencyCode string `json:"currency_code"`
	Amount       string `json:"amount"`
}

// IssueCash handles cash issuance
// @Summary Issue cash
// @Description Mint cash into a recipient's holding. Central bank only.
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IssueCashBody true "Issuance request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cash/issue [post]
func (h *CashHandler) IssueCash(c *fiber.Ctx) error {
	var req IssueCashBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.BadRequest(c, "amount must be a decimal string")
	}

	issuer := middleware.PartyName(c)
	receipt, err := h.cashService.Issue(c.Context(), issuer, req.Recipient, req.CurrencyCode, req.USDRate, amount)
	if err != nil {
		return h.mapCashError(c, err, "Failed to issue cash")
	}

	return response.Success(c, "Cash issued successfully", receipt)
}

// TransferCash handles a cash transfer
// @Summary Transfer cash
// @Description Move cash from the caller to a Bank recipient
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransferCashBody true "Transfer request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cash/transfer [post]
func (h *CashHandler) TransferCash(c *fiber.Ctx) error {
	var req TransferCashBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.BadRequest(c, "amount must be a decimal string")
	}

	sender := middleware.PartyName(c)
	receipt, err := h.cashService.Transfer(c.Context(), sender, req.Recipient, req.CurrencyCode, amount)
	if err != nil {
		return h.mapCashError(c, err, "Failed to transfer cash")
	}

	return response.Success(c, "Cash transferred successfully", receipt)
}

// GetBalance handles a balance query
// @Summary Get cash balance
// @Description Get the caller's balance in one currency, truncated to its precision
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param currency query string true "Currency code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /cash/balance [get]
func (h *CashHandler) GetBalance(c *fiber.Ctx) error {
	currency := c.Query("currency")
	if currency == "" {
		return response.BadRequest(c, "currency is required")
	}

	party := middleware.PartyName(c)
	balance, err := h.cashService.Balance(c.Context(), party, currency)
	if err != nil {
		return h.mapCashError(c, err, "Failed to query balance")
	}

	return response.Success(c, "Balance retrieved successfully", fiber.Map{
		"party":    party,
		"currency": currency,
		"balance":  balance.String(),
	})
}

// mapCashError translates cash domain errors to HTTP responses
func (h *CashHandler) mapCashError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrWrongRole):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrPartyNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrUnknownCurrency),
		errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrInsufficientCash),
		errors.Is(err, domain.ErrCashStateNotFound),
		errors.Is(err, domain.ErrDuplicateCashState):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}
