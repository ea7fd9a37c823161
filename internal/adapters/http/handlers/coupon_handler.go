package handlers

import (
	"errors"
	"time"

	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/core/domain"
	"bondledger/internal/core/services"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CouponHandler handles coupon cycle and redemption endpoints
type CouponHandler struct {
	couponService *services.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// RunCycleBody represents a coupon cycle trigger body
type RunCycleBody struct {
	CouponDate string `json:"coupon_date"`
}

// RedeemBody represents a redemption request body
type RedeemBody struct {
	TermLinearID    string `json:"term_linear_id"`
	EarlyRedemption bool   `json:"early_redemption"`
}

// RunCycle handles a manual coupon cycle trigger
// @Summary Run a coupon cycle
// @Description Pay due coupons on the caller's active bonds as of coupon_date
// @Tags Coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RunCycleBody true "Cycle reference date (yyyyMMdd, defaults to today)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /coupons/run [post]
func (h *CouponHandler) RunCycle(c *fiber.Ctx) error {
	var req RunCycleBody
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	couponDate := time.Now()
	if req.CouponDate != "" {
		parsed, err := domain.ParseDate(req.CouponDate)
		if err != nil {
			return response.BadRequest(c, "coupon_date must be yyyyMMdd")
		}
		couponDate = parsed
	}

	issuer := middleware.PartyName(c)
	summary, err := h.couponService.RunCycle(c.Context(), issuer, couponDate)
	if err != nil {
		return response.InternalServerError(c, "Coupon cycle failed")
	}

	return response.Success(c, "Coupon cycle finished", summary)
}

// Redeem handles a term redemption
// @Summary Redeem a term
// @Description Pay out and retire every holding of the caller's term
// @Tags Coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RedeemBody true "Redemption request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /bonds/redeem [post]
func (h *CouponHandler) Redeem(c *fiber.Ctx) error {
	var req RedeemBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.TermLinearID == "" {
		return response.BadRequest(c, "term_linear_id is required")
	}

	issuer := middleware.PartyName(c)
	summary, err := h.couponService.RedeemTerm(c.Context(), issuer, req.TermLinearID, req.EarlyRedemption)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTermNotFound):
			return response.NotFound(c, "Term not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only the issuer may redeem a term")
		case errors.Is(err, domain.ErrBondNotMatured):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Redemption failed")
		}
	}

	return response.Success(c, "Redemption finished", summary)
}
