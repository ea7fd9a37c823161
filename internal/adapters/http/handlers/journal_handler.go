package handlers

import (
	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/pkg/pagination"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// JournalHandler serves the committed transaction history
type JournalHandler struct {
	journal repositories.JournalRepository
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journal repositories.JournalRepository) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// ListTransactions lists the caller's committed transactions
// @Summary List transactions
// @Description Get a paginated history of transactions the caller performed
// @Tags Journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /journal [get]
func (h *JournalHandler) ListTransactions(c *fiber.Ctx) error {
	party := middleware.PartyName(c)
	params := pagination.GetParams(c)

	txs, total, err := h.journal.ListByPerformer(c.Context(), party, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully",
		pagination.NewResponse(txs, params, total))
}
