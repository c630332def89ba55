package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/core/export"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
)

type AccountHandler struct {
	profiles *services.ProfileService
	ledger   *services.LedgerService
}

func NewAccountHandler(profiles *services.ProfileService, ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{profiles: profiles, ledger: ledger}
}

// CompanyNameRequest is the body of PUT /profile/company-name
type CompanyNameRequest struct {
	CompanyName string `json:"company_name"`
}

// GetProfile godoc
// @Summary Current account
// @Description Profile, credit balance and plan assignment of the caller
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.AccountOverview
// @Failure 404 {object} map[string]interface{}
// @Router /profile [get]
func (h *AccountHandler) GetProfile(c *fiber.Ctx) error {
	overview, err := h.profiles.Get(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// SetCompanyName godoc
// @Summary Set company name
// @Description The company name is shown to homeowners and is required before unlocking leads
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CompanyNameRequest true "Company name"
// @Success 200 {object} models.Profile
// @Failure 428 {object} map[string]interface{}
// @Router /profile/company-name [put]
func (h *AccountHandler) SetCompanyName(c *fiber.Ctx) error {
	var req CompanyNameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	profile, err := h.profiles.SetCompanyName(c.UserContext(), auth.AccountID(c), req.CompanyName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetBalance godoc
// @Summary Credit balance
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Balance
// @Router /credits/balance [get]
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	balance, err := h.ledger.GetBalance(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(balance)
}

// ListTransactions godoc
// @Summary Credit movements
// @Description Most recent credit movements, newest first
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} map[string]interface{}
// @Router /credits/transactions [get]
func (h *AccountHandler) ListTransactions(c *fiber.Ctx) error {
	txs, err := h.ledger.History(c.UserContext(), auth.AccountID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"transactions": txs,
		"count":        len(txs),
	})
}

// DownloadStatement godoc
// @Summary Download credit statement
// @Tags Credits
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "xlsx (default) or pdf"
// @Success 200 {file} file
// @Router /credits/statement [get]
func (h *AccountHandler) DownloadStatement(c *fiber.Ctx) error {
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		return badRequest(c, "format must be xlsx or pdf")
	}

	file, err := h.ledger.ExportStatement(c.UserContext(), auth.AccountID(c), format)
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("extracto-creditos-%s.%s", time.Now().Format("2006-01-02"), file.Extension)
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Content)
}
