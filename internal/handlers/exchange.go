package handlers

import (
	"fundapp/internal/models"
	"fundapp/internal/services/exchange"
	"fundapp/internal/utils"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

type ExchangeHandler struct {
	service exchange.Service
}

func NewExchangeHandler(service exchange.Service) *ExchangeHandler {
	return &ExchangeHandler{service: service}
}

// GetRates handles GET /exchange-rates/:base.
func (h *ExchangeHandler) GetRates(c *fiber.Ctx) error {
	base, err := models.ParseCurrency(fiberutils.CopyString(c.Params("base")))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	rate, err := h.service.GetRates(c.Context(), base)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"base":            rate.Currency,
		"rates":           rate.Rates,
		"last_updated_at": rate.LastUpdatedAt.Format("2006-01-02"),
	})
}
