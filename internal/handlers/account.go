package handlers

import (
	"context"

	"fundapp/internal/models"
	"fundapp/internal/services/account"
	"fundapp/internal/utils"
	"fundapp/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// movementRequest carries the query amount of a deposit or withdrawal.
type movementRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"dgte=10"`
}

type AccountHandler struct {
	service account.Service
}

func NewAccountHandler(service account.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

type accountView struct {
	OwnerID  uint64          `json:"owner_id"`
	Currency models.Currency `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type transferRequest struct {
	SenderAccount   uint64          `json:"sender_account" validate:"required"`
	ReceiverAccount uint64          `json:"receiver_account" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"dgt=0"`
	ToSend          bool            `json:"to_send"`
}

func receiptView(r *account.Receipt) fiber.Map {
	return fiber.Map{
		"message":        r.Message,
		"transaction_id": r.TransactionID,
	}
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid account ID")
	}

	a, err := h.service.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, accountView{
		OwnerID:  a.OwnerID,
		Currency: a.Currency,
		Balance:  a.Balance,
	})
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid account ID")
	}

	if err := h.service.DeleteAccount(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return utils.NoContent(c)
}

func (h *AccountHandler) Deposit(c *fiber.Ctx) error {
	return h.movement(c, h.service.Deposit)
}

func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	return h.movement(c, h.service.Withdraw)
}

func (h *AccountHandler) movement(c *fiber.Ctx, apply func(context.Context, uint64, decimal.Decimal) (*account.Receipt, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid account ID")
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return utils.BadRequest(c, "amount must be a decimal number")
	}
	if v := validation.Struct(movementRequest{Amount: amount}); !v.Valid() {
		return utils.BadRequest(c, v.Error())
	}

	receipt, err := apply(c.Context(), id, amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, receiptView(receipt))
}

func (h *AccountHandler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if v := validation.Struct(req); !v.Valid() {
		return utils.BadRequest(c, v.Error())
	}

	receipt, err := h.service.Transfer(c.Context(), account.TransferRequest{
		SenderID:   req.SenderAccount,
		ReceiverID: req.ReceiverAccount,
		Amount:     req.Amount,
		ToSend:     req.ToSend,
	})
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, receiptView(receipt))
}
