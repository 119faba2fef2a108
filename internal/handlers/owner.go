package handlers

import (
	"fundapp/internal/models"
	"fundapp/internal/services/owner"
	"fundapp/internal/utils"
	"fundapp/internal/utils/pagination"
	"fundapp/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/shopspring/decimal"
)

type OwnerHandler struct {
	service owner.Service
}

func NewOwnerHandler(service owner.Service) *OwnerHandler {
	return &OwnerHandler{service: service}
}

type createOwnerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=15,nodigits"`
}

type ownerView struct {
	ID         uint64   `json:"id"`
	Username   string   `json:"username"`
	AccountIDs []uint64 `json:"account_ids"`
}

type accountDetailsView struct {
	AccountID uint64          `json:"account_id"`
	Currency  models.Currency `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
}

type ownerDetailsView struct {
	ID       uint64               `json:"id"`
	Username string               `json:"username"`
	Accounts []accountDetailsView `json:"accounts"`
}

func toOwnerView(p *owner.Profile) ownerView {
	return ownerView{
		ID:         p.Owner.ID,
		Username:   p.Owner.Username,
		AccountIDs: p.AccountIDs(),
	}
}

// CreateOwner handles POST /owners. The username may also be passed as the
// name query parameter.
func (h *OwnerHandler) CreateOwner(c *fiber.Ctx) error {
	var req createOwnerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.BadRequest(c, "Invalid request format")
		}
	}
	if req.Username == "" {
		req.Username = fiberutils.CopyString(c.Query("name"))
	}

	if v := validation.Struct(req); !v.Valid() {
		return utils.BadRequest(c, v.Error())
	}

	created, err := h.service.CreateOwner(c.Context(), req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{
		"id":       created.ID,
		"username": created.Username,
	})
}

func (h *OwnerHandler) ListOwners(c *fiber.Ctx) error {
	p, err := pagination.ParseFromRequest(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	profiles, total, err := h.service.ListOwners(c.Context(), p.Offset, p.Size)
	if err != nil {
		return respondError(c, err)
	}
	p.Total = total

	views := make([]ownerView, 0, len(profiles))
	for i := range profiles {
		views = append(views, toOwnerView(&profiles[i]))
	}
	return utils.Success(c, pagination.Response(p, views))
}

func (h *OwnerHandler) GetOwner(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid owner ID")
	}

	profile, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, toOwnerView(profile))
}

func (h *OwnerHandler) GetOwnerDetails(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid owner ID")
	}

	profile, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	accounts := make([]accountDetailsView, 0, len(profile.Accounts))
	for _, a := range profile.Accounts {
		accounts = append(accounts, accountDetailsView{
			AccountID: a.ID,
			Currency:  a.Currency,
			Balance:   a.Balance,
		})
	}
	return utils.Success(c, ownerDetailsView{
		ID:       profile.Owner.ID,
		Username: profile.Owner.Username,
		Accounts: accounts,
	})
}

// AddAccount handles PATCH /owners/:id?currency=XXX.
func (h *OwnerHandler) AddAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid owner ID")
	}
	currency, err := models.ParseCurrency(fiberutils.CopyString(c.Query("currency")))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	profile, err := h.service.AddAccountToOwner(c.Context(), id, currency)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, toOwnerView(profile))
}

func (h *OwnerHandler) DeleteOwner(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid owner ID")
	}

	if err := h.service.DeleteOwner(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return utils.NoContent(c)
}
