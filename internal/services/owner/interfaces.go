package owner

import (
	"context"

	"fundapp/internal/models"
)

// Service manages owners and the accounts they hold.
type Service interface {
	CreateOwner(ctx context.Context, username string) (*models.Owner, error)
	GetByID(ctx context.Context, id uint64) (*Profile, error)
	ListOwners(ctx context.Context, offset, limit int) ([]Profile, int64, error)
	AddAccountToOwner(ctx context.Context, ownerID uint64, currency models.Currency) (*Profile, error)
	DeleteOwner(ctx context.Context, id uint64) error
}

// Profile is an owner together with the accounts currently linked to it.
type Profile struct {
	Owner    models.Owner
	Accounts []models.Account
}

// AccountIDs returns the ids of the owner's accounts in ascending order.
func (p *Profile) AccountIDs() []uint64 {
	ids := make([]uint64, 0, len(p.Accounts))
	for _, a := range p.Accounts {
		ids = append(ids, a.ID)
	}
	return ids
}
