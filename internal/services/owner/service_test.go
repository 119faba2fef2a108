package owner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"
	"fundapp/internal/repositories/cache"
	"fundapp/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	owners   *cache.LocalCache[models.Owner]
	accounts *cache.LocalCache[models.Account]
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		store:    memory.NewStore(),
		owners:   cache.NewLocalCache[models.Owner](0),
		accounts: cache.NewLocalCache[models.Account](0),
	}
	f.svc = NewService(f.store, f.owners, f.accounts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func TestOwnerService_CreateOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, owner.ID)
	assert.Equal(t, "alice", owner.Username)

	_, err = f.svc.CreateOwner(ctx, "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Equal(t, "alice already exists", err.Error())

	_, err = f.svc.CreateOwner(ctx, "  ")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOperation))
}

func TestOwnerService_GetByID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.GetByID(ctx, 77)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Owner not found with ID: 77", err.Error())

	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)

	profile, err := f.svc.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Owner.Username)
	assert.Empty(t, profile.Accounts)
	assert.Equal(t, 1, f.owners.Len())
}

func TestOwnerService_AddAccountToOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)

	profile, err := f.svc.AddAccountToOwner(ctx, owner.ID, models.USD)
	require.NoError(t, err)
	require.Len(t, profile.Accounts, 1)
	assert.Equal(t, models.USD, profile.Accounts[0].Currency)
	assert.True(t, profile.Accounts[0].Balance.Equal(decimal.Zero))
	assert.Equal(t, []uint64{1000}, profile.AccountIDs())

	profile, err = f.svc.AddAccountToOwner(ctx, owner.ID, models.EUR)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 1001}, profile.AccountIDs())
	assert.Equal(t, int64(2), profile.Owner.Version)

	_, err = f.svc.AddAccountToOwner(ctx, owner.ID, models.USD)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOperation))
	assert.Equal(t, "Cannot possess more than one account with currency USD", err.Error())

	// the failed add left the owner untouched
	stored, err := f.store.Owners().GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}

func TestOwnerService_AddAccountErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.AddAccountToOwner(ctx, 12, models.USD)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)
	_, err = f.svc.AddAccountToOwner(ctx, owner.ID, models.Currency("XYZ"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOperation))
}

func TestOwnerService_ConcurrentAddsSameCurrency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddAccountToOwner(ctx, owner.ID, models.GBP)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	accounts, err := f.store.Accounts().ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestOwnerService_ListOwners(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := f.svc.CreateOwner(ctx, name)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{name: "first page", offset: 0, limit: 2, want: []string{"alice", "bob"}},
		{name: "second page", offset: 2, limit: 2, want: []string{"carol"}},
		{name: "past the end", offset: 10, limit: 2, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, total, err := f.svc.ListOwners(ctx, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, int64(3), total)

			names := make([]string, 0, len(profiles))
			for _, p := range profiles {
				names = append(names, p.Owner.Username)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestOwnerService_DeleteOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, err := f.svc.CreateOwner(ctx, "alice")
	require.NoError(t, err)
	profile, err := f.svc.AddAccountToOwner(ctx, owner.ID, models.USD)
	require.NoError(t, err)
	accountID := profile.Accounts[0].ID

	_, err = f.svc.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Put(ctx, accountID, &profile.Accounts[0]))

	require.NoError(t, f.svc.DeleteOwner(ctx, owner.ID))

	assert.Equal(t, 0, f.owners.Len())
	assert.Equal(t, 0, f.accounts.Len())

	_, err = f.svc.GetByID(ctx, owner.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = f.store.Accounts().GetByID(ctx, accountID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = f.svc.DeleteOwner(ctx, owner.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
