package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := Newf(ErrNotFound, "Owner not found with ID: %d", 7)

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrAlreadyExists))
	assert.Equal(t, "Owner not found with ID: 7", err.Error())

	wrapped := fmt.Errorf("failed to load owner: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
}

func TestDomainError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "conflict", err: Newf(ErrConflict, "account 1000 changed"), want: true},
		{name: "wrapped conflict", err: fmt.Errorf("save: %w", ErrConflict), want: true},
		{name: "insufficient funds", err: ErrInsufficientFunds, want: false},
		{name: "plain error", err: stderrors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
