package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
	"candymint/internal/domain/wallet"
)

// SaleStateReader is a mock for mint.SaleStateReader.
type SaleStateReader struct {
	mock.Mock
}

func (m *SaleStateReader) Read(ctx context.Context, saleID string) (saledom.Snapshot, error) {
	args := m.Called(ctx, saleID)
	if snap, ok := args.Get(0).(saledom.Snapshot); ok {
		return snap, args.Error(1)
	}
	return saledom.Snapshot{}, args.Error(1)
}

// TransactionSubmitter is a mock for mint.TransactionSubmitter.
type TransactionSubmitter struct {
	mock.Mock
}

func (m *TransactionSubmitter) Submit(ctx context.Context, identity wallet.Identity, saleID string, treasury string) (string, error) {
	args := m.Called(ctx, identity, saleID, treasury)
	return args.String(0), args.Error(1)
}

// ConfirmationWaiter is a mock for mint.ConfirmationWaiter.
type ConfirmationWaiter struct {
	mock.Mock
}

func (m *ConfirmationWaiter) Await(ctx context.Context, txID string, timeout time.Duration) (mintdom.Confirmation, error) {
	args := m.Called(ctx, txID, timeout)
	if c, ok := args.Get(0).(mintdom.Confirmation); ok {
		return c, args.Error(1)
	}
	return mintdom.Confirmation{}, args.Error(1)
}

// BalanceReader is a mock for mint.BalanceReader.
type BalanceReader struct {
	mock.Mock
}

func (m *BalanceReader) Balance(ctx context.Context, address string) (uint64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint64), args.Error(1)
}

// AttemptRepository is a mock for mint.AttemptRepository.
type AttemptRepository struct {
	mock.Mock
}

func (m *AttemptRepository) Save(ctx context.Context, a mintdom.MintAttempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AttemptRepository) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]mintdom.MintAttempt, error) {
	args := m.Called(ctx, walletAddress, limit)
	if list, ok := args.Get(0).([]mintdom.MintAttempt); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AttemptRepository) GetByID(ctx context.Context, id string) (mintdom.MintAttempt, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(mintdom.MintAttempt); ok {
		return a, args.Error(1)
	}
	return mintdom.MintAttempt{}, args.Error(1)
}

// Identity is a mock for wallet.Identity.
type Identity struct {
	mock.Mock
	Addr string
}

func (m *Identity) Address() string {
	return m.Addr
}

func (m *Identity) SignTransaction(ctx context.Context, message []byte) ([]byte, error) {
	args := m.Called(ctx, message)
	if sig, ok := args.Get(0).([]byte); ok {
		return sig, args.Error(1)
	}
	return nil, args.Error(1)
}
