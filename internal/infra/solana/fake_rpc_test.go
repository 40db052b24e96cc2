package solana

import (
	"context"
	"errors"
	"sync"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

var errFakeNotConfigured = errors.New("fake rpc: not configured")

// fakeRPC は LedgerRPC のテスト用実装です。未設定のメソッドはエラーを返します。
type fakeRPC struct {
	mu    sync.Mutex
	calls map[string]int
	sent  []types.Transaction

	accountInfo func(addr string) (client.AccountInfo, error)
	balance     func(addr string) (uint64, error)
	send        func(tx types.Transaction) (string, error)
	statuses    func(n int) (*rpc.SignatureStatus, error)

	blockhash string
	rent      uint64
}

var _ LedgerRPC = (*fakeRPC)(nil)

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[method]++
	return f.calls[method]
}

func (f *fakeRPC) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRPC) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, addr string) (client.AccountInfo, error) {
	f.count("GetAccountInfo")
	if f.accountInfo == nil {
		return client.AccountInfo{}, errFakeNotConfigured
	}
	return f.accountInfo(addr)
}

func (f *fakeRPC) GetBalance(_ context.Context, addr string) (uint64, error) {
	f.count("GetBalance")
	if f.balance == nil {
		return 0, errFakeNotConfigured
	}
	return f.balance(addr)
}

func (f *fakeRPC) GetLatestBlockhash(_ context.Context) (rpc.GetLatestBlockhashValue, error) {
	f.count("GetLatestBlockhash")
	if f.blockhash == "" {
		return rpc.GetLatestBlockhashValue{}, errFakeNotConfigured
	}
	return rpc.GetLatestBlockhashValue{Blockhash: f.blockhash}, nil
}

func (f *fakeRPC) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	f.count("GetMinimumBalanceForRentExemption")
	return f.rent, nil
}

func (f *fakeRPC) SendTransaction(_ context.Context, tx types.Transaction) (string, error) {
	f.count("SendTransaction")
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	if f.send == nil {
		return "", errFakeNotConfigured
	}
	return f.send(tx)
}

func (f *fakeRPC) GetSignatureStatus(_ context.Context, _ string) (*rpc.SignatureStatus, error) {
	n := f.count("GetSignatureStatus")
	if f.statuses == nil {
		return nil, nil
	}
	return f.statuses(n)
}
