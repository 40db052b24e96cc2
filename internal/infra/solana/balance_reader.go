// internal/infra/solana/balance_reader.go
package solana

import (
	"context"
	"fmt"
	"strings"
)

// BalanceReader はウォレットの lamports 残高を返します。
type BalanceReader struct {
	RPC LedgerRPC
}

func NewBalanceReader(rpc LedgerRPC) *BalanceReader {
	return &BalanceReader{RPC: rpc}
}

func (r *BalanceReader) Balance(ctx context.Context, address string) (uint64, error) {
	if r == nil || r.RPC == nil {
		return 0, fmt.Errorf("balance_reader: rpc not configured")
	}
	addr := strings.TrimSpace(address)
	if addr == "" {
		return 0, fmt.Errorf("balance_reader: address is empty")
	}
	lamports, err := r.RPC.GetBalance(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	return lamports, nil
}
