// internal/infra/solana/rpc_client.go
package solana

import (
	"context"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// DevnetEndpoint は SOLANA_RPC_URL 未設定時の既定値です。
const DevnetEndpoint = rpc.DevnetRPCEndpoint

// LedgerRPC は mint のライフサイクルで使う最小限の Solana RPC です。
// 本番は blocto の *client.Client、テストでは fake を渡します。
type LedgerRPC interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
}

var _ LedgerRPC = (*client.Client)(nil)

// NewLedgerRPC は rpcURL（空なら devnet）に接続するクライアントを返します。
func NewLedgerRPC(rpcURL string) *client.Client {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return client.NewClient(u)
}

// isAccountMissing は「アカウントが存在しない」系の RPC エラーかどうかを判定します。
func isAccountMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}
