// internal/application/mint/ports.go
package mint

import (
	"context"
	"time"

	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
	"candymint/internal/domain/wallet"
)

// ============================================================
// Sale state read port
// ============================================================

// SaleStateReader は sale プログラムのアカウントを読み取り、Snapshot に変換します。
// アカウント未作成は Uninitialized Snapshot（エラーではない）、
// 取得 / デコード失敗は saledom.ErrUnreachable を wrap したエラーを返します。
type SaleStateReader interface {
	Read(ctx context.Context, saleID string) (saledom.Snapshot, error)
}

// ============================================================
// Submission port
// ============================================================

// TransactionSubmitter はミント命令を 1 つ組み立て、identity で署名して送信します。
// identity が nil の場合は wallet.ErrNotConnected を返します（ネットワークアクセスなし）。
// 冪等ではないため、1 回の試行につき 1 回だけ呼び出してください。
type TransactionSubmitter interface {
	Submit(ctx context.Context, identity wallet.Identity, saleID string, treasury string) (string, error)
}

// ============================================================
// Confirmation port
// ============================================================

// ConfirmationWaiter は txID の確定状況を timeout までポーリングします。
// ctx がキャンセルされた場合はポーリングを止め、ctx.Err() を返します。
type ConfirmationWaiter interface {
	Await(ctx context.Context, txID string, timeout time.Duration) (mintdom.Confirmation, error)
}

// ============================================================
// Balance port
// ============================================================

// BalanceReader はウォレット残高（lamports）を返します。
type BalanceReader interface {
	Balance(ctx context.Context, address string) (uint64, error)
}
