// internal/application/mint/view.go
package mint

import (
	"time"

	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
)

// LamportsPerSOL は 1 SOL あたりの lamports です。
const LamportsPerSOL = 1_000_000_000

// View は UI 側が描画に使うスナップショットです（値コピー）。
type View struct {
	State         State
	Snapshot      *saledom.Snapshot
	Attempt       mintdom.MintAttempt
	WalletAddress string
	// BalanceLamports は未取得なら nil
	BalanceLamports *uint64
	// LoadError は直近の読み込み失敗（Unreachable）。成功時は None。
	LoadError mintdom.ErrorKind
	GoLiveAt  time.Time
}

func (v View) Connected() bool {
	return v.WalletAddress != ""
}

// CanMint は mint ボタンの活性条件です。
// Ready かつ売り切れでなく、進行中の試行がないこと。
func (v View) CanMint() bool {
	return v.State == StateReady &&
		v.Snapshot != nil &&
		!v.Snapshot.SoldOut() &&
		!v.Attempt.Status.InFlight()
}

// IsLive は販売開始済みかどうか（カウントダウン完了）を返します。
func (v View) IsLive(now time.Time) bool {
	return !now.Before(v.GoLiveAt)
}

// BalanceSOL は残高を SOL 単位で返します。未取得なら ok=false。
func (v View) BalanceSOL() (float64, bool) {
	if v.BalanceLamports == nil {
		return 0, false
	}
	return float64(*v.BalanceLamports) / LamportsPerSOL, true
}
