// internal/domain/mint/repository_port.go
package mint

import "context"

// ------------------------------------------------------
// Repository Port for MintAttempt（mint_attempts コレクション）
// ------------------------------------------------------
//
// 確定した試行の履歴（ジャーナル）を残すための出力ポートです。
// Firestore などの具体的な永続化実装は adapters/out 側で実装します。

// AttemptRepository は確定済み MintAttempt の保存・参照を担当します。
type AttemptRepository interface {
	// Save は確定済みの試行を保存します（同じ ID なら上書き）。
	Save(ctx context.Context, a MintAttempt) error

	// ListByWallet は walletAddress の試行を新しい順に最大 limit 件返します。
	ListByWallet(ctx context.Context, walletAddress string, limit int) ([]MintAttempt, error)

	// GetByID は 1 件取得します。存在しなければ ErrNotFound。
	GetByID(ctx context.Context, id string) (MintAttempt, error)
}
