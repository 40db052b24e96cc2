// internal/domain/wallet/identity.go
package wallet

import (
	"context"
	"errors"
)

var (
	// ErrNotConnected はウォレット未接続（identity 不在）を表します。
	ErrNotConnected = errors.New("wallet: not connected")
	// ErrUserRejected は署名者が明示的に署名を拒否したことを表します。
	ErrUserRejected = errors.New("wallet: user rejected the request")
)

// Identity は外部ウォレットが提供する署名者の参照です。
// 鍵そのものは保持せず、署名能力だけを借ります（ライフタイムはウォレット側が所有）。
//
// 未接続の場合は nil を渡してください。例外ではなく入力として扱います。
type Identity interface {
	// Address は公開鍵の base58 表現です。
	Address() string

	// SignTransaction はシリアライズ済みトランザクションメッセージに署名し、
	// 64 バイトの ed25519 署名を返します。
	// ユーザーが拒否した場合は ErrUserRejected（または wrap したもの）を返します。
	SignTransaction(ctx context.Context, message []byte) ([]byte, error)
}
