// internal/domain/mint/failure.go
package mint

import (
	"errors"
	"fmt"
)

// ErrConfirmationTimeout は確認待ちが期限内に終端ステータスへ到達しなかったことを表します。
// トランザクションが後から確定する可能性はあります。
var ErrConfirmationTimeout = errors.New("mint: confirmation timed out")

// ProgramError はオンチェーンプログラムが返した構造化エラーコードです。
// 例: InstructionError [4, {"Custom": 311}] → Code=311, InstructionIndex=4
type ProgramError struct {
	Code             uint32
	InstructionIndex int
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("mint: program error: instruction %d: custom program error: 0x%x", e.InstructionIndex, e.Code)
}

// TransactionError はカスタムコードを持たないトランザクションエラーです。
// Raw は RPC が返した err を JSON 化した文字列（例: "InsufficientFundsForFee"）。
type TransactionError struct {
	Raw string
}

func (e *TransactionError) Error() string {
	return "mint: transaction error: " + e.Raw
}
