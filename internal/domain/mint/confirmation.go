// internal/domain/mint/confirmation.go
package mint

// ConfirmationStatus は ConfirmationWaiter の終端結果です。
type ConfirmationStatus string

const (
	Confirmed ConfirmationStatus = "confirmed"
	Failed    ConfirmationStatus = "failed"
	TimedOut  ConfirmationStatus = "timed_out"
)

// Confirmation は確認待ちの結果です。Status == Failed のときのみ Reason が入ります。
type Confirmation struct {
	Status ConfirmationStatus
	Reason error
}
