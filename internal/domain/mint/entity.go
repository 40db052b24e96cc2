// internal/domain/mint/entity.go
package mint

import (
	"errors"
	"strings"
	"time"
)

// ------------------------------------------------------
// AttemptStatus
// ------------------------------------------------------

type AttemptStatus string

const (
	AttemptIdle       AttemptStatus = "idle"
	AttemptSubmitting AttemptStatus = "submitting"
	AttemptConfirming AttemptStatus = "confirming"
	AttemptSucceeded  AttemptStatus = "succeeded"
	AttemptFailed     AttemptStatus = "failed"
)

// InFlight は送信〜確認待ちの間 true です。
func (s AttemptStatus) InFlight() bool {
	return s == AttemptSubmitting || s == AttemptConfirming
}

// Settled は成功 / 失敗のいずれかで確定済みなら true です。
func (s AttemptStatus) Settled() bool {
	return s == AttemptSucceeded || s == AttemptFailed
}

// ------------------------------------------------------
// ErrorKind（UI に見せる失敗の閉じた分類）
// ------------------------------------------------------

type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindSoldOut           ErrorKind = "sold_out"
	ErrorKindNotStarted        ErrorKind = "not_started"
	ErrorKindInsufficientFunds ErrorKind = "insufficient_funds"
	ErrorKindUserRejected      ErrorKind = "user_rejected"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindUnreachable       ErrorKind = "unreachable"
	ErrorKindNotConnected      ErrorKind = "not_connected"
	ErrorKindUnknown           ErrorKind = "unknown"
)

// ErrorKinds は分類の全集合です（None は含みません）。
var ErrorKinds = []ErrorKind{
	ErrorKindSoldOut,
	ErrorKindNotStarted,
	ErrorKindInsufficientFunds,
	ErrorKindUserRejected,
	ErrorKindTimeout,
	ErrorKindUnreachable,
	ErrorKindNotConnected,
	ErrorKindUnknown,
}

func (k ErrorKind) Valid() bool {
	for _, x := range ErrorKinds {
		if k == x {
			return true
		}
	}
	return false
}

// Definite は「失敗が確定している」分類なら true です。
// Timeout はトランザクションが後から着地しうるため不確定として扱います。
func (k ErrorKind) Definite() bool {
	return k.Valid() && k != ErrorKindTimeout
}

// ------------------------------------------------------
// Entity: MintAttempt（mint() 1 回分）
// ------------------------------------------------------
//
// - id            : 採番 ID（uuid）
// - walletAddress : 署名者のアドレス（未接続なら空）
// - transactionId : 送信済みトランザクションのシグネチャ（送信前は空）
// - submittedAt   : mint() 開始時刻
// - settledAt     : 確定時刻（未確定なら nil）
// - status        : idle / submitting / confirming / succeeded / failed
// - outcome       : failed のときのみ設定
type MintAttempt struct {
	ID            string        `json:"id"`
	WalletAddress string        `json:"walletAddress"`
	SaleID        string        `json:"saleId"`
	TransactionID string        `json:"transactionId,omitempty"`
	SubmittedAt   time.Time     `json:"submittedAt"`
	SettledAt     *time.Time    `json:"settledAt,omitempty"`
	Status        AttemptStatus `json:"status"`
	Outcome       ErrorKind     `json:"outcome,omitempty"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidAttemptID      = errors.New("mint: invalid attempt id")
	ErrInvalidSubmittedAt    = errors.New("mint: invalid submittedAt")
	ErrInvalidStatus         = errors.New("mint: invalid status")
	ErrInconsistentOutcome   = errors.New("mint: inconsistent status / outcome")
	ErrInconsistentSettledAt = errors.New("mint: inconsistent status / settledAt")
	ErrNotFound              = errors.New("mint: not found")
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

// NewAttempt は Submitting 状態の新しい試行を生成します。
func NewAttempt(id, walletAddress, saleID string, submittedAt time.Time) (MintAttempt, error) {
	a := MintAttempt{
		ID:            strings.TrimSpace(id),
		WalletAddress: strings.TrimSpace(walletAddress),
		SaleID:        strings.TrimSpace(saleID),
		SubmittedAt:   submittedAt.UTC(),
		Status:        AttemptSubmitting,
	}
	if err := a.validate(); err != nil {
		return MintAttempt{}, err
	}
	return a, nil
}

// ------------------------------------------------------
// Behavior
// ------------------------------------------------------

// MarkConfirming は送信成功（txId 取得）を記録します。
func (a *MintAttempt) MarkConfirming(txID string) error {
	if a.Status != AttemptSubmitting {
		return ErrInvalidStatus
	}
	a.TransactionID = strings.TrimSpace(txID)
	a.Status = AttemptConfirming
	return a.validate()
}

// MarkSucceeded は確定成功を記録します。
func (a *MintAttempt) MarkSucceeded(at time.Time) error {
	if !a.Status.InFlight() {
		return ErrInvalidStatus
	}
	t := at.UTC()
	a.Status = AttemptSucceeded
	a.Outcome = ErrorKindNone
	a.SettledAt = &t
	return a.validate()
}

// MarkFailed は失敗を記録します。kind が None / 不明値なら Unknown に寄せます。
func (a *MintAttempt) MarkFailed(kind ErrorKind, at time.Time) error {
	if !a.Status.InFlight() {
		return ErrInvalidStatus
	}
	if !kind.Valid() {
		kind = ErrorKindUnknown
	}
	t := at.UTC()
	a.Status = AttemptFailed
	a.Outcome = kind
	a.SettledAt = &t
	return a.validate()
}

// Validate はエンティティの一貫性チェックを公開します。
func (a MintAttempt) Validate() error {
	return a.validate()
}

func (a MintAttempt) validate() error {
	if a.Status == AttemptIdle {
		// Idle は「試行なし」のゼロ値として扱う
		if a.Outcome != ErrorKindNone {
			return ErrInconsistentOutcome
		}
		return nil
	}

	if a.ID == "" {
		return ErrInvalidAttemptID
	}
	if a.SubmittedAt.IsZero() {
		return ErrInvalidSubmittedAt
	}

	switch a.Status {
	case AttemptSubmitting, AttemptConfirming:
		if a.Outcome != ErrorKindNone {
			return ErrInconsistentOutcome
		}
		if a.SettledAt != nil {
			return ErrInconsistentSettledAt
		}
	case AttemptSucceeded:
		if a.Outcome != ErrorKindNone {
			return ErrInconsistentOutcome
		}
		if a.SettledAt == nil || a.SettledAt.IsZero() {
			return ErrInconsistentSettledAt
		}
	case AttemptFailed:
		if !a.Outcome.Valid() {
			return ErrInconsistentOutcome
		}
		if a.SettledAt == nil || a.SettledAt.IsZero() {
			return ErrInconsistentSettledAt
		}
	default:
		return ErrInvalidStatus
	}

	return nil
}
