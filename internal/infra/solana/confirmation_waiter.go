// internal/infra/solana/confirmation_waiter.go
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	mintdom "candymint/internal/domain/mint"
	"candymint/internal/platform/logging"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultCommitment   = rpc.CommitmentConfirmed
)

var commitmentRank = map[rpc.Commitment]int{
	rpc.CommitmentProcessed: 1,
	rpc.CommitmentConfirmed: 2,
	rpc.CommitmentFinalized: 3,
}

// ConfirmationWaiter は getSignatureStatuses を一定間隔でポーリングし、終端ステータスを待ちます。
type ConfirmationWaiter struct {
	RPC        LedgerRPC
	Interval   time.Duration
	Commitment rpc.Commitment
	Logger     *zap.Logger
}

func NewConfirmationWaiter(rpcClient LedgerRPC, interval time.Duration, commitment string, logger *zap.Logger) *ConfirmationWaiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	c := rpc.Commitment(strings.ToLower(strings.TrimSpace(commitment)))
	if _, ok := commitmentRank[c]; !ok {
		c = DefaultCommitment
	}
	return &ConfirmationWaiter{
		RPC:        rpcClient,
		Interval:   interval,
		Commitment: c,
		Logger:     logging.OrNop(logger).Named("confirmation-waiter"),
	}
}

// Await は txID が確定・失敗・期限切れのいずれかになるまで待ちます。
//
//   - エラーなしで Commitment 以上 → Confirmed
//   - エラー付きステータス → Failed（Reason は *mint.ProgramError か *mint.TransactionError）
//   - timeout 経過 → TimedOut（後から確定する可能性あり）
//   - 呼び出し側 ctx のキャンセル → ctx.Err()（結果なし）
//
// ポーリング中の一時的な RPC エラーはログに残して継続します。
func (w *ConfirmationWaiter) Await(ctx context.Context, txID string, timeout time.Duration) (mintdom.Confirmation, error) {
	if w == nil || w.RPC == nil {
		return mintdom.Confirmation{}, fmt.Errorf("confirmation_waiter: rpc not configured")
	}
	sig := strings.TrimSpace(txID)
	if sig == "" {
		return mintdom.Confirmation{}, fmt.Errorf("confirmation_waiter: txID is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := backoff.NewTicker(backoff.NewConstantBackOff(interval))
	defer ticker.Stop()

	log := logging.OrNop(w.Logger).With(zap.String("tx", logging.MaskShort(sig)))
	polls := 0

	for {
		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return mintdom.Confirmation{}, err
			}
			log.Warn("confirmation timed out", zap.Duration("timeout", timeout), zap.Int("polls", polls))
			return mintdom.Confirmation{Status: mintdom.TimedOut}, nil
		case <-ticker.C:
		}

		polls++
		st, err := w.RPC.GetSignatureStatus(pollCtx, sig)
		if err != nil {
			if pollCtx.Err() == nil {
				log.Warn("GetSignatureStatus failed; retrying", zap.Error(err))
			}
			continue
		}
		if st == nil {
			continue
		}

		if st.Err != nil {
			reason := TransactionFailure(st.Err)
			log.Info("transaction failed", zap.Error(reason), zap.Uint64("slot", st.Slot))
			return mintdom.Confirmation{Status: mintdom.Failed, Reason: reason}, nil
		}
		if w.reached(st) {
			log.Info("transaction confirmed", zap.Uint64("slot", st.Slot), zap.Int("polls", polls))
			return mintdom.Confirmation{Status: mintdom.Confirmed}, nil
		}
	}
}

func (w *ConfirmationWaiter) reached(st *rpc.SignatureStatus) bool {
	want := commitmentRank[w.Commitment]
	if want == 0 {
		want = commitmentRank[DefaultCommitment]
	}
	if st.ConfirmationStatus == nil {
		// confirmations == null は rooted（finalized）
		return st.Confirmations == nil
	}
	return commitmentRank[*st.ConfirmationStatus] >= want
}

// TransactionFailure は getSignatureStatuses の err を構造化エラーに変換します。
//
//	{"InstructionError":[4,{"Custom":311}]} → *mint.ProgramError{Code: 311, InstructionIndex: 4}
//	それ以外                                → *mint.TransactionError{Raw: <json>}
func TransactionFailure(raw any) error {
	if m, ok := raw.(map[string]any); ok {
		if ie, ok := m["InstructionError"].([]any); ok && len(ie) == 2 {
			idx, okIdx := jsonInt(ie[0])
			if detail, ok := ie[1].(map[string]any); ok && okIdx {
				if code, ok := jsonInt(detail["Custom"]); ok && code >= 0 {
					return &mintdom.ProgramError{Code: uint32(code), InstructionIndex: int(idx)}
				}
			}
		}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return &mintdom.TransactionError{Raw: fmt.Sprint(raw)}
	}
	return &mintdom.TransactionError{Raw: string(b)}
}

func jsonInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
