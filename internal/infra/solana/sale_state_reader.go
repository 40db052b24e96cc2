// internal/infra/solana/sale_state_reader.go
package solana

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	saledom "candymint/internal/domain/sale"
	"candymint/internal/platform/logging"
)

// SaleStateReader は candy machine アカウントを読み、sale.Snapshot に変換します。
type SaleStateReader struct {
	RPC LedgerRPC

	// GoLiveAt はオンチェーンに go_live_date が無い場合に使う開始時刻
	GoLiveAt time.Time

	Now    func() time.Time
	Logger *zap.Logger
}

func NewSaleStateReader(rpc LedgerRPC, goLiveAt time.Time, logger *zap.Logger) *SaleStateReader {
	return &SaleStateReader{
		RPC:      rpc,
		GoLiveAt: goLiveAt,
		Now:      time.Now,
		Logger:   logging.OrNop(logger).Named("sale-reader"),
	}
}

// Read は saleID（candy machine アドレス）の現在値を返します。
//
//   - アカウントが存在しない → 未初期化スナップショット（remaining 0 / soldOut）
//   - RPC 失敗・デコード失敗 → sale.ErrUnreachable を wrap して返す
func (r *SaleStateReader) Read(ctx context.Context, saleID string) (saledom.Snapshot, error) {
	id := strings.TrimSpace(saleID)
	if id == "" {
		return saledom.Snapshot{}, saledom.ErrInvalidSaleID
	}
	if r == nil || r.RPC == nil {
		return saledom.Snapshot{}, fmt.Errorf("%w: rpc not configured", saledom.ErrUnreachable)
	}

	now := r.now()

	info, err := r.RPC.GetAccountInfo(ctx, id)
	if err != nil {
		if isAccountMissing(err) {
			r.log().Info("candy machine account not found", zap.String("sale", logging.MaskShort(id)))
			return saledom.Uninitialized(id, r.GoLiveAt, now), nil
		}
		return saledom.Snapshot{}, fmt.Errorf("%w: GetAccountInfo: %v", saledom.ErrUnreachable, err)
	}
	if len(info.Data) == 0 {
		r.log().Info("candy machine account is empty", zap.String("sale", logging.MaskShort(id)))
		return saledom.Uninitialized(id, r.GoLiveAt, now), nil
	}

	acc, err := DecodeCandyMachine(info.Data)
	if err != nil {
		return saledom.Snapshot{}, fmt.Errorf("%w: %w", saledom.ErrUnreachable, err)
	}

	goLive := r.GoLiveAt
	if unix, ok := acc.GoLiveUnix(); ok {
		goLive = time.Unix(unix, 0).UTC()
	}

	snap, err := saledom.NewSnapshot(id, acc.Data.ItemsAvailable, acc.ItemsRedeemed, goLive, acc.Data.Price, now)
	if err != nil {
		return saledom.Snapshot{}, fmt.Errorf("%w: %w", saledom.ErrUnreachable, err)
	}

	r.log().Debug("sale state read",
		zap.String("sale", logging.MaskShort(id)),
		zap.Uint64("available", snap.TotalSupply()),
		zap.Uint64("redeemed", snap.Redeemed()),
		zap.Time("goLiveAt", goLive),
	)
	return snap, nil
}

func (r *SaleStateReader) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *SaleStateReader) log() *zap.Logger {
	return logging.OrNop(r.Logger)
}
