// internal/domain/sale/entity.go
package sale

import (
	"errors"
	"strings"
	"time"
)

// ------------------------------------------------------
// Entity: Snapshot (candy machine アカウント 1 回分の読み取り結果)
// ------------------------------------------------------
//
// 読み取りのたびに新しく生成される不変値です。部分更新はしません。
//
// - saleId        : candy machine アカウントのアドレス (base58)
// - totalSupply   : itemsAvailable
// - redeemed      : itemsRedeemed
// - remaining     : totalSupply - redeemed（保持せず常に導出）
// - goLiveAt      : 販売開始日時
// - soldOut       : remaining == 0（保持せず常に導出）
type Snapshot struct {
	saleID        string
	totalSupply   uint64
	redeemed      uint64
	goLiveAt      time.Time
	priceLamports uint64
	initialized   bool
	fetchedAt     time.Time
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidSaleID           = errors.New("sale: invalid saleId")
	ErrRedeemedExceedsSupply   = errors.New("sale: redeemed exceeds totalSupply")
	ErrUnreachable             = errors.New("sale: unreachable")
	ErrMalformedAccount        = errors.New("sale: malformed account data")
	ErrUnexpectedDiscriminator = errors.New("sale: unexpected account discriminator")
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

// NewSnapshot はチェーンから読み取った値で Snapshot を生成します。
// redeemed > totalSupply は不整合として ErrRedeemedExceedsSupply を返します。
func NewSnapshot(
	saleID string,
	totalSupply uint64,
	redeemed uint64,
	goLiveAt time.Time,
	priceLamports uint64,
	fetchedAt time.Time,
) (Snapshot, error) {
	id := strings.TrimSpace(saleID)
	if id == "" {
		return Snapshot{}, ErrInvalidSaleID
	}
	if redeemed > totalSupply {
		return Snapshot{}, ErrRedeemedExceedsSupply
	}

	return Snapshot{
		saleID:        id,
		totalSupply:   totalSupply,
		redeemed:      redeemed,
		goLiveAt:      goLiveAt.UTC(),
		priceLamports: priceLamports,
		initialized:   true,
		fetchedAt:     fetchedAt.UTC(),
	}, nil
}

// Uninitialized はまだ sale アカウントが存在しない場合の Snapshot です。
// remaining = 0 / soldOut = true として扱い、エラーにはしません。
func Uninitialized(saleID string, goLiveAt time.Time, fetchedAt time.Time) Snapshot {
	return Snapshot{
		saleID:    strings.TrimSpace(saleID),
		goLiveAt:  goLiveAt.UTC(),
		fetchedAt: fetchedAt.UTC(),
	}
}

// ------------------------------------------------------
// Accessors
// ------------------------------------------------------

func (s Snapshot) SaleID() string            { return s.saleID }
func (s Snapshot) TotalSupply() uint64       { return s.totalSupply }
func (s Snapshot) Redeemed() uint64          { return s.redeemed }
func (s Snapshot) GoLiveAt() time.Time       { return s.goLiveAt }
func (s Snapshot) PriceLamports() uint64     { return s.priceLamports }
func (s Snapshot) Initialized() bool         { return s.initialized }
func (s Snapshot) FetchedAt() time.Time      { return s.fetchedAt }
func (s Snapshot) Remaining() uint64         { return s.totalSupply - s.redeemed }
func (s Snapshot) SoldOut() bool             { return s.Remaining() == 0 }
func (s Snapshot) IsLive(now time.Time) bool { return !now.Before(s.goLiveAt) }

// Until は販売開始までの残り時間を返します（開始済みなら 0）。
func (s Snapshot) Until(now time.Time) time.Duration {
	if s.IsLive(now) {
		return 0
	}
	return s.goLiveAt.Sub(now)
}
