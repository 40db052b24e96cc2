// internal/infra/solana/keypair_wallet.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/types"

	"candymint/internal/domain/wallet"
)

var ErrKeypairPathEmpty = errors.New("keypair_wallet: path is empty")

// KeypairWallet はローカル鍵で署名する wallet.Identity です（CLI 用）。
type KeypairWallet struct {
	account types.Account
}

var _ wallet.Identity = (*KeypairWallet)(nil)

func NewKeypairWallet(acc types.Account) *KeypairWallet {
	return &KeypairWallet{account: acc}
}

// LoadKeypairWallet は solana-keygen 形式の keypair JSON ファイルから KeypairWallet を復元します。
func LoadKeypairWallet(path string) (*KeypairWallet, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, ErrKeypairPathEmpty
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	return KeypairWalletFromJSON(data)
}

// KeypairWalletFromJSON は keypair JSON（[u8;64] / [int,...]）から KeypairWallet を復元します。
func KeypairWalletFromJSON(data []byte) (*KeypairWallet, error) {
	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return nil, err
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("AccountFromBytes: %w", err)
	}
	return NewKeypairWallet(acc), nil
}

func (w *KeypairWallet) Address() string {
	return w.account.PublicKey.ToBase58()
}

// SignTransaction はシリアライズ済みメッセージに署名します。
func (w *KeypairWallet) SignTransaction(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.account.Sign(message), nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte %d out of range: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}
