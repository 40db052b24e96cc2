// internal/infra/solana/wallet_secret_provider_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"candymint/internal/platform/logging"
)

var (
	ErrWalletSecretNotConfigured = errors.New("wallet_secret_provider: not configured")
	ErrWalletSecretNotFound      = errors.New("wallet_secret_provider: secret not found")
)

// SecretAccessor は Secret Manager のうち使う部分だけを切り出したものです。
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *smpb.AccessSecretVersionRequest) (*smpb.AccessSecretVersionResponse, error)
}

type smAccessor struct {
	c *secretmanager.Client
}

func (a smAccessor) AccessSecretVersion(ctx context.Context, req *smpb.AccessSecretVersionRequest) (*smpb.AccessSecretVersionResponse, error) {
	return a.c.AccessSecretVersion(ctx, req)
}

// WalletSecretProviderSM は Secret Manager に置いた keypair JSON から KeypairWallet を復元します。
type WalletSecretProviderSM struct {
	Accessor SecretAccessor
	Logger   *zap.Logger

	closeFn func() error
}

func NewWalletSecretProviderSM(ctx context.Context, logger *zap.Logger) (*WalletSecretProviderSM, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &WalletSecretProviderSM{
		Accessor: smAccessor{c: c},
		Logger:   logging.OrNop(logger).Named("wallet-secret"),
		closeFn:  c.Close,
	}, nil
}

// Load は secretName（"projects/<PROJECT>/secrets/<ID>/versions/latest"）の keypair を読み込みます。
func (p *WalletSecretProviderSM) Load(ctx context.Context, secretName string) (*KeypairWallet, error) {
	if p == nil || p.Accessor == nil {
		return nil, ErrWalletSecretNotConfigured
	}
	name := strings.TrimSpace(secretName)
	if name == "" {
		return nil, fmt.Errorf("%w: secret name is empty", ErrWalletSecretNotConfigured)
	}

	res, err := p.Accessor.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrWalletSecretNotFound, name)
		}
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}
	if res == nil || res.GetPayload() == nil || len(res.GetPayload().GetData()) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrWalletSecretNotFound, name)
	}

	w, err := KeypairWalletFromJSON(res.GetPayload().GetData())
	if err != nil {
		return nil, err
	}

	logging.OrNop(p.Logger).Info("loaded wallet from Secret Manager",
		zap.String("secret", name),
		zap.String("pubkey", logging.MaskShort(w.Address())),
	)
	return w, nil
}

func (p *WalletSecretProviderSM) Close() error {
	if p == nil || p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}
