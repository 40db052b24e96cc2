// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	fsadapter "candymint/internal/adapters/out/firestore"
	appmint "candymint/internal/application/mint"
	mintdom "candymint/internal/domain/mint"
	"candymint/internal/domain/wallet"
	appcfg "candymint/internal/infra/config"
	firestoreinfra "candymint/internal/infra/firestore"
	solanainfra "candymint/internal/infra/solana"
	"candymint/internal/platform/logging"
)

// Container は CLI 1 回分の実行に必要な依存をまとめて保持します。
//
// - RPC / Reader / Submitter / Waiter / Balances は必須（構築失敗ならエラー）
// - Identity はキーペア設定があれば読み込む（無ければ未接続 = nil）
// - Journal は FIRESTORE_PROJECT_ID があれば best-effort で接続（失敗しても warn して続行）
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	RPC       solanainfra.LedgerRPC
	Reader    *solanainfra.SaleStateReader
	Submitter *solanainfra.MintSubmitter
	Waiter    *solanainfra.ConfirmationWaiter
	Balances  *solanainfra.BalanceReader

	Identity wallet.Identity
	Journal  mintdom.AttemptRepository

	closers []func() error
}

// NewContainer は cfg から依存を組み立てます。
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)

	rpc := solanainfra.NewLedgerRPC(cfg.RPCURL)
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		RPC:       rpc,
		Reader:    solanainfra.NewSaleStateReader(rpc, cfg.StartDate, logger),
		Submitter: solanainfra.NewMintSubmitter(rpc, cfg.CandyMachineProgramID, cfg.CandyMachineConfig, logger),
		Waiter:    solanainfra.NewConfirmationWaiter(rpc, cfg.TxPollInterval, cfg.TxCommitment, logger),
		Balances:  solanainfra.NewBalanceReader(rpc),
	}

	id, err := c.loadIdentity(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Identity = id

	if cfg.JournalEnabled() {
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, logger)
		if err != nil {
			logger.Warn("attempt journal disabled", zap.Error(err))
		} else {
			c.closers = append(c.closers, fs.Close)
			c.Journal = fsadapter.NewMintAttemptRepositoryFS(fs.Client)
		}
	}

	logger.Info("container ready",
		zap.String("rpc", cfg.RPCURL),
		zap.String("sale", logging.MaskShort(cfg.CandyMachineID)),
		zap.Bool("walletConnected", c.Identity != nil),
		zap.Bool("journal", c.Journal != nil),
	)
	return c, nil
}

// loadIdentity は SOLANA_KEYPAIR_PATH → SOLANA_KEYPAIR_SECRET の順に署名ウォレットを探します。
func (c *Container) loadIdentity(ctx context.Context) (wallet.Identity, error) {
	switch {
	case c.Config.KeypairPath != "":
		w, err := solanainfra.LoadKeypairWallet(c.Config.KeypairPath)
		if err != nil {
			return nil, fmt.Errorf("di: load keypair: %w", err)
		}
		return w, nil

	case c.Config.KeypairSecret != "":
		sm, err := solanainfra.NewWalletSecretProviderSM(ctx, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		defer sm.Close()

		w, err := sm.Load(ctx, c.Config.KeypairSecret)
		if err != nil {
			return nil, fmt.Errorf("di: load keypair secret: %w", err)
		}
		return w, nil

	default:
		return nil, nil
	}
}

// Manager は mint ライフサイクルの Manager を組み立てます。
func (c *Container) Manager(opts ...appmint.Option) (*appmint.Manager, error) {
	if err := c.Config.ValidateMint(); err != nil {
		return nil, err
	}

	base := []appmint.Option{
		appmint.WithLogger(c.Logger),
		appmint.WithBalanceReader(c.Balances),
		appmint.WithIdentity(c.Identity),
	}
	if c.Journal != nil {
		base = append(base, appmint.WithAttemptRepository(c.Journal))
	}

	return appmint.NewManager(
		appmint.Settings{
			SaleID:         c.Config.CandyMachineID,
			Treasury:       c.Config.TreasuryAddress,
			ConfirmTimeout: c.Config.TxTimeout,
			GoLiveAt:       c.Config.StartDate,
		},
		c.Reader,
		c.Submitter,
		c.Waiter,
		append(base, opts...)...,
	)
}

// Close は保持しているクライアントをすべて閉じます。
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
