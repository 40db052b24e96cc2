// internal/infra/solana/mint_submitter.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"candymint/internal/domain/wallet"
	"candymint/internal/platform/logging"
)

var (
	ErrSubmitterNotConfigured = errors.New("mint_submitter: not configured")
	ErrSubmitterSaleEmpty     = errors.New("mint_submitter: saleId is empty")
	ErrSubmitterTreasuryEmpty = errors.New("mint_submitter: treasury is empty")
	ErrUnexpectedSigner       = errors.New("mint_submitter: unexpected required signer")
)

// MintSubmitter は candy machine v1 の mint トランザクションを 1 本組み立てて送信します。
// 販売状態の検証や冪等性の担保はしません（呼び出し側の責務）。
type MintSubmitter struct {
	RPC LedgerRPC

	ProgramID string // candy machine program
	Config    string // candy machine config account

	// NewMintAccount はテストで差し替え可能（既定は types.NewAccount）
	NewMintAccount func() types.Account

	Logger *zap.Logger
}

func NewMintSubmitter(rpc LedgerRPC, programID, config string, logger *zap.Logger) *MintSubmitter {
	pid := strings.TrimSpace(programID)
	if pid == "" {
		pid = CandyMachineProgramID
	}
	return &MintSubmitter{
		RPC:            rpc,
		ProgramID:      pid,
		Config:         strings.TrimSpace(config),
		NewMintAccount: types.NewAccount,
		Logger:         logging.OrNop(logger).Named("mint-submitter"),
	}
}

// Submit は identity を payer / mint authority として mint_nft を送信し、シグネチャを返します。
// identity が nil ならネットワークに触れずに wallet.ErrNotConnected を返します。
func (s *MintSubmitter) Submit(ctx context.Context, identity wallet.Identity, saleID string, treasury string) (string, error) {
	if identity == nil {
		return "", wallet.ErrNotConnected
	}
	if s == nil || s.RPC == nil || s.Config == "" {
		return "", ErrSubmitterNotConfigured
	}
	sale := strings.TrimSpace(saleID)
	if sale == "" {
		return "", ErrSubmitterSaleEmpty
	}
	tre := strings.TrimSpace(treasury)
	if tre == "" {
		return "", ErrSubmitterTreasuryEmpty
	}

	payer := common.PublicKeyFromString(identity.Address())
	mint := s.newMintAccount()

	ata, _, err := common.FindAssociatedTokenAddress(payer, mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("GetMasterEdition: %w", err)
	}

	mintRent, err := s.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}
	recent, err := s.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        payer,
		RecentBlockhash: recent.Blockhash,
		Instructions: []types.Instruction{
			// 1) Mint アカウント作成
			system.CreateAccount(system.CreateAccountParam{
				From:     payer,
				New:      mint.PublicKey,
				Owner:    common.TokenProgramID,
				Lamports: mintRent,
				Space:    token.MintAccountSize,
			}),
			// 2) Mint 初期化 (decimals = 0)
			token.InitializeMint(token.InitializeMintParam{
				Decimals:   0,
				Mint:       mint.PublicKey,
				MintAuth:   payer,
				FreezeAuth: &payer,
			}),
			// 3) payer の ATA 作成
			associated_token_account.CreateAssociatedTokenAccount(
				associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 payer,
					Owner:                  payer,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				},
			),
			// 4) 1 枚ミント
			token.MintTo(token.MintToParam{
				Mint:   mint.PublicKey,
				To:     ata,
				Auth:   payer,
				Amount: 1,
			}),
			// 5) candy machine の mint_nft（metadata / master edition はプログラム側で作成）
			MintNFT(MintNFTParam{
				ProgramID:       common.PublicKeyFromString(s.ProgramID),
				Config:          common.PublicKeyFromString(s.Config),
				CandyMachine:    common.PublicKeyFromString(sale),
				Payer:           payer,
				Treasury:        common.PublicKeyFromString(tre),
				Metadata:        metadataPubkey,
				Mint:            mint.PublicKey,
				MintAuthority:   payer,
				UpdateAuthority: payer,
				MasterEdition:   masterEditionPubkey,
			}),
		},
	})

	tx, err := s.sign(ctx, msg, identity, payer, mint)
	if err != nil {
		return "", err
	}

	sig, err := s.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}

	logging.OrNop(s.Logger).Info("mint submitted",
		zap.String("tx", logging.MaskShort(sig)),
		zap.String("sale", logging.MaskShort(sale)),
		zap.String("payer", logging.MaskShort(payer.ToBase58())),
		zap.String("mint", logging.MaskShort(mint.PublicKey.ToBase58())),
	)
	return sig, nil
}

// sign は必須署名者の順序どおりに署名を並べます。
// payer は identity（外部ウォレット）、mint はローカル鍵で署名します。
func (s *MintSubmitter) sign(
	ctx context.Context,
	msg types.Message,
	identity wallet.Identity,
	payer common.PublicKey,
	mint types.Account,
) (types.Transaction, error) {
	raw, err := msg.Serialize()
	if err != nil {
		return types.Transaction{}, fmt.Errorf("Message.Serialize: %w", err)
	}

	n := int(msg.Header.NumRequireSignatures)
	sigs := make([]types.Signature, 0, n)
	for _, signer := range msg.Accounts[:n] {
		switch signer {
		case payer:
			sig, err := identity.SignTransaction(ctx, raw)
			if err != nil {
				return types.Transaction{}, fmt.Errorf("SignTransaction: %w", err)
			}
			sigs = append(sigs, types.Signature(sig))
		case mint.PublicKey:
			sigs = append(sigs, types.Signature(mint.Sign(raw)))
		default:
			return types.Transaction{}, fmt.Errorf("%w: %s", ErrUnexpectedSigner, signer.ToBase58())
		}
	}

	return types.Transaction{Signatures: sigs, Message: msg}, nil
}

func (s *MintSubmitter) newMintAccount() types.Account {
	if s.NewMintAccount != nil {
		return s.NewMintAccount()
	}
	return types.NewAccount()
}
