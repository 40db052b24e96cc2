// internal/infra/solana/candy_machine.go
package solana

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	saledom "candymint/internal/domain/sale"
)

// well-known program / sysvar ids
const (
	CandyMachineProgramID  = "cndyAnrLdpjq1Ssp1z8xxDsB8dxe7u4HL5Nxi2K5WXZ"
	TokenMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	systemProgramID        = "11111111111111111111111111111111"
	rentSysvarID           = "SysvarRent111111111111111111111111111111111"
	clockSysvarID          = "SysvarC1ock11111111111111111111111111111111"
)

const anchorDiscriminatorByteSize = 8

var (
	candyMachineDiscriminator  = anchorDiscriminator("account", "CandyMachine")
	mintNFTInstructionSelector = anchorDiscriminator("global", "mint_nft")
)

// anchorDiscriminator は Anchor の 8 バイト識別子 sha256("<namespace>:<name>")[:8] です。
func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// CandyMachineData は CandyMachine.data の borsh レイアウトです。
// GoLiveDate は Option<i64> で、None は nil になります。
type CandyMachineData struct {
	UUID           string
	Price          uint64
	ItemsAvailable uint64
	GoLiveDate     *int64
}

// CandyMachineAccount は candy machine v1 アカウントの borsh レイアウトです（discriminator の後ろ）。
type CandyMachineAccount struct {
	Authority     common.PublicKey
	Wallet        common.PublicKey
	TokenMint     *common.PublicKey
	Config        common.PublicKey
	Data          CandyMachineData
	ItemsRedeemed uint64
	Bump          uint8
}

// GoLiveUnix は go_live_date が設定されていれば unix 秒を返します。
func (a CandyMachineAccount) GoLiveUnix() (int64, bool) {
	if a.Data.GoLiveDate == nil {
		return 0, false
	}
	return *a.Data.GoLiveDate, true
}

// DecodeCandyMachine は getAccountInfo の生データを CandyMachineAccount に復元します。
func DecodeCandyMachine(data []byte) (CandyMachineAccount, error) {
	if len(data) < anchorDiscriminatorByteSize {
		return CandyMachineAccount{}, fmt.Errorf("%w: len=%d", saledom.ErrMalformedAccount, len(data))
	}
	if !bytes.Equal(data[:anchorDiscriminatorByteSize], candyMachineDiscriminator[:]) {
		return CandyMachineAccount{}, saledom.ErrUnexpectedDiscriminator
	}

	var acc CandyMachineAccount
	if err := borsh.Deserialize(&acc, data[anchorDiscriminatorByteSize:]); err != nil {
		return CandyMachineAccount{}, fmt.Errorf("%w: borsh decode: %v", saledom.ErrMalformedAccount, err)
	}
	if acc.ItemsRedeemed > acc.Data.ItemsAvailable {
		return CandyMachineAccount{}, fmt.Errorf(
			"%w: items_redeemed %d exceeds items_available %d",
			saledom.ErrMalformedAccount, acc.ItemsRedeemed, acc.Data.ItemsAvailable,
		)
	}
	return acc, nil
}

// EncodeCandyMachine は DecodeCandyMachine の逆変換です（discriminator 付き）。
func EncodeCandyMachine(acc CandyMachineAccount) ([]byte, error) {
	body, err := borsh.Serialize(acc)
	if err != nil {
		return nil, fmt.Errorf("candy_machine: borsh encode: %w", err)
	}
	out := make([]byte, 0, anchorDiscriminatorByteSize+len(body))
	out = append(out, candyMachineDiscriminator[:]...)
	return append(out, body...), nil
}

// MintNFTParam は candy machine v1 の mint_nft 命令に渡すアカウント群です。
type MintNFTParam struct {
	ProgramID       common.PublicKey
	Config          common.PublicKey
	CandyMachine    common.PublicKey
	Payer           common.PublicKey
	Treasury        common.PublicKey
	Metadata        common.PublicKey
	Mint            common.PublicKey
	MintAuthority   common.PublicKey
	UpdateAuthority common.PublicKey
	MasterEdition   common.PublicKey
}

// MintNFT は mint_nft 命令を組み立てます。引数なしなので data は discriminator のみ。
//
// accounts の順序はプログラム側の MintNFT 構造体に一致させること。
func MintNFT(p MintNFTParam) types.Instruction {
	data := make([]byte, anchorDiscriminatorByteSize)
	copy(data, mintNFTInstructionSelector[:])

	return types.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Config, IsSigner: false, IsWritable: false},
			{PubKey: p.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: p.Payer, IsSigner: true, IsWritable: true},
			{PubKey: p.Treasury, IsSigner: false, IsWritable: true},
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: p.UpdateAuthority, IsSigner: true, IsWritable: false},
			{PubKey: p.MasterEdition, IsSigner: false, IsWritable: true},
			{PubKey: common.PublicKeyFromString(TokenMetadataProgramID), IsSigner: false, IsWritable: false},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(systemProgramID), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(rentSysvarID), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(clockSysvarID), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}
}
