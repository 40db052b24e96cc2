// cmd/keygen/main.go
//
// CLI 署名用の Solana keypair を生成する小さなツールです。
// - Solana 互換の ed25519 keypair を生成
// - 公開鍵を base58 文字列として表示（これがウォレットアドレス）
// - 秘密鍵を Solana CLI 互換の JSON 配列としてファイルに保存します。
// - --export-base58 を付けると、ウォレットへのインポート用に秘密鍵を base58 でも表示します。
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
)

var errKeypairExists = errors.New("keygen: keypair file already exists (use --force to overwrite)")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		out          string
		force        bool
		exportBase58 bool
	)
	cmd := &cobra.Command{
		Use:           "keygen",
		Short:         "Generate a solana-keygen compatible keypair file",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acc, err := writeKeypair(out, force)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), acc, out, exportBase58)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "candymint-payer.json", "output keypair file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&exportBase58, "export-base58", false, "also print the secret key as base58 for wallet import")
	return cmd
}

// writeKeypair は keypair を生成して path に保存します。
func writeKeypair(path string, force bool) (types.Account, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return types.Account{}, errKeypairExists
		}
	}

	acc := types.NewAccount()

	// Solana の keypair ファイルは [64 byte] の secret key をそのまま配列にしたもの
	secret := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		secret[i] = int(b)
	}
	data, err := json.Marshal(secret)
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to marshal secret key json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.Account{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return acc, nil
}

func printSummary(w io.Writer, acc types.Account, path string, exportBase58 bool) {
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "✅ candymint payer wallet generated")
	fmt.Fprintln(w, "============================================")
	fmt.Fprintf(w, "Public Key:\n  %s\n\n", acc.PublicKey.ToBase58())
	fmt.Fprintf(w, "Secret key file (Solana-compatible JSON):\n  %s\n\n", path)
	if exportBase58 {
		fmt.Fprintf(w, "Secret Key (base58, for wallet import):\n  %s\n\n", base58.Encode(acc.PrivateKey))
	}
	fmt.Fprintln(w, "⚠ IMPORTANT:")
	fmt.Fprintln(w, "  - この JSON ファイルは Git に絶対にコミットしないでください。")
	fmt.Fprintln(w, "  - SOLANA_KEYPAIR_PATH に指定するか、Secret Manager に登録して SOLANA_KEYPAIR_SECRET を設定してください。")
}
