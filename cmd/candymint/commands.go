// cmd/candymint/commands.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appmint "candymint/internal/application/mint"
	"candymint/internal/application/mint/presenter"
	mintdom "candymint/internal/domain/mint"
)

var errMintFailed = errors.New("mint did not succeed")

// ---------------------------------------------------------------------------
// state
// ---------------------------------------------------------------------------

func newStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current sale state and wallet balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := a.container

			snap, err := c.Reader.Read(ctx, a.cfg.CandyMachineID)
			if err != nil {
				return err
			}

			v := appmint.View{State: appmint.StateReady, Snapshot: &snap, GoLiveAt: snap.GoLiveAt()}
			if c.Identity != nil {
				v.WalletAddress = c.Identity.Address()
				if lamports, err := c.Balances.Balance(ctx, v.WalletAddress); err != nil {
					a.logger.Warn("balance unavailable", zap.Error(err))
				} else {
					v.BalanceLamports = &lamports
				}
			}
			renderView(cmd.OutOrStdout(), v, time.Now())
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// mint
// ---------------------------------------------------------------------------

func newMintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mint",
		Short: "Mint one token from the candy machine and wait for confirmation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.container.Manager()
			if err != nil {
				return err
			}
			defer m.Close()

			v := m.Refresh(ctx)
			renderView(cmd.OutOrStdout(), v, time.Now())
			if v.Connected() && !v.CanMint() {
				return fmt.Errorf("cannot mint in state %s", v.State)
			}

			v = m.Mint(ctx)
			renderView(cmd.OutOrStdout(), v, time.Now())
			return outcomeErr(v)
		},
	}
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		mintLive bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream sale state; optionally mint once the sale goes live",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.container.Manager()
			if err != nil {
				return err
			}
			defer m.Close()

			views, unsubscribe := m.Subscribe()
			defer unsubscribe()

			done := make(chan struct{})
			go func() {
				defer close(done)
				for v := range views {
					renderLine(cmd.OutOrStdout(), v, time.Now())
				}
			}()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			minted := false
			for {
				v := m.Refresh(ctx)
				if mintLive && !minted && v.CanMint() && v.IsLive(time.Now()) {
					minted = true
					v = m.Mint(ctx)
					if err := outcomeErr(v); err != nil {
						a.logger.Warn("mint attempt settled without success", zap.String("outcome", string(v.Attempt.Outcome)))
					}
				}

				select {
				case <-ctx.Done():
					m.Close()
					<-done
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "refresh interval")
	cmd.Flags().BoolVar(&mintLive, "mint", false, "mint once when the sale is live")
	return cmd
}

// ---------------------------------------------------------------------------
// history
// ---------------------------------------------------------------------------

func newHistoryCmd(a *app) *cobra.Command {
	var (
		walletAddr string
		attemptID  string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded mint attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := a.container
			if c.Journal == nil {
				return errors.New("attempt journal is not configured (set FIRESTORE_PROJECT_ID)")
			}

			if attemptID != "" {
				at, err := c.Journal.GetByID(ctx, attemptID)
				if err != nil {
					return err
				}
				renderAttempts(cmd.OutOrStdout(), []mintdom.MintAttempt{at})
				return nil
			}

			if walletAddr == "" && c.Identity != nil {
				walletAddr = c.Identity.Address()
			}
			if walletAddr == "" {
				return errors.New("--wallet is required when no keypair is configured")
			}

			list, err := c.Journal.ListByWallet(ctx, walletAddr, limit)
			if err != nil {
				return err
			}
			renderAttempts(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&walletAddr, "wallet", "", "wallet address (defaults to the configured keypair)")
	cmd.Flags().StringVar(&attemptID, "id", "", "show a single attempt")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of attempts")
	return cmd
}

// outcomeErr は試行が成功以外で確定した場合にエラーを返します（終了コード用）。
func outcomeErr(v appmint.View) error {
	if v.Attempt.Status == mintdom.AttemptSucceeded {
		return nil
	}
	return fmt.Errorf("%w: %s", errMintFailed, presenter.AlertFor(v).Message)
}
