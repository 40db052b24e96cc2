// cmd/candymint/render.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	appmint "candymint/internal/application/mint"
	"candymint/internal/application/mint/presenter"
	mintdom "candymint/internal/domain/mint"
)

func renderView(w io.Writer, v appmint.View, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "state\t%s\n", v.State)
	if v.Connected() {
		fmt.Fprintf(tw, "wallet\t%s\n", presenter.ShortenAddress(v.WalletAddress, 4))
	} else {
		fmt.Fprintf(tw, "wallet\tnot connected\n")
	}
	if sol, ok := v.BalanceSOL(); ok {
		fmt.Fprintf(tw, "balance\t%.4f SOL\n", sol)
	}
	if s := v.Snapshot; s != nil {
		fmt.Fprintf(tw, "available\t%d\n", s.TotalSupply())
		fmt.Fprintf(tw, "redeemed\t%d\n", s.Redeemed())
		fmt.Fprintf(tw, "remaining\t%d\n", s.Remaining())
		if s.PriceLamports() > 0 {
			fmt.Fprintf(tw, "price\t%.4f SOL\n", float64(s.PriceLamports())/appmint.LamportsPerSOL)
		}
	}
	if !v.GoLiveAt.IsZero() {
		fmt.Fprintf(tw, "go live\t%s\n", v.GoLiveAt.Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "button\t%s\n", presenter.ButtonLabel(v, now))
	if v.LoadError != mintdom.ErrorKindNone {
		fmt.Fprintf(tw, "load error\t%s\n", v.LoadError)
	}
	if alert := presenter.AlertFor(v); alert.Open {
		fmt.Fprintf(tw, "alert\t[%s] %s\n", alert.Severity, alert.Message)
	}
	if v.Attempt.TransactionID != "" {
		fmt.Fprintf(tw, "tx\t%s\n", v.Attempt.TransactionID)
	}
}

func renderLine(w io.Writer, v appmint.View, now time.Time) {
	line := fmt.Sprintf("%s state=%s button=%q", now.Format(time.TimeOnly), v.State, presenter.ButtonLabel(v, now))
	if s := v.Snapshot; s != nil {
		line += fmt.Sprintf(" remaining=%d/%d", s.Remaining(), s.TotalSupply())
	}
	if alert := presenter.AlertFor(v); alert.Open {
		line += fmt.Sprintf(" alert=%q", alert.Message)
	}
	fmt.Fprintln(w, line)
}

func renderAttempts(w io.Writer, list []mintdom.MintAttempt) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tSUBMITTED\tSTATUS\tOUTCOME\tTX")
	for _, a := range list {
		outcome := string(a.Outcome)
		if outcome == "" {
			outcome = "-"
		}
		tx := a.TransactionID
		if tx == "" {
			tx = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.SubmittedAt.Format(time.RFC3339), a.Status, outcome, presenter.ShortenAddress(tx, 6))
	}
}
