// internal/application/mint/presenter/alert.go
package presenter

import (
	"fmt"
	"time"

	appmint "candymint/internal/application/mint"
	mintdom "candymint/internal/domain/mint"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert は試行結果を UI に通知するためのメッセージです。
type Alert struct {
	Open     bool
	Message  string
	Severity Severity
}

var outcomeMessages = map[mintdom.ErrorKind]Alert{
	mintdom.ErrorKindSoldOut:           {Open: true, Message: "SOLD OUT!", Severity: SeverityError},
	mintdom.ErrorKindNotStarted:        {Open: true, Message: "Minting period hasn't started yet.", Severity: SeverityError},
	mintdom.ErrorKindInsufficientFunds: {Open: true, Message: "Insufficient funds to mint. Please fund your wallet.", Severity: SeverityError},
	mintdom.ErrorKindUserRejected:      {Open: true, Message: "Transaction was not signed. Mint cancelled.", Severity: SeverityInfo},
	mintdom.ErrorKindNotConnected:      {Open: true, Message: "Connect a wallet to mint.", Severity: SeverityInfo},
	mintdom.ErrorKindUnreachable:       {Open: true, Message: "Could not reach the network. Please try again.", Severity: SeverityError},
	// Timeout は「失敗」と断定しない
	mintdom.ErrorKindTimeout: {
		Open:     true,
		Message:  "Mint is taking longer than expected. Your transaction may still confirm; check your wallet before trying again.",
		Severity: SeverityWarning,
	},
	mintdom.ErrorKindUnknown: {Open: true, Message: "Minting failed! Please try again!", Severity: SeverityError},
}

// AlertFor は View の試行結果から通知を組み立てます。確定していなければ Open=false。
func AlertFor(v appmint.View) Alert {
	switch v.Attempt.Status {
	case mintdom.AttemptSucceeded:
		return Alert{Open: true, Message: "Congratulations! Mint succeeded!", Severity: SeveritySuccess}
	case mintdom.AttemptFailed:
		if a, ok := outcomeMessages[v.Attempt.Outcome]; ok {
			return a
		}
		return outcomeMessages[mintdom.ErrorKindUnknown]
	default:
		return Alert{}
	}
}

// ButtonLabel は mint ボタンの表示文言です。
//
//	売り切れ → "SOLD OUT" / 開始前 → カウントダウン / 試行中 → "Minting..." / それ以外 → "MINT"
func ButtonLabel(v appmint.View, now time.Time) string {
	switch {
	case v.Snapshot != nil && v.Snapshot.SoldOut():
		return "SOLD OUT"
	case !v.IsLive(now):
		return FormatCountdown(v.GoLiveAt.Sub(now))
	case v.Attempt.Status.InFlight():
		return "Minting..."
	default:
		return "MINT"
	}
}

// FormatCountdown は "H hours, M minutes, S seconds" 形式にします（日数は時間に繰り込む）。
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d hours, %d minutes, %d seconds", hours, minutes, seconds)
}

// ShortenAddress は "Abcd...wxyz" の形に短縮します。
func ShortenAddress(address string, chars int) string {
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= chars*2+3 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
