// internal/application/mint/classifier.go
package mint

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
	"candymint/internal/domain/wallet"
)

// candy machine v1 プログラムのエラーコード（ErrorCode enum は 300 起点）
const (
	codeNotEnoughTokens        uint32 = 308 // 0x134
	codeNotEnoughSOL           uint32 = 309 // 0x135
	codeCandyMachineEmpty      uint32 = 311 // 0x137
	codeCandyMachineNotLiveYet uint32 = 312 // 0x138
)

var programCodeKinds = map[uint32]mintdom.ErrorKind{
	codeNotEnoughTokens:        mintdom.ErrorKindInsufficientFunds,
	codeNotEnoughSOL:           mintdom.ErrorKindInsufficientFunds,
	codeCandyMachineEmpty:      mintdom.ErrorKindSoldOut,
	codeCandyMachineNotLiveYet: mintdom.ErrorKindNotStarted,
}

var (
	hexCodePattern    = regexp.MustCompile(`custom program error:\s*0x([0-9a-f]+)`)
	customCodePattern = regexp.MustCompile(`"?custom"?\s*:\s*([0-9]+)`)
)

var messageKinds = []struct {
	kind     mintdom.ErrorKind
	keywords []string
}{
	{mintdom.ErrorKindSoldOut, []string{"sold out", "candymachineempty", "candy machine is empty"}},
	{mintdom.ErrorKindNotStarted, []string{"candymachinenotliveyet", "not live yet", "hasn't started", "has not started"}},
	{mintdom.ErrorKindInsufficientFunds, []string{
		"insufficient funds",
		"insufficient lamports",
		"insufficientfunds",
		"notenoughsol",
		"notenoughtokens",
		"no record of a prior credit",
	}},
}

var rejectionKeywords = []string{"user rejected", "rejected the request", "user denied", "declined to sign"}

// Classify は生の失敗を閉じた ErrorKind に変換します。副作用なし・全域関数です。
//
// 判定順（この順番は変えないこと）:
//  1. 構造化されたエラー（ProgramError のコード / コア自身の sentinel）
//  2. メッセージ文字列（"custom program error: 0x137" など）
//  3. 署名拒否
//  4. それ以外は Unknown
func Classify(err error) mintdom.ErrorKind {
	if err == nil {
		return mintdom.ErrorKindUnknown
	}

	if kind, ok := classifyStructured(err); ok {
		return kind
	}

	msg := strings.ToLower(err.Error())
	if kind, ok := classifyMessage(msg); ok {
		return kind
	}

	if errors.Is(err, wallet.ErrUserRejected) || containsAny(msg, rejectionKeywords) {
		return mintdom.ErrorKindUserRejected
	}

	return mintdom.ErrorKindUnknown
}

// classifySubmitError は txID が得られる前の失敗を分類します。
// 送信前の context 中断は台帳に何も届いていないので Timeout ではなく Unknown です。
func classifySubmitError(err error) mintdom.ErrorKind {
	if kind := Classify(err); kind != mintdom.ErrorKindTimeout {
		return kind
	}
	return mintdom.ErrorKindUnknown
}

func classifyStructured(err error) (mintdom.ErrorKind, bool) {
	var pe *mintdom.ProgramError
	if errors.As(err, &pe) {
		if kind, ok := programCodeKinds[pe.Code]; ok {
			return kind, true
		}
		// 未知コードはプログラム側の閉じた列挙の外 → Unknown で確定
		return mintdom.ErrorKindUnknown, true
	}

	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return mintdom.ErrorKindNotConnected, true
	case errors.Is(err, mintdom.ErrConfirmationTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return mintdom.ErrorKindTimeout, true
	case errors.Is(err, saledom.ErrUnreachable):
		return mintdom.ErrorKindUnreachable, true
	}

	return mintdom.ErrorKindNone, false
}

func classifyMessage(msg string) (mintdom.ErrorKind, bool) {
	if m := hexCodePattern.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.ParseUint(m[1], 16, 32); err == nil {
			if kind, ok := programCodeKinds[uint32(code)]; ok {
				return kind, true
			}
		}
	}
	if m := customCodePattern.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			if kind, ok := programCodeKinds[uint32(code)]; ok {
				return kind, true
			}
		}
	}

	for _, mk := range messageKinds {
		if containsAny(msg, mk.keywords) {
			return mk.kind, true
		}
	}
	return mintdom.ErrorKindNone, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
