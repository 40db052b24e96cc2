// internal/application/mint/state.go
package mint

import (
	"errors"
	"fmt"
)

// State は MintLifecycleManager の状態です。
//
//	Idle → Loading → Ready → Submitting → Confirming → Settled → (Loading → Ready) ...
//
// Settled は試行単位の終端で、マシン全体としての終端はありません。
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateSettled    State = "settled"
)

// InFlight は試行が進行中（Submitting / Confirming）なら true です。
func (s State) InFlight() bool {
	return s == StateSubmitting || s == StateConfirming
}

type event string

const (
	evRefresh         event = "refresh"
	evLoaded          event = "loaded"
	evLoadFailed      event = "load_failed"
	evLoadFailedStale event = "load_failed_stale" // 直前の snapshot を保ったまま Ready に戻す
	evSubmit          event = "submit"
	evSubmitted       event = "submitted"
	evSettle          event = "settle"
	evDismiss         event = "dismiss"
	evReset           event = "reset"
)

var ErrIllegalTransition = errors.New("mint: illegal state transition")

// transitions は許可された遷移の全表です。表にない組み合わせは不正。
var transitions = map[State]map[event]State{
	StateIdle: {
		evRefresh: StateLoading,
		evSettle:  StateSettled, // 未接続での mint()
	},
	StateLoading: {
		evLoaded:          StateReady,
		evLoadFailed:      StateIdle,
		evLoadFailedStale: StateReady,
		evSettle:          StateSettled, // 未接続での mint()（読み込み結果は破棄）
	},
	StateReady: {
		evRefresh: StateLoading,
		evSubmit:  StateSubmitting,
		evSettle:  StateSettled, // 未接続での mint()
	},
	StateSubmitting: {
		evSubmitted: StateConfirming,
		evSettle:    StateSettled,
	},
	StateConfirming: {
		evSettle: StateSettled,
	},
	StateSettled: {
		evRefresh: StateLoading,
		evSettle:  StateSettled,
		evDismiss: StateReady,
	},
}

// transition は from に ev を適用した次の状態を返します。
// evReset はどの状態からでも Idle に戻します（identity 変更 / teardown）。
func transition(from State, ev event) (State, error) {
	if ev == evReset {
		return StateIdle, nil
	}
	next, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s --%s-->", ErrIllegalTransition, from, ev)
	}
	return next, nil
}
