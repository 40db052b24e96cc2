// internal/application/mint/manager.go
package mint

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
	"candymint/internal/domain/wallet"
	"candymint/internal/platform/logging"
)

// DefaultConfirmTimeout は確認待ちのデフォルト上限です（txTimeout 30000ms 相当）。
const DefaultConfirmTimeout = 30 * time.Second

var (
	ErrInvalidSaleID   = errors.New("mint_manager: saleId is empty")
	ErrInvalidTreasury = errors.New("mint_manager: treasury is empty")
	ErrMissingPort     = errors.New("mint_manager: reader / submitter / waiter is nil")
)

// Settings は埋め込み側アプリケーションから構築時に受け取る設定です。
// コア内部でグローバル設定や環境変数を読むことはしません。
type Settings struct {
	SaleID         string
	Treasury       string
	ConfirmTimeout time.Duration
	GoLiveAt       time.Time
}

// ============================================================
// Manager（MintLifecycleManager）
// ============================================================

// Manager は sale 状態の読み込み → 送信 → 確認 → 確定 を 1 つの状態機械として扱います。
//
// 排他は状態機械のガード条件で決まります（Submitting / Confirming 中の Mint は no-op）。
// mu はガード判定と状態更新を原子的にするためだけに使います。
//
// identity 変更 / Close のたびに generation を進め、進行中試行の context を cancel します。
// 全ての状態更新は generation を再確認するため、古いポーリング結果は何も変更しません。
type Manager struct {
	settings  Settings
	reader    SaleStateReader
	submitter TransactionSubmitter
	waiter    ConfirmationWaiter
	balances  BalanceReader
	journal   mintdom.AttemptRepository
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	mu            sync.Mutex
	state         State
	identity      wallet.Identity
	snapshot      *saledom.Snapshot
	attempt       mintdom.MintAttempt
	balance       *uint64
	loadErr       mintdom.ErrorKind
	generation    uint64
	cancelAttempt context.CancelFunc
	subscribers   map[int]chan View
	nextSubID     int
	closed        bool
}

type Option func(*Manager)

func WithBalanceReader(b BalanceReader) Option {
	return func(m *Manager) { m.balances = b }
}

func WithAttemptRepository(r mintdom.AttemptRepository) Option {
	return func(m *Manager) { m.journal = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(f func() string) Option {
	return func(m *Manager) {
		if f != nil {
			m.newID = f
		}
	}
}

// WithIdentity は初期 identity を設定します（nil = 未接続）。
func WithIdentity(id wallet.Identity) Option {
	return func(m *Manager) { m.identity = id }
}

// NewManager は Manager を Idle 状態で生成します。
func NewManager(
	settings Settings,
	reader SaleStateReader,
	submitter TransactionSubmitter,
	waiter ConfirmationWaiter,
	opts ...Option,
) (*Manager, error) {
	settings.SaleID = strings.TrimSpace(settings.SaleID)
	settings.Treasury = strings.TrimSpace(settings.Treasury)
	if settings.SaleID == "" {
		return nil, ErrInvalidSaleID
	}
	if settings.Treasury == "" {
		return nil, ErrInvalidTreasury
	}
	if reader == nil || submitter == nil || waiter == nil {
		return nil, ErrMissingPort
	}
	if settings.ConfirmTimeout <= 0 {
		settings.ConfirmTimeout = DefaultConfirmTimeout
	}

	m := &Manager{
		settings:    settings,
		reader:      reader,
		submitter:   submitter,
		waiter:      waiter,
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		state:       StateIdle,
		attempt:     mintdom.MintAttempt{Status: mintdom.AttemptIdle},
		subscribers: make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("mint-lifecycle")
	return m, nil
}

// ============================================================
// Public operations
// ============================================================

// View は現在の状態を返します。
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Refresh は sale 状態（と残高）を読み直します。
// Idle / Ready / Settled 以外（読み込み中・試行中）では何もせず現在の View を返します。
func (m *Manager) Refresh(ctx context.Context) View {
	m.mu.Lock()
	gen := m.generation
	id := m.identity
	ok := m.fireLocked(gen, evRefresh, func() { m.loadErr = mintdom.ErrorKindNone })
	if !ok {
		v := m.viewLocked()
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	m.load(ctx, gen, id)
	return m.View()
}

// Mint は 1 回分のミント試行を実行し、確定後（再読み込み後）の View を返します。
//
//   - Submitting / Confirming 中、Close 後は no-op
//   - identity 不在なら即 Settled(NotConnected)（ネットワークアクセスなし）。
//     Loading 中でも同じで、読み込み結果は破棄されます
//   - Loading 中 / Ready でない / 売り切れなら no-op
func (m *Manager) Mint(ctx context.Context) View {
	m.mu.Lock()
	if m.closed || m.state.InFlight() {
		v := m.viewLocked()
		m.mu.Unlock()
		return v
	}

	id := m.identity
	now := m.now()

	if id == nil {
		if m.state == StateLoading {
			m.generation++
		}
		gen := m.generation
		a, err := mintdom.NewAttempt(m.newID(), "", m.settings.SaleID, now)
		if err == nil {
			err = a.MarkFailed(mintdom.ErrorKindNotConnected, now)
		}
		if err != nil {
			m.logger.Error("build attempt failed", zap.Error(err))
		} else {
			m.fireLocked(gen, evSettle, func() { m.attempt = a })
			m.logger.Info("mint rejected: wallet not connected")
		}
		v := m.viewLocked()
		m.mu.Unlock()
		return v
	}

	gen := m.generation
	if m.state != StateReady || m.snapshot == nil || m.snapshot.SoldOut() {
		v := m.viewLocked()
		m.mu.Unlock()
		return v
	}

	a, err := mintdom.NewAttempt(m.newID(), id.Address(), m.settings.SaleID, now)
	if err != nil {
		m.logger.Error("build attempt failed", zap.Error(err))
		v := m.viewLocked()
		m.mu.Unlock()
		return v
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.fireLocked(gen, evSubmit, func() {
		m.attempt = a
		m.cancelAttempt = cancel
	})
	m.mu.Unlock()

	log := m.logger.With(
		zap.String("attemptId", a.ID),
		zap.String("wallet", logging.MaskShort(a.WalletAddress)),
	)
	log.Info("mint submitting")

	// 1) submit（1 試行につき 1 回だけ）
	txID, err := m.submitter.Submit(attemptCtx, id, m.settings.SaleID, m.settings.Treasury)
	if err != nil {
		kind := classifySubmitError(err)
		log.Warn("mint submission failed", zap.String("outcome", string(kind)), zap.Error(err))
		if settled, ok := m.settle(gen, failWith(kind, m.now)); ok {
			m.afterSettle(ctx, gen, id, settled)
		}
		return m.View()
	}

	if !m.fire(gen, evSubmitted, func() {
		if err := m.attempt.MarkConfirming(txID); err != nil {
			m.logger.Error("mark confirming failed", zap.Error(err))
		}
	}) {
		log.Info("mint superseded after submission", zap.String("tx", logging.MaskShort(txID)))
		return m.View()
	}
	log = log.With(zap.String("tx", logging.MaskShort(txID)))
	log.Info("mint submitted; awaiting confirmation")

	// 2) confirm
	conf, err := m.waiter.Await(attemptCtx, txID, m.settings.ConfirmTimeout)

	var mark func(*mintdom.MintAttempt) error
	switch {
	case err != nil:
		kind := Classify(err)
		log.Warn("confirmation aborted", zap.String("outcome", string(kind)), zap.Error(err))
		mark = failWith(kind, m.now)
	case conf.Status == mintdom.Confirmed:
		log.Info("mint confirmed")
		mark = func(a *mintdom.MintAttempt) error { return a.MarkSucceeded(m.now()) }
	case conf.Status == mintdom.Failed:
		kind := Classify(conf.Reason)
		log.Warn("mint failed on chain", zap.String("outcome", string(kind)), zap.Error(conf.Reason))
		mark = failWith(kind, m.now)
	default:
		log.Warn("confirmation timed out; transaction may still land",
			zap.Duration("timeout", m.settings.ConfirmTimeout))
		mark = failWith(mintdom.ErrorKindTimeout, m.now)
	}

	// 3) settle → refresh
	if settled, ok := m.settle(gen, mark); ok {
		m.afterSettle(ctx, gen, id, settled)
	} else {
		log.Info("stale confirmation result dropped")
	}
	return m.View()
}

// Dismiss は確定済みの試行結果を消して Idle 試行に戻します。
// Settled 状態なら Ready（snapshot がなければ Idle）へ戻します。試行中は何もしません。
func (m *Manager) Dismiss() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.state.InFlight() {
		return m.viewLocked()
	}

	reset := func() { m.attempt = mintdom.MintAttempt{Status: mintdom.AttemptIdle} }
	switch {
	case m.state == StateSettled && m.snapshot != nil:
		m.fireLocked(m.generation, evDismiss, reset)
	case m.state == StateSettled:
		m.fireLocked(m.generation, evReset, reset)
	default:
		reset()
		m.publishLocked()
	}
	return m.viewLocked()
}

// SetIdentity は identity を差し替えて新しいライフサイクルを開始します。
// 進行中の確認ポーリングは cancel され、その結果は状態に反映されません。
// 状態は Idle に戻るので、呼び出し側で Refresh してください。
func (m *Manager) SetIdentity(id wallet.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.resetLocked()
	m.identity = id

	addr := ""
	if id != nil {
		addr = id.Address()
	}
	m.logger.Info("identity changed", zap.String("wallet", logging.MaskShort(addr)))
	m.publishLocked()
}

// Subscribe は状態変化ごとに最新の View を受け取るチャネルを返します。
// 受信が遅れた場合は古い View を捨てて最新だけを残します。
func (m *Manager) Subscribe() (<-chan View, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan View, 1)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- m.viewLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(c)
			}
		})
	}
}

// Close は teardown です。進行中の試行を cancel し、以後の状態変化を止めます。
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.generation++
	if m.cancelAttempt != nil {
		m.cancelAttempt()
		m.cancelAttempt = nil
	}
	m.closed = true
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
}

// ============================================================
// Internal
// ============================================================

func failWith(kind mintdom.ErrorKind, now func() time.Time) func(*mintdom.MintAttempt) error {
	return func(a *mintdom.MintAttempt) error { return a.MarkFailed(kind, now()) }
}

// load は Loading 中に sale 状態と残高を取得し、Ready（または失敗遷移）へ進めます。
func (m *Manager) load(ctx context.Context, gen uint64, id wallet.Identity) {
	snap, err := m.reader.Read(ctx, m.settings.SaleID)

	var bal *uint64
	if id != nil && m.balances != nil {
		b, berr := m.balances.Balance(ctx, id.Address())
		if berr != nil {
			m.logger.Warn("balance refresh failed", zap.Error(berr))
		} else {
			bal = &b
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.Warn("sale state read failed", zap.String("saleId", logging.MaskShort(m.settings.SaleID)), zap.Error(err))
		ev := evLoadFailed
		if m.snapshot != nil {
			ev = evLoadFailedStale
		}
		m.fireLocked(gen, ev, func() {
			m.loadErr = mintdom.ErrorKindUnreachable
			if bal != nil {
				m.balance = bal
			}
		})
		return
	}

	m.fireLocked(gen, evLoaded, func() {
		s := snap
		m.snapshot = &s
		m.loadErr = mintdom.ErrorKindNone
		if bal != nil {
			m.balance = bal
		}
	})
}

// settle は試行を確定させ、確定後の試行を返します。generation が古ければ何もせず false を返します。
func (m *Manager) settle(gen uint64, mark func(*mintdom.MintAttempt) error) (mintdom.MintAttempt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.generation {
		return mintdom.MintAttempt{}, false
	}
	a := m.attempt
	if err := mark(&a); err != nil {
		m.logger.Error("settle attempt failed", zap.Error(err))
		return mintdom.MintAttempt{}, false
	}
	ok := m.fireLocked(gen, evSettle, func() {
		m.attempt = a
		m.cancelAttempt = nil
	})
	return a, ok
}

// afterSettle は Settled → Loading → Ready の自動遷移です（成功 / 失敗どちらでも）。
func (m *Manager) afterSettle(ctx context.Context, gen uint64, id wallet.Identity, settled mintdom.MintAttempt) {
	m.record(ctx, settled)

	m.mu.Lock()
	ok := m.fireLocked(gen, evRefresh, nil)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.load(ctx, gen, id)
}

// record は確定済み試行をジャーナルへ保存します（失敗してもログのみ）。
func (m *Manager) record(ctx context.Context, a mintdom.MintAttempt) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Save(ctx, a); err != nil {
		m.logger.Warn("attempt journal save failed", zap.String("attemptId", a.ID), zap.Error(err))
	}
}

func (m *Manager) fire(gen uint64, ev event, mutate func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(gen, ev, mutate)
}

// fireLocked は generation と遷移表を確認してから mutate を適用します。
func (m *Manager) fireLocked(gen uint64, ev event, mutate func()) bool {
	if m.closed || gen != m.generation {
		return false
	}
	next, err := transition(m.state, ev)
	if err != nil {
		m.logger.Debug("transition rejected", zap.Error(err))
		return false
	}
	if mutate != nil {
		mutate()
	}
	m.state = next
	m.publishLocked()
	return true
}

func (m *Manager) resetLocked() {
	m.generation++
	if m.cancelAttempt != nil {
		m.cancelAttempt()
		m.cancelAttempt = nil
	}
	m.state, _ = transition(m.state, evReset)
	m.snapshot = nil
	m.attempt = mintdom.MintAttempt{Status: mintdom.AttemptIdle}
	m.balance = nil
	m.loadErr = mintdom.ErrorKindNone
}

func (m *Manager) publishLocked() {
	if len(m.subscribers) == 0 {
		return
	}
	v := m.viewLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

func (m *Manager) viewLocked() View {
	v := View{
		State:     m.state,
		Attempt:   m.attempt,
		LoadError: m.loadErr,
		GoLiveAt:  m.settings.GoLiveAt,
	}
	if m.identity != nil {
		v.WalletAddress = m.identity.Address()
	}
	if m.snapshot != nil {
		s := *m.snapshot
		v.Snapshot = &s
		if s.Initialized() {
			v.GoLiveAt = s.GoLiveAt()
		}
	}
	if m.balance != nil {
		b := *m.balance
		v.BalanceLamports = &b
	}
	if m.attempt.SettledAt != nil {
		t := *m.attempt.SettledAt
		v.Attempt.SettledAt = &t
	}
	return v
}
