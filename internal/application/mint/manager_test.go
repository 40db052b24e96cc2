package mint_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appmint "candymint/internal/application/mint"
	"candymint/internal/application/mint/mocks"
	"candymint/internal/application/mint/presenter"
	mintdom "candymint/internal/domain/mint"
	saledom "candymint/internal/domain/sale"
	"candymint/internal/domain/wallet"
)

const (
	testSaleID   = "9vwYtcJsH1MskNaixcjgNBnvBDkTBhyg25umod1rgMQL"
	testTreasury = "GrVSy3ZRbuw5ACbwSEMsj9gULk9MW7QPK1TUYcP6nLM"
	testWallet   = "5yNmX1P5dKDqXjYw7w7EL3fmwWGhw8vJmCJCkGNWb3Ra"
	testTimeout  = 30 * time.Second
)

var testNow = time.Date(2021, 11, 28, 19, 0, 0, 0, time.UTC)

type harness struct {
	reader    *mocks.SaleStateReader
	submitter *mocks.TransactionSubmitter
	waiter    *mocks.ConfirmationWaiter
	balances  *mocks.BalanceReader
	journal   *mocks.AttemptRepository
	identity  *mocks.Identity
}

func newHarness() *harness {
	return &harness{
		reader:    &mocks.SaleStateReader{},
		submitter: &mocks.TransactionSubmitter{},
		waiter:    &mocks.ConfirmationWaiter{},
		balances:  &mocks.BalanceReader{},
		journal:   &mocks.AttemptRepository{},
		identity:  &mocks.Identity{Addr: testWallet},
	}
}

func (h *harness) manager(t *testing.T, waiter appmint.ConfirmationWaiter, opts ...appmint.Option) *appmint.Manager {
	t.Helper()
	if waiter == nil {
		waiter = h.waiter
	}
	base := []appmint.Option{
		appmint.WithClock(func() time.Time { return testNow }),
		appmint.WithIDGenerator(func() string { return "attempt-1" }),
		appmint.WithBalanceReader(h.balances),
		appmint.WithAttemptRepository(h.journal),
	}
	m, err := appmint.NewManager(appmint.Settings{
		SaleID:         testSaleID,
		Treasury:       testTreasury,
		ConfirmTimeout: testTimeout,
		GoLiveAt:       testNow.Add(-time.Hour),
	}, h.reader, h.submitter, waiter, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func snapshot(t *testing.T, total, redeemed uint64) saledom.Snapshot {
	t.Helper()
	s, err := saledom.NewSnapshot(testSaleID, total, redeemed, testNow.Add(-time.Hour), 1_330_000_000, testNow)
	require.NoError(t, err)
	return s
}

// blockingWaiter は ctx を無視して release されるまで返らない確認待ちです（teardown 後に解決するポーリング）。
type blockingWaiter struct {
	started chan struct{}
	release chan mintdom.Confirmation
	done    chan struct{}
}

func newBlockingWaiter() *blockingWaiter {
	return &blockingWaiter{
		started: make(chan struct{}),
		release: make(chan mintdom.Confirmation),
		done:    make(chan struct{}),
	}
}

func (w *blockingWaiter) Await(ctx context.Context, txID string, timeout time.Duration) (mintdom.Confirmation, error) {
	close(w.started)
	defer close(w.done)
	return <-w.release, nil
}

func TestNewManager_Validation(t *testing.T) {
	h := newHarness()
	_, err := appmint.NewManager(appmint.Settings{Treasury: testTreasury}, h.reader, h.submitter, h.waiter)
	require.ErrorIs(t, err, appmint.ErrInvalidSaleID)

	_, err = appmint.NewManager(appmint.Settings{SaleID: testSaleID}, h.reader, h.submitter, h.waiter)
	require.ErrorIs(t, err, appmint.ErrInvalidTreasury)

	_, err = appmint.NewManager(appmint.Settings{SaleID: testSaleID, Treasury: testTreasury}, nil, h.submitter, h.waiter)
	require.ErrorIs(t, err, appmint.ErrMissingPort)
}

func TestManager_RefreshRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil).Once()
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(2_500_000_000), nil).Once()

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	require.Equal(t, appmint.StateIdle, m.View().State)

	v := m.Refresh(ctx)
	require.Equal(t, appmint.StateReady, v.State)
	require.NotNil(t, v.Snapshot)
	require.Equal(t, uint64(3333), v.Snapshot.Remaining())
	require.False(t, v.Snapshot.SoldOut())
	require.True(t, v.CanMint())
	require.Equal(t, mintdom.ErrorKindNone, v.LoadError)

	sol, ok := v.BalanceSOL()
	require.True(t, ok)
	require.InDelta(t, 2.5, sol, 1e-9)
	h.reader.AssertExpectations(t)
}

func TestManager_MintSucceeds(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil).Once()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 1), nil).Once()
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(2_000_000_000), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-1", nil).Once()
	h.waiter.On("Await", mock.Anything, "sig-1", testTimeout).Return(mintdom.Confirmation{Status: mintdom.Confirmed}, nil).Once()
	h.journal.On("Save", mock.Anything, mock.MatchedBy(func(a mintdom.MintAttempt) bool {
		return a.ID == "attempt-1" && a.Status == mintdom.AttemptSucceeded && a.TransactionID == "sig-1"
	})).Return(nil).Once()

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)

	v := m.Mint(ctx)
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.AttemptSucceeded, v.Attempt.Status)
	require.Equal(t, mintdom.ErrorKindNone, v.Attempt.Outcome)
	require.Equal(t, "sig-1", v.Attempt.TransactionID)
	require.Equal(t, testWallet, v.Attempt.WalletAddress)
	require.NotNil(t, v.Attempt.SettledAt)
	require.Equal(t, uint64(1), v.Snapshot.Redeemed())
	require.Equal(t, uint64(3332), v.Snapshot.Remaining())

	h.reader.AssertNumberOfCalls(t, "Read", 2)
	h.submitter.AssertExpectations(t)
	h.waiter.AssertExpectations(t)
	h.journal.AssertExpectations(t)
}

func TestManager_SubmissionSoldOutSettlesThenShowsSoldOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 3332), nil).Once()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 3333), nil).Once()
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).
		Return("", fmt.Errorf("SendTransaction: %w", &mintdom.ProgramError{Code: 311, InstructionIndex: 4})).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.AttemptFailed, v.Attempt.Status)
	require.Equal(t, mintdom.ErrorKindSoldOut, v.Attempt.Outcome)
	require.Empty(t, v.Attempt.TransactionID)
	require.True(t, v.Snapshot.SoldOut())
	require.False(t, v.CanMint())

	h.waiter.AssertNotCalled(t, "Await", mock.Anything, mock.Anything, mock.Anything)
	h.submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestManager_ConfirmationTimeoutIsNotDefiniteFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 10), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-t", nil).Once()
	h.waiter.On("Await", mock.Anything, "sig-t", testTimeout).Return(mintdom.Confirmation{Status: mintdom.TimedOut}, nil).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	require.Equal(t, mintdom.AttemptFailed, v.Attempt.Status)
	require.Equal(t, mintdom.ErrorKindTimeout, v.Attempt.Outcome)
	require.False(t, v.Attempt.Outcome.Definite())
	require.Equal(t, "sig-t", v.Attempt.TransactionID)
}

func TestManager_ConfirmationFailedIsClassified(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 10), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-f", nil).Once()
	h.waiter.On("Await", mock.Anything, "sig-f", testTimeout).Return(mintdom.Confirmation{
		Status: mintdom.Failed,
		Reason: &mintdom.ProgramError{Code: 309, InstructionIndex: 4},
	}, nil).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(errors.New("firestore down"))

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	// ジャーナル保存の失敗は結果に影響しない
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.ErrorKindInsufficientFunds, v.Attempt.Outcome)
	require.True(t, v.Attempt.Outcome.Definite())
}

func TestManager_UserRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 10), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).
		Return("", fmt.Errorf("mint_submitter: sign: %w", wallet.ErrUserRejected)).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	require.Equal(t, mintdom.ErrorKindUserRejected, v.Attempt.Outcome)
}

func TestManager_SubmitContextErrorBeforeSendIsNotTimeout(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"blockhash_cancelled", fmt.Errorf("GetLatestBlockhash: %w", context.Canceled)},
		{"rent_deadline", fmt.Errorf("GetMinimumBalanceForRentExemption: %w", context.DeadlineExceeded)},
		{"sign_cancelled", fmt.Errorf("mint_submitter: sign: %w", context.Canceled)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness()
			h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 10), nil)
			h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
			h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("", tc.err).Once()
			h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)

			m := h.manager(t, nil, appmint.WithIdentity(h.identity))
			m.Refresh(ctx)
			v := m.Mint(ctx)

			require.Equal(t, mintdom.AttemptFailed, v.Attempt.Status)
			require.Empty(t, v.Attempt.TransactionID)
			require.Equal(t, mintdom.ErrorKindUnknown, v.Attempt.Outcome)
			require.True(t, v.Attempt.Outcome.Definite())

			alert := presenter.AlertFor(v)
			require.Equal(t, presenter.SeverityError, alert.Severity)
			require.NotContains(t, alert.Message, "may still confirm")
			h.waiter.AssertNotCalled(t, "Await", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestManager_ConfirmationContextErrorIsTimeout(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 10), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-d", nil).Once()
	h.waiter.On("Await", mock.Anything, "sig-d", testTimeout).Return(mintdom.Confirmation{}, context.DeadlineExceeded).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	// 送信済みなので着地の可能性が残る
	require.Equal(t, mintdom.ErrorKindTimeout, v.Attempt.Outcome)
	require.Equal(t, "sig-d", v.Attempt.TransactionID)
}

func TestManager_JournalReceivesSettledAttempt(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-j", nil).Once()
	h.waiter.On("Await", mock.Anything, "sig-j", testTimeout).Return(mintdom.Confirmation{Status: mintdom.Confirmed}, nil).Once()

	var m *appmint.Manager
	var saved mintdom.MintAttempt
	h.journal.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(mintdom.MintAttempt)
			// 保存中に試行がクリアされても保存対象は確定済みの試行のまま
			require.Equal(t, appmint.StateReady, m.Dismiss().State)
		}).
		Return(nil).Once()

	m = h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)
	v := m.Mint(ctx)

	require.Equal(t, "attempt-1", saved.ID)
	require.Equal(t, mintdom.AttemptSucceeded, saved.Status)
	require.Equal(t, "sig-j", saved.TransactionID)
	require.NotNil(t, saved.SettledAt)
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.AttemptIdle, v.Attempt.Status)
	h.journal.AssertExpectations(t)
}

func TestManager_NotConnectedMintWhileLoadingSettlesImmediately(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	reading := make(chan struct{})
	release := make(chan struct{})
	h.reader.On("Read", mock.Anything, testSaleID).
		Run(func(mock.Arguments) {
			close(reading)
			<-release
		}).
		Return(snapshot(t, 3333, 0), nil).Once()

	m := h.manager(t, nil)
	refreshed := make(chan appmint.View, 1)
	go func() { refreshed <- m.Refresh(ctx) }()
	<-reading
	require.Equal(t, appmint.StateLoading, m.View().State)

	v := m.Mint(ctx)
	require.Equal(t, appmint.StateSettled, v.State)
	require.Equal(t, mintdom.ErrorKindNotConnected, v.Attempt.Outcome)

	close(release)
	<-refreshed

	// 読み込み結果は破棄される
	after := m.View()
	require.Equal(t, appmint.StateSettled, after.State)
	require.Equal(t, mintdom.ErrorKindNotConnected, after.Attempt.Outcome)
	require.Nil(t, after.Snapshot)
	h.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.journal.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestManager_NotConnectedMintMakesNoNetworkCall(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	m := h.manager(t, nil)
	v := m.Mint(ctx)

	require.Equal(t, appmint.StateSettled, v.State)
	require.Equal(t, mintdom.AttemptFailed, v.Attempt.Status)
	require.Equal(t, mintdom.ErrorKindNotConnected, v.Attempt.Outcome)
	require.False(t, v.Connected())

	h.reader.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
	h.balances.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything)
	h.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.waiter.AssertNotCalled(t, "Await", mock.Anything, mock.Anything, mock.Anything)
	h.journal.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestManager_NotConnectedAfterRefresh(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil).Once()

	m := h.manager(t, nil)
	require.Equal(t, appmint.StateReady, m.Refresh(ctx).State)

	v := m.Mint(ctx)
	require.Equal(t, appmint.StateSettled, v.State)
	require.Equal(t, mintdom.ErrorKindNotConnected, v.Attempt.Outcome)
	h.reader.AssertNumberOfCalls(t, "Read", 1)

	// dismiss で Ready に戻る
	v = m.Dismiss()
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.AttemptIdle, v.Attempt.Status)
}

func TestManager_SoldOutSnapshotBlocksMint(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 3333), nil).Once()
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	before := m.Refresh(ctx)
	require.False(t, before.CanMint())

	after := m.Mint(ctx)
	require.Equal(t, before.State, after.State)
	require.Equal(t, mintdom.AttemptIdle, after.Attempt.Status)
	h.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_MintBeforeLoadIsNoop(t *testing.T) {
	h := newHarness()
	m := h.manager(t, nil, appmint.WithIdentity(h.identity))

	v := m.Mint(context.Background())
	require.Equal(t, appmint.StateIdle, v.State)
	h.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_MintWhileInFlightIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-b", nil).Once()
	h.journal.On("Save", mock.Anything, mock.Anything).Return(nil)
	w := newBlockingWaiter()

	m := h.manager(t, w, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)

	result := make(chan appmint.View, 1)
	go func() { result <- m.Mint(ctx) }()
	<-w.started

	inFlight := m.View()
	require.Equal(t, appmint.StateConfirming, inFlight.State)
	require.False(t, inFlight.CanMint())

	second := m.Mint(ctx)
	require.Equal(t, inFlight, second)
	require.Equal(t, inFlight, m.Refresh(ctx))

	w.release <- mintdom.Confirmation{Status: mintdom.Confirmed}
	final := <-result
	require.Equal(t, mintdom.AttemptSucceeded, final.Attempt.Status)
	h.submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestManager_CancelledPollProducesNoTransition(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-c", nil).Once()
	w := newBlockingWaiter()

	m := h.manager(t, w, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)

	result := make(chan appmint.View, 1)
	go func() { result <- m.Mint(ctx) }()
	<-w.started

	// identity 変更 = 新しいライフサイクル
	m.SetIdentity(nil)
	afterTeardown := m.View()
	require.Equal(t, appmint.StateIdle, afterTeardown.State)
	require.Equal(t, mintdom.AttemptIdle, afterTeardown.Attempt.Status)

	w.release <- mintdom.Confirmation{Status: mintdom.Confirmed}
	<-w.done
	<-result

	require.Equal(t, afterTeardown, m.View())
	h.reader.AssertNumberOfCalls(t, "Read", 1)
	h.journal.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestManager_CloseCancelsAttemptContext(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 0), nil)
	h.balances.On("Balance", mock.Anything, testWallet).Return(uint64(1), nil)
	h.submitter.On("Submit", mock.Anything, mock.Anything, testSaleID, testTreasury).Return("sig-x", nil).Once()

	awaiting := make(chan struct{})
	h.waiter.On("Await", mock.Anything, "sig-x", testTimeout).
		Run(func(args mock.Arguments) {
			close(awaiting)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(mintdom.Confirmation{}, context.Canceled).Once()

	m := h.manager(t, nil, appmint.WithIdentity(h.identity))
	m.Refresh(ctx)

	ch, _ := m.Subscribe()
	result := make(chan appmint.View, 1)
	go func() { result <- m.Mint(ctx) }()
	<-awaiting

	m.Close()
	final := <-result
	require.Equal(t, appmint.StateConfirming, final.State)

	// Close 後はチャネルが閉じられる
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	h.reader.AssertNumberOfCalls(t, "Read", 1)
}

func TestManager_RefreshFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	unreachable := fmt.Errorf("%w: GetAccountInfo: connection refused", saledom.ErrUnreachable)

	h.reader.On("Read", mock.Anything, testSaleID).Return(saledom.Snapshot{}, unreachable).Once()
	h.reader.On("Read", mock.Anything, testSaleID).Return(snapshot(t, 3333, 5), nil).Once()
	h.reader.On("Read", mock.Anything, testSaleID).Return(saledom.Snapshot{}, unreachable).Once()

	m := h.manager(t, nil)

	v := m.Refresh(ctx)
	require.Equal(t, appmint.StateIdle, v.State)
	require.Equal(t, mintdom.ErrorKindUnreachable, v.LoadError)
	require.Nil(t, v.Snapshot)

	v = m.Refresh(ctx)
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.ErrorKindNone, v.LoadError)

	// 直前の snapshot を保ったまま Ready に戻る
	v = m.Refresh(ctx)
	require.Equal(t, appmint.StateReady, v.State)
	require.Equal(t, mintdom.ErrorKindUnreachable, v.LoadError)
	require.NotNil(t, v.Snapshot)
	require.Equal(t, uint64(5), v.Snapshot.Redeemed())
}

func TestManager_UninitializedSaleIsSoldOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	goLive := testNow.Add(2 * time.Hour)
	h.reader.On("Read", mock.Anything, testSaleID).Return(saledom.Uninitialized(testSaleID, goLive, testNow), nil).Once()

	m := h.manager(t, nil)
	v := m.Refresh(ctx)

	require.Equal(t, appmint.StateReady, v.State)
	require.True(t, v.Snapshot.SoldOut())
	require.False(t, v.CanMint())
	// 未初期化の snapshot では設定値の go-live を使う
	require.Equal(t, testNow.Add(-time.Hour), v.GoLiveAt)
}
