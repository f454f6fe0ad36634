package mint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

// MockBalances реализует BalanceReader
type MockBalances struct {
	mock.Mock
}

func (m *MockBalances) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(uint64), args.Error(1)
}

// MockTokens реализует TokenBalanceReader
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (candymachine.TokenBalance, error) {
	args := m.Called(ctx, owner, mint)
	return args.Get(0).(candymachine.TokenBalance), args.Error(1)
}

// MockFetcher реализует StateFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, machineID, guardID solana.PublicKey) (candymachine.Machine, candymachine.Guard, error) {
	args := m.Called(ctx, machineID, guardID)
	return args.Get(0).(candymachine.Machine), args.Get(1).(candymachine.Guard), args.Error(2)
}

// MockSubmitter реализует Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockSubmitter) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(Signature), args.Error(1)
}

// scriptedExecutor возвращает заранее заданные результаты по порядку.
type scriptedExecutor struct {
	mu      sync.Mutex
	results []AttemptResult
	calls   int
	args    []candymachine.MintArgs
	opts    []SubmitOptions
	onCall  func(i int)
}

func (s *scriptedExecutor) ExecuteOne(_ context.Context, _ *State, args candymachine.MintArgs, opts SubmitOptions) AttemptResult {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.args = append(s.args, args)
	s.opts = append(s.opts, opts)
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(i)
	}
	if i < len(s.results) {
		return s.results[i]
	}
	return okResult()
}

func (s *scriptedExecutor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingPublisher сохраняет опубликованные события синхронно.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type())
	}
	return out
}

// recordingRecorder считает вызовы метрик.
type recordingRecorder struct {
	mu       sync.Mutex
	attempts []bool
	batches  int
}

func (r *recordingRecorder) ObserveAttempt(success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, success)
}

func (r *recordingRecorder) ObserveBatch(int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
}

func (r *recordingRecorder) SetItemsRemaining(uint64) {}
func (r *recordingRecorder) SetWalletBalance(uint64)  {}

func okResult() AttemptResult {
	return AttemptResult{
		Success:     true,
		Signature:   "5j7s8KxbAbSuccessSig",
		MintedAsset: solana.NewWallet().PublicKey(),
	}
}

func failResult(msg string) AttemptResult {
	return AttemptResult{ErrorMessage: msg}
}

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(key.String())
	require.NoError(t, err)
	return w
}

func testMachine() candymachine.Machine {
	return candymachine.Machine{
		PublicKey:      solana.NewWallet().PublicKey(),
		Authority:      solana.NewWallet().PublicKey(),
		MintAuthority:  solana.NewWallet().PublicKey(),
		CollectionMint: solana.NewWallet().PublicKey(),
		ItemsAvailable: 1000,
		ItemsLoaded:    1000,
		ItemsRedeemed:  400,
	}
}

func testGuard(configs ...candymachine.GuardConfig) candymachine.Guard {
	return candymachine.Guard{
		PublicKey: solana.NewWallet().PublicKey(),
		Base:      solana.NewWallet().PublicKey(),
		Authority: solana.NewWallet().PublicKey(),
		Guards:    candymachine.NewGuardSet(configs...),
	}
}

func initializedState(configs ...candymachine.GuardConfig) *State {
	s := NewState()
	s.Store(testMachine(), testGuard(configs...))
	return s
}

func testPayment() PaymentConfig {
	return PaymentConfig{
		TokenMint:      solana.NewWallet().PublicKey(),
		DestinationAta: solana.NewWallet().PublicKey(),
		TokenAmount:    250_000_000,
	}
}
