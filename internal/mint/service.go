// =============================
// File: internal/mint/service.go
// =============================
package mint

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

// Config – адреса кэнди-машины и политика минта.
type Config struct {
	CandyMachine  solana.PublicKey
	CandyGuard    solana.PublicKey
	Payment       PaymentConfig
	SingleOptions SubmitOptions
	BatchOptions  SubmitOptions
}

// Dependencies – внешние зависимости сервиса.
type Dependencies struct {
	Fetcher      StateFetcher
	Balances     BalanceReader
	Tokens       TokenBalanceReader
	Session      wallet.Session
	Orchestrator *Orchestrator
	State        *State
	Publisher    events.Publisher
	Recorder     Recorder
}

// Info – сводка по кэнди-машине для UI.
type Info struct {
	CandyMachine   solana.PublicKey
	ItemsAvailable uint64
	ItemsRedeemed  uint64
	ItemsRemaining uint64
	// Price – цена одного минта в целых токенах.
	Price float64
}

// Quote – оценка стоимости батча.
type Quote struct {
	Count int
	// TokenAmount – суммарная цена в минимальных единицах токена.
	TokenAmount uint64
	// Tokens – суммарная цена в целых токенах.
	Tokens float64
	// FeeReserve – лампорты, которые должны быть на балансе до старта.
	FeeReserve uint64
}

// Service – фасад минта для CLI, TUI и HTTP API. Владеет состоянием
// кэнди-машины и гарантирует, что одновременно выполняется не больше одного батча.
type Service struct {
	cfg          Config
	fetcher      StateFetcher
	balances     BalanceReader
	tokens       TokenBalanceReader
	session      wallet.Session
	state        *State
	orchestrator *Orchestrator
	publisher    events.Publisher
	recorder     Recorder
	logger       *zap.Logger

	mintMu sync.Mutex

	balanceMu        sync.Mutex
	lastTokenBalance *uint64
}

// NewService создает фасад минта
func NewService(cfg Config, deps Dependencies, logger *zap.Logger) *Service {
	if cfg.SingleOptions.Commitment == "" {
		cfg.SingleOptions = SingleMintOptions()
	}
	if cfg.BatchOptions.Commitment == "" {
		cfg.BatchOptions = BatchMintOptions()
	}
	state := deps.State
	if state == nil {
		state = NewState()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		cfg:          cfg,
		fetcher:      deps.Fetcher,
		balances:     deps.Balances,
		tokens:       deps.Tokens,
		session:      deps.Session,
		state:        state,
		orchestrator: deps.Orchestrator,
		publisher:    deps.Publisher,
		recorder:     recorder,
		logger:       logger.Named("mint-service"),
	}
}

// State возвращает состояние, которым владеет сервис.
func (s *Service) State() *State {
	return s.state
}

// Session возвращает подключённый кошелёк.
func (s *Service) Session() wallet.Session {
	return s.session
}

// Initialize читает Candy Machine и Candy Guard и заменяет состояние.
// При ошибке сохраняется последний успешный снимок.
func (s *Service) Initialize(ctx context.Context) error {
	machine, guard, err := s.fetcher.Fetch(ctx, s.cfg.CandyMachine, s.cfg.CandyGuard)
	if err != nil {
		s.logger.Error("Failed to initialize candy machine state",
			zap.String("candy_machine", s.cfg.CandyMachine.String()),
			zap.Error(err))
		return &ChainFetchError{Err: err}
	}

	s.state.Store(machine, guard)
	s.recorder.SetItemsRemaining(machine.ItemsRemaining())

	_, hasPayment := guard.Guards.TokenPayment()
	_, hasLimit := guard.Guards.MintLimit()
	s.logger.Info("Candy machine state loaded",
		zap.String("candy_machine", machine.PublicKey.String()),
		zap.Uint64("items_loaded", machine.ItemsLoaded),
		zap.Uint64("items_redeemed", machine.ItemsRedeemed),
		zap.Bool("token_payment", hasPayment),
		zap.Bool("mint_limit", hasLimit))

	s.publish(events.StateRefreshedEvent{
		BaseEvent:      events.NewBase(events.StateRefreshed),
		CandyMachine:   machine.PublicKey.String(),
		ItemsAvailable: machine.ItemsLoaded,
		ItemsRedeemed:  machine.ItemsRedeemed,
	})
	return nil
}

// MintSingle – то же, что Mint(ctx, 1), но с политикой одиночного минта
// и результатом единственной попытки.
func (s *Service) MintSingle(ctx context.Context) (AttemptResult, error) {
	batch, err := s.run(ctx, 1, s.cfg.SingleOptions)
	if err != nil {
		return AttemptResult{}, err
	}
	if len(batch.Attempts) == 0 {
		return AttemptResult{}, fmt.Errorf("mint produced no attempt")
	}
	return batch.Attempts[0], nil
}

// Mint выполняет батч из n минтов.
func (s *Service) Mint(ctx context.Context, n int) (BatchResult, error) {
	return s.run(ctx, n, s.cfg.BatchOptions)
}

func (s *Service) run(ctx context.Context, n int, opts SubmitOptions) (BatchResult, error) {
	if s.session == nil || !s.session.Connected() {
		return BatchResult{}, ErrWalletNotConnected
	}
	if !s.mintMu.TryLock() {
		return BatchResult{}, ErrMintInProgress
	}
	defer s.mintMu.Unlock()

	return s.orchestrator.RunBatch(ctx, n, opts)
}

// Info возвращает сводку по текущему снимку; false – состояние не загружено.
func (s *Service) Info() (Info, bool) {
	snap, ok := s.state.Snapshot()
	if !ok {
		return Info{}, false
	}
	m := snap.Machine
	available := m.ItemsLoaded
	var remaining uint64
	if available > m.ItemsRedeemed {
		remaining = available - m.ItemsRedeemed
	}
	return Info{
		CandyMachine:   m.PublicKey,
		ItemsAvailable: available,
		ItemsRedeemed:  m.ItemsRedeemed,
		ItemsRemaining: remaining,
		Price:          s.cfg.Payment.Price(),
	}, true
}

// Quote оценивает стоимость батча из n минтов.
func (s *Service) Quote(n int) (Quote, error) {
	if n < 1 {
		return Quote{}, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	total, ok := batchCost(s.cfg.Payment.TokenAmount, n)
	if !ok {
		return Quote{}, fmt.Errorf("%w: batch cost of %d mints overflows", ErrInvalidCount, n)
	}
	reserve, ok := batchCost(s.orchestratorReserve(), n)
	if !ok {
		return Quote{}, fmt.Errorf("%w: fee reserve of %d mints overflows", ErrInvalidCount, n)
	}
	q := Quote{
		Count:       n,
		TokenAmount: total,
		Tokens:      float64(total) / TokenDecimalsDivisor,
		FeeReserve:  reserve,
	}
	s.logger.Debug("Mint quote",
		zap.Int("count", n),
		zap.Float64("tokens", q.Tokens),
		zap.Uint64("fee_reserve", q.FeeReserve))
	return q, nil
}

func (s *Service) orchestratorReserve() uint64 {
	if s.orchestrator != nil && s.orchestrator.cfg.FeeReserve > 0 {
		return s.orchestrator.cfg.FeeReserve
	}
	return FeeReserve
}

// Balance возвращает свежий баланс кошелька в лампортах.
func (s *Service) Balance(ctx context.Context) (uint64, error) {
	if s.session == nil || !s.session.Connected() {
		return 0, ErrWalletNotConnected
	}
	balance, err := s.balances.GetBalance(ctx, s.session.PublicKey())
	if err != nil {
		return 0, err
	}
	s.recorder.SetWalletBalance(balance)
	return balance, nil
}

// PaymentTokenBalance возвращает баланс платёжного токена кошелька.
func (s *Service) PaymentTokenBalance(ctx context.Context) (candymachine.TokenBalance, error) {
	if s.session == nil || !s.session.Connected() {
		return candymachine.TokenBalance{}, ErrWalletNotConnected
	}
	if s.tokens == nil || s.cfg.Payment.TokenMint.IsZero() {
		return candymachine.TokenBalance{}, nil
	}

	owner := s.session.PublicKey()
	tb, err := s.tokens.GetTokenBalance(ctx, owner, s.cfg.Payment.TokenMint)
	if err != nil {
		return candymachine.TokenBalance{}, fmt.Errorf("failed to read payment token balance: %w", err)
	}

	s.balanceMu.Lock()
	prev := s.lastTokenBalance
	amount := tb.Amount
	s.lastTokenBalance = &amount
	s.balanceMu.Unlock()

	if prev == nil || *prev != amount {
		var old uint64
		if prev != nil {
			old = *prev
		}
		s.publish(events.BalanceChangedEvent{
			BaseEvent:     events.NewBase(events.BalanceChanged),
			WalletAddress: owner.String(),
			TokenMint:     s.cfg.Payment.TokenMint.String(),
			OldBalance:    old,
			NewBalance:    amount,
		})
	}
	return tb, nil
}

func (s *Service) publish(e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(e); err != nil {
		s.logger.Debug("Failed to publish event",
			zap.String("event_type", string(e.Type())),
			zap.Error(err))
	}
}
