// =============================
// File: internal/mint/executor.go
// =============================
package mint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/blockchain/computebudget"
	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

// AttemptExecutor выполняет одну попытку минта.
type AttemptExecutor interface {
	ExecuteOne(ctx context.Context, state *State, args candymachine.MintArgs, opts SubmitOptions) AttemptResult
}

// ExecutorConfig – параметры транзакции минта.
type ExecutorConfig struct {
	Budget     computebudget.Config
	FeeReserve uint64
	// Group – метка группы guard-ов; пустая строка – default группа.
	Group string
	// ApprovalTimeout ограничивает ожидание подписи кошельком.
	ApprovalTimeout time.Duration
}

// DefaultExecutorConfig возвращает 800k CU и резерв 0.01 SOL.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Budget:          computebudget.NewMintConfig(),
		FeeReserve:      FeeReserve,
		ApprovalTimeout: DefaultApprovalTimeout,
	}
}

// ExecutorOption настраивает Executor.
type ExecutorOption func(*Executor)

// WithFocuser задаёт обработчик вывода UI на передний план.
func WithFocuser(f Focuser) ExecutorOption {
	return func(e *Executor) { e.focuser = f }
}

// WithRecorder задаёт приёмник метрик.
func WithRecorder(r Recorder) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.recorder = r
		}
	}
}

// Executor собирает, подписывает, отправляет и подтверждает одну
// транзакцию минта. Любой сбой возвращается как данные в AttemptResult.
type Executor struct {
	session   wallet.Session
	balances  BalanceReader
	builder   InstructionBuilder
	submitter Submitter
	focuser   Focuser
	recorder  Recorder
	cfg       ExecutorConfig
	logger    *zap.Logger

	newAssetKey func() (solana.PrivateKey, error)
}

var _ AttemptExecutor = (*Executor)(nil)

// NewExecutor создает исполнителя попыток минта
func NewExecutor(
	session wallet.Session,
	balances BalanceReader,
	builder InstructionBuilder,
	submitter Submitter,
	cfg ExecutorConfig,
	logger *zap.Logger,
	opts ...ExecutorOption,
) *Executor {
	if cfg.FeeReserve == 0 {
		cfg.FeeReserve = FeeReserve
	}
	if cfg.Budget.Units == 0 {
		cfg.Budget.Units = computebudget.MintUnits
	}
	if cfg.ApprovalTimeout <= 0 {
		cfg.ApprovalTimeout = DefaultApprovalTimeout
	}
	e := &Executor{
		session:     session,
		balances:    balances,
		builder:     builder,
		submitter:   submitter,
		recorder:    nopRecorder{},
		cfg:         cfg,
		logger:      logger.Named("executor"),
		newAssetKey: solana.NewRandomPrivateKey,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteOne выполняет одну попытку минта по текущему снимку state.
// Неинициализированный state тоже возвращается как данные: результат с
// NotInitializedError, без паники и без обращений к сети.
func (e *Executor) ExecuteOne(ctx context.Context, state *State, args candymachine.MintArgs, opts SubmitOptions) (res AttemptResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Mint attempt panicked", zap.Any("panic", r))
			err, ok := r.(error)
			if !ok {
				err = errors.New(describeFailure(r))
			}
			res = failed(err)
		}
		res.Duration = time.Since(start)
		e.recorder.ObserveAttempt(res.Success, res.Duration)
	}()

	if state == nil {
		return failed(&NotInitializedError{Op: "mint"})
	}
	snap, ok := state.Snapshot()
	if !ok {
		return failed(&NotInitializedError{Op: "mint"})
	}
	if e.session == nil || !e.session.Connected() {
		return failed(ErrWalletNotConnected)
	}
	payer := e.session.PublicKey()

	balance, err := e.balances.GetBalance(ctx, payer)
	if err != nil {
		return failed(&TransactionError{Kind: KindRPC, Err: err})
	}
	e.recorder.SetWalletBalance(balance)
	if balance < e.cfg.FeeReserve {
		e.logger.Warn("Balance below fee reserve",
			zap.Uint64("balance", balance),
			zap.Uint64("required", e.cfg.FeeReserve))
		return failed(&InsufficientFundsError{Observed: balance, Required: e.cfg.FeeReserve})
	}

	assetKey, err := e.newAssetKey()
	if err != nil {
		return failed(&TransactionError{Kind: KindBuild, Err: fmt.Errorf("failed to generate asset keypair: %w", err)})
	}
	asset := assetKey.PublicKey()

	tx, err := e.buildTransaction(ctx, snap, payer, asset, args)
	if err != nil {
		return failed(err)
	}

	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(asset) {
			return &assetKey
		}
		return nil
	}); err != nil {
		return failed(&TransactionError{Kind: KindSigning, Err: err})
	}

	if e.focuser != nil {
		e.focuser.Focus()
	}

	e.logger.Info("Requesting wallet approval",
		zap.String("wallet", payer.String()),
		zap.String("asset", asset.String()))

	// Подтверждение ограничено ctx вызывающего и ApprovalTimeout.
	signCtx, cancel := context.WithTimeout(ctx, e.cfg.ApprovalTimeout)
	err = e.session.SignTransaction(signCtx, tx)
	cancel()
	if err != nil {
		kind := KindSigning
		if errors.Is(err, wallet.ErrRejected) {
			kind = KindRejected
		}
		return failed(&TransactionError{Kind: kind, Err: err})
	}

	// После отправки в RPC попытка не отменяется.
	flight := context.WithoutCancel(ctx)
	sig, err := e.submitter.SubmitAndConfirm(flight, tx, opts)
	if err != nil {
		return failed(err)
	}

	signature := sig.String()
	e.logger.Info("Mint confirmed",
		zap.String("signature", signature),
		zap.String("asset", asset.String()))

	return AttemptResult{
		Success:     true,
		Signature:   signature,
		MintedAsset: asset,
	}
}

func (e *Executor) buildTransaction(
	ctx context.Context,
	snap Snapshot,
	payer, asset solana.PublicKey,
	args candymachine.MintArgs,
) (*solana.Transaction, error) {
	instructions, err := computebudget.BuildInstructions(e.cfg.Budget)
	if err != nil {
		return nil, &TransactionError{Kind: KindBuild, Err: err}
	}

	mintIx, err := e.builder.BuildMintV2(candymachine.MintParams{
		Machine:   snap.Machine,
		Guard:     snap.Guard,
		Payer:     payer,
		Minter:    payer,
		AssetMint: asset,
		Args:      args,
		Group:     e.cfg.Group,
	})
	if err != nil {
		return nil, &TransactionError{Kind: KindBuild, Err: err}
	}
	instructions = append(instructions, mintIx)

	blockhash, err := e.submitter.LatestBlockhash(ctx)
	if err != nil {
		return nil, &TransactionError{Kind: KindRPC, Err: err}
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, &TransactionError{Kind: KindBuild, Err: fmt.Errorf("failed to create transaction: %w", err)}
	}
	return tx, nil
}

func failed(err error) AttemptResult {
	return AttemptResult{
		Success:      false,
		ErrorMessage: describeFailure(err),
		Err:          err,
	}
}
