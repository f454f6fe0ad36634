// =============================
// File: internal/mint/orchestrator.go
// =============================
package mint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

const maxPreallocAttempts = 64

// OrchestratorConfig – политика батча.
type OrchestratorConfig struct {
	FeeReserve uint64
	// Delay – пауза перед каждой попыткой, кроме первой. 0 – без паузы.
	Delay time.Duration
}

// Orchestrator выполняет N попыток минта строго последовательно.
type Orchestrator struct {
	state     *State
	executor  AttemptExecutor
	balances  BalanceReader
	session   wallet.Session
	payment   PaymentConfig
	cfg       OrchestratorConfig
	publisher events.Publisher
	recorder  Recorder
	logger    *zap.Logger
}

// NewOrchestrator создает оркестратор батча
func NewOrchestrator(
	state *State,
	executor AttemptExecutor,
	balances BalanceReader,
	session wallet.Session,
	payment PaymentConfig,
	cfg OrchestratorConfig,
	publisher events.Publisher,
	recorder Recorder,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.FeeReserve == 0 {
		cfg.FeeReserve = FeeReserve
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Orchestrator{
		state:     state,
		executor:  executor,
		balances:  balances,
		session:   session,
		payment:   payment,
		cfg:       cfg,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger.Named("orchestrator"),
	}
}

// RunBatch выполняет count попыток минта. Ошибкой возвращаются только
// нарушения предусловий, провал pre-flight проверки баланса и отмена ctx;
// сбои отдельных попыток попадают в BatchResult.
func (o *Orchestrator) RunBatch(ctx context.Context, count int, opts SubmitOptions) (BatchResult, error) {
	if count < 1 {
		return BatchResult{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	snap, ok := o.state.Snapshot()
	if !ok {
		return BatchResult{}, &NotInitializedError{Op: "mint"}
	}
	if o.session == nil || !o.session.Connected() {
		return BatchResult{}, ErrWalletNotConnected
	}
	payer := o.session.PublicKey()

	balance, err := o.balances.GetBalance(ctx, payer)
	if err != nil {
		return BatchResult{}, fmt.Errorf("pre-flight balance check failed: %w", err)
	}
	o.recorder.SetWalletBalance(balance)

	// При переполнении required насыщается и проверка не проходит.
	required, _ := batchCost(o.cfg.FeeReserve, count)
	if balance < required {
		o.logger.Warn("Insufficient balance for batch",
			zap.Int("count", count),
			zap.Uint64("balance", balance),
			zap.Uint64("required", required))
		return BatchResult{}, &InsufficientFundsError{Observed: balance, Required: required}
	}

	batchID := uuid.New().String()
	logger := o.logger.With(zap.String("batch_id", batchID))
	logger.Info("Starting mint batch",
		zap.Int("count", count),
		zap.String("candy_machine", snap.Machine.PublicKey.String()),
		zap.Float64("total_cost", o.payment.Price()*float64(count)),
		zap.Bool("skip_preflight", opts.SkipPreflight),
		zap.Uint("max_retries", opts.MaxRetries))

	result := BatchResult{
		TotalRequested: count,
		Attempts:       make([]AttemptResult, 0, min(count, maxPreallocAttempts)),
	}

	var loopErr error
	for i := 1; i <= count; i++ {
		if i > 1 {
			if err := pause(ctx, o.cfg.Delay); err != nil {
				loopErr = err
				break
			}
		} else if err := ctx.Err(); err != nil {
			loopErr = err
			break
		}

		// Аргументы guard-ов читаются из текущего снимка.
		snap, ok = o.state.Snapshot()
		if !ok {
			loopErr = &NotInitializedError{Op: "mint"}
			break
		}
		args := BuildGuardArgs(snap.Guard, o.payment)

		o.publish(events.AttemptStartedEvent{
			BaseEvent: events.NewBase(events.AttemptStarted),
			BatchID:   batchID,
			Index:     i,
			Total:     count,
			Wallet:    payer.String(),
		})

		res := o.executor.ExecuteOne(ctx, o.state, args, opts)
		result.Attempts = append(result.Attempts, res)

		finished := events.AttemptFinishedEvent{
			BaseEvent: events.NewBase(events.AttemptFinished),
			BatchID:   batchID,
			Index:     i,
			Total:     count,
			Wallet:    payer.String(),
			Success:   res.Success,
			Signature: res.Signature,
			Error:     res.ErrorMessage,
			Duration:  res.Duration,
		}
		if res.Success {
			finished.Asset = res.MintedAsset.String()
		}
		o.publish(finished)

		if res.Success {
			result.TotalMinted++
			logger.Info("Mint attempt succeeded",
				zap.Int("attempt", i),
				zap.String("signature", res.Signature),
				zap.String("asset", res.MintedAsset.String()))
			continue
		}

		result.Errors = append(result.Errors, fmt.Sprintf("Mint %d failed: %s", i, res.ErrorMessage))
		logger.Warn("Mint attempt failed",
			zap.Int("attempt", i),
			zap.String("error", res.ErrorMessage))

		if fundsExhausted(res) {
			logger.Warn("Funds exhausted, aborting remaining attempts",
				zap.Int("remaining", count-i))
			result.Aborted = true
			break
		}
	}

	if loopErr != nil {
		result.Aborted = true
	}

	o.recorder.ObserveBatch(result.TotalMinted, result.Aborted)
	o.publish(events.BatchFinishedEvent{
		BaseEvent: events.NewBase(events.BatchFinished),
		BatchID:   batchID,
		Requested: count,
		Minted:    result.TotalMinted,
		Attempts:  len(result.Attempts),
		Aborted:   result.Aborted,
	})

	logger.Info("Mint batch finished",
		zap.Int("minted", result.TotalMinted),
		zap.Int("attempts", len(result.Attempts)),
		zap.Bool("aborted", result.Aborted))

	if loopErr != nil {
		return result, fmt.Errorf("batch stopped after %d of %d attempts: %w",
			len(result.Attempts), count, loopErr)
	}
	return result, nil
}

func (o *Orchestrator) publish(e events.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(e); err != nil {
		o.logger.Debug("Failed to publish event",
			zap.String("event_type", string(e.Type())),
			zap.Error(err))
	}
}

func fundsExhausted(res AttemptResult) bool {
	var insufficient *InsufficientFundsError
	if errors.As(res.Err, &insufficient) {
		return true
	}
	return IsFundsExhausted(res.ErrorMessage)
}

// pause ждёт d или отмены ctx.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
