// =============================
// File: internal/app/app.go
// =============================
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/blockchain/computebudget"
	"github.com/rovshanmuradov/candy-minter/internal/blockchain/solbc"
	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/config"
	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/license"
	"github.com/rovshanmuradov/candy-minter/internal/logger"
	"github.com/rovshanmuradov/candy-minter/internal/metrics"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
	"github.com/rovshanmuradov/candy-minter/internal/receipts"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

const (
	receiptsFlushInterval = 2 * time.Second
	balanceRefreshTimeout = 15 * time.Second
)

// Options – зависимости, которые задает конкретная оболочка (CLI, TUI, HTTP).
type Options struct {
	// LogBuffer переключает логгер в режим TUI.
	LogBuffer *logger.LogBuffer
	// Approver, если задан, запрашивает подтверждение каждой подписи.
	Approver wallet.Approver
	Focuser  mint.Focuser
}

// App – собранное приложение минтера.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Client   *solbc.Client
	Wallet   *wallet.Wallet
	Bus      *events.Bus
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Service  *mint.Service
	Journal  *receipts.Journal
	License  *license.Gate

	subscriptions []events.Subscription
}

// New собирает все компоненты по конфигурации. Сеть не используется:
// состояние кэнди-машины загружается в Start.
func New(cfg *config.Config, opts Options) (*App, error) {
	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Debug = cfg.DebugLogging
	logCfg.Buffer = opts.LogBuffer

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zl := log.Logger

	client, err := solbc.NewClient(cfg.RPCList, zl)
	if err != nil {
		return nil, err
	}

	wallets, err := wallet.LoadWallets(cfg.WalletFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}
	w, err := wallet.Select(wallets, cfg.Wallet)
	if err != nil {
		return nil, err
	}

	var session wallet.Session = w
	if opts.Approver != nil {
		session = wallet.WithApproval(w, opts.Approver)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	bus := events.NewBus(zl, 0)

	journal, err := receipts.Open(cfg.ReceiptsFile, receiptsFlushInterval, zl)
	if err != nil {
		_ = bus.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open receipts journal: %w", err)
	}

	fetcher := candymachine.NewFetcher(client, zl)
	payment := mint.PaymentConfig{
		TokenMint:      config.PublicKey(cfg.TokenMint),
		DestinationAta: config.PublicKey(cfg.PaymentDestinationATA),
		TokenAmount:    cfg.TokenAmount,
	}

	execOpts := []mint.ExecutorOption{mint.WithRecorder(collector)}
	if opts.Focuser != nil {
		execOpts = append(execOpts, mint.WithFocuser(opts.Focuser))
	}
	executor := mint.NewExecutor(
		session,
		fetcher,
		candymachine.NewMintV2Builder(),
		mint.NewRPCSubmitter(client, zl),
		mint.ExecutorConfig{
			Budget: computebudget.Config{
				Units:     cfg.ComputeUnits,
				UnitPrice: cfg.ComputeUnitPrice,
			},
			FeeReserve:      cfg.FeeReserveLamports,
			Group:           cfg.GuardGroup,
			ApprovalTimeout: cfg.ApprovalTimeout(),
		},
		zl,
		execOpts...,
	)

	state := mint.NewState()
	orchestrator := mint.NewOrchestrator(
		state,
		executor,
		fetcher,
		session,
		payment,
		mint.OrchestratorConfig{
			FeeReserve: cfg.FeeReserveLamports,
			Delay:      cfg.MintDelay(),
		},
		bus,
		collector,
		zl,
	)

	service := mint.NewService(
		MintConfig(cfg),
		mint.Dependencies{
			Fetcher:      fetcher,
			Balances:     fetcher,
			Tokens:       fetcher,
			Session:      session,
			Orchestrator: orchestrator,
			State:        state,
			Publisher:    bus,
			Recorder:     collector,
		},
		zl,
	)

	a := &App{
		Config:   cfg,
		Logger:   log,
		Client:   client,
		Wallet:   w,
		Bus:      bus,
		Registry: registry,
		Metrics:  collector,
		Service:  service,
		Journal:  journal,
		License: license.NewGate(license.Settings{
			Key:          cfg.License,
			AccountID:    cfg.KeygenAccount,
			ProductID:    cfg.KeygenProduct,
			ProductToken: cfg.KeygenProductToken,
		}, zl),
	}
	a.subscriptions = append(a.subscriptions,
		journal.Attach(bus),
		bus.SubscribeFunc(events.BatchFinished, a.refreshTokenBalance),
	)

	zl.Info("Candy minter assembled",
		zap.String("rpc", client.Endpoint()),
		zap.String("wallet", w.PublicKey().String()),
		zap.String("candy_machine", cfg.CandyMachineID),
		zap.Bool("approval_required", opts.Approver != nil))
	return a, nil
}

// MintConfig переводит настройки в конфигурацию фасада минта.
func MintConfig(cfg *config.Config) mint.Config {
	return mint.Config{
		CandyMachine: config.PublicKey(cfg.CandyMachineID),
		CandyGuard:   config.PublicKey(cfg.CandyGuardID),
		Payment: mint.PaymentConfig{
			TokenMint:      config.PublicKey(cfg.TokenMint),
			DestinationAta: config.PublicKey(cfg.PaymentDestinationATA),
			TokenAmount:    cfg.TokenAmount,
		},
		SingleOptions: submitOptions(cfg.SingleSkipPreflight, cfg.SingleMaxRetries, cfg.ConfirmTimeout()),
		BatchOptions:  submitOptions(cfg.BatchSkipPreflight, cfg.BatchMaxRetries, cfg.ConfirmTimeout()),
	}
}

func submitOptions(skipPreflight bool, maxRetries uint, timeout time.Duration) mint.SubmitOptions {
	opts := mint.BatchMintOptions()
	opts.SkipPreflight = skipPreflight
	opts.MaxRetries = maxRetries
	opts.ConfirmTimeout = timeout
	return opts
}

// Start проверяет лицензию и загружает состояние кэнди-машины.
func (a *App) Start(ctx context.Context) error {
	if err := a.License.Check(ctx); err != nil {
		return fmt.Errorf("license validation failed: %w", err)
	}
	if err := a.Service.Initialize(ctx); err != nil {
		return err
	}
	if _, err := a.Service.PaymentTokenBalance(ctx); err != nil {
		a.Logger.Warn("Failed to read payment token balance", zap.Error(err))
	}
	return nil
}

// refreshTokenBalance перечитывает баланс платежного токена после батча.
func (a *App) refreshTokenBalance(ctx context.Context, _ events.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), balanceRefreshTimeout)
	defer cancel()
	_, err := a.Service.PaymentTokenBalance(ctx)
	return err
}

// Close останавливает шину, закрывает журнал и сбрасывает логи.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	// Очередь шины дописывается в журнал до его закрытия.
	if err := a.Bus.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	for _, sub := range a.subscriptions {
		sub.Unsubscribe()
	}
	if err := a.Journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("receipts: %w", err))
	}
	if err := a.Logger.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}
