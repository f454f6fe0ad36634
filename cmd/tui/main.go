package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/app"
	"github.com/rovshanmuradov/candy-minter/internal/config"
	"github.com/rovshanmuradov/candy-minter/internal/logger"
	"github.com/rovshanmuradov/candy-minter/internal/ui"
)

const (
	shutdownTimeout  = 10 * time.Second
	licenseHeartbeat = time.Hour
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	// Create context with signal handling
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Логи идут в файл и в кольцевой буфер панели, не в stdout.
	logBuffer := logger.NewLogBuffer(500)
	bridge := ui.NewBridge(zap.NewNop())
	defer bridge.Close()

	a, err := app.New(cfg, app.Options{
		LogBuffer: logBuffer,
		Approver:  bridge,
		Focuser:   bridge,
	})
	if err != nil {
		log.Fatalf("Failed to init app: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	appLogger := a.Logger.Logger
	bridge.Attach(a.Bus)

	if err := a.License.Check(rootCtx); err != nil {
		appLogger.Error("License check failed", zap.Error(err))
		log.Printf("License check failed: %v", err)
		return
	}
	go a.License.Heartbeat(rootCtx, licenseHeartbeat)

	appLogger.Info("Starting candy minter TUI",
		zap.String("wallet", a.Wallet.PublicKey().String()),
		zap.String("candy_machine", cfg.CandyMachineID))

	model := ui.NewModel(rootCtx, a.Service, ui.Config{
		Title:    cfg.NFTName,
		Wallet:   a.Wallet.PublicKey().String(),
		MaxBatch: cfg.MaxBatchSize,
	}, bridge.Updates(), logBuffer)

	program := tea.NewProgram(
		ui.NewSafeModel(model, appLogger),
		tea.WithAltScreen(),
		tea.WithContext(rootCtx),
	)

	if _, err := program.Run(); err != nil && rootCtx.Err() == nil {
		appLogger.Error("TUI application failed", zap.Error(err))
	}
	// Отменяем ожидающие подтверждения и текущий батч.
	stop()

	appLogger.Info("Shutting down TUI application")
}
