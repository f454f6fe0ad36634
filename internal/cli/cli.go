// =============================
// File: internal/cli/cli.go
// =============================
//
// Команды:
//   candy-minter info               # состояние кэнди-машины
//   candy-minter balance            # SOL и платежный токен кошелька
//   candy-minter mint -n 3          # батч минтов
//   candy-minter serve              # HTTP API для браузерного фронтенда
//
// Общий флаг --config, -c задает файл конфигурации.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/app"
	"github.com/rovshanmuradov/candy-minter/internal/config"
	"github.com/rovshanmuradov/candy-minter/internal/httpapi"
	"github.com/rovshanmuradov/candy-minter/internal/metrics"
)

const (
	shutdownTimeout  = 10 * time.Second
	licenseHeartbeat = time.Hour
)

var configFile string

// BuildCLI собирает корневую команду.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "candy-minter",
		Short:         "Mint NFTs from a Metaplex Candy Machine v3",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "path to config file")

	rootCmd.AddCommand(infoCmd(), balanceCmd(), mintCmd(), serveCmd())
	return rootCmd
}

// Execute запускает CLI и возвращает код выхода.
func Execute() int {
	if err := BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor("Error: ")+err.Error())
		return 1
	}
	return 0
}

// withApp загружает конфиг, собирает приложение и закрывает его после fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			fmt.Fprintln(os.Stderr, warnColor("shutdown: ")+err.Error())
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show candy machine supply and price",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				info, _ := a.Service.Info()
				printInfo(cmd.OutOrStdout(), a.Config.NFTName, info)
				return nil
			})
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show wallet SOL and payment token balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				lamports, err := a.Service.Balance(ctx)
				if err != nil {
					return err
				}
				tb, err := a.Service.PaymentTokenBalance(ctx)
				if err != nil {
					return err
				}
				printBalance(cmd.OutOrStdout(), a.Wallet.PublicKey().String(), lamports, tb)
				return nil
			})
		},
	}
}

func mintCmd() *cobra.Command {
	var (
		count int
		yes   bool
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint one or more NFTs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if limit := a.Config.MaxBatchSize; limit > 0 && count > limit {
					return fmt.Errorf("count %d exceeds max batch size %d", count, limit)
				}
				quote, err := a.Service.Quote(count)
				if err != nil {
					return err
				}
				printQuote(out, quote)
				if !yes && !confirm(cmd.InOrStdin(), out, "Proceed?") {
					fmt.Fprintln(out, warnColor("Cancelled"))
					return nil
				}

				if count == 1 {
					attempt, err := a.Service.MintSingle(ctx)
					if err != nil {
						return err
					}
					printAttempt(out, 1, attempt)
					return nil
				}

				result, err := a.Service.Mint(ctx, count)
				printBatch(out, result)
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of NFTs to mint")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mint HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.HTTPAddr
				}
				server := httpapi.NewServer(a.Service, httpapi.Options{
					Addr:         addr,
					MaxBatchSize: a.Config.MaxBatchSize,
					Gatherer:     a.Registry,
					Metrics:      metrics.NewHTTPMetrics(a.Registry),
				}, a.Logger.Logger)

				go a.License.Heartbeat(ctx, licenseHeartbeat)

				errCh := make(chan error, 1)
				go func() { errCh <- server.Start() }()
				fmt.Fprintln(cmd.OutOrStdout(), successColor("Serving on ")+addr)

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
					a.Logger.Info("Shutdown signal received", zap.Error(ctx.Err()))
				}

				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Stop(stopCtx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
