// =============================
// File: internal/candymachine/fetcher.go
// =============================
package candymachine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AccountReader – минимальный набор RPC-вызовов, нужный фетчеру.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error)
}

// TokenBalance – баланс SPL-токена кошелька.
type TokenBalance struct {
	Account  solana.PublicKey
	Amount   uint64
	Decimals uint8
	UIAmount float64
}

// Fetcher читает аккаунты кэнди-машины и балансы. Повторов нет:
// ошибка возвращается вызывающему как есть.
type Fetcher struct {
	client AccountReader
	logger *zap.Logger
}

// NewFetcher создает фетчер состояния поверх RPC клиента
func NewFetcher(client AccountReader, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger.Named("cm-fetcher"),
	}
}

// Fetch параллельно читает Candy Machine и Candy Guard.
func (f *Fetcher) Fetch(ctx context.Context, machineID, guardID solana.PublicKey) (Machine, Guard, error) {
	var (
		machine Machine
		guard   Guard
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := f.FetchMachine(gCtx, machineID)
		if err != nil {
			return err
		}
		machine = m
		return nil
	})
	g.Go(func() error {
		cg, err := f.FetchGuard(gCtx, guardID)
		if err != nil {
			return err
		}
		guard = cg
		return nil
	})
	if err := g.Wait(); err != nil {
		return Machine{}, Guard{}, err
	}

	f.logger.Debug("Fetched candy machine state",
		zap.String("candy_machine", machineID.String()),
		zap.String("candy_guard", guardID.String()),
		zap.Uint64("items_loaded", machine.ItemsLoaded),
		zap.Uint64("items_redeemed", machine.ItemsRedeemed),
		zap.Bool("token_payment", guard.Guards.Enabled(GuardTokenPayment)),
		zap.Bool("mint_limit", guard.Guards.Enabled(GuardMintLimit)))

	return machine, guard, nil
}

// FetchMachine получает и парсит аккаунт Candy Machine.
func (f *Fetcher) FetchMachine(ctx context.Context, address solana.PublicKey) (Machine, error) {
	data, err := f.accountData(ctx, address, CandyMachineProgramID)
	if err != nil {
		return Machine{}, fmt.Errorf("candy machine %s: %w", address, err)
	}
	m, err := DecodeMachine(address, data)
	if err != nil {
		return Machine{}, fmt.Errorf("candy machine %s: %w", address, err)
	}
	return m, nil
}

// FetchGuard получает и парсит аккаунт Candy Guard.
func (f *Fetcher) FetchGuard(ctx context.Context, address solana.PublicKey) (Guard, error) {
	data, err := f.accountData(ctx, address, CandyGuardProgramID)
	if err != nil {
		return Guard{}, fmt.Errorf("candy guard %s: %w", address, err)
	}
	g, err := DecodeGuard(address, data)
	if err != nil {
		return Guard{}, fmt.Errorf("candy guard %s: %w", address, err)
	}
	return g, nil
}

func (f *Fetcher) accountData(ctx context.Context, address, owner solana.PublicKey) ([]byte, error) {
	info, err := f.client.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("account not found")
	}
	if !info.Value.Owner.Equals(owner) {
		return nil, fmt.Errorf("account has incorrect owner: expected %s, got %s",
			owner, info.Value.Owner)
	}
	return info.Value.Data.GetBinary(), nil
}

// GetBalance возвращает актуальный баланс в лампортах. Без кэша.
func (f *Fetcher) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	return f.client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
}

// GetTokenBalance возвращает баланс SPL-токена mint в ATA владельца.
// Отсутствующий ATA трактуется как нулевой баланс.
func (f *Fetcher) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (TokenBalance, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("failed to derive token account: %w", err)
	}

	res, err := f.client.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		if isMissingTokenAccount(err) {
			return TokenBalance{Account: ata}, nil
		}
		return TokenBalance{}, err
	}
	if res == nil || res.Value == nil {
		return TokenBalance{Account: ata}, nil
	}

	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("invalid token amount %q: %w", res.Value.Amount, err)
	}
	tb := TokenBalance{
		Account:  ata,
		Amount:   amount,
		Decimals: res.Value.Decimals,
	}
	if res.Value.UiAmount != nil {
		tb.UIAmount = *res.Value.UiAmount
	}
	return tb, nil
}

func isMissingTokenAccount(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "invalid param")
}
