// =============================
// File: internal/mint/types.go
// =============================
package mint

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
)

const (
	// FeeReserve – минимальный баланс на одну попытку (0.01 SOL).
	FeeReserve uint64 = 10_000_000
	// TokenDecimalsDivisor переводит сумму платёжного токена в целые единицы.
	TokenDecimalsDivisor = 1_000_000
	// DefaultMintDelay – пауза между попытками батча.
	DefaultMintDelay = 2 * time.Second
	// DefaultApprovalTimeout – сколько ждать подтверждения подписи.
	DefaultApprovalTimeout = 2 * time.Minute
	// UnknownMintError – текст ошибки, когда у сбоя нет описания.
	UnknownMintError = "Unknown minting error"
)

// SubmitOptions – политика отправки и подтверждения транзакции.
type SubmitOptions struct {
	Commitment    rpc.CommitmentType
	SkipPreflight bool
	MaxRetries    uint
	// ConfirmTimeout ограничивает ожидание подтверждения; 0 – значение клиента.
	ConfirmTimeout time.Duration
}

// SingleMintOptions – одиночный минт: без preflight и с минимумом повторов,
// чтобы не вызывать повторных запросов подписи.
func SingleMintOptions() SubmitOptions {
	return SubmitOptions{
		Commitment:    rpc.CommitmentConfirmed,
		SkipPreflight: true,
		MaxRetries:    1,
	}
}

// BatchMintOptions – политика для батча.
func BatchMintOptions() SubmitOptions {
	return SubmitOptions{
		Commitment:    rpc.CommitmentConfirmed,
		SkipPreflight: false,
		MaxRetries:    3,
	}
}

// AttemptResult – исход одной транзакции минта. При успехе заполнены
// Signature и MintedAsset, при неудаче – ErrorMessage.
type AttemptResult struct {
	Success      bool
	Signature    string
	MintedAsset  solana.PublicKey
	ErrorMessage string
	// Err – исходная ошибка для классификации; в UI не показывается.
	Err      error
	Duration time.Duration
}

// BatchResult – итог батча.
type BatchResult struct {
	TotalRequested int
	TotalMinted    int
	Attempts       []AttemptResult
	Errors         []string
	// Aborted – цикл остановлен досрочно (нехватка средств или отмена).
	Aborted bool
}

// Success – хотя бы один минт завершился успешно.
func (r BatchResult) Success() bool {
	return r.TotalMinted > 0
}

// StateFetcher читает снимки Candy Machine и Candy Guard.
type StateFetcher interface {
	Fetch(ctx context.Context, machineID, guardID solana.PublicKey) (candymachine.Machine, candymachine.Guard, error)
}

// BalanceReader возвращает свежий баланс в лампортах.
type BalanceReader interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
}

// TokenBalanceReader возвращает баланс SPL-токена владельца.
type TokenBalanceReader interface {
	GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (candymachine.TokenBalance, error)
}

// InstructionBuilder собирает инструкцию mint_v2.
type InstructionBuilder interface {
	BuildMintV2(p candymachine.MintParams) (solana.Instruction, error)
}

// Submitter отправляет подписанную транзакцию и ждёт подтверждения.
type Submitter interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (Signature, error)
}

// Focuser выводит интерфейс на передний план перед запросом подписи.
type Focuser interface {
	Focus()
}

// Recorder принимает метрики минта.
type Recorder interface {
	ObserveAttempt(success bool, d time.Duration)
	ObserveBatch(minted int, aborted bool)
	SetItemsRemaining(n uint64)
	SetWalletBalance(lamports uint64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(bool, time.Duration) {}
func (nopRecorder) ObserveBatch(int, bool)             {}
func (nopRecorder) SetItemsRemaining(uint64)           {}
func (nopRecorder) SetWalletBalance(uint64)            {}
