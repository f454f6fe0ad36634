// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	// DefaultConfirmTimeout ограничивает ожидание подтверждения транзакции.
	DefaultConfirmTimeout = 60 * time.Second

	confirmPollInterval = 500 * time.Millisecond
)

var errNotConfirmedYet = errors.New("transaction not confirmed yet")

// SendOptions определяет опции для отправки транзакций.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
	MaxRetries          uint
}

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc      *rpc.Client
	endpoint string
	logger   *zap.Logger
}

// NewClient создаёт новый клиент, принимая список RPC URL и логгер через dependency injection.
// Используется первый адрес из списка.
func NewClient(endpoints []string, logger *zap.Logger) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Client{
		rpc:      rpc.New(endpoints[0]),
		endpoint: endpoints[0],
		logger:   logger.Named("solbc-client"),
	}, nil
}

// Endpoint returns the RPC URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) wrap(method string, err error) error {
	return &RPCError{Method: method, Endpoint: c.endpoint, Err: err}
}

// GetRecentBlockhash получает последний blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, c.wrap("getLatestBlockhash", err)
	}
	return result.Value.Blockhash, nil
}

// GetAccountInfo получает информацию об аккаунте.
// Отсутствующий аккаунт возвращается как ErrAccountNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, c.wrap("getAccountInfo", ErrAccountNotFound)
		}
		return nil, c.wrap("getAccountInfo", err)
	}
	if result == nil || result.Value == nil {
		return nil, c.wrap("getAccountInfo", ErrAccountNotFound)
	}
	return result, nil
}

// GetBalance получает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		c.logger.Error("GetBalance error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return 0, c.wrap("getBalance", err)
	}
	return result.Value, nil
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Debug("GetTokenAccountBalance error",
			zap.String("account", account.String()),
			zap.Error(err))
		return nil, c.wrap("getTokenAccountBalance", err)
	}
	return result, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error) {
	txOpts := rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
	}
	maxRetries := opts.MaxRetries
	txOpts.MaxRetries = &maxRetries

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, txOpts)
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, c.wrap("sendTransaction", err)
	}
	return sig, nil
}

// WaitForConfirmation опрашивает статус подписи, пока транзакция не достигнет
// нужного уровня commitment, не упадёт с ошибкой исполнения или не истечёт timeout.
func (c *Client) WaitForConfirmation(
	ctx context.Context,
	signature solana.Signature,
	commitment rpc.CommitmentType,
	timeout time.Duration,
) error {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	op := func() (struct{}, error) {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			c.logger.Warn("Error getting signature statuses", zap.Error(err))
			return struct{}{}, err
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, errNotConfirmedYet
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(&TransactionFailedError{
				Signature: signature.String(),
				Reason:    status.Err,
			})
		}
		if reachedCommitment(status.ConfirmationStatus, commitment) {
			return struct{}{}, nil
		}
		return struct{}{}, errNotConfirmedYet
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(confirmPollInterval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err == nil {
		return nil
	}

	var failed *TransactionFailedError
	if errors.As(err, &failed) {
		return failed
	}
	if errors.Is(err, errNotConfirmedYet) || errors.Is(err, context.DeadlineExceeded) {
		return ErrConfirmationTimeout
	}
	return c.wrap("getSignatureStatuses", err)
}

// reachedCommitment сравнивает фактический статус с требуемым уровнем.
func reachedCommitment(actual rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch actual {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}
