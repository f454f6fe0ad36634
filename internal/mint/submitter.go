// =============================
// File: internal/mint/submitter.go
// =============================
package mint

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/blockchain/solbc"
)

// chainSender – часть solbc.Client, нужная для отправки.
type chainSender interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solbc.SendOptions) (solana.Signature, error)
	WaitForConfirmation(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType, timeout time.Duration) error
}

// RPCSubmitter отправляет транзакции через RPC узел и ждёт подтверждения.
type RPCSubmitter struct {
	client chainSender
	logger *zap.Logger
}

var _ Submitter = (*RPCSubmitter)(nil)

// NewRPCSubmitter создает отправителя поверх solbc клиента
func NewRPCSubmitter(client chainSender, logger *zap.Logger) *RPCSubmitter {
	return &RPCSubmitter{client: client, logger: logger.Named("submitter")}
}

// LatestBlockhash возвращает свежий blockhash.
func (s *RPCSubmitter) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return s.client.GetRecentBlockhash(ctx)
}

// SubmitAndConfirm отправляет транзакцию и ждёт нужного commitment.
// Ошибки классифицируются в *TransactionError.
func (s *RPCSubmitter) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (Signature, error) {
	commitment := opts.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, solbc.SendOptions{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: commitment,
		MaxRetries:          opts.MaxRetries,
	})
	if err != nil {
		return Signature{}, &TransactionError{Kind: KindRPC, Err: err}
	}

	s.logger.Info("Transaction sent, waiting for confirmation",
		zap.String("signature", sig.String()),
		zap.String("commitment", string(commitment)))

	if err := s.client.WaitForConfirmation(ctx, sig, commitment, opts.ConfirmTimeout); err != nil {
		var failed *solbc.TransactionFailedError
		switch {
		case errors.As(err, &failed):
			return Signature{}, &TransactionError{Kind: KindOnChain, Err: err}
		case errors.Is(err, solbc.ErrConfirmationTimeout):
			return Signature{}, &TransactionError{Kind: KindTimeout, Err: err}
		default:
			return Signature{}, &TransactionError{Kind: KindRPC, Err: err}
		}
	}

	return RawSignature(sig[:]), nil
}
