// ==================================
// File: internal/wallet/approval.go
// ==================================
package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Approver спрашивает пользователя, подписывать ли транзакцию.
type Approver interface {
	Approve(ctx context.Context, tx *solana.Transaction) (bool, error)
}

// ApproverFunc позволяет использовать функцию как Approver.
type ApproverFunc func(ctx context.Context, tx *solana.Transaction) (bool, error)

// Approve calls f(ctx, tx).
func (f ApproverFunc) Approve(ctx context.Context, tx *solana.Transaction) (bool, error) {
	return f(ctx, tx)
}

// ApprovalSession требует подтверждения перед каждой подписью,
// как всплывающее окно браузерного кошелька.
type ApprovalSession struct {
	Session
	approver Approver
}

// WithApproval оборачивает сессию запросом подтверждения.
func WithApproval(s Session, approver Approver) *ApprovalSession {
	return &ApprovalSession{Session: s, approver: approver}
}

// SignTransaction подписывает только после явного согласия.
func (a *ApprovalSession) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	ok, err := a.approver.Approve(ctx, tx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	return a.Session.SignTransaction(ctx, tx)
}
