// =============================
// File: internal/ui/bridge.go
// =============================
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

const updateBuffer = 256

// Bridge связывает ядро минта с TUI: подтверждение подписи,
// вывод на передний план и события шины.
type Bridge struct {
	updates chan tea.Msg
	sender  *UpdateSender
	logger  *zap.Logger
	subs    []events.Subscription
}

var (
	_ wallet.Approver = (*Bridge)(nil)
	_ mint.Focuser    = (*Bridge)(nil)
)

// NewBridge creates a bridge with its own update channel.
func NewBridge(logger *zap.Logger) *Bridge {
	ch := make(chan tea.Msg, updateBuffer)
	return &Bridge{
		updates: ch,
		sender:  NewUpdateSender(ch, logger),
		logger:  logger.Named("tui-bridge"),
	}
}

// Updates возвращает канал, который читает модель.
func (b *Bridge) Updates() <-chan tea.Msg {
	return b.updates
}

// Attach подписывает мост на события минта.
func (b *Bridge) Attach(bus *events.Bus) {
	forward := func(_ context.Context, e events.Event) error {
		b.sender.SendUpdate(EventMsg{Event: e})
		return nil
	}
	for _, t := range []events.EventType{
		events.AttemptStarted,
		events.AttemptFinished,
		events.BatchFinished,
		events.BalanceChanged,
	} {
		b.subs = append(b.subs, bus.SubscribeFunc(t, forward))
	}
}

// Focus implements mint.Focuser.
func (b *Bridge) Focus() {
	b.sender.SendUpdate(FocusMsg{})
}

// Approve implements wallet.Approver: блокирует до ответа пользователя.
func (b *Bridge) Approve(ctx context.Context, tx *solana.Transaction) (bool, error) {
	reply := make(chan bool, 1)
	req := ApprovalRequestMsg{Summary: summarize(tx), reply: reply}
	if err := b.sender.SendWait(ctx, req); err != nil {
		return false, err
	}

	select {
	case ok := <-reply:
		b.logger.Debug("Approval answered", zap.Bool("approved", ok))
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close отписывается от шины.
func (b *Bridge) Close() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
	b.subs = nil
	b.sender.Close()
}

func summarize(tx *solana.Transaction) TxSummary {
	if tx == nil {
		return TxSummary{}
	}
	s := TxSummary{
		Instructions: len(tx.Message.Instructions),
		Signers:      int(tx.Message.Header.NumRequiredSignatures),
	}
	keys := tx.Message.AccountKeys
	if len(keys) > 0 {
		s.FeePayer = keys[0].String()
	}
	// Второй подписант – новый ассет.
	if s.Signers > 1 && len(keys) > 1 {
		s.Asset = keys[1].String()
	}
	return s
}
