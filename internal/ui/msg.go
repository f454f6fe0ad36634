package ui

import (
	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
)

// Tea message types for UI communication

// StateLoadedMsg – результат загрузки состояния кэнди-машины.
type StateLoadedMsg struct {
	Info    mint.Info
	Loaded  bool
	Balance candymachine.TokenBalance
	Err     error
}

// MintDoneMsg – батч завершен (успешно, частично или с ошибкой предусловия).
type MintDoneMsg struct {
	Result mint.BatchResult
	Err    error
}

// EventMsg оборачивает событие шины минта.
type EventMsg struct {
	Event events.Event
}

// FocusMsg приходит перед запросом подписи.
type FocusMsg struct{}

// ApprovalRequestMsg – запрос подтверждения транзакции.
type ApprovalRequestMsg struct {
	Summary TxSummary
	reply   chan<- bool
}

// Answer отправляет решение пользователя. Повторный ответ игнорируется.
func (m ApprovalRequestMsg) Answer(ok bool) {
	select {
	case m.reply <- ok:
	default:
	}
}

// TxSummary – то, что показывается пользователю перед подписью.
type TxSummary struct {
	FeePayer     string
	Instructions int
	Signers      int
	Asset        string
}

// logTickMsg обновляет панель логов.
type logTickMsg struct{}
