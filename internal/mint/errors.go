// =============================
// File: internal/mint/errors.go
// =============================
package mint

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCount – запрошено меньше одного минта.
	ErrInvalidCount = errors.New("mint count must be at least 1")
	// ErrMintInProgress – другой батч уже держит блокировку минта.
	ErrMintInProgress = errors.New("another mint is already in progress")
	// ErrWalletNotConnected – кошелёк не подключён.
	ErrWalletNotConnected = errors.New("wallet not connected")
)

// NotInitializedError – состояние кэнди-машины ещё не загружено.
// Исправляется повторным вызовом Initialize.
type NotInitializedError struct {
	Op string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("%s: candy machine state not initialized", e.Op)
}

// ChainFetchError – сбой чтения аккаунтов Candy Machine / Candy Guard.
type ChainFetchError struct {
	Err error
}

func (e *ChainFetchError) Error() string {
	return fmt.Sprintf("failed to fetch candy machine state: %v", e.Err)
}

func (e *ChainFetchError) Unwrap() error {
	return e.Err
}

// InsufficientFundsError – баланс ниже требуемого резерва.
type InsufficientFundsError struct {
	Observed uint64
	Required uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d lamports, required %d lamports",
		e.Observed, e.Required)
}

// TxErrorKind классифицирует сбой одной попытки минта.
type TxErrorKind string

const (
	KindBuild    TxErrorKind = "build"
	KindSigning  TxErrorKind = "signing"
	KindRejected TxErrorKind = "rejected"
	KindRPC      TxErrorKind = "rpc"
	KindTimeout  TxErrorKind = "timeout"
	KindOnChain  TxErrorKind = "onchain"
)

// TransactionError оборачивает ошибку попытки, сохраняя её текст.
type TransactionError struct {
	Kind TxErrorKind
	Err  error
}

func (e *TransactionError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error"
	}
	return e.Err.Error()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// fundsExhaustedMarkers – подстроки, по которым сбой считается нехваткой средств.
var fundsExhaustedMarkers = []string{
	"insufficient funds",
	"insufficient lamports",
	"insufficient balance",
	"attempt to debit an account but found no record of a prior credit",
}

// IsFundsExhausted сообщает, что после такого сбоя следующие попытки бессмысленны.
func IsFundsExhausted(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range fundsExhaustedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// describeFailure приводит ошибку или значение panic к тексту для пользователя.
func describeFailure(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return UnknownMintError
	case error:
		if msg := x.Error(); msg != "" {
			return msg
		}
		return UnknownMintError
	case string:
		if x != "" {
			return x
		}
		return UnknownMintError
	}
	if s := fmt.Sprint(v); s != "" {
		return s
	}
	return UnknownMintError
}
