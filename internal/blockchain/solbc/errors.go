// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccountNotFound возникает, когда RPC вернул пустой аккаунт
	ErrAccountNotFound = errors.New("account not found")

	// ErrConfirmationTimeout возникает, когда подтверждение не получено за отведённое время
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

	// ErrNoEndpoints возникает при пустом списке RPC
	ErrNoEndpoints = errors.New("no RPC endpoints configured")
)

// RPCError представляет ошибку RPC с дополнительным контекстом
type RPCError struct {
	Method   string
	Endpoint string
	Err      error
}

// Error реализует интерфейс error
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *RPCError) Unwrap() error {
	return e.Err
}

// TransactionFailedError is returned when a transaction landed but the
// runtime reported an execution error for it.
type TransactionFailedError struct {
	Signature string
	Reason    interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Reason)
}

// IsAccountNotFoundError проверяет, является ли ошибка "not found"
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccountNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
