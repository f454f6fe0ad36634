// =============================
// File: internal/mint/args.go
// =============================
package mint

import (
	"math"
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
)

// PaymentConfig – статическая конфигурация оплаты минта.
type PaymentConfig struct {
	TokenMint      solana.PublicKey
	DestinationAta solana.PublicKey
	// TokenAmount – цена одного минта в минимальных единицах токена.
	TokenAmount uint64
}

// Price возвращает цену одного минта в целых токенах.
func (p PaymentConfig) Price() float64 {
	return float64(p.TokenAmount) / TokenDecimalsDivisor
}

// batchCost умножает цену одного минта на n. При переполнении uint64
// возвращает math.MaxUint64 и false.
func batchCost(unit uint64, n int) (uint64, bool) {
	hi, lo := bits.Mul64(unit, uint64(n))
	if hi != 0 {
		return math.MaxUint64, false
	}
	return lo, true
}

// BuildGuardArgs формирует аргументы guard-ов по снимку Candy Guard.
// Отсутствующие guard-ы просто не попадают в результат.
func BuildGuardArgs(guard candymachine.Guard, payment PaymentConfig) candymachine.MintArgs {
	var args candymachine.MintArgs

	if _, ok := guard.Guards.TokenPayment(); ok {
		args.TokenPayment = &candymachine.TokenPaymentArgs{
			Mint:           payment.TokenMint,
			DestinationAta: payment.DestinationAta,
		}
	}
	if ml, ok := guard.Guards.MintLimit(); ok {
		args.MintLimit = &candymachine.MintLimitArgs{ID: ml.ID}
	}
	return args
}
